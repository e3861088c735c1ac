// Package ast defines the parse-tree node shapes consumed by the checker.
// Nodes are plain structs carrying a source span (token.Span) per node, as
// required by spec.md §6 ("every node carries a byte-span").
package ast

import "github.com/evolbug/kailua/internal/token"

// Node is the base interface for every AST node.
type Node interface {
	Span() token.Span
}

// Statement is a Node that appears in a block.
type Statement interface {
	Node
	stmtNode()
}

// Expression is a Node that produces a value.
type Expression interface {
	Node
	exprNode()
}

// Program is the root node for one parsed source unit.
type Program struct {
	Unit       string
	Statements []Statement
}

func (p *Program) Span() token.Span {
	if len(p.Statements) == 0 {
		return token.Span{Unit: p.Unit}
	}
	return token.Span{Unit: p.Unit, Begin: p.Statements[0].Span().Begin, End: p.Statements[len(p.Statements)-1].Span().End}
}

// --- Statements ---

type Block struct {
	Statements []Statement
	Tok        token.Token
}

func (b *Block) Span() token.Span { return b.Tok.Span() }

// LocalStatement: local a, b [: Ta, Tb] = e1, e2
type LocalStatement struct {
	Tok     token.Token
	Names   []*Identifier
	Attribs []Type // parallel to Names; nil entry if unannotated
	Values  []Expression
}

func (s *LocalStatement) Span() token.Span { return s.Tok.Span() }
func (s *LocalStatement) stmtNode()        {}

// LocalFunctionStatement: local function name(params) ... end
type LocalFunctionStatement struct {
	Tok  token.Token
	Name *Identifier
	Fn   *FunctionLiteral
}

func (s *LocalFunctionStatement) Span() token.Span { return s.Tok.Span() }
func (s *LocalFunctionStatement) stmtNode()        {}

// AssignStatement: lhs1, ..., lhsn = rhs1, ..., rhsm
type AssignStatement struct {
	Tok    token.Token
	LHS    []Expression
	Values []Expression
}

func (s *AssignStatement) Span() token.Span { return s.Tok.Span() }
func (s *AssignStatement) stmtNode()        {}

// FunctionDeclStatement: function p.a.b.c(...)  or  function p:m(...)
// desugars, per spec.md §4.6, to an indexed assignment of a function value.
type FunctionDeclStatement struct {
	Tok      token.Token
	Target   Expression // Identifier or chain of FieldExpr
	IsMethod bool       // true for function p:m(...) sugar
	Fn       *FunctionLiteral
}

func (s *FunctionDeclStatement) Span() token.Span { return s.Tok.Span() }
func (s *FunctionDeclStatement) stmtNode()        {}

type ExpressionStatement struct {
	Tok  token.Token
	Expr Expression
}

func (s *ExpressionStatement) Span() token.Span { return s.Tok.Span() }
func (s *ExpressionStatement) stmtNode()        {}

type DoStatement struct {
	Tok  token.Token
	Body *Block
}

func (s *DoStatement) Span() token.Span { return s.Tok.Span() }
func (s *DoStatement) stmtNode()        {}

type IfClause struct {
	Cond Expression
	Body *Block
}

type IfStatement struct {
	Tok     token.Token
	Clauses []IfClause // [0] is the `if`, rest are `elseif`
	Else    *Block     // nil if no else
}

func (s *IfStatement) Span() token.Span { return s.Tok.Span() }
func (s *IfStatement) stmtNode()        {}

type WhileStatement struct {
	Tok  token.Token
	Cond Expression
	Body *Block
}

func (s *WhileStatement) Span() token.Span { return s.Tok.Span() }
func (s *WhileStatement) stmtNode()        {}

type RepeatStatement struct {
	Tok  token.Token
	Body *Block
	Cond Expression
}

func (s *RepeatStatement) Span() token.Span { return s.Tok.Span() }
func (s *RepeatStatement) stmtNode()        {}

// NumericForStatement: for i = a, b[, c] do ... end
type NumericForStatement struct {
	Tok   token.Token
	Name  *Identifier
	Start Expression
	Stop  Expression
	Step  Expression // nil if omitted
	Body  *Block
}

func (s *NumericForStatement) Span() token.Span { return s.Tok.Span() }
func (s *NumericForStatement) stmtNode()        {}

// GenericForStatement: for v1, v2 in e1, e2, e3 do ... end
type GenericForStatement struct {
	Tok   token.Token
	Names []*Identifier
	Exprs []Expression
	Body  *Block
}

func (s *GenericForStatement) Span() token.Span { return s.Tok.Span() }
func (s *GenericForStatement) stmtNode()        {}

type ReturnStatement struct {
	Tok    token.Token
	Values []Expression
}

func (s *ReturnStatement) Span() token.Span { return s.Tok.Span() }
func (s *ReturnStatement) stmtNode()        {}

type BreakStatement struct {
	Tok token.Token
}

func (s *BreakStatement) Span() token.Span { return s.Tok.Span() }
func (s *BreakStatement) stmtNode()        {}

// AssumeStatement: --# assume name[.path...]: T   or   --# assume global name: T
type AssumeStatement struct {
	Tok    token.Token
	Global bool
	Name   *Identifier
	Path   []string // additional field segments, may be empty
	Type   Type
}

func (s *AssumeStatement) Span() token.Span { return s.Tok.Span() }
func (s *AssumeStatement) stmtNode()        {}

// TypeAliasStatement: --# type [local|global] NAME = T
type TypeAliasVisibility int

const (
	VisScoped TypeAliasVisibility = iota
	VisLocal
	VisGlobal
)

type TypeAliasStatement struct {
	Tok        token.Token
	Visibility TypeAliasVisibility
	Name       *Identifier
	Body       Type
}

func (s *TypeAliasStatement) Span() token.Span { return s.Tok.Span() }
func (s *TypeAliasStatement) stmtNode()        {}

// OpenStatement: --# open NAME
type OpenStatement struct {
	Tok  token.Token
	Name string
}

func (s *OpenStatement) Span() token.Span { return s.Tok.Span() }
func (s *OpenStatement) stmtNode()        {}

// --- Expressions ---

type Identifier struct {
	Tok   token.Token
	Value string
}

func (e *Identifier) Span() token.Span { return e.Tok.Span() }
func (e *Identifier) exprNode()        {}

type NilLiteral struct{ Tok token.Token }

func (e *NilLiteral) Span() token.Span { return e.Tok.Span() }
func (e *NilLiteral) exprNode()        {}

type BoolLiteral struct {
	Tok   token.Token
	Value bool
}

func (e *BoolLiteral) Span() token.Span { return e.Tok.Span() }
func (e *BoolLiteral) exprNode()        {}

type NumberLiteral struct {
	Tok      token.Token
	IsInt    bool
	IntVal   int64
	FloatVal float64
}

func (e *NumberLiteral) Span() token.Span { return e.Tok.Span() }
func (e *NumberLiteral) exprNode()        {}

type StringLiteral struct {
	Tok   token.Token
	Value string
}

func (e *StringLiteral) Span() token.Span { return e.Tok.Span() }
func (e *StringLiteral) exprNode()        {}

type VarargExpr struct{ Tok token.Token }

func (e *VarargExpr) Span() token.Span { return e.Tok.Span() }
func (e *VarargExpr) exprNode()        {}

// Param is one parameter of a FunctionLiteral, with an optional explicit
// annotation (from --: on the param, or parsed from a --v function(...)
// attached to the literal).
type Param struct {
	Name *Identifier
	Type Type // nil if not yet known — inference fills a fresh TypeVar
}

type FunctionLiteral struct {
	Tok        token.Token
	Params     []*Param
	IsVararg   bool
	VarargType Type // declared tail type for "...", nil if untyped
	ReturnType []Type
	Body       *Block
	// Attr holds the built-in attribute name from a --v [attr] function(...)
	// annotation (e.g. "assert", "assert_not"), empty if none.
	Attr string
}

func (e *FunctionLiteral) Span() token.Span { return e.Tok.Span() }
func (e *FunctionLiteral) exprNode()        {}

type BinaryExpr struct {
	Tok   token.Token
	Op    token.Type
	Left  Expression
	Right Expression
}

func (e *BinaryExpr) Span() token.Span { return e.Tok.Span() }
func (e *BinaryExpr) exprNode()        {}

type UnaryExpr struct {
	Tok     token.Token
	Op      token.Type
	Operand Expression
}

func (e *UnaryExpr) Span() token.Span { return e.Tok.Span() }
func (e *UnaryExpr) exprNode()        {}

// IndexExpr: t[k]
type IndexExpr struct {
	Tok   token.Token
	Obj   Expression
	Index Expression
}

func (e *IndexExpr) Span() token.Span { return e.Tok.Span() }
func (e *IndexExpr) exprNode()        {}

// FieldExpr: t.k  (sugar for IndexExpr with a string-literal key)
type FieldExpr struct {
	Tok   token.Token
	Obj   Expression
	Field string
}

func (e *FieldExpr) Span() token.Span { return e.Tok.Span() }
func (e *FieldExpr) exprNode()        {}

type CallExpr struct {
	Tok  token.Token
	Fn   Expression
	Args []Expression
}

func (e *CallExpr) Span() token.Span { return e.Tok.Span() }
func (e *CallExpr) exprNode()        {}

// MethodCallExpr: obj:method(args)  (sugar for obj.method(obj, args))
type MethodCallExpr struct {
	Tok    token.Token
	Obj    Expression
	Method string
	Args   []Expression
}

func (e *MethodCallExpr) Span() token.Span { return e.Tok.Span() }
func (e *MethodCallExpr) exprNode()        {}

type ParenExpr struct {
	Tok   token.Token
	Inner Expression
}

func (e *ParenExpr) Span() token.Span { return e.Tok.Span() }
func (e *ParenExpr) exprNode()        {}

// TableField is one entry of a TableConstructor: either positional
// (Key == nil), string/ident-keyed ({name = v}), or bracket-keyed
// ({[k] = v}, Key must be a compile-time-known literal per spec.md §4.5).
type TableField struct {
	Key   Expression // nil for positional entries
	Value Expression
}

type TableConstructor struct {
	Tok    token.Token
	Fields []TableField
}

func (e *TableConstructor) Span() token.Span { return e.Tok.Span() }
func (e *TableConstructor) exprNode()        {}
