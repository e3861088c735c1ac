package ast

import "github.com/evolbug/kailua/internal/token"

// NilFlag records the explicit `?`/`!` nil-acceptance suffix on a type
// annotation (spec.md §3). FlagDefault means no suffix was written — the
// checker decides nil-acceptance from context (e.g. local slot kind).
type NilFlag int

const (
	FlagDefault NilFlag = iota
	FlagAccepts         // T?
	FlagRejects         // T!
)

// Type is a parsed type-annotation node (spec.md §6 type syntax), distinct
// from typesystem.Type: this is surface syntax the checker's types_builder
// equivalent (internal/checker/types_builder.go) resolves into a
// typesystem.Type against the current ScopeContext/ClassEnv.
type Type interface {
	Node
	typeNode()
}

// NamedType covers both primitive keywords (nil, boolean, number, integer,
// string, thread, userdata, any, table, dynamic) and user-defined alias
// names. `function` types parse to FunctionTypeNode instead.
type NamedType struct {
	Tok  token.Token
	Name string
	Flag NilFlag
}

func (t *NamedType) Span() token.Span { return t.Tok.Span() }
func (t *NamedType) typeNode()        {}

// LiteralType: 42, 'str', true/false as a type.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitStr
	LitBool
)

type LiteralType struct {
	Tok     token.Token
	Kind    LiteralKind
	IntVal  int64
	StrVal  string
	BoolVal bool
	Flag    NilFlag
}

func (t *LiteralType) Span() token.Span { return t.Tok.Span() }
func (t *LiteralType) typeNode()        {}

type UnionTypeNode struct {
	Tok   token.Token
	Types []Type
	Flag  NilFlag
}

func (t *UnionTypeNode) Span() token.Span { return t.Tok.Span() }
func (t *UnionTypeNode) typeNode()        {}

// ConstTypeNode: const T
type ConstTypeNode struct {
	Tok   token.Token
	Inner Type
}

func (t *ConstTypeNode) Span() token.Span { return t.Tok.Span() }
func (t *ConstTypeNode) typeNode()        {}

// VectorTypeNode: vector<T>  (maps to typesystem Table{Array})
type VectorTypeNode struct {
	Tok  token.Token
	Elem Type
	Flag NilFlag
}

func (t *VectorTypeNode) Span() token.Span { return t.Tok.Span() }
func (t *VectorTypeNode) typeNode()        {}

// MapTypeNode: map<K, V>
type MapTypeNode struct {
	Tok  token.Token
	Key  Type
	Val  Type
	Flag NilFlag
}

func (t *MapTypeNode) Span() token.Span { return t.Tok.Span() }
func (t *MapTypeNode) typeNode()        {}

// RecordTypeNode: { k1 = T1, k2 = T2, ... } with optional trailing "..."
// (row-open marker).
type RecordFieldNode struct {
	Name string
	Type Type
}

type RecordTypeNode struct {
	Tok    token.Token
	Fields []RecordFieldNode
	Open   bool // trailing "..."
	Flag   NilFlag
}

func (t *RecordTypeNode) Span() token.Span { return t.Tok.Span() }
func (t *RecordTypeNode) typeNode()        {}

// TupleTypeNode: { T1, T2, ... }
type TupleTypeNode struct {
	Tok   token.Token
	Elems []Type
	Flag  NilFlag
}

func (t *TupleTypeNode) Span() token.Span { return t.Tok.Span() }
func (t *TupleTypeNode) typeNode()        {}

// FunctionTypeNode: function(a1: T1, ...: Tv) --> (R1, ...)
type FunctionParamNode struct {
	Name string // may be empty (anonymous)
	Type Type
}

type FunctionTypeNode struct {
	Tok        token.Token
	Params     []FunctionParamNode
	IsVariadic bool
	VarargType Type // type of "...", nil if non-variadic
	Returns    []Type
	Flag       NilFlag
}

func (t *FunctionTypeNode) Span() token.Span { return t.Tok.Span() }
func (t *FunctionTypeNode) typeNode()        {}

// AttrTypeNode: [attr] T
type AttrTypeNode struct {
	Tok   token.Token
	Attr  string
	Inner Type
}

func (t *AttrTypeNode) Span() token.Span { return t.Tok.Span() }
func (t *AttrTypeNode) typeNode()        {}

// GetFlag returns the nil-acceptance flag recorded on a type node, or
// FlagDefault if the node kind doesn't carry one (e.g. ConstTypeNode,
// AttrTypeNode — nil-acceptance there is inherited from the inner type).
func GetFlag(t Type) NilFlag {
	switch n := t.(type) {
	case *NamedType:
		return n.Flag
	case *LiteralType:
		return n.Flag
	case *UnionTypeNode:
		return n.Flag
	case *VectorTypeNode:
		return n.Flag
	case *MapTypeNode:
		return n.Flag
	case *RecordTypeNode:
		return n.Flag
	case *TupleTypeNode:
		return n.Flag
	case *FunctionTypeNode:
		return n.Flag
	default:
		return FlagDefault
	}
}
