package checker

import (
	"github.com/evolbug/kailua/internal/ast"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/typesystem"
)

// namedPrimitives maps the reserved type-keyword spellings to their
// typesystem.Type, checked before falling back to a ClassEnv typedef
// lookup (spec.md §3's closed primitive set).
var namedPrimitives = map[string]func() typesystem.Type{
	"nil":      func() typesystem.Type { return typesystem.Nil{} },
	"boolean":  func() typesystem.Type { return typesystem.Bool{} },
	"number":   func() typesystem.Type { return typesystem.Number{} },
	"integer":  func() typesystem.Type { return typesystem.Integer{} },
	"string":   func() typesystem.Type { return typesystem.String{} },
	"thread":   func() typesystem.Type { return typesystem.Thread{} },
	"userdata": func() typesystem.Type { return typesystem.UserData{} },
	"any":      func() typesystem.Type { return typesystem.Any{} },
	"table":    func() typesystem.Type { return typesystem.Table{Kind: typesystem.ShapeAll} },
	"dynamic":  func() typesystem.Type { return typesystem.Dynamic{} },
}

// ResolveType resolves one parsed ast.Type node into a typesystem.Type,
// grounded on the teacher's analyzer/types_builder.go (surface type
// syntax -> typesystem.Type), consulting c.Env for user typedefs and
// wrapping the nil-acceptance flag into a union with Nil per spec.md §3.
func (c *Checker) ResolveType(t ast.Type) typesystem.Type {
	if t == nil {
		return typesystem.Dynamic{}
	}
	base := c.resolveTypeBase(t)
	switch ast.GetFlag(t) {
	case ast.FlagAccepts:
		return typesystem.NormalizeUnion([]typesystem.Type{base, typesystem.Nil{}})
	default:
		return base
	}
}

func (c *Checker) resolveTypeBase(t ast.Type) typesystem.Type {
	switch n := t.(type) {
	case *ast.NamedType:
		if mk, ok := namedPrimitives[n.Name]; ok {
			return mk()
		}
		if td, ok := c.Env.Resolve(n.Name); ok {
			return td
		}
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrUndefined, n.Span(), n.Name))
		return typesystem.Dynamic{}

	case *ast.LiteralType:
		switch n.Kind {
		case ast.LitInt:
			return typesystem.IntLit{Value: n.IntVal}
		case ast.LitStr:
			return typesystem.StrLit{Value: n.StrVal}
		case ast.LitBool:
			return typesystem.BoolLit{Value: n.BoolVal}
		}
		return typesystem.Dynamic{}

	case *ast.UnionTypeNode:
		members := make([]typesystem.Type, len(n.Types))
		for i, m := range n.Types {
			members[i] = c.resolveTypeBase(m)
		}
		return typesystem.NormalizeUnion(members)

	case *ast.ConstTypeNode:
		// const only changes how this type behaves as a *slot* (mode),
		// not the type itself; a bare reference to `const T` outside of
		// a slot context (e.g. inside a union) collapses to T.
		return c.resolveTypeBase(n.Inner)

	case *ast.VectorTypeNode:
		elemMode := typesystem.Var
		if _, ok := n.Elem.(*ast.ConstTypeNode); ok {
			elemMode = typesystem.Const
		}
		return typesystem.Table{
			Kind: typesystem.ShapeArray,
			Elem: typesystem.NewSlot(c.ResolveType(n.Elem), elemMode),
		}

	case *ast.MapTypeNode:
		valMode := typesystem.Var
		if _, ok := n.Val.(*ast.ConstTypeNode); ok {
			valMode = typesystem.Const
		}
		return typesystem.Table{
			Kind:  typesystem.ShapeMap,
			Key:   c.ResolveType(n.Key),
			Value: typesystem.NewSlot(c.ResolveType(n.Val), valMode),
		}

	case *ast.RecordTypeNode:
		fields := map[string]*typesystem.Slot{}
		for _, f := range n.Fields {
			mode := typesystem.Var
			if _, ok := f.Type.(*ast.ConstTypeNode); ok {
				mode = typesystem.Const
			}
			fields[f.Name] = typesystem.NewSlot(c.ResolveType(f.Type), mode)
		}
		tbl := typesystem.Table{Kind: typesystem.ShapeRecord, Fields: fields}
		if n.Open {
			rv := c.Consts.FreshRow()
			for name, slot := range fields {
				_ = c.Consts.CommitField(rv, name, slot)
			}
			tbl.Row = rv
		}
		return tbl

	case *ast.TupleTypeNode:
		elems := make([]*typesystem.Slot, len(n.Elems))
		for i, e := range n.Elems {
			mode := typesystem.Var
			if _, ok := e.(*ast.ConstTypeNode); ok {
				mode = typesystem.Const
			}
			elems[i] = typesystem.NewSlot(c.ResolveType(e), mode)
		}
		return typesystem.Table{Kind: typesystem.ShapeTuple, Elems: elems}

	case *ast.FunctionTypeNode:
		args := typesystem.TySeq{}
		for _, p := range n.Params {
			args.Types = append(args.Types, c.ResolveType(p.Type))
		}
		if n.IsVariadic {
			if n.VarargType != nil {
				args.Tail = c.ResolveType(n.VarargType)
			} else {
				args.Tail = typesystem.Dynamic{}
			}
		}
		rets := typesystem.TySeq{}
		for _, r := range n.Returns {
			rets.Types = append(rets.Types, c.ResolveType(r))
		}
		return typesystem.Function{Args: args, Returns: rets}

	case *ast.AttrTypeNode:
		if !typesystem.IsKnownBuiltinAttr(n.Attr) {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.WarnUnknownAttribute, n.Span(), n.Attr))
		}
		return typesystem.BuiltinAttr{Attr: n.Attr, Inner: c.ResolveType(n.Inner)}

	default:
		return typesystem.Dynamic{}
	}
}

// ResolveReturns builds a TySeq from a function literal's parsed return
// annotations (spec.md §4.5's `-->` syntax), used both for a declared
// signature and for validating inferred `return` statements against it.
func (c *Checker) ResolveReturns(types []ast.Type) typesystem.TySeq {
	seq := typesystem.TySeq{}
	for _, t := range types {
		seq.Types = append(seq.Types, c.ResolveType(t))
	}
	return seq
}
