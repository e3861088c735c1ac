package checker

import (
	"github.com/evolbug/kailua/internal/ast"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/narrowing"
	"github.com/evolbug/kailua/internal/token"
	"github.com/evolbug/kailua/internal/typesystem"
)

// CheckExpr types one expression, grounded on the teacher's
// analyzer/expressions.go dispatch switch, caching the result in
// c.TypeMap the way the teacher caches into ctx.TypeMap.
func (c *Checker) CheckExpr(e ast.Expression) typesystem.Type {
	t := c.checkExpr(e)
	return c.recordType(e, t)
}

func (c *Checker) checkExpr(e ast.Expression) typesystem.Type {
	switch n := e.(type) {
	case *ast.Identifier:
		return c.checkIdentifier(n)
	case *ast.NilLiteral:
		return typesystem.Nil{}
	case *ast.BoolLiteral:
		return typesystem.BoolLit{Value: n.Value}
	case *ast.NumberLiteral:
		if n.IsInt {
			return typesystem.IntLit{Value: n.IntVal}
		}
		return typesystem.Number{}
	case *ast.StringLiteral:
		return typesystem.StrLit{Value: n.Value}
	case *ast.VarargExpr:
		return c.currentVararg()
	case *ast.FunctionLiteral:
		return c.checkFunctionLiteral(n)
	case *ast.BinaryExpr:
		return c.checkBinaryExpr(n)
	case *ast.UnaryExpr:
		return c.checkUnaryExpr(n)
	case *ast.IndexExpr:
		return c.checkIndexExpr(n)
	case *ast.FieldExpr:
		return c.checkFieldExpr(n)
	case *ast.CallExpr:
		return c.checkCallExpr(n)
	case *ast.MethodCallExpr:
		return c.checkMethodCallExpr(n)
	case *ast.ParenExpr:
		return c.CheckExpr(n.Inner)
	case *ast.TableConstructor:
		return c.checkTableConstructor(n)
	default:
		return typesystem.Dynamic{}
	}
}

func (c *Checker) checkIdentifier(n *ast.Identifier) typesystem.Type {
	if slot, ok := c.Scope.Lookup(n.Value); ok {
		if !slot.Initialized && slot.Mode != typesystem.Var {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrUninitialized, n.Span(), n.Value))
		}
		return c.resolveVar(slot.EffectiveType())
	}
	if slot, ok := c.Scope.LookupGlobal(n.Value); ok {
		return c.resolveVar(slot.EffectiveType())
	}
	c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrUndefined, n.Span(), n.Value))
	return typesystem.Dynamic{}
}

// resolveVar reads an unannotated parameter's fresh type variable back as
// its bound type once applyCall has resolved it (first-call-wins), or as
// Dynamic while it's still unbound — the body is checked once, ahead of
// any call site, so an as-yet-unbound parameter must stay exactly as
// permissive as the Dynamic it replaces.
func (c *Checker) resolveVar(t typesystem.Type) typesystem.Type {
	if tv, ok := t.(typesystem.TypeVar); ok {
		if c.Consts.IsResolved(tv) {
			return c.Consts.Resolve(tv)
		}
		return typesystem.Dynamic{}
	}
	return t
}

func (c *Checker) currentVararg() typesystem.Type {
	if len(c.varargStack) == 0 {
		return typesystem.Dynamic{}
	}
	return c.varargStack[len(c.varargStack)-1]
}

func (c *Checker) checkFunctionLiteral(n *ast.FunctionLiteral) typesystem.Type {
	c.Scope.PushFunction()
	c.Env.EnterBlock()
	defer func() {
		c.Env.LeaveBlock()
		c.Scope.Pop()
	}()

	var paramTypes []typesystem.Type
	for i, param := range n.Params {
		var pt typesystem.Type
		if param.Type != nil {
			pt = c.ResolveType(param.Type)
		} else if c.Config.Features.NoImplicitFuncSig {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrTypeMismatch, param.Name.Span(),
				"<annotated parameter>", "<unannotated parameter>"))
			pt = typesystem.Dynamic{}
		} else {
			// A fresh type variable per unannotated argument (spec.md §4.5),
			// bound by applyCall the first time this function is actually
			// called (first-call-wins, per the Open Question resolution
			// below). Inside this body, before any binding exists, it reads
			// back as Dynamic via resolveVar — the same permissiveness
			// Dynamic always had, just now backed by a real, bindable slot.
			pt = c.Consts.Fresh()
		}
		paramTypes = append(paramTypes, pt)
		slot := typesystem.NewSlot(pt, typesystem.Var)
		slot.Initialized = true
		c.Scope.Declare(param.Name.Value, slot)
		_ = i
	}

	var varargType typesystem.Type = typesystem.Dynamic{}
	if n.IsVararg {
		if n.VarargType != nil {
			varargType = c.ResolveType(n.VarargType)
		}
		c.varargStack = append(c.varargStack, varargType)
		defer func() { c.varargStack = c.varargStack[:len(c.varargStack)-1] }()
	}

	declaredReturns := len(n.ReturnType) > 0
	var declaredSeq typesystem.TySeq
	if declaredReturns {
		declaredSeq = c.ResolveReturns(n.ReturnType)
	}

	c.returnStack = append(c.returnStack, nil)
	c.loopDepth = 0
	c.CheckBlock(n.Body)
	collected := c.returnStack[len(c.returnStack)-1]
	c.returnStack = c.returnStack[:len(c.returnStack)-1]

	retSeq := declaredSeq
	if !declaredReturns {
		retSeq = typesystem.TySeq{Types: collected}
	} else {
		for i, got := range collected {
			if i < len(declaredSeq.Types) {
				if err := typesystem.IsSubtype(got, declaredSeq.Types[i]); err != nil {
					c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrTypeMismatch, n.Span(),
						declaredSeq.Types[i].String(), got.String()))
				}
			}
		}
	}

	args := typesystem.TySeq{Types: paramTypes}
	if n.IsVararg {
		args.Tail = varargType
	}
	fn := typesystem.Function{Args: args, Returns: retSeq}
	if n.Attr != "" {
		if !typesystem.IsKnownBuiltinAttr(n.Attr) {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.WarnUnknownAttribute, n.Span(), n.Attr))
		}
		return typesystem.BuiltinAttr{Attr: n.Attr, Inner: fn}
	}
	return fn
}

func (c *Checker) checkBinaryExpr(n *ast.BinaryExpr) typesystem.Type {
	left := c.CheckExpr(n.Left)

	switch n.Op {
	case "and":
		ref := narrowing.FromCondition(n.Left, c.typeOfForNarrowing)
		c.applyRefinement(ref.Truthy)
		right := c.CheckExpr(n.Right)
		c.undoRefinement(ref.Truthy)
		return typesystem.AndResult(left, right)
	case "or":
		ref := narrowing.FromCondition(n.Left, c.typeOfForNarrowing)
		c.applyRefinement(ref.Falsy)
		right := c.CheckExpr(n.Right)
		c.undoRefinement(ref.Falsy)
		return typesystem.OrResult(left, right)
	}

	right := c.CheckExpr(n.Right)
	result, err := typesystem.BinaryOpResult(n.Op, left, right)
	if err != nil {
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrOperatorMisuse, n.Span(), err.Error()))
		return typesystem.Dynamic{}
	}
	return result
}

func (c *Checker) checkUnaryExpr(n *ast.UnaryExpr) typesystem.Type {
	operand := c.CheckExpr(n.Operand)
	result, err := typesystem.UnaryOpResult(n.Op, operand)
	if err != nil {
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrOperatorMisuse, n.Span(), err.Error()))
		return typesystem.Dynamic{}
	}
	return result
}

// typeOfForNarrowing adapts CheckExpr to narrowing.TypeOfFunc.
func (c *Checker) typeOfForNarrowing(e ast.Expression) typesystem.Type {
	if t, ok := c.TypeMap[e]; ok {
		return t
	}
	return c.CheckExpr(e)
}

// applyRefinement / undoRefinement temporarily narrow named slots while
// checking the right-hand side of `and`/`or` and the body of an `if`,
// restoring the prior type afterward (spec.md §4.4: narrowing only holds
// within the branch it refines).
func (c *Checker) applyRefinement(ref map[string]typesystem.Type) {
	for name, t := range ref {
		if slot, ok := c.Scope.Lookup(name); ok {
			cp := *slot
			c.narrowStack = append(c.narrowStack, narrowFrame{name: name, prev: slot, isGlobal: false})
			narrowed := cp
			narrowed.Type = t
			c.Scope.Restore(name, &narrowed)
		} else if slot, ok := c.Scope.LookupGlobal(name); ok {
			cp := *slot
			c.narrowStack = append(c.narrowStack, narrowFrame{name: name, prev: slot, isGlobal: true})
			narrowed := cp
			narrowed.Type = t
			c.Scope.DeclareGlobal(name, &narrowed)
		}
	}
}

func (c *Checker) undoRefinement(ref map[string]typesystem.Type) {
	for i := len(c.narrowStack) - 1; i >= 0; i-- {
		f := c.narrowStack[i]
		if _, ok := ref[f.name]; !ok {
			continue
		}
		if f.isGlobal {
			c.Scope.DeclareGlobal(f.name, f.prev)
		} else {
			c.Scope.Restore(f.name, f.prev)
		}
		c.narrowStack = append(c.narrowStack[:i], c.narrowStack[i+1:]...)
	}
}

type narrowFrame struct {
	name     string
	prev     *typesystem.Slot
	isGlobal bool
}

func (c *Checker) checkIndexExpr(n *ast.IndexExpr) typesystem.Type {
	obj := c.CheckExpr(n.Obj)
	idx := c.CheckExpr(n.Index)
	if lit, ok := idx.(typesystem.StrLit); ok {
		return c.indexByName(obj, lit.Value, n)
	}
	return c.indexDynamic(obj, idx, n)
}

func (c *Checker) checkFieldExpr(n *ast.FieldExpr) typesystem.Type {
	obj := c.CheckExpr(n.Obj)
	return c.indexByName(obj, n.Field, n)
}

func (c *Checker) indexByName(obj typesystem.Type, name string, n ast.Node) typesystem.Type {
	switch t := obj.(type) {
	case typesystem.Dynamic, typesystem.Any:
		return typesystem.Dynamic{}
	case typesystem.Table:
		if t.Kind == typesystem.ShapeRecord {
			if slot, ok := t.Fields[name]; ok {
				return slot.EffectiveType()
			}
			if t.Row != nil {
				return typesystem.Dynamic{}
			}
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(),
				obj.String(), "no field '"+name+"'"))
			return typesystem.Dynamic{}
		}
		if t.Kind == typesystem.ShapeAll {
			return typesystem.Dynamic{}
		}
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(),
			obj.String(), "not a record"))
		return typesystem.Dynamic{}
	case typesystem.Union:
		var results []typesystem.Type
		for _, m := range t.Types {
			results = append(results, c.indexByName(m, name, n))
		}
		return typesystem.NormalizeUnion(results)
	default:
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(),
			obj.String(), "not indexable"))
		return typesystem.Dynamic{}
	}
}

func (c *Checker) indexDynamic(obj, idx typesystem.Type, n ast.Node) typesystem.Type {
	switch t := obj.(type) {
	case typesystem.Dynamic, typesystem.Any:
		return typesystem.Dynamic{}
	case typesystem.Table:
		switch t.Kind {
		case typesystem.ShapeArray:
			if err := typesystem.IsSubtype(idx, typesystem.Integer{}); err != nil {
				c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(),
					obj.String(), "array index must be an integer"))
			}
			return typesystem.NormalizeUnion([]typesystem.Type{t.Elem.EffectiveType(), typesystem.Nil{}})
		case typesystem.ShapeMap:
			if err := typesystem.IsSubtype(idx, t.Key); err != nil {
				c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(),
					obj.String(), err.Error()))
			}
			return typesystem.NormalizeUnion([]typesystem.Type{t.Value.EffectiveType(), typesystem.Nil{}})
		case typesystem.ShapeTuple:
			if lit, ok := idx.(typesystem.IntLit); ok && lit.Value >= 1 && int(lit.Value) <= len(t.Elems) {
				return t.Elems[lit.Value-1].EffectiveType()
			}
			return typesystem.Dynamic{}
		case typesystem.ShapeAll:
			return typesystem.Dynamic{}
		}
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(),
			obj.String(), "cannot index with a computed key"))
		return typesystem.Dynamic{}
	default:
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(),
			obj.String(), "not indexable"))
		return typesystem.Dynamic{}
	}
}

func (c *Checker) checkCallExpr(n *ast.CallExpr) typesystem.Type {
	if id, ok := n.Fn.(*ast.Identifier); ok && id.Value == "require" {
		return c.checkRequireCall(n)
	}
	fnType := c.CheckExpr(n.Fn)
	argTypes := make([]typesystem.Type, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = c.CheckExpr(a)
	}
	return c.applyCall(fnType, argTypes, n)
}

func (c *Checker) checkMethodCallExpr(n *ast.MethodCallExpr) typesystem.Type {
	objType := c.CheckExpr(n.Obj)
	fnType := c.indexByName(objType, n.Method, n)
	argTypes := make([]typesystem.Type, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = c.CheckExpr(a)
	}
	return c.applyCall(fnType, argTypes, n)
}

func (c *Checker) applyCall(fnType typesystem.Type, argTypes []typesystem.Type, n ast.Node) typesystem.Type {
	if attr, ok := fnType.(typesystem.BuiltinAttr); ok {
		return c.applyBuiltinAttrCall(attr, argTypes, n)
	}
	switch t := fnType.(type) {
	case typesystem.Dynamic, typesystem.Any:
		return typesystem.Dynamic{}
	case typesystem.Function:
		for i, param := range t.Args.Types {
			var got typesystem.Type = typesystem.Nil{}
			if i < len(argTypes) {
				got = argTypes[i]
			}
			// An unannotated parameter's fresh type variable: the first
			// call to ever reach this function binds it to that call's
			// argument type (first-call-wins); every later call is checked
			// against the now-fixed type instead of re-widening it.
			if tv, ok := param.(typesystem.TypeVar); ok {
				if c.Consts.IsResolved(tv) {
					if err := typesystem.IsSubtype(got, c.Consts.Resolve(tv)); err != nil {
						c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrCallViolation, n.Span(),
							t.String(), err.Error()))
					}
				} else if _, err := c.Consts.Bind(tv, got); err != nil {
					c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrCallViolation, n.Span(),
						t.String(), err.Error()))
				}
				continue
			}
			if err := typesystem.IsSubtype(got, param); err != nil {
				c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrCallViolation, n.Span(),
					t.String(), err.Error()))
			}
		}
		if len(t.Returns.Types) == 0 {
			return typesystem.Nil{}
		}
		if len(t.Returns.Types) == 1 {
			return t.Returns.Types[0]
		}
		elems := make([]*typesystem.Slot, len(t.Returns.Types))
		for i, rt := range t.Returns.Types {
			elems[i] = typesystem.NewSlot(rt, typesystem.Const)
		}
		return typesystem.Table{Kind: typesystem.ShapeTuple, Elems: elems}
	default:
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrCallViolation, n.Span(),
			fnType.String(), "not callable"))
		return typesystem.Dynamic{}
	}
}

// applyBuiltinAttrCall implements the assert/assert_not nominal call
// forms: `assert(x)` narrows x to its truthy residue and returns it;
// `assert_not(x)` to its falsy residue. Every other attribute, including
// assert_type, is checked as an ordinary call of the inner function.
func (c *Checker) applyBuiltinAttrCall(attr typesystem.BuiltinAttr, argTypes []typesystem.Type, n ast.Node) typesystem.Type {
	switch attr.Attr {
	case "assert":
		if len(argTypes) == 0 {
			return typesystem.Dynamic{}
		}
		return typesystem.EraseFalsy(argTypes[0])
	case "assert_not":
		if len(argTypes) == 0 {
			return typesystem.Dynamic{}
		}
		return typesystem.EraseTruthy(argTypes[0])
	default:
		if fn, ok := attr.Inner.(typesystem.Function); ok {
			return c.applyCall(fn, argTypes, n)
		}
		return typesystem.Dynamic{}
	}
}

func (c *Checker) checkRequireCall(n *ast.CallExpr) typesystem.Type {
	if len(n.Args) != 1 {
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrCallViolation, n.Span(),
			"require", "expects exactly one string argument"))
		return typesystem.Dynamic{}
	}
	lit, ok := n.Args[0].(*ast.StringLiteral)
	if !ok {
		return typesystem.Dynamic{}
	}
	return c.Require(lit.Value, n)
}

func (c *Checker) checkTableConstructor(n *ast.TableConstructor) typesystem.Type {
	var recordFields = map[string]*typesystem.Slot{}
	var firstKeySpan = map[string]token.Span{}
	var arrayTypes []typesystem.Type
	mixed := false
	anyRecord := false

	for _, f := range n.Fields {
		if f.Key == nil {
			vt := c.CheckExpr(f.Value)
			arrayTypes = append(arrayTypes, vt)
			continue
		}
		if lit, ok := f.Key.(*ast.StringLiteral); ok {
			vt := c.CheckExpr(f.Value)
			if prior, seen := firstKeySpan[lit.Value]; seen {
				c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrRedefinition, lit.Span(), lit.Value).
					WithCause(prior, "the key '"+lit.Value+"' is duplicated; first assigned here"))
			} else {
				firstKeySpan[lit.Value] = lit.Span()
			}
			recordFields[lit.Value] = typesystem.NewSlot(vt, typesystem.Var)
			anyRecord = true
			continue
		}
		// Bracket-keyed entry with a non-string-literal key: evaluated for
		// side effects/diagnostics, folded into a map-shaped fallback.
		c.CheckExpr(f.Key)
		c.CheckExpr(f.Value)
		mixed = true
	}

	if anyRecord && len(arrayTypes) > 0 {
		mixed = true
	}
	if mixed {
		return typesystem.Table{Kind: typesystem.ShapeAll}
	}
	if anyRecord {
		rv := c.Consts.FreshRow()
		for name, slot := range recordFields {
			_ = c.Consts.CommitField(rv, name, slot) // fresh row, every field commits cleanly
		}
		return typesystem.Table{Kind: typesystem.ShapeRecord, Fields: recordFields, Row: rv}
	}
	if len(arrayTypes) == 0 {
		return typesystem.Table{Kind: typesystem.ShapeEmpty}
	}
	elem := typesystem.NormalizeUnion(arrayTypes)
	return typesystem.Table{Kind: typesystem.ShapeArray, Elem: typesystem.NewSlot(elem, typesystem.Var)}
}
