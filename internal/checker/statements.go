package checker

import (
	"github.com/evolbug/kailua/internal/ast"
	"github.com/evolbug/kailua/internal/classenv"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/narrowing"
	"github.com/evolbug/kailua/internal/scope"
	"github.com/evolbug/kailua/internal/token"
	"github.com/evolbug/kailua/internal/typesystem"
	"github.com/evolbug/kailua/pkg/embed"
)

// CheckBlock checks every statement of b in a fresh nested scope/class
// block, grounded on the teacher's Analyzer.checkBlock (push scope,
// visit statements, pop), generalized with Env.EnterBlock/LeaveBlock so
// Scoped typedefs (spec.md §4.3) expire at the same point a local would.
func (c *Checker) CheckBlock(b *ast.Block) {
	c.Scope.Push()
	c.Env.EnterBlock()
	defer func() {
		c.Env.LeaveBlock()
		c.Scope.Pop()
	}()

	unreachable := false
	for i, stmt := range b.Statements {
		if unreachable {
			if c.Config.Features.DeadCode {
				c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.WarnUnreachableCode, stmt.Span()))
			}
			break
		}
		c.CheckStmt(stmt)
		if i < len(b.Statements) {
			switch stmt.(type) {
			case *ast.ReturnStatement, *ast.BreakStatement:
				unreachable = true
			}
		}
	}
}

// CheckStmt dispatches on one statement kind, grounded on the teacher's
// Analyzer.checkStatement switch.
func (c *Checker) CheckStmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.LocalStatement:
		c.checkLocalStatement(n)
	case *ast.LocalFunctionStatement:
		c.checkLocalFunctionStatement(n)
	case *ast.AssignStatement:
		c.checkAssignStatement(n)
	case *ast.FunctionDeclStatement:
		c.checkFunctionDeclStatement(n)
	case *ast.ExpressionStatement:
		c.CheckExpr(n.Expr)
		c.checkAssertStatement(n)
	case *ast.DoStatement:
		c.CheckBlock(n.Body)
	case *ast.IfStatement:
		c.checkIfStatement(n)
	case *ast.WhileStatement:
		c.checkWhileStatement(n)
	case *ast.RepeatStatement:
		c.checkRepeatStatement(n)
	case *ast.NumericForStatement:
		c.checkNumericForStatement(n)
	case *ast.GenericForStatement:
		c.checkGenericForStatement(n)
	case *ast.ReturnStatement:
		c.checkReturnStatement(n)
	case *ast.BreakStatement:
		if c.loopDepth == 0 {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrOperatorMisuse, n.Span(), "break used outside of a loop"))
		}
	case *ast.AssumeStatement:
		c.checkAssumeStatement(n)
	case *ast.TypeAliasStatement:
		c.checkTypeAliasStatement(n)
	case *ast.OpenStatement:
		c.checkOpenStatement(n)
	}
}

// checkOpenStatement resolves `--# open NAME` against pkg/embed's
// library registry, grounded on the teacher's module-loading pattern of
// merging a VirtualPackage's Symbols into the environment on import —
// generalized here to the global scope rather than a named import
// binding, since Lua's `open` has no `as alias` form. Opening the same
// library twice in one file is a no-op (spec.md §8), and an unrecognized
// name is a ModuleError per spec.md §7 ("unknown built-in library
// name") rather than silently accepted the way an unknown *attribute*
// is.
func (c *Checker) checkOpenStatement(n *ast.OpenStatement) {
	c.Attrs.Open(n.Name)
	if !c.openLibrary(n.Name) {
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrModuleError, n.Span(), "unknown built-in library '"+n.Name+"'"))
	}
}

// openLibrary loads a pkg/embed library's globals into scope, returning
// false if name isn't a recognized library. Shared between an explicit
// `--# open NAME` directive and the project-configured Config.Open list
// (SPEC_FULL.md §4.9), so both paths agree on idempotency via c.Opened.
func (c *Checker) openLibrary(name string) bool {
	lib, ok := embed.Lookup(name)
	if !ok {
		return false
	}
	if !c.Opened.MarkOpen(name) {
		return true
	}
	for gname, t := range lib.Globals {
		c.Scope.DeclareGlobal(gname, typesystem.NewSlot(t, typesystem.Const))
	}
	return true
}

// applyConfiguredOpens loads every library named in the project config's
// Open list before checking a file's own statements, so a project can
// make lua51 (or another built-in set) ambient without every file
// repeating `--# open lua51` (SPEC_FULL.md §4.9).
func (c *Checker) applyConfiguredOpens() {
	for _, name := range c.Config.Open {
		if !c.openLibrary(name) {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrModuleError, token.Span{Unit: c.Unit}, "unknown built-in library '"+name+"' in project configuration"))
		}
	}
}

func (c *Checker) checkLocalStatement(n *ast.LocalStatement) {
	for i, name := range n.Names {
		var declared ast.Type
		if i < len(n.Attribs) {
			declared = n.Attribs[i]
		}
		var value ast.Expression
		if i < len(n.Values) {
			value = n.Values[i]
		}
		slot := c.buildLocalSlot(declared, value, name.Span())
		c.Scope.Declare(name.Value, slot)
	}
	// Extra values beyond the name list are still checked for their side
	// effects/diagnostics even though nothing binds them.
	for i := len(n.Names); i < len(n.Values); i++ {
		c.CheckExpr(n.Values[i])
	}
}

// buildLocalSlot resolves one `local name[: T] [= v]` binding into a
// Slot, implementing spec.md §3's nil-acceptance/mode rules: `!` demands
// a value now, `?` always accepts nil, unadorned accepts nil only until
// the first real assignment.
func (c *Checker) buildLocalSlot(declared ast.Type, value ast.Expression, span token.Span) *typesystem.Slot {
	flagDeclared := declared

	var resolved typesystem.Type
	mode := typesystem.Var
	if ct, ok := declared.(*ast.ConstTypeNode); ok {
		mode = typesystem.Const
		declared = ct.Inner
	}
	if declared != nil {
		resolved = c.ResolveType(declared)
	}

	if value != nil {
		valueType := c.CheckExpr(value)
		if resolved != nil {
			if err := typesystem.IsSubtype(valueType, resolved); err != nil {
				c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrTypeMismatch, value.Span(),
					resolved.String(), valueType.String()))
			}
		} else {
			resolved = valueType
			if isLiteralType(valueType) {
				mode = typesystem.Just
			}
		}
	} else if resolved == nil {
		resolved = typesystem.Dynamic{}
	}

	s := typesystem.NewSlot(resolved, mode)
	s.Initialized = value != nil

	switch ast.GetFlag(flagDeclared) {
	case ast.FlagRejects:
		s.Nil = typesystem.NilRejects
		if value == nil {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrUninitialized, span, "local"))
		}
	case ast.FlagAccepts:
		s.Nil = typesystem.NilAccepts
	default:
		if value == nil {
			s.Nil = typesystem.NilAccepts
		}
	}
	return s
}

func isLiteralType(t typesystem.Type) bool {
	switch t.(type) {
	case typesystem.IntLit, typesystem.StrLit, typesystem.BoolLit:
		return true
	default:
		return false
	}
}

func (c *Checker) checkLocalFunctionStatement(n *ast.LocalFunctionStatement) {
	slot := typesystem.NewSlot(typesystem.Dynamic{}, typesystem.Var)
	c.Scope.Declare(n.Name.Value, slot)
	fnType := c.CheckExpr(n.Fn)
	slot.Type = fnType
}

func (c *Checker) checkAssignStatement(n *ast.AssignStatement) {
	valueTypes := make([]typesystem.Type, len(n.Values))
	for i, v := range n.Values {
		valueTypes[i] = c.CheckExpr(v)
	}
	for i, lhs := range n.LHS {
		var vt typesystem.Type = typesystem.Nil{}
		if i < len(valueTypes) {
			vt = valueTypes[i]
		}
		c.checkAssignTarget(lhs, vt)
	}
}

func (c *Checker) checkFunctionDeclStatement(n *ast.FunctionDeclStatement) {
	fnType := c.CheckExpr(n.Fn)
	c.checkAssignTarget(n.Target, fnType)
}

func (c *Checker) checkAssignTarget(lhs ast.Expression, value typesystem.Type) {
	switch t := lhs.(type) {
	case *ast.Identifier:
		if slot, ok := c.Scope.Lookup(t.Value); ok {
			c.assignSlot(slot, value, t.Span())
			return
		}
		if slot, ok := c.Scope.LookupGlobal(t.Value); ok {
			c.assignSlot(slot, value, t.Span())
			return
		}
		mode := typesystem.Var
		if isLiteralType(value) {
			mode = typesystem.Just
		}
		s := typesystem.NewSlot(value, mode)
		c.Scope.DeclareGlobal(t.Value, s)

	case *ast.FieldExpr:
		obj := c.CheckExpr(t.Obj)
		c.assignField(obj, t.Field, value, t)

	case *ast.IndexExpr:
		obj := c.CheckExpr(t.Obj)
		idx := c.CheckExpr(t.Index)
		if lit, ok := idx.(typesystem.StrLit); ok {
			c.assignField(obj, lit.Value, value, t)
			return
		}
		c.assignIndexed(obj, idx, value, t)

	default:
		c.CheckExpr(lhs)
	}
}

func (c *Checker) assignSlot(slot *typesystem.Slot, value typesystem.Type, span token.Span) {
	if slot.Mode == typesystem.Const {
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrOperatorMisuse, span, "cannot assign to a const variable"))
		return
	}
	if slot.Mode == typesystem.Just && slot.WidenLiteral(value) {
		slot.Initialized = true
		return
	}
	if err := typesystem.IsSubtype(value, slot.Type); err != nil {
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrTypeMismatch, span,
			slot.Type.String(), value.String()))
	}
	slot.Initialized = true
}

func (c *Checker) assignField(obj typesystem.Type, name string, value typesystem.Type, n ast.Node) {
	tbl, ok := obj.(typesystem.Table)
	if !ok {
		if _, isDyn := obj.(typesystem.Dynamic); isDyn {
			return
		}
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(), obj.String(), "not a record"))
		return
	}
	if tbl.Kind != typesystem.ShapeRecord {
		if tbl.Kind == typesystem.ShapeAll {
			return
		}
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(), obj.String(), "not a record"))
		return
	}
	slot, ok := tbl.Fields[name]
	if !ok {
		if tbl.Row == nil {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(), obj.String(), "no field '"+name+"'"))
			return
		}
		tbl.Fields[name] = typesystem.NewSlot(value, typesystem.Var)
		return
	}
	c.assignSlot(slot, value, n.Span())
}

func (c *Checker) assignIndexed(obj, idx, value typesystem.Type, n ast.Node) {
	tbl, ok := obj.(typesystem.Table)
	if !ok {
		if _, isDyn := obj.(typesystem.Dynamic); isDyn {
			return
		}
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(), obj.String(), "not indexable"))
		return
	}
	switch tbl.Kind {
	case typesystem.ShapeArray:
		if err := typesystem.IsSubtype(idx, typesystem.Integer{}); err != nil {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(), obj.String(), "array index must be an integer"))
		}
		c.assignSlot(tbl.Elem, value, n.Span())
	case typesystem.ShapeMap:
		if err := typesystem.IsSubtype(idx, tbl.Key); err != nil {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(), obj.String(), err.Error()))
		}
		c.assignSlot(tbl.Value, value, n.Span())
	case typesystem.ShapeAll:
		return
	default:
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrIndexViolation, n.Span(), obj.String(), "cannot assign with a computed key"))
	}
}

// checkIfStatement implements spec.md §4.6's flow join: each clause body
// checks under its condition's truthy refinement (and the accumulated
// falsy refinement of every earlier clause in the chain), then every
// branch's end-of-block scope snapshot is joined back into the live
// scope as a union per slot.
func (c *Checker) checkIfStatement(n *ast.IfStatement) {
	pre := c.Scope.Snapshot()
	var ends []scope.Snapshot
	accumulatedFalsy := map[string]typesystem.Type{}

	for _, clause := range n.Clauses {
		condType := c.Consts.Resolve(c.CheckExpr(clause.Cond))
		if c.Config.Features.AlwaysTruthyWarning && !typesystem.CanBeFalsy(condType) {
			if _, unresolved := condType.(typesystem.TypeVar); !unresolved {
				c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.WarnAlwaysTruthy, clause.Cond.Span()))
			}
		}
		ref := narrowing.FromCondition(clause.Cond, c.typeOfForNarrowing)
		c.applyNarrowMap(accumulatedFalsy)
		c.applyNarrowMap(ref.Truthy)
		c.CheckBlock(clause.Body)
		ends = append(ends, c.Scope.Snapshot())
		c.restoreSnapshot(pre)
		for k, v := range ref.Falsy {
			accumulatedFalsy[k] = v
		}
	}

	if n.Else != nil {
		c.applyNarrowMap(accumulatedFalsy)
		c.CheckBlock(n.Else)
		ends = append(ends, c.Scope.Snapshot())
		c.restoreSnapshot(pre)
	} else {
		ends = append(ends, pre)
	}

	c.joinSnapshots(pre, ends)
}

// checkAssertStatement implements spec.md §4.4's bare-statement rule:
// `assert(cond)` applies cond's truthy refinement to the outer scope
// rather than to a branch, since control only reaches the following
// statements when the assertion held. Unlike checkIfStatement's
// branch-scoped narrowing, this one is never undone at a block boundary
// here — it's the same function-call narrowing applyBuiltinAttrCall
// already gives the call's own result (expressions.go), just also
// threaded into the enclosing scope's bindings.
func (c *Checker) checkAssertStatement(n *ast.ExpressionStatement) {
	call, ok := n.Expr.(*ast.CallExpr)
	if !ok {
		return
	}
	id, ok := call.Fn.(*ast.Identifier)
	if !ok || id.Value != "assert" || len(call.Args) == 0 {
		return
	}
	ref := narrowing.FromCondition(call.Args[0], c.typeOfForNarrowing)
	c.applyNarrowMap(ref.Truthy)
}

func (c *Checker) applyNarrowMap(m map[string]typesystem.Type) {
	for name, t := range m {
		if slot, ok := c.Scope.Lookup(name); ok {
			cp := *slot
			cp.Type = t
			c.Scope.Restore(name, &cp)
		} else if slot, ok := c.Scope.LookupGlobal(name); ok {
			cp := *slot
			cp.Type = t
			c.Scope.DeclareGlobal(name, &cp)
		}
	}
}

func (c *Checker) restoreSnapshot(snap scope.Snapshot) {
	for _, name := range snap.Names() {
		if slot, ok := snap.Get(name); ok {
			c.Scope.Restore(name, slot)
		}
	}
}

// joinSnapshots commits, for every name touched by any branch, the union
// of that name's type across all branch-end states (spec.md §4.6).
func (c *Checker) joinSnapshots(pre scope.Snapshot, ends []scope.Snapshot) {
	seen := map[string]bool{}
	for _, end := range ends {
		for _, name := range end.Names() {
			seen[name] = true
		}
	}
	for name := range seen {
		var types []typesystem.Type
		for _, end := range ends {
			if slot, ok := end.Get(name); ok {
				types = append(types, slot.Type)
			}
		}
		if len(types) == 0 {
			continue
		}
		joined := typesystem.NormalizeUnion(types)
		if slot, ok := c.Scope.Lookup(name); ok {
			cp := *slot
			cp.Type = joined
			c.Scope.Restore(name, &cp)
		} else if slot, ok := c.Scope.LookupGlobal(name); ok {
			cp := *slot
			cp.Type = joined
			c.Scope.DeclareGlobal(name, &cp)
		}
	}
}

func (c *Checker) checkWhileStatement(n *ast.WhileStatement) {
	pre := c.Scope.Snapshot()
	c.CheckExpr(n.Cond)
	ref := narrowing.FromCondition(n.Cond, c.typeOfForNarrowing)
	c.applyNarrowMap(ref.Truthy)
	c.loopDepth++
	c.CheckBlock(n.Body)
	c.loopDepth--
	// Non-goal (spec.md §1): full loop flow-typing. The post-loop state
	// is the pre-loop state, since the body may run zero times.
	c.restoreSnapshot(pre)
}

func (c *Checker) checkRepeatStatement(n *ast.RepeatStatement) {
	pre := c.Scope.Snapshot()
	c.Scope.Push()
	c.Env.EnterBlock()
	c.loopDepth++
	for _, stmt := range n.Body.Statements {
		c.CheckStmt(stmt)
	}
	// repeat's until-condition is evaluated in the body's own scope
	// (locals declared in the body are visible to it), unlike while's.
	c.CheckExpr(n.Cond)
	c.loopDepth--
	c.Env.LeaveBlock()
	c.Scope.Pop()
	c.restoreSnapshot(pre)
}

func (c *Checker) checkNumericForStatement(n *ast.NumericForStatement) {
	start := c.CheckExpr(n.Start)
	stop := c.CheckExpr(n.Stop)
	if err := typesystem.IsSubtype(start, typesystem.Number{}); err != nil {
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrTypeMismatch, n.Start.Span(), "number", start.String()))
	}
	if err := typesystem.IsSubtype(stop, typesystem.Number{}); err != nil {
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrTypeMismatch, n.Stop.Span(), "number", stop.String()))
	}
	if n.Step != nil {
		step := c.CheckExpr(n.Step)
		if err := typesystem.IsSubtype(step, typesystem.Number{}); err != nil {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrTypeMismatch, n.Step.Span(), "number", step.String()))
		}
	}

	pre := c.Scope.Snapshot()
	c.Scope.Push()
	c.Env.EnterBlock()
	c.Scope.Declare(n.Name.Value, typesystem.NewSlot(typesystem.Number{}, typesystem.Var))
	c.loopDepth++
	for _, stmt := range n.Body.Statements {
		c.CheckStmt(stmt)
	}
	c.loopDepth--
	c.Env.LeaveBlock()
	c.Scope.Pop()
	c.restoreSnapshot(pre)
}

func (c *Checker) checkGenericForStatement(n *ast.GenericForStatement) {
	names := c.genericForNames(n)

	pre := c.Scope.Snapshot()
	c.Scope.Push()
	c.Env.EnterBlock()
	for i, name := range n.Names {
		var t typesystem.Type = typesystem.Dynamic{}
		if i < len(names) {
			t = names[i]
		}
		c.Scope.Declare(name.Value, typesystem.NewSlot(t, typesystem.Var))
	}
	c.loopDepth++
	for _, stmt := range n.Body.Statements {
		c.CheckStmt(stmt)
	}
	c.loopDepth--
	c.Env.LeaveBlock()
	c.Scope.Pop()
	c.restoreSnapshot(pre)
}

// genericForNames types a `for v1, v2 in e1, ... do` header's loop
// variables from the iterator expression, special-casing the `ipairs`/
// `pairs` idioms spec.md §9 calls out (ipairs rejects a map-shaped
// table: its contract is "dense integer-keyed sequence").
func (c *Checker) genericForNames(n *ast.GenericForStatement) []typesystem.Type {
	if len(n.Exprs) == 0 {
		return nil
	}
	first := n.Exprs[0]
	if call, ok := first.(*ast.CallExpr); ok {
		if id, ok := call.Fn.(*ast.Identifier); ok {
			switch id.Value {
			case "ipairs":
				return c.checkIpairsCall(call)
			case "pairs":
				return c.checkPairsCall(call)
			}
		}
	}
	for _, e := range n.Exprs {
		c.CheckExpr(e)
	}
	iterType := c.CheckExpr(first)
	if fn, ok := iterType.(typesystem.Function); ok {
		return fn.Returns.Types
	}
	return nil
}

func (c *Checker) checkIpairsCall(call *ast.CallExpr) []typesystem.Type {
	var argType typesystem.Type = typesystem.Dynamic{}
	if len(call.Args) > 0 {
		argType = c.CheckExpr(call.Args[0])
	}
	if tbl, ok := argType.(typesystem.Table); ok {
		if tbl.Kind == typesystem.ShapeMap {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrCallViolation, call.Span(),
				"ipairs", "map<K, V> is not a dense sequence; ipairs requires a vector or tuple"))
			return []typesystem.Type{typesystem.Integer{}, typesystem.Dynamic{}}
		}
		if tbl.Kind == typesystem.ShapeArray {
			return []typesystem.Type{typesystem.Integer{}, tbl.Elem.EffectiveType()}
		}
	}
	return []typesystem.Type{typesystem.Integer{}, typesystem.Dynamic{}}
}

func (c *Checker) checkPairsCall(call *ast.CallExpr) []typesystem.Type {
	var argType typesystem.Type = typesystem.Dynamic{}
	if len(call.Args) > 0 {
		argType = c.CheckExpr(call.Args[0])
	}
	if tbl, ok := argType.(typesystem.Table); ok {
		switch tbl.Kind {
		case typesystem.ShapeMap:
			return []typesystem.Type{tbl.Key, tbl.Value.EffectiveType()}
		case typesystem.ShapeArray:
			return []typesystem.Type{typesystem.Integer{}, tbl.Elem.EffectiveType()}
		case typesystem.ShapeRecord:
			var values []typesystem.Type
			for _, slot := range tbl.Fields {
				values = append(values, slot.EffectiveType())
			}
			return []typesystem.Type{typesystem.String{}, typesystem.NormalizeUnion(values)}
		}
	}
	return []typesystem.Type{typesystem.Dynamic{}, typesystem.Dynamic{}}
}

func (c *Checker) checkReturnStatement(n *ast.ReturnStatement) {
	valTypes := make([]typesystem.Type, len(n.Values))
	for i, v := range n.Values {
		valTypes[i] = c.CheckExpr(v)
	}
	if len(c.returnStack) == 0 {
		return
	}
	top := c.returnStack[len(c.returnStack)-1]
	for i, t := range valTypes {
		if i < len(top) {
			top[i] = typesystem.NormalizeUnion([]typesystem.Type{top[i], t})
		} else {
			top = append(top, t)
		}
	}
	c.returnStack[len(c.returnStack)-1] = top

	if len(c.returnStack) == 1 {
		if len(valTypes) > 0 {
			c.moduleExport = valTypes[0]
		} else {
			c.moduleExport = typesystem.Nil{}
		}
	}
}

func (c *Checker) checkAssumeStatement(n *ast.AssumeStatement) {
	t := c.ResolveType(n.Type)
	if len(n.Path) == 0 {
		slot := typesystem.NewSlot(t, typesystem.Var)
		if n.Global {
			c.Scope.DeclareGlobal(n.Name.Value, slot)
		} else {
			c.Scope.Declare(n.Name.Value, slot)
		}
		return
	}

	var base *typesystem.Slot
	var ok bool
	if n.Global {
		base, ok = c.Scope.LookupGlobal(n.Name.Value)
	} else {
		base, ok = c.Scope.Lookup(n.Name.Value)
		if !ok {
			base, ok = c.Scope.LookupGlobal(n.Name.Value)
		}
	}
	if !ok {
		base = typesystem.NewSlot(typesystem.Table{Kind: typesystem.ShapeRecord, Fields: map[string]*typesystem.Slot{}, Row: c.Consts.FreshRow()}, typesystem.Var)
		if n.Global {
			c.Scope.DeclareGlobal(n.Name.Value, base)
		} else {
			c.Scope.Declare(n.Name.Value, base)
		}
	}
	cur := base
	for i, seg := range n.Path {
		tbl, ok := cur.Type.(typesystem.Table)
		if !ok || tbl.Kind != typesystem.ShapeRecord {
			c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrModuleError, n.Span(), "assume path segment '"+seg+"' is not a record"))
			return
		}
		if tbl.Fields == nil {
			tbl.Fields = map[string]*typesystem.Slot{}
		}
		if i == len(n.Path)-1 {
			leaf := typesystem.NewSlot(t, typesystem.Var)
			tbl.Fields[seg] = leaf
			if rv, ok := tbl.Row.(typesystem.RowVar); ok {
				_ = c.Consts.CommitField(rv, seg, leaf)
			}
			return
		}
		next, ok := tbl.Fields[seg]
		if !ok {
			next = typesystem.NewSlot(typesystem.Table{Kind: typesystem.ShapeRecord, Fields: map[string]*typesystem.Slot{}, Row: c.Consts.FreshRow()}, typesystem.Var)
			tbl.Fields[seg] = next
		}
		if rv, ok := tbl.Row.(typesystem.RowVar); ok {
			_ = c.Consts.CommitField(rv, seg, next)
		}
		cur = next
	}
}

func (c *Checker) checkTypeAliasStatement(n *ast.TypeAliasStatement) {
	var vis classenv.Visibility
	switch n.Visibility {
	case ast.VisLocal:
		vis = classenv.Local
	case ast.VisGlobal:
		vis = classenv.Global
	default:
		vis = classenv.Scoped
	}
	t := c.ResolveType(n.Body)
	if c.Env.Define(n.Name.Value, t, vis) {
		c.report(diagnostics.New(diagnostics.PhaseChecker, diagnostics.ErrRedefinition, n.Span(), n.Name.Value))
	}
}
