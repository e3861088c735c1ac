// Package embed declares the built-in library sets a Kailua file can
// load with `--# open NAME` (spec.md §4.3/§6), grounded on the
// teacher's internal/modules.VirtualPackage (a named bundle of
// Symbols/Types handed to the environment on import) — generalized
// from funxy's "packages live in a registry keyed by import path" model
// to this checker's flatter "a library just adds global function
// signatures" model, since Lua 5.1 has no package-qualified import
// syntax beyond the `--# open` directive itself.
package embed

import "github.com/evolbug/kailua/internal/typesystem"

// Library is one `--# open`-able declaration set: a bundle of global
// names this checker should treat as already declared once opened.
type Library struct {
	Name    string
	Globals map[string]typesystem.Type
}

var registry = map[string]*Library{}

func register(lib *Library) { registry[lib.Name] = lib }

// Lookup returns the named library, for internal/modulegraph's open.go
// to resolve a `--# open NAME` directive against.
func Lookup(name string) (*Library, bool) {
	lib, ok := registry[name]
	return lib, ok
}

func init() {
	register(lua51Library())
	register(kailuaTestLibrary())
}

func fn(args []typesystem.Type, tail typesystem.Type, rets ...typesystem.Type) typesystem.Function {
	return typesystem.Function{
		Args:    typesystem.TySeq{Types: args, Tail: tail},
		Returns: typesystem.TySeq{Types: rets},
	}
}

// lua51Library declares the subset of the Lua 5.1 standard library
// spec.md's fixture corpus exercises: the handful of global functions
// and table/string/math namespaces a type-annotated Lua file actually
// calls, rather than a full reimplementation of the manual.
func lua51Library() *Library {
	any := typesystem.Any{}
	str := typesystem.String{}
	num := typesystem.Number{}
	intT := typesystem.Integer{}
	boolT := typesystem.Bool{}
	dyn := typesystem.Dynamic{}

	vector := func(elem typesystem.Type) typesystem.Type {
		return typesystem.Table{Kind: typesystem.ShapeArray, Elem: typesystem.NewSlot(elem, typesystem.Var)}
	}
	anyVector := vector(any)

	stringLib := typesystem.Table{
		Kind: typesystem.ShapeRecord,
		Fields: map[string]*typesystem.Slot{
			"format": typesystem.NewSlot(fn([]typesystem.Type{str}, any, str), typesystem.Const),
			"len":    typesystem.NewSlot(fn([]typesystem.Type{str}, nil, intT), typesystem.Const),
			"sub":    typesystem.NewSlot(fn([]typesystem.Type{str, intT, intT}, nil, str), typesystem.Const),
			"upper":  typesystem.NewSlot(fn([]typesystem.Type{str}, nil, str), typesystem.Const),
			"lower":  typesystem.NewSlot(fn([]typesystem.Type{str}, nil, str), typesystem.Const),
			"rep":    typesystem.NewSlot(fn([]typesystem.Type{str, intT}, nil, str), typesystem.Const),
			"find":   typesystem.NewSlot(fn([]typesystem.Type{str, str}, nil, typesystem.NormalizeUnion([]typesystem.Type{intT, typesystem.Nil{}})), typesystem.Const),
			"gsub":   typesystem.NewSlot(fn([]typesystem.Type{str, str, str}, nil, str, intT), typesystem.Const),
		},
	}

	tableLib := typesystem.Table{
		Kind: typesystem.ShapeRecord,
		Fields: map[string]*typesystem.Slot{
			"insert": typesystem.NewSlot(fn([]typesystem.Type{anyVector, any}, nil), typesystem.Const),
			"remove": typesystem.NewSlot(fn([]typesystem.Type{anyVector}, nil, any), typesystem.Const),
			"concat": typesystem.NewSlot(fn([]typesystem.Type{anyVector, str}, nil, str), typesystem.Const),
			"sort":   typesystem.NewSlot(fn([]typesystem.Type{anyVector}, nil), typesystem.Const),
		},
	}

	mathLib := typesystem.Table{
		Kind: typesystem.ShapeRecord,
		Fields: map[string]*typesystem.Slot{
			"floor": typesystem.NewSlot(fn([]typesystem.Type{num}, nil, intT), typesystem.Const),
			"ceil":  typesystem.NewSlot(fn([]typesystem.Type{num}, nil, intT), typesystem.Const),
			"abs":   typesystem.NewSlot(fn([]typesystem.Type{num}, nil, num), typesystem.Const),
			"max":   typesystem.NewSlot(fn(nil, num, num), typesystem.Const),
			"min":   typesystem.NewSlot(fn(nil, num, num), typesystem.Const),
			"huge":  typesystem.NewSlot(num, typesystem.Const),
			"pi":    typesystem.NewSlot(num, typesystem.Const),
		},
	}

	return &Library{
		Name: "lua51",
		Globals: map[string]typesystem.Type{
			"print":        fn(nil, any),
			"type":         fn([]typesystem.Type{any}, nil, str),
			"tostring":     fn([]typesystem.Type{any}, nil, str),
			"tonumber":     fn([]typesystem.Type{any}, nil, typesystem.NormalizeUnion([]typesystem.Type{num, typesystem.Nil{}})),
			"pairs":        fn([]typesystem.Type{any}, nil, dyn, dyn, dyn),
			"ipairs":       fn([]typesystem.Type{any}, nil, dyn, dyn, intT),
			"error":        fn([]typesystem.Type{any}, nil),
			"assert":       fn([]typesystem.Type{any}, any, any),
			"pcall":        fn([]typesystem.Type{any}, any, boolT, any),
			"setmetatable": fn([]typesystem.Type{any, any}, nil, any),
			"getmetatable": fn([]typesystem.Type{any}, nil, any),
			"rawget":       fn([]typesystem.Type{any, any}, nil, any),
			"rawset":       fn([]typesystem.Type{any, any, any}, nil, any),
			"select":       fn([]typesystem.Type{any}, any, dyn),
			"unpack":       fn([]typesystem.Type{anyVector}, nil, any),
			"string":       stringLib,
			"table":        tableLib,
			"math":         mathLib,
		},
	}
}

// kailuaTestLibrary backs `--# open `internal kailua_test`` — the
// fixture-only declaration set spec.md's harness format uses to give
// test inputs a handful of extra assertion-style globals without
// polluting the real lua51 set.
func kailuaTestLibrary() *Library {
	any := typesystem.Any{}
	return &Library{
		Name: "internal kailua_test",
		Globals: map[string]typesystem.Type{
			"kailua_test__identity": fn([]typesystem.Type{any}, nil, any),
		},
	}
}
