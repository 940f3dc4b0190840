package script

import lua "github.com/yuin/gopher-lua"

// removedGlobals can load code from disk or from strings at run time.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
}

func installSandbox(L *lua.LState) {
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	// print would write to stdout; scripts use editor.log instead.
	L.SetGlobal("print", L.NewFunction(func(*lua.LState) int { return 0 }))
}
