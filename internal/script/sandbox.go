package script

import (
	"strings"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"
)

// removedGlobals can load code from outside the script.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
}

// newSandbox creates a Lua state with the safe libraries only.
func newSandbox() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		IncludeGoStackTrace: false,
	})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// logFunction returns a Lua function that writes its arguments to logger.
func logFunction(logger *zerolog.Logger, name string, caller func() string) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		logger.Info().
			Str("script", name).
			Str("caller", caller()).
			Msg(strings.Join(parts, " "))
		return 0
	}
}
