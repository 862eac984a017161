package script

import (
	"fmt"

	"github.com/spf13/cast"
	lua "github.com/yuin/gopher-lua"
)

// toLua converts a dispatch argument to a Lua value. Values with no Lua
// counterpart are passed as their fmt representation.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return lua.LNumber(cast.ToFloat64(val))
	case []any:
		tbl := L.CreateTable(len(val), 0)
		for _, item := range val {
			tbl.Append(toLua(L, item))
		}
		return tbl
	case []string:
		tbl := L.CreateTable(len(val), 0)
		for _, item := range val {
			tbl.Append(lua.LString(item))
		}
		return tbl
	case map[string]any:
		tbl := L.CreateTable(0, len(val))
		for k, item := range val {
			tbl.RawSetString(k, toLua(L, item))
		}
		return tbl
	case map[string]string:
		tbl := L.CreateTable(0, len(val))
		for k, item := range val {
			tbl.RawSetString(k, lua.LString(item))
		}
		return tbl
	case error:
		return lua.LString(val.Error())
	case fmt.Stringer:
		return lua.LString(val.String())
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// toGo converts a Lua value back to Go. Tables with keys 1..n become
// slices; other tables become maps with string keys.
func toGo(v lua.LValue) any {
	return toGoVisited(v, make(map[*lua.LTable]bool))
}

func toGoVisited(v lua.LValue, visited map[*lua.LTable]bool) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if visited[val] {
			return nil
		}
		visited[val] = true
		return tableToGo(val, visited)
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		out := make([]any, n)
		for i := 1; i <= n; i++ {
			out[i-1] = toGoVisited(t.RawGetInt(i), visited)
		}
		return out
	}

	out := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		out[cast.ToString(toGoVisited(k, visited))] = toGoVisited(v, visited)
	})
	return out
}
