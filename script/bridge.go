package script

import (
	"reflect"

	lua "github.com/yuin/gopher-lua"
)

// toLua converts a Go value to a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
	return toLuaVisited(L, v, make(map[uintptr]bool))
}

// toLuaVisited converts a Go value, breaking reference cycles in maps
// and slices. A container seen twice converts to nil.
func toLuaVisited(L *lua.LState, v any, visited map[uintptr]bool) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		ptr := reflect.ValueOf(val).Pointer()
		if visited[ptr] {
			return lua.LNil
		}
		visited[ptr] = true
		t := L.NewTable()
		for _, item := range val {
			t.Append(toLuaVisited(L, item, visited))
		}
		return t
	case []string:
		t := L.NewTable()
		for _, item := range val {
			t.Append(lua.LString(item))
		}
		return t
	case map[string]any:
		ptr := reflect.ValueOf(val).Pointer()
		if visited[ptr] {
			return lua.LNil
		}
		visited[ptr] = true
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, toLuaVisited(L, item, visited))
		}
		return t
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}

// toGo converts a Lua value to a Go value. Tables with only positive
// integer keys become slices, everything else becomes a string map.
func toGo(lv lua.LValue) any {
	return toGoVisited(lv, make(map[*lua.LTable]bool))
}

// toGoVisited converts a Lua value, breaking table cycles. A table
// seen twice converts to nil.
func toGoVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	case *lua.LNilType:
		return nil
	default:
		return nil
	}
}

// tableToGo converts a Lua table to a Go slice or map.
func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	arrayLen := t.Len()
	isArray := arrayLen > 0

	if isArray {
		t.ForEach(func(k, _ lua.LValue) {
			if n, ok := k.(lua.LNumber); !ok || float64(n) != float64(int(n)) || int(n) < 1 || int(n) > arrayLen {
				isArray = false
			}
		})
	}

	if isArray {
		out := make([]any, 0, arrayLen)
		for i := 1; i <= arrayLen; i++ {
			out = append(out, toGoVisited(t.RawGetInt(i), visited))
		}
		return out
	}

	out := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		out[k.String()] = toGoVisited(v, visited)
	})
	return out
}
