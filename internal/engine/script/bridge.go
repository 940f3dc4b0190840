package script

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/treestorm/internal/engine/location"
	"github.com/dshills/treestorm/internal/engine/node"
)

// toGo converts a Lua value to a Go value. Arrays become []any, other
// tables map[string]any, integral numbers int64. Empty tables become nil.
func toGo(lv lua.LValue) any {
	return toGoVisited(lv, make(map[*lua.LTable]bool))
}

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
		defer delete(visited, v)
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	}
	return nil
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	isArray := true
	maxN, count := 0, 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if kn, ok := k.(lua.LNumber); ok {
			n := int(kn)
			if float64(n) == float64(kn) && n > 0 {
				if n > maxN {
					maxN = n
				}
				return
			}
		}
		isArray = false
	})
	if count == 0 {
		return nil
	}

	if isArray && count == maxN {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = toGoVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = toGoVisited(v, visited)
	})
	return m
}

// toLua converts a Go value to a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
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
	case location.Path:
		return pathTable(L, val)
	case []string:
		t := L.CreateTable(len(val), 0)
		for _, s := range val {
			t.Append(lua.LString(s))
		}
		return t
	case []any:
		t := L.CreateTable(len(val), 0)
		for _, item := range val {
			t.Append(toLua(L, item))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(val))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLua(L, val[k]))
		}
		return t
	case node.Props:
		return toLua(L, map[string]any(val))
	}
	return lua.LString(fmt.Sprint(v))
}

func pathTable(L *lua.LState, p location.Path) *lua.LTable {
	t := L.CreateTable(len(p), 0)
	for _, i := range p {
		t.Append(lua.LNumber(i))
	}
	return t
}

// checkPath reads a path argument.
func checkPath(L *lua.LState, n int) location.Path {
	t := L.CheckTable(n)
	p := make(location.Path, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		num, ok := t.RawGetInt(i).(lua.LNumber)
		if !ok || num < 0 || float64(num) != float64(int(num)) {
			L.ArgError(n, "path entries must be non-negative integers")
			return nil
		}
		p = append(p, int(num))
	}
	return p
}

// nodeTable converts n to the table form of its JSON encoding.
func nodeTable(L *lua.LState, n node.Node) (lua.LValue, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return lua.LNil, err
	}
	return toLua(L, gjson.ParseBytes(data).Value()), nil
}

// tableNode parses a node from its table form.
func tableNode(t *lua.LTable) (node.Node, error) {
	data, err := json.Marshal(toGo(t))
	if err != nil {
		return nil, err
	}
	return node.Parse(data)
}

// tableProps reads a props argument.
func tableProps(t *lua.LTable) node.Props {
	m, _ := toGo(t).(map[string]any)
	if len(m) == 0 {
		return nil
	}
	return node.Props(m)
}
