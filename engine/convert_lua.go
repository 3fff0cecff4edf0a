package engine

import (
	"reflect"
	"strconv"

	lua "github.com/yuin/gopher-lua"
	luar "layeh.com/gopher-luar"

	"github.com/wippyai/browsher/errors"
)

// toLua converts a host value into a Lua value.
//
//	Go                         Lua
//	─────────────────────────────────────────
//	nil, typed nil             nil
//	bool                       boolean
//	integers, floats           number (|int| <= 2^53)
//	string, []byte             string
//	[]T, [N]T                  table 1..n (list metatable)
//	map[string]T               table
//	func                       function (trailing error raises)
//	struct, pointer, chan, ... userdata (live reference, gopher-luar)
func (e *LuaEngine) toLua(v any, path []string, depth int) (lua.LValue, error) {
	if depth > maxDepth {
		return nil, errors.Conversion(errors.PhaseEncode, path, typeName(v), "table", "nesting too deep")
	}

	switch x := v.(type) {
	case nil:
		return lua.LNil, nil
	case lua.LValue:
		return x, nil
	case bool:
		return lua.LBool(x), nil
	case string:
		return lua.LString(x), nil
	case []byte:
		return lua.LString(x), nil
	case []any:
		tbl := e.L.CreateTable(len(x), 0)
		for i, item := range x {
			lv, err := e.toLua(item, childPath(path, strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			tbl.RawSetInt(i+1, lv)
		}
		e.markList(tbl, len(x))
		return tbl, nil
	case map[string]any:
		tbl := e.L.CreateTable(0, len(x))
		for k, item := range x {
			lv, err := e.toLua(item, childPath(path, k), depth+1)
			if err != nil {
				return nil, err
			}
			tbl.RawSetString(k, lv)
		}
		return tbl, nil
	}

	if f, ok, err := numberOf(v, path); ok {
		if err != nil {
			return nil, err
		}
		return lua.LNumber(f), nil
	}

	rv := reflect.ValueOf(v)
	if isNilish(rv) {
		return lua.LNil, nil
	}

	switch rv.Kind() {
	case reflect.Func:
		return e.wrapFunc(rv, path), nil
	case reflect.Bool:
		return lua.LBool(rv.Bool()), nil
	case reflect.String:
		return lua.LString(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, _, err := numberOf(rv.Int(), path)
		if err != nil {
			return nil, err
		}
		return lua.LNumber(f), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f, _, err := numberOf(rv.Uint(), path)
		if err != nil {
			return nil, err
		}
		return lua.LNumber(f), nil
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		tbl := e.L.CreateTable(n, 0)
		for i := 0; i < n; i++ {
			lv, err := e.toLua(rv.Index(i).Interface(), childPath(path, strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			tbl.RawSetInt(i+1, lv)
		}
		e.markList(tbl, n)
		return tbl, nil
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			tbl := e.L.CreateTable(0, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				k := iter.Key().String()
				lv, err := e.toLua(iter.Value().Interface(), childPath(path, k), depth+1)
				if err != nil {
					return nil, err
				}
				tbl.RawSetString(k, lv)
			}
			return tbl, nil
		}
	}

	if isOpaque(rv) {
		return luar.New(e.L, v), nil
	}

	return nil, errors.Conversion(errors.PhaseEncode, path, typeName(v), "", "value has no script representation")
}

// fromLua converts a Lua value into a canonical host value.
func (e *LuaEngine) fromLua(lv lua.LValue, path []string, depth int) (any, error) {
	switch x := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(x), nil
	case lua.LNumber:
		return float64(x), nil
	case lua.LString:
		return string(x), nil
	case *lua.LTable:
		return e.tableToHost(x, path, depth)
	case *lua.LUserData:
		return x.Value, nil
	}
	return nil, errors.Conversion(errors.PhaseDecode, path, "", lv.Type().String(), "value cannot leave the interpreter")
}

func (e *LuaEngine) tableToHost(tbl *lua.LTable, path []string, depth int) (any, error) {
	if depth > maxDepth {
		return nil, errors.Conversion(errors.PhaseDecode, path, "", "table", "nesting too deep")
	}

	if n, ok := e.listLength(tbl); ok {
		return e.listToHost(tbl, n, path, depth)
	}

	count := 0
	tbl.ForEach(func(_, _ lua.LValue) { count++ })
	if count == 0 {
		return map[string]any{}, nil
	}
	if n := tbl.Len(); n == count && isSequence(tbl, n) {
		return e.listToHost(tbl, n, path, depth)
	}

	out := make(map[string]any, count)
	var convErr error
	tbl.ForEach(func(k, v lua.LValue) {
		if convErr != nil {
			return
		}
		var key string
		switch kk := k.(type) {
		case lua.LString:
			key = string(kk)
		case lua.LNumber:
			key = strconv.FormatFloat(float64(kk), 'f', -1, 64)
		default:
			convErr = errors.Conversion(errors.PhaseDecode, path, "", k.Type().String(), "table keys must be strings or numbers")
			return
		}
		hv, err := e.fromLua(v, childPath(path, key), depth+1)
		if err != nil {
			convErr = err
			return
		}
		out[key] = hv
	})
	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}

// markList tags tbl as a host list of n elements. Each list gets its own
// metatable so the length survives trailing nils.
func (e *LuaEngine) markList(tbl *lua.LTable, n int) {
	mt := e.L.CreateTable(0, 3)
	mt.RawSetString("__name", lua.LString("list"))
	mt.RawSetString("__list", e.listMeta)
	mt.RawSetString("n", lua.LNumber(n))
	tbl.Metatable = mt
}

// listLength reports the length of a table tagged by markList. Elements a
// script appended past the recorded length still count.
func (e *LuaEngine) listLength(tbl *lua.LTable) (int, bool) {
	mt, ok := tbl.Metatable.(*lua.LTable)
	if !ok || mt.RawGetString("__list") != e.listMeta {
		return 0, false
	}
	n := 0
	if ln, ok := mt.RawGetString("n").(lua.LNumber); ok {
		n = int(ln)
	}
	return max(n, tbl.MaxN()), true
}

func (e *LuaEngine) listToHost(tbl *lua.LTable, n int, path []string, depth int) (any, error) {
	out := make([]any, n)
	for i := 1; i <= n; i++ {
		hv, err := e.fromLua(tbl.RawGetInt(i), childPath(path, strconv.Itoa(i-1)), depth+1)
		if err != nil {
			return nil, err
		}
		out[i-1] = hv
	}
	return out, nil
}

func isSequence(tbl *lua.LTable, n int) bool {
	for i := 1; i <= n; i++ {
		if tbl.RawGetInt(i) == lua.LNil {
			return false
		}
	}
	return true
}

// wrapFunc exposes a Go function to Lua. Arguments pass through fromLua,
// results through toLua; a trailing non-nil error raises a Lua error.
func (e *LuaEngine) wrapFunc(fn reflect.Value, path []string) *lua.LFunction {
	name := joinPath(path)
	return e.L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		args := make([]any, top)
		for i := 1; i <= top; i++ {
			v, err := e.fromLua(L.Get(i), []string{name, strconv.Itoa(i - 1)}, 0)
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			args[i-1] = v
		}

		results, err := hostCall(fn, name, args)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}

		for i, r := range results {
			lv, err := e.toLua(r, []string{name, "result", strconv.Itoa(i)}, 0)
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			L.Push(lv)
		}
		return len(results)
	})
}
