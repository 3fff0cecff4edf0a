package engine

import (
	"math/big"
	"reflect"
	"strconv"

	"github.com/dop251/goja"

	"github.com/wippyai/browsher/errors"
)

// toJS converts a host value into a goja value. The mapping mirrors toLua:
// lists become arrays, string-keyed maps become plain objects, functions
// become callable wrappers and everything opaque is wrapped live by goja.
func (e *GojaEngine) toJS(v any, path []string, depth int) (goja.Value, error) {
	if depth > maxDepth {
		return nil, errors.Conversion(errors.PhaseEncode, path, typeName(v), "object", "nesting too deep")
	}

	switch x := v.(type) {
	case nil:
		return goja.Null(), nil
	case goja.Value:
		return x, nil
	case bool, string:
		return e.vm.ToValue(x), nil
	case []byte:
		return e.vm.ToValue(string(x)), nil
	case []any:
		items := make([]any, len(x))
		for i, item := range x {
			jv, err := e.toJS(item, childPath(path, strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = jv
		}
		return e.vm.NewArray(items...), nil
	case map[string]any:
		obj := e.vm.NewObject()
		for k, item := range x {
			jv, err := e.toJS(item, childPath(path, k), depth+1)
			if err != nil {
				return nil, err
			}
			if err := obj.Set(k, jv); err != nil {
				return nil, err
			}
		}
		return obj, nil
	}

	if f, ok, err := numberOf(v, path); ok {
		if err != nil {
			return nil, err
		}
		return e.vm.ToValue(f), nil
	}

	rv := reflect.ValueOf(v)
	if isNilish(rv) {
		return goja.Null(), nil
	}

	switch rv.Kind() {
	case reflect.Func:
		return e.wrapFunc(rv, path), nil
	case reflect.Bool:
		return e.vm.ToValue(rv.Bool()), nil
	case reflect.String:
		return e.vm.ToValue(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, _, err := numberOf(rv.Int(), path)
		if err != nil {
			return nil, err
		}
		return e.vm.ToValue(f), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f, _, err := numberOf(rv.Uint(), path)
		if err != nil {
			return nil, err
		}
		return e.vm.ToValue(f), nil
	case reflect.Float32, reflect.Float64:
		return e.vm.ToValue(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		items := make([]any, n)
		for i := 0; i < n; i++ {
			jv, err := e.toJS(rv.Index(i).Interface(), childPath(path, strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = jv
		}
		return e.vm.NewArray(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			obj := e.vm.NewObject()
			iter := rv.MapRange()
			for iter.Next() {
				k := iter.Key().String()
				jv, err := e.toJS(iter.Value().Interface(), childPath(path, k), depth+1)
				if err != nil {
					return nil, err
				}
				if err := obj.Set(k, jv); err != nil {
					return nil, err
				}
			}
			return obj, nil
		}
	}

	if isOpaque(rv) {
		return e.vm.ToValue(v), nil
	}

	return nil, errors.Conversion(errors.PhaseEncode, path, typeName(v), "", "value has no script representation")
}

// fromJS converts a goja value into a canonical host value.
func (e *GojaEngine) fromJS(v goja.Value, path []string, depth int) (any, error) {
	if depth > maxDepth {
		return nil, errors.Conversion(errors.PhaseDecode, path, "", "object", "nesting too deep")
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}

	obj, isObj := v.(*goja.Object)
	if !isObj {
		switch x := v.Export().(type) {
		case bool:
			return x, nil
		case string:
			return x, nil
		case int64:
			return float64(x), nil
		case float64:
			return x, nil
		case *big.Int:
			return nil, errors.Conversion(errors.PhaseDecode, path, "", "bigint", "bigint has no host representation")
		}
		return nil, errors.Conversion(errors.PhaseDecode, path, "", v.ExportType().String(), "value cannot leave the interpreter")
	}

	if _, ok := goja.AssertFunction(obj); ok {
		return nil, errors.Conversion(errors.PhaseDecode, path, "", "function", "value cannot leave the interpreter")
	}

	if obj.ClassName() == "Array" {
		n := int(obj.Get("length").ToInteger())
		out := make([]any, n)
		for i := 0; i < n; i++ {
			hv, err := e.fromJS(obj.Get(strconv.Itoa(i)), childPath(path, strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = hv
		}
		return out, nil
	}

	if _, plain := obj.Export().(map[string]any); !plain {
		// wrapped host value travelling back
		return obj.Export(), nil
	}

	keys := obj.Keys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		hv, err := e.fromJS(obj.Get(k), childPath(path, k), depth+1)
		if err != nil {
			return nil, err
		}
		out[k] = hv
	}
	return out, nil
}

// wrapFunc exposes a Go function to scripts. A trailing non-nil error is
// thrown as a GoError; several results come back as an array.
func (e *GojaEngine) wrapFunc(fn reflect.Value, path []string) goja.Value {
	name := joinPath(path)
	return e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for i, a := range call.Arguments {
			v, err := e.fromJS(a, []string{name, strconv.Itoa(i)}, 0)
			if err != nil {
				panic(e.vm.NewGoError(err))
			}
			args[i] = v
		}

		results, err := hostCall(fn, name, args)
		if err != nil {
			panic(e.vm.NewGoError(err))
		}

		var out any
		switch len(results) {
		case 0:
			return goja.Undefined()
		case 1:
			out = results[0]
		default:
			out = results
		}
		jv, err := e.toJS(out, []string{name, "result"}, 0)
		if err != nil {
			panic(e.vm.NewGoError(err))
		}
		return jv
	})
}
