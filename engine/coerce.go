package engine

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/wippyai/browsher/errors"
)

// maxSafeInteger is the largest integer a float64 holds exactly.
const maxSafeInteger = 1 << 53

// maxDepth bounds nested containers so self-referencing values fail
// instead of recursing forever.
const maxDepth = 64

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
)

// numberOf widens any Go numeric value to float64. Integers outside
// ±2^53 are rejected because the script side would silently round them.
func numberOf(v any, path []string) (float64, bool, error) {
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return intNumber(int64(n), path)
	case int8:
		return float64(n), true, nil
	case int16:
		return float64(n), true, nil
	case int32:
		return float64(n), true, nil
	case int64:
		return intNumber(n, path)
	case uint:
		return uintNumber(uint64(n), path)
	case uint8:
		return float64(n), true, nil
	case uint16:
		return float64(n), true, nil
	case uint32:
		return float64(n), true, nil
	case uint64:
		return uintNumber(n, path)
	}
	return 0, false, nil
}

func intNumber(n int64, path []string) (float64, bool, error) {
	if n > maxSafeInteger || n < -maxSafeInteger {
		return 0, true, errors.New(errors.PhaseEncode, errors.KindConversion).
			Path(path...).
			GoType("int64").
			ScriptType("number").
			Value(n).
			Detail("integer %d exceeds float64 precision", n).
			Build()
	}
	return float64(n), true, nil
}

func uintNumber(n uint64, path []string) (float64, bool, error) {
	if n > maxSafeInteger {
		return 0, true, errors.New(errors.PhaseEncode, errors.KindConversion).
			Path(path...).
			GoType("uint64").
			ScriptType("number").
			Value(n).
			Detail("integer %d exceeds float64 precision", n).
			Build()
	}
	return float64(n), true, nil
}

// isOpaque reports whether v crosses the boundary as a live reference
// rather than a copy.
func isOpaque(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Struct, reflect.Pointer, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Map:
		return rv.Type().Key().Kind() != reflect.String
	}
	return false
}

// isNilish reports typed nils that should become script nil.
func isNilish(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func childPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "<anonymous>"
	}
	return strings.Join(path, ".")
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

// coerce converts a canonical host value into a value assignable to t.
// It is used to feed script arguments into Go host functions.
func coerce(v any, t reflect.Type, path []string) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if t == anyType {
		return rv, nil
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			return reflect.Value{}, coerceError(v, t, path, "expected integer")
		}
		out := reflect.New(t).Elem()
		if f < math.MinInt64 || f >= math.MaxInt64 || out.OverflowInt(int64(f)) {
			return reflect.Value{}, coerceError(v, t, path, "integer overflow")
		}
		out.SetInt(int64(f))
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) || f < 0 {
			return reflect.Value{}, coerceError(v, t, path, "expected non-negative integer")
		}
		out := reflect.New(t).Elem()
		if f >= math.MaxUint64 || out.OverflowUint(uint64(f)) {
			return reflect.Value{}, coerceError(v, t, path, "integer overflow")
		}
		out.SetUint(uint64(f))
		return out, nil

	case reflect.Float32, reflect.Float64:
		f, ok := v.(float64)
		if !ok {
			return reflect.Value{}, coerceError(v, t, path, "expected number")
		}
		return reflect.ValueOf(f).Convert(t), nil

	case reflect.String:
		switch s := v.(type) {
		case string:
			return reflect.ValueOf(s).Convert(t), nil
		case float64:
			return reflect.ValueOf(strconv.FormatFloat(s, 'f', -1, 64)).Convert(t), nil
		}
		return reflect.Value{}, coerceError(v, t, path, "expected string")

	case reflect.Bool:
		b, ok := v.(bool)
		if !ok {
			return reflect.Value{}, coerceError(v, t, path, "expected boolean")
		}
		return reflect.ValueOf(b).Convert(t), nil

	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			if m, isMap := v.(map[string]any); isMap && len(m) == 0 {
				return reflect.MakeSlice(t, 0, 0), nil
			}
			return reflect.Value{}, coerceError(v, t, path, "expected list")
		}
		out := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			ev, err := coerce(item, t.Elem(), childPath(path, strconv.Itoa(i)))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil

	case reflect.Map:
		m, ok := v.(map[string]any)
		if !ok || t.Key().Kind() != reflect.String {
			return reflect.Value{}, coerceError(v, t, path, "expected table with string keys")
		}
		out := reflect.MakeMapWithSize(t, len(m))
		for k, item := range m {
			ev, err := coerce(item, t.Elem(), childPath(path, k))
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		return out, nil

	case reflect.Struct:
		m, ok := v.(map[string]any)
		if !ok {
			return reflect.Value{}, coerceError(v, t, path, "expected table")
		}
		return coerceStruct(m, t, path)

	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Struct {
			if m, ok := v.(map[string]any); ok {
				sv, err := coerceStruct(m, t.Elem(), path)
				if err != nil {
					return reflect.Value{}, err
				}
				ptr := reflect.New(t.Elem())
				ptr.Elem().Set(sv)
				return ptr, nil
			}
		}
	}

	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, coerceError(v, t, path, "incompatible value")
}

// coerceStruct fills exported fields by json tag or case-insensitive name.
func coerceStruct(m map[string]any, t reflect.Type, path []string) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		key, found := fieldKey(m, field)
		if !found {
			continue
		}
		fv, err := coerce(m[key], field.Type, childPath(path, key))
		if err != nil {
			return reflect.Value{}, err
		}
		out.Field(i).Set(fv)
	}
	return out, nil
}

func fieldKey(m map[string]any, field reflect.StructField) (string, bool) {
	if tag, ok := field.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return "", false
		}
		if name != "" {
			_, found := m[name]
			return name, found
		}
	}
	if _, ok := m[field.Name]; ok {
		return field.Name, true
	}
	for k := range m {
		if strings.EqualFold(k, field.Name) {
			return k, true
		}
	}
	return "", false
}

func coerceError(v any, t reflect.Type, path []string, detail string) error {
	return errors.New(errors.PhaseDecode, errors.KindConversion).
		Path(path...).
		GoType(t.String()).
		ScriptType(scriptTypeOf(v)).
		Value(v).
		Detail("%s", detail).
		Build()
}

// scriptTypeOf names the script-side type of a canonical host value.
func scriptTypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "table"
	}
	return fmt.Sprintf("userdata(%T)", v)
}

// hostCall invokes a Go function with script arguments already converted
// to canonical host values. Missing trailing arguments become zero values
// and surplus arguments are ignored unless fn is variadic. A trailing
// non-nil error result is returned as err.
func hostCall(fn reflect.Value, name string, args []any) ([]any, error) {
	ft := fn.Type()
	numIn := ft.NumIn()
	fixed := numIn
	if ft.IsVariadic() {
		fixed--
	}

	in := make([]reflect.Value, 0, max(numIn, len(args)))
	for i := 0; i < fixed; i++ {
		var arg any
		if i < len(args) {
			arg = args[i]
		}
		v, err := coerce(arg, ft.In(i), []string{name, strconv.Itoa(i)})
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}
	if ft.IsVariadic() {
		elem := ft.In(numIn - 1).Elem()
		for i := fixed; i < len(args); i++ {
			v, err := coerce(args[i], elem, []string{name, strconv.Itoa(i)})
			if err != nil {
				return nil, err
			}
			in = append(in, v)
		}
	}

	out := fn.Call(in)
	if n := len(out); n > 0 && ft.Out(n-1) == errorType {
		if errv := out[n-1]; !errv.IsNil() {
			return nil, errv.Interface().(error)
		}
		out = out[:n-1]
	}

	results := make([]any, len(out))
	for i, o := range out {
		results[i] = o.Interface()
	}
	return results, nil
}
