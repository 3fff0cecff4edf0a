package engine

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"go.uber.org/zap"

	"github.com/wippyai/browsher/errors"
)

// GojaEngine implements Interpreter on goja (ECMAScript 5.1+).
type GojaEngine struct {
	vm     *goja.Runtime
	log    *zap.Logger
	closed bool
}

// NewGojaEngine creates a goja runtime with require() and console enabled.
// require() resolves against cfg.Modules when set.
func NewGojaEngine(cfg Config) (*GojaEngine, error) {
	e := &GojaEngine{
		vm:  goja.New(),
		log: cfg.Logger.With(zap.String("engine", string(KindJS))),
	}
	e.vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	registry := require.NewRegistry(require.WithLoader(moduleLoader(cfg.Modules)))
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(zapPrinter{e.log}))
	registry.Enable(e.vm)
	console.Enable(e.vm)

	return e, nil
}

func moduleLoader(fsys fs.FS) require.SourceLoader {
	return func(name string) ([]byte, error) {
		if fsys == nil {
			return nil, require.ModuleFileDoesNotExistError
		}
		data, err := fs.ReadFile(fsys, strings.TrimPrefix(path.Clean(name), "/"))
		if err != nil {
			return nil, require.ModuleFileDoesNotExistError
		}
		return data, nil
	}
}

// zapPrinter routes console.* to the engine logger.
type zapPrinter struct {
	log *zap.Logger
}

func (p zapPrinter) Log(s string)   { p.log.Info(s, zap.String("source", "console")) }
func (p zapPrinter) Warn(s string)  { p.log.Warn(s, zap.String("source", "console")) }
func (p zapPrinter) Error(s string) { p.log.Error(s, zap.String("source", "console")) }

func (e *GojaEngine) Kind() Kind {
	return KindJS
}

func (e *GojaEngine) SetGlobal(name string, value any) error {
	if e.closed {
		return errors.InvalidState("set global", "closed")
	}
	v, err := e.toJS(value, []string{name}, 0)
	if err != nil {
		return err
	}
	return e.vm.Set(name, v)
}

func (e *GojaEngine) HasGlobal(name string) bool {
	if e.closed {
		return false
	}
	v := e.vm.GlobalObject().Get(name)
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

func (e *GojaEngine) Exec(ctx context.Context, label string, source []byte) error {
	if e.closed {
		return errors.InvalidState("exec", "closed")
	}

	prg, err := goja.Compile(label, string(source), false)
	if err != nil {
		return errors.New(errors.PhaseLoad, errors.KindLoad).
			Module(label).
			Detail("compile module").
			Cause(&ScriptError{Message: err.Error()}).
			Build()
	}

	restore := e.bindContext(ctx)
	defer restore()

	if _, err := e.vm.RunProgram(prg); err != nil {
		if ctx != nil && ctx.Err() != nil {
			ce := errors.Canceled(errors.PhaseLoad, ctx.Err())
			ce.Module = label
			return ce
		}
		if isReferenceError(err) {
			return errors.Unresolved(label, "reference to a symbol no loaded module defines", jsScriptError(err))
		}
		return errors.Load(label, jsScriptError(err))
	}
	return nil
}

func isReferenceError(err error) bool {
	ex, ok := err.(*goja.Exception)
	if !ok {
		return false
	}
	obj, ok := ex.Value().(*goja.Object)
	if !ok {
		return false
	}
	name := obj.Get("name")
	return name != nil && name.String() == "ReferenceError"
}

// bindContext interrupts the VM when ctx ends while script code runs.
func (e *GojaEngine) bindContext(ctx context.Context) func() {
	if ctx == nil || ctx.Done() == nil {
		return func() {}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	return func() {
		close(stop)
		wg.Wait()
		e.vm.ClearInterrupt()
	}
}

func (e *GojaEngine) namespace(namespace string) (*goja.Object, error) {
	v := e.vm.GlobalObject().Get(namespace)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, errors.Lookup(namespace, "", "namespace not defined")
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, errors.Lookup(namespace, "", "namespace is not an object")
	}
	return obj, nil
}

func (e *GojaEngine) lookup(namespace, name string) (goja.Callable, *goja.Object, error) {
	ns, err := e.namespace(namespace)
	if err != nil {
		return nil, nil, err
	}
	v := ns.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil, errors.Lookup(namespace, name, "function not defined")
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, nil, errors.Lookup(namespace, name, "field is not a function")
	}
	return fn, v.(*goja.Object), nil
}

func (e *GojaEngine) Function(namespace, name string) (FunctionInfo, error) {
	if e.closed {
		return FunctionInfo{}, errors.InvalidState("lookup", "closed")
	}
	_, obj, err := e.lookup(namespace, name)
	if err != nil {
		return FunctionInfo{}, err
	}
	return jsFunctionInfo(name, obj), nil
}

func (e *GojaEngine) Functions(namespace string) ([]FunctionInfo, error) {
	if e.closed {
		return nil, errors.InvalidState("lookup", "closed")
	}
	ns, err := e.namespace(namespace)
	if err != nil {
		return nil, err
	}
	var infos []FunctionInfo
	for _, key := range ns.Keys() {
		v := ns.Get(key)
		if _, ok := goja.AssertFunction(v); ok {
			infos = append(infos, jsFunctionInfo(key, v.(*goja.Object)))
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// jsFunctionInfo reads arity from the length property and parameter names
// from the function source when it is available.
func jsFunctionInfo(name string, fn *goja.Object) FunctionInfo {
	info := FunctionInfo{Name: name}
	if l := fn.Get("length"); l != nil {
		info.Arity = int(l.ToInteger())
	}
	params, variadic, ok := parseParams(fn.String())
	if !ok {
		info.Variadic = true
		return info
	}
	info.Params = params
	info.Variadic = variadic
	return info
}

func parseParams(src string) ([]string, bool, bool) {
	if strings.Contains(src, "[native code]") {
		return nil, false, false
	}
	open := strings.IndexByte(src, '(')
	arrow := strings.Index(src, "=>")
	if open < 0 || (arrow >= 0 && arrow < open) {
		if arrow < 0 {
			return nil, false, false
		}
		// single-parameter arrow function: x => ...
		p := strings.TrimSpace(src[:arrow])
		if p == "" {
			return nil, false, false
		}
		return []string{p}, false, true
	}
	end := strings.IndexByte(src[open:], ')')
	if end < 0 {
		return nil, false, false
	}
	list := strings.TrimSpace(src[open+1 : open+end])
	if list == "" {
		return nil, false, true
	}
	var params []string
	variadic := false
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if name, _, found := strings.Cut(p, "="); found {
			p = strings.TrimSpace(name)
		}
		if strings.HasPrefix(p, "...") {
			variadic = true
			p = strings.TrimPrefix(p, "...")
		}
		params = append(params, p)
	}
	return params, variadic, true
}

func (e *GojaEngine) Call(ctx context.Context, namespace, name string, args ...any) (any, error) {
	if e.closed {
		return nil, errors.InvalidState("call", "closed")
	}

	jargs := make([]goja.Value, len(args))
	for i, arg := range args {
		v, err := e.toJS(arg, []string{name, "args", strconv.Itoa(i)}, 0)
		if err != nil {
			return nil, err
		}
		jargs[i] = v
	}

	fn, _, err := e.lookup(namespace, name)
	if err != nil {
		return nil, err
	}

	ns, _ := e.namespace(namespace)

	restore := e.bindContext(ctx)
	defer restore()

	ret, err := fn(ns, jargs...)
	if err != nil {
		if ctx != nil && ctx.Err() != nil {
			return nil, errors.Canceled(errors.PhaseGateway, ctx.Err())
		}
		return nil, errors.Invocation(name, jsScriptError(err))
	}
	return e.fromJS(ret, []string{name, "result"}, 0)
}

func (e *GojaEngine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.vm.ClearInterrupt()
	return nil
}

func jsScriptError(err error) *ScriptError {
	switch x := err.(type) {
	case *goja.Exception:
		msg := ""
		if v := x.Value(); v != nil {
			msg = v.String()
		}
		if inner := x.Unwrap(); inner != nil {
			msg = inner.Error()
		}
		return &ScriptError{Message: msg, Stack: x.String()}
	case *goja.InterruptedError:
		return &ScriptError{Message: x.Error(), Stack: x.String()}
	}
	return &ScriptError{Message: err.Error()}
}
