package engine

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/wippyai/browsher/errors"
)

// LuaEngine implements Interpreter on gopher-lua.
type LuaEngine struct {
	L        *lua.LState
	log      *zap.Logger
	listMeta *lua.LTable
	closed   bool
}

// NewLuaEngine creates a Lua 5.1 state with the standard libraries open.
func NewLuaEngine(cfg Config) (le *LuaEngine, err error) {
	defer func() {
		if r := recover(); r != nil {
			le = nil
			err = errors.Initialization(string(KindLua), fmt.Errorf("%v", r))
		}
	}()

	L := lua.NewState(lua.Options{
		IncludeGoStackTrace: false,
	})

	e := &LuaEngine{
		L:        L,
		log:      cfg.Logger.With(zap.String("engine", string(KindLua))),
		listMeta: L.NewTable(),
	}
	e.listMeta.RawSetString("__name", lua.LString("list marker"))

	L.SetGlobal("print", L.NewFunction(e.print))
	if cfg.StrictGlobals {
		e.installStrictGlobals()
	}
	return e, nil
}

func (e *LuaEngine) Kind() Kind {
	return KindLua
}

// installStrictGlobals makes reads of unset globals raise, so a module that
// references a symbol from a module not yet loaded fails at load time.
func (e *LuaEngine) installStrictGlobals() {
	mt := e.L.NewTable()
	mt.RawSetString("__index", e.L.NewFunction(func(L *lua.LState) int {
		key := L.Get(2)
		L.RaiseError("undefined global '%s'", key.String())
		return 0
	}))
	e.L.SetMetatable(e.L.G.Global, mt)
}

func (e *LuaEngine) print(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, top)
	for i := 1; i <= top; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	e.log.Info(strings.Join(parts, "\t"), zap.String("source", "print"))
	return 0
}

func (e *LuaEngine) SetGlobal(name string, value any) error {
	if e.closed {
		return errors.InvalidState("set global", "closed")
	}
	lv, err := e.toLua(value, []string{name}, 0)
	if err != nil {
		return err
	}
	e.L.G.Global.RawSetString(name, lv)
	return nil
}

func (e *LuaEngine) HasGlobal(name string) bool {
	if e.closed {
		return false
	}
	return e.L.G.Global.RawGetString(name) != lua.LNil
}

func (e *LuaEngine) Exec(ctx context.Context, label string, source []byte) error {
	if e.closed {
		return errors.InvalidState("exec", "closed")
	}

	fn, err := e.L.Load(bytes.NewReader(source), label)
	if err != nil {
		return errors.New(errors.PhaseLoad, errors.KindLoad).
			Module(label).
			Detail("compile module").
			Cause(luaScriptError(err)).
			Build()
	}

	restore := e.bindContext(ctx)
	defer restore()

	top := e.L.GetTop()
	e.L.Push(fn)
	if err := e.L.PCall(0, 0, nil); err != nil {
		e.L.SetTop(top)
		return e.execError(ctx, label, err)
	}
	return nil
}

func (e *LuaEngine) execError(ctx context.Context, label string, err error) error {
	if ctx != nil && ctx.Err() != nil {
		ce := errors.Canceled(errors.PhaseLoad, ctx.Err())
		ce.Module = label
		return ce
	}
	se := luaScriptError(err)
	if isUnresolvedMessage(se.Message) {
		return errors.Unresolved(label, "reference to a symbol no loaded module defines", se)
	}
	return errors.Load(label, se)
}

func isUnresolvedMessage(msg string) bool {
	return strings.Contains(msg, "undefined global") ||
		strings.Contains(msg, "non-table object(nil)") ||
		strings.Contains(msg, "attempt to call a nil value")
}

func (e *LuaEngine) bindContext(ctx context.Context) func() {
	if ctx == nil || ctx.Done() == nil {
		return func() {}
	}
	e.L.SetContext(ctx)
	return func() {
		e.L.RemoveContext()
	}
}

func (e *LuaEngine) namespace(namespace string) (*lua.LTable, error) {
	tbl, ok := e.L.G.Global.RawGetString(namespace).(*lua.LTable)
	if !ok {
		return nil, errors.Lookup(namespace, "", "namespace not defined")
	}
	return tbl, nil
}

func (e *LuaEngine) lookup(namespace, name string) (*lua.LFunction, error) {
	tbl, err := e.namespace(namespace)
	if err != nil {
		return nil, err
	}
	lv := tbl.RawGetString(name)
	if lv == lua.LNil {
		return nil, errors.Lookup(namespace, name, "function not defined")
	}
	fn, ok := lv.(*lua.LFunction)
	if !ok {
		return nil, errors.Lookup(namespace, name, "field is a "+lv.Type().String()+", not a function")
	}
	return fn, nil
}

func (e *LuaEngine) Function(namespace, name string) (FunctionInfo, error) {
	if e.closed {
		return FunctionInfo{}, errors.InvalidState("lookup", "closed")
	}
	fn, err := e.lookup(namespace, name)
	if err != nil {
		return FunctionInfo{}, err
	}
	return luaFunctionInfo(name, fn), nil
}

func (e *LuaEngine) Functions(namespace string) ([]FunctionInfo, error) {
	if e.closed {
		return nil, errors.InvalidState("lookup", "closed")
	}
	tbl, err := e.namespace(namespace)
	if err != nil {
		return nil, err
	}
	var infos []FunctionInfo
	tbl.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok {
			return
		}
		if fn, ok := v.(*lua.LFunction); ok {
			infos = append(infos, luaFunctionInfo(string(name), fn))
		}
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func luaFunctionInfo(name string, fn *lua.LFunction) FunctionInfo {
	info := FunctionInfo{Name: name}
	if fn.IsG || fn.Proto == nil {
		info.Variadic = true
		return info
	}
	info.Arity = int(fn.Proto.NumParameters)
	info.Variadic = fn.Proto.IsVarArg != 0
	for i := 0; i < info.Arity && i < len(fn.Proto.DbgLocals); i++ {
		info.Params = append(info.Params, fn.Proto.DbgLocals[i].Name)
	}
	return info
}

func (e *LuaEngine) Call(ctx context.Context, namespace, name string, args ...any) (any, error) {
	if e.closed {
		return nil, errors.InvalidState("call", "closed")
	}

	largs := make([]lua.LValue, len(args))
	for i, arg := range args {
		lv, err := e.toLua(arg, []string{name, "args", strconv.Itoa(i)}, 0)
		if err != nil {
			return nil, err
		}
		largs[i] = lv
	}

	fn, err := e.lookup(namespace, name)
	if err != nil {
		return nil, err
	}

	restore := e.bindContext(ctx)
	defer restore()

	top := e.L.GetTop()
	// NRet 1: additional return values are discarded.
	err = e.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, largs...)
	if err != nil {
		e.L.SetTop(top)
		if ctx != nil && ctx.Err() != nil {
			return nil, errors.Canceled(errors.PhaseGateway, ctx.Err())
		}
		return nil, errors.Invocation(name, luaScriptError(err))
	}

	ret := e.L.Get(-1)
	e.L.SetTop(top)
	return e.fromLua(ret, []string{name, "result"}, 0)
}

func (e *LuaEngine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.L.Close()
	return nil
}

// luaScriptError extracts the script message from a gopher-lua error,
// keeping the traceback separate.
func luaScriptError(err error) *ScriptError {
	if apiErr, ok := err.(*lua.ApiError); ok {
		msg := ""
		if apiErr.Object != nil {
			msg = apiErr.Object.String()
		}
		if msg == "" && apiErr.Cause != nil {
			msg = apiErr.Cause.Error()
		}
		return &ScriptError{Message: msg, Stack: apiErr.StackTrace}
	}
	return &ScriptError{Message: err.Error()}
}
