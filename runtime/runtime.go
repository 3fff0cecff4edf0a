package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/browsher/engine"
	"github.com/wippyai/browsher/errors"
	"github.com/wippyai/browsher/host"
	"github.com/wippyai/browsher/loader"
)

// DefaultGlobalName is the global the host root is bound under.
const DefaultGlobalName = "host"

// Runtime owns one interpreter and the host surface injected into it.
// It is the explicit context every bridge component is built on.
type Runtime struct {
	interp     engine.Interpreter
	hosts      *host.Registry
	globalName string
	log        *zap.Logger

	injected bool
	loaded   bool
	closed   bool
}

// NewRuntime creates an interpreter of the given kind. Failure to start the
// interpreter is an initialization error; nothing is retried.
func NewRuntime(kind engine.Kind, globalName string, log *zap.Logger, opts ...engine.Option) (*Runtime, error) {
	if globalName == "" {
		globalName = DefaultGlobalName
	}
	if log == nil {
		log = Logger()
	}

	interp, err := engine.New(kind, append([]engine.Option{engine.WithLogger(log)}, opts...)...)
	if err != nil {
		if _, ok := err.(*errors.Error); ok {
			return nil, err
		}
		return nil, errors.Initialization(string(kind), err)
	}

	return &Runtime{
		interp:     interp,
		hosts:      host.NewRegistry(),
		globalName: globalName,
		log:        log,
	}, nil
}

// RegisterHost adds every exported method of c under c.Namespace().
// Must be called before Inject.
func (r *Runtime) RegisterHost(c host.Capability) error {
	if r.injected {
		return errors.InvalidState("register host", "injected")
	}
	return r.hosts.Register(c)
}

func (r *Runtime) RegisterFunc(namespace, name string, fn any) error {
	if r.injected {
		return errors.InvalidState("register host", "injected")
	}
	return r.hosts.RegisterFunc(namespace, name, fn)
}

func (r *Runtime) Hosts() *host.Registry {
	return r.hosts
}

func (r *Runtime) Interpreter() engine.Interpreter {
	return r.interp
}

func (r *Runtime) GlobalName() string {
	return r.globalName
}

// Inject binds root under the global name. A nil root injects the
// registered host capabilities. Inject runs once and strictly before any
// module is loaded.
func (r *Runtime) Inject(root any) error {
	switch {
	case r.closed:
		return errors.InvalidState("inject", "closed")
	case r.injected:
		return errors.InvalidState("inject", "injected")
	case r.loaded:
		return errors.InvalidState("inject", "modules loaded")
	}

	if root == nil {
		root = r.hosts.Root()
	}
	if err := r.interp.SetGlobal(r.globalName, root); err != nil {
		return errors.New(errors.PhaseInject, errors.KindConversion).
			Path(r.globalName).
			Detail("convert host root").
			Cause(err).
			Build()
	}
	r.injected = true
	r.log.Debug("host root injected",
		zap.String("global", r.globalName),
		zap.Strings("namespaces", r.hosts.Namespaces()))
	return nil
}

// Load evaluates every module of ld into the interpreter.
func (r *Runtime) Load(ctx context.Context, ld *loader.Loader) error {
	if r.closed {
		return errors.InvalidState("load", "closed")
	}
	r.loaded = true
	loaded, err := ld.Load(ctx, r.interp)
	if err != nil {
		return err
	}
	r.log.Debug("modules loaded", zap.Strings("modules", loader.Sequence(loaded).Names()))
	return nil
}

// Close releases the interpreter. Safe to call more than once.
func (r *Runtime) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.interp.Close()
}
