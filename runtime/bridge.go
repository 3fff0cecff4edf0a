package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/browsher/engine"
	"github.com/wippyai/browsher/errors"
	"github.com/wippyai/browsher/loader"
)

// State is a bridge lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateDeactivated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateDeactivated:
		return "deactivated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Bridge drives one interpreter through activate and deactivate.
type Bridge struct {
	mu   sync.Mutex
	opts Options
	log  *zap.Logger

	state       State
	rt          *Runtime
	gw          *Gateway
	setupResult any
}

func NewBridge(opts ...Option) *Bridge {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = Logger()
	}
	if o.Sequence == nil {
		o.Sequence = loader.DefaultSequence(sourceExt(o.Engine))
	}
	return &Bridge{
		opts: o,
		log:  o.Logger.With(zap.String("engine", string(o.Engine))),
	}
}

func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetupResult returns what setup returned during the last activation.
func (b *Bridge) SetupResult() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.setupResult
}

// Gateway returns the installed gateway, or nil outside the active state.
func (b *Bridge) Gateway() *Gateway {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateActive {
		return nil
	}
	return b.gw
}

// Activate creates the interpreter, injects the host root, loads the module
// sequence, installs the gateway and invokes setup(activation) exactly once.
// Any failure closes the interpreter and leaves the bridge uninitialized.
func (b *Bridge) Activate(ctx context.Context, activation any) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateUninitialized {
		return nil, errors.InvalidState("activate", b.state.String())
	}
	if b.opts.Source == nil {
		return nil, errors.InvalidInput(errors.PhaseLifecycle, "no module source configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := NewRuntime(b.opts.Engine, b.opts.GlobalName, b.opts.Logger,
		engine.WithStrictGlobals(b.opts.StrictGlobals),
		engine.WithModuleFS(b.opts.Source))
	if err != nil {
		b.log.Error("interpreter failed to start", zap.Error(err))
		return nil, err
	}

	result, gw, err := b.activate(ctx, rt, activation)
	if err != nil {
		if closeErr := rt.Close(); closeErr != nil {
			err = multierr.Append(err, closeErr)
		}
		b.log.Error("activation failed", zap.Error(err))
		return nil, err
	}

	b.rt = rt
	b.gw = gw
	b.setupResult = result
	b.state = StateActive
	b.log.Info("bridge active", zap.String("namespace", gw.Surface().Namespace))
	return result, nil
}

func (b *Bridge) activate(ctx context.Context, rt *Runtime, activation any) (any, *Gateway, error) {
	for _, c := range b.opts.Hosts {
		if err := rt.RegisterHost(c); err != nil {
			return nil, nil, err
		}
	}
	if err := rt.Inject(b.opts.Root); err != nil {
		return nil, nil, err
	}

	ld := loader.New(b.opts.Source, b.opts.Sequence, loader.WithLogger(b.log))
	if err := rt.Load(ctx, ld); err != nil {
		return nil, nil, err
	}

	gw, err := Install(rt, DefaultSurface(b.opts.Namespace), b.opts.Observers...)
	if err != nil {
		return nil, nil, err
	}

	result, err := gw.Setup(ctx, activation)
	if err != nil {
		return nil, nil, err
	}
	return result, gw, nil
}

// Invoke forwards to the gateway. Outside the active state it fails with
// an invalid-state error.
func (b *Bridge) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	b.mu.Lock()
	gw, state := b.gw, b.state
	b.mu.Unlock()

	if state != StateActive {
		return nil, errors.InvalidState("invoke "+name, state.String())
	}
	return gw.Invoke(ctx, name, args...)
}

// Deactivate invokes cleanup, closes the interpreter and returns the
// cleanup result. It never fails: a missing cleanup is a no-op and other
// teardown errors are logged. Outside the active state it does nothing.
func (b *Bridge) Deactivate(ctx context.Context) any {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateActive {
		return nil
	}

	var errs error
	result, err := b.gw.Cleanup(ctx)
	if err != nil {
		result = nil
		if stderrors.Is(err, errors.ErrLookup) {
			b.log.Debug("namespace has no cleanup")
		} else {
			errs = multierr.Append(errs, err)
		}
	}

	b.gw.close()
	errs = multierr.Append(errs, b.rt.Close())
	if errs != nil {
		b.log.Warn("deactivation errors absorbed", zap.Errors("errors", multierr.Errors(errs)))
	}

	b.state = StateDeactivated
	b.gw = nil
	b.rt = nil
	b.log.Info("bridge deactivated")
	return result
}
