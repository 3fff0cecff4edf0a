package runtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/browsher/engine"
	"github.com/wippyai/browsher/errors"
)

// Surface declares the callable shape the namespace must provide.
type Surface struct {
	// Namespace is the global holding every invocable function.
	Namespace string

	// Required functions must exist and be callable at install time.
	Required []string

	// Optional functions are looked up per call; absence is reported only
	// when they are invoked.
	Optional []string
}

const (
	// DefaultNamespace is the global the platform module publishes.
	DefaultNamespace = "browsher_platform"

	FuncSetup   = "setup"
	FuncCleanup = "cleanup"
)

// DefaultSurface requires setup and allows cleanup.
func DefaultSurface(namespace string) Surface {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return Surface{
		Namespace: namespace,
		Required:  []string{FuncSetup},
		Optional:  []string{FuncCleanup},
	}
}

// Call records one gateway invocation.
type Call struct {
	Name     string
	Args     []any
	Result   any
	Err      error
	Duration time.Duration
}

// CallObserver is notified after every gateway invocation. Observers run on
// the calling goroutine after the gateway lock is released, so they may
// call back into the gateway; concurrent calls notify in completion order.
type CallObserver func(Call)

// Gateway is the single dispatch point into the namespace. Calls are
// serialized: the interpreter is not reentrant.
type Gateway struct {
	mu        sync.Mutex
	rt        *Runtime
	surface   Surface
	observers []CallObserver
	log       *zap.Logger
	closed    bool
}

// Install validates surface against the loaded namespace and returns the
// gateway. A missing or non-callable required function is a lookup error.
func Install(rt *Runtime, surface Surface, observers ...CallObserver) (*Gateway, error) {
	if surface.Namespace == "" {
		surface.Namespace = DefaultNamespace
	}
	for _, name := range surface.Required {
		if _, err := rt.interp.Function(surface.Namespace, name); err != nil {
			return nil, err
		}
	}
	return &Gateway{
		rt:        rt,
		surface:   surface,
		observers: observers,
		log:       rt.log.With(zap.String("namespace", surface.Namespace)),
	}, nil
}

func (g *Gateway) Surface() Surface {
	return g.surface
}

// Invoke calls namespace.name with args and returns its single result.
// Script failures are invocation errors carrying the script message; they
// are not retried.
func (g *Gateway) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	call, err := g.invoke(ctx, name, args)
	if call == nil {
		return nil, err
	}

	for _, obs := range g.observers {
		obs(*call)
	}
	return call.Result, call.Err
}

// invoke runs one call under the gateway lock. A nil record means the
// call never reached the interpreter.
func (g *Gateway) invoke(ctx context.Context, name string, args []any) (*Call, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, errors.InvalidState("invoke "+name, "closed")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	result, err := g.rt.interp.Call(ctx, g.surface.Namespace, name, args...)
	call := Call{
		Name:     name,
		Args:     args,
		Result:   result,
		Err:      err,
		Duration: time.Since(start),
	}

	if err != nil {
		g.log.Debug("gateway call failed",
			zap.String("function", name),
			zap.Int("args", len(args)),
			zap.Duration("elapsed", call.Duration),
			zap.Error(err))
	} else {
		g.log.Debug("gateway call",
			zap.String("function", name),
			zap.Int("args", len(args)),
			zap.Duration("elapsed", call.Duration))
	}

	return &call, err
}

// Setup invokes the setup function with the activation context.
func (g *Gateway) Setup(ctx context.Context, activation any) (any, error) {
	return g.Invoke(ctx, FuncSetup, activation)
}

// Cleanup invokes the cleanup function. A namespace without cleanup
// yields a lookup error the caller may treat as a no-op.
func (g *Gateway) Cleanup(ctx context.Context) (any, error) {
	return g.Invoke(ctx, FuncCleanup)
}

// Function describes namespace.name.
func (g *Gateway) Function(name string) (engine.FunctionInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return engine.FunctionInfo{}, errors.InvalidState("lookup "+name, "closed")
	}
	return g.rt.interp.Function(g.surface.Namespace, name)
}

// Functions lists the namespace's callable fields.
func (g *Gateway) Functions() ([]engine.FunctionInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, errors.InvalidState("list functions", "closed")
	}
	return g.rt.interp.Functions(g.surface.Namespace)
}

// close rejects every later call. Calls already holding the lock finish.
func (g *Gateway) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
}
