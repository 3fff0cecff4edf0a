package engine

import (
	"context"
	"io/fs"

	"go.uber.org/zap"

	"github.com/wippyai/browsher/errors"
)

// Kind names a scripting backend.
type Kind string

const (
	KindLua Kind = "lua"
	KindJS  Kind = "js"
)

// Interpreter is one embedded runtime instance: a single global namespace
// shared by every module evaluated into it.
//
// Implementations are not safe for concurrent use and are not reentrant;
// callers serialize access.
type Interpreter interface {
	// Kind reports the backend.
	Kind() Kind

	// SetGlobal converts value canonically and binds it under name.
	SetGlobal(name string, value any) error

	// HasGlobal reports whether name is bound to a non-nil value.
	// It never triggers strict-global errors.
	HasGlobal(name string) bool

	// Exec compiles and runs source as one unit. label tags diagnostics.
	Exec(ctx context.Context, label string, source []byte) error

	// Function resolves namespace.name and fails with a lookup error when
	// the namespace or field is missing or not callable.
	Function(namespace, name string) (FunctionInfo, error)

	// Functions lists every callable field of namespace, sorted by name.
	Functions(namespace string) ([]FunctionInfo, error)

	// Call invokes namespace.name with args converted host to script and
	// returns exactly one converted result. Extra script results are dropped.
	Call(ctx context.Context, namespace, name string, args ...any) (any, error)

	// Close releases the interpreter. Further use is invalid.
	Close() error
}

// FunctionInfo describes one callable field of a namespace.
type FunctionInfo struct {
	Name     string
	Params   []string
	Arity    int
	Variadic bool
}

// Config holds interpreter construction settings.
type Config struct {
	// Logger receives script output (print, console.*). Defaults to Logger().
	Logger *zap.Logger

	// Modules backs require() in the JS backend. Optional.
	Modules fs.FS

	// StrictGlobals makes reads of undefined globals raise in the Lua
	// backend. goja already raises ReferenceError for undeclared names.
	StrictGlobals bool
}

// Option configures an interpreter.
type Option func(*Config)

// WithLogger routes script output to l.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithModuleFS serves require() lookups from fsys.
func WithModuleFS(fsys fs.FS) Option {
	return func(c *Config) {
		c.Modules = fsys
	}
}

// WithStrictGlobals toggles strict global reads.
func WithStrictGlobals(enabled bool) Option {
	return func(c *Config) {
		c.StrictGlobals = enabled
	}
}

// ParseKind maps a configuration string to a Kind. Empty selects Lua.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "lua":
		return KindLua, nil
	case "js", "javascript":
		return KindJS, nil
	default:
		return "", errors.InvalidInput(errors.PhaseInit, "unknown engine "+s)
	}
}

// New creates an interpreter of the given kind.
func New(kind Kind, opts ...Option) (Interpreter, error) {
	cfg := Config{StrictGlobals: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = Logger()
	}

	switch kind {
	case KindLua, "":
		e, err := NewLuaEngine(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case KindJS:
		e, err := NewGojaEngine(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, errors.Initialization(string(kind), errors.InvalidInput(errors.PhaseInit, "unsupported engine"))
	}
}
