package runtime

import (
	"io/fs"

	"go.uber.org/zap"

	"github.com/wippyai/browsher/engine"
	"github.com/wippyai/browsher/host"
	"github.com/wippyai/browsher/loader"
)

// Options configures a Bridge.
type Options struct {
	Logger        *zap.Logger
	Engine        engine.Kind
	Source        fs.FS
	Sequence      loader.Sequence
	GlobalName    string
	Namespace     string
	StrictGlobals bool
	Root          any
	Hosts         []host.Capability
	Observers     []CallObserver
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Engine:        engine.KindLua,
		GlobalName:    DefaultGlobalName,
		Namespace:     DefaultNamespace,
		StrictGlobals: true,
	}
}

// WithLogger sets the bridge logger. Script output goes to it too.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithEngine selects the scripting backend.
func WithEngine(kind engine.Kind) Option {
	return func(o *Options) {
		o.Engine = kind
	}
}

// WithSource sets the filesystem module paths resolve against.
func WithSource(fsys fs.FS) Option {
	return func(o *Options) {
		o.Source = fsys
	}
}

// WithSequence replaces the default module sequence.
func WithSequence(seq loader.Sequence) Option {
	return func(o *Options) {
		o.Sequence = seq
	}
}

// WithGlobalName changes the global the host root is bound under.
func WithGlobalName(name string) Option {
	return func(o *Options) {
		o.GlobalName = name
	}
}

// WithNamespace changes the global the gateway dispatches into.
func WithNamespace(name string) Option {
	return func(o *Options) {
		o.Namespace = name
	}
}

// WithStrictGlobals toggles strict global reads in the Lua backend.
func WithStrictGlobals(enabled bool) Option {
	return func(o *Options) {
		o.StrictGlobals = enabled
	}
}

// WithRoot injects root as-is instead of the registered capabilities.
func WithRoot(root any) Option {
	return func(o *Options) {
		o.Root = root
	}
}

// WithHost registers capabilities on the runtime before injection.
func WithHost(caps ...host.Capability) Option {
	return func(o *Options) {
		o.Hosts = append(o.Hosts, caps...)
	}
}

// WithObserver is notified after every gateway call.
func WithObserver(obs CallObserver) Option {
	return func(o *Options) {
		o.Observers = append(o.Observers, obs)
	}
}

// sourceExt maps a backend to its module file extension.
func sourceExt(kind engine.Kind) string {
	if kind == engine.KindJS {
		return ".js"
	}
	return ".lua"
}
