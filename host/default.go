package host

import (
	"go.uber.org/zap"
)

// Options configures the standard capability set.
type Options struct {
	Logger    *zap.Logger
	Settings  map[string]any
	Workspace string
	Clipboard ClipboardBackend
}

// NewDefault registers git, settings, log, clipboard, env and fs.
func NewDefault(o Options) (*Registry, error) {
	if o.Workspace == "" {
		o.Workspace = "."
	}

	r := NewRegistry()
	caps := []Capability{
		NewGit(),
		NewSettings(o.Settings),
		NewLog(o.Logger),
		NewClipboard(o.Clipboard),
		Env{},
		NewFS(o.Workspace),
	}
	for _, c := range caps {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}
