package loader

import (
	"context"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/browsher/engine"
	"github.com/wippyai/browsher/errors"
)

// Loader evaluates a module sequence into an interpreter.
type Loader struct {
	fsys fs.FS
	seq  Sequence
	log  *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for per-module progress.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) {
		ld.log = l
	}
}

// New creates a loader reading sources from fsys.
func New(fsys fs.FS, seq Sequence, opts ...Option) *Loader {
	ld := &Loader{
		fsys: fsys,
		seq:  seq,
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.log == nil {
		ld.log = Logger()
	}
	return ld
}

// Sequence returns the configured sequence
func (ld *Loader) Sequence() Sequence {
	return ld.seq
}

// Load validates the sequence, then reads and evaluates each module in
// order. The first failure aborts: later modules are not read. The returned
// slice lists the modules that were evaluated successfully.
func (ld *Loader) Load(ctx context.Context, in engine.Interpreter) ([]Module, error) {
	if ld.fsys == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "no module filesystem configured")
	}
	if err := ld.seq.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loaded := make([]Module, 0, len(ld.seq))
	for _, m := range ld.seq {
		if err := ctx.Err(); err != nil {
			ce := errors.Canceled(errors.PhaseLoad, err)
			ce.Module = m.DisplayLabel()
			return loaded, ce
		}

		label := m.DisplayLabel()
		src, err := fs.ReadFile(ld.fsys, m.Path)
		if err != nil {
			ld.log.Error("module source unavailable",
				zap.String("module", m.Name),
				zap.String("path", m.Path),
				zap.Error(err))
			return loaded, errors.New(errors.PhaseLoad, errors.KindLoad).
				Module(label).
				Detail("read %s", m.Path).
				Cause(err).
				Build()
		}

		start := time.Now()
		if err := in.Exec(ctx, label, src); err != nil {
			ld.log.Error("module failed",
				zap.String("module", m.Name),
				zap.String("label", label),
				zap.Error(err))
			return loaded, err
		}

		ld.log.Debug("module loaded",
			zap.String("module", m.Name),
			zap.String("label", label),
			zap.Int("bytes", len(src)),
			zap.Duration("elapsed", time.Since(start)))
		loaded = append(loaded, m)
	}
	return loaded, nil
}
