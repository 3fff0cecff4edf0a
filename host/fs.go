package host

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/wippyai/browsher/errors"
)

// FS gives scripts read access to files beneath a workspace root.
type FS struct {
	root fs.FS
}

// NewFS roots reads at dir.
func NewFS(dir string) *FS {
	return &FS{root: os.DirFS(dir)}
}

// NewFSFrom roots reads at an existing filesystem.
func NewFSFrom(fsys fs.FS) *FS {
	return &FS{root: fsys}
}

func (*FS) Namespace() string { return "fs" }

func clean(name string) (string, error) {
	p := path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/"))
	if !fs.ValidPath(p) {
		return "", errors.InvalidInput(errors.PhaseHost, "path "+name+" escapes the workspace")
	}
	return p, nil
}

// ReadFile returns the file contents as text.
func (f *FS) ReadFile(name string) (string, error) {
	p, err := clean(name)
	if err != nil {
		return "", err
	}
	data, err := fs.ReadFile(f.root, p)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", errors.NotFound(errors.PhaseHost, "file", name)
		}
		return "", errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "read "+name)
	}
	return string(data), nil
}

// Exists reports whether name exists beneath the root.
func (f *FS) Exists(name string) bool {
	p, err := clean(name)
	if err != nil {
		return false
	}
	_, err = fs.Stat(f.root, p)
	return err == nil
}
