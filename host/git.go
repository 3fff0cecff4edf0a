package host

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/wippyai/browsher/errors"
)

// Git answers repository questions for scripts building remote URLs.
// Every function takes a path and opens the repository fresh, so scripts
// always see the current branch and remotes.
type Git struct{}

func NewGit() *Git {
	return &Git{}
}

func (*Git) Namespace() string { return "git" }

func openRepo(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, errors.NotFound(errors.PhaseHost, "repository", path)
		}
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "open repository at "+path)
	}
	return repo, nil
}

// Root returns the worktree root containing path, which may name a file.
func (*Git) Root(path string) (string, error) {
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		path = filepath.Dir(path)
	}
	repo, err := openRepo(path)
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "repository has no worktree")
	}
	return wt.Filesystem.Root(), nil
}

// Branch returns the checked-out branch, or "" when HEAD is detached.
// An unborn branch still reports its name.
func (*Git) Branch(root string) (string, error) {
	repo, err := openRepo(root)
	if err != nil {
		return "", err
	}
	ref, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", errors.Wrap(errors.PhaseHost, errors.KindNotFound, err, "read HEAD")
	}
	if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
		return ref.Target().Short(), nil
	}
	return "", nil
}

// Head returns the commit hash HEAD resolves to.
func (*Git) Head(root string) (string, error) {
	repo, err := openRepo(root)
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", errors.Wrap(errors.PhaseHost, errors.KindNotFound, err, "resolve HEAD")
	}
	return ref.Hash().String(), nil
}

// Remotes lists configured remote names, sorted.
func (*Git) Remotes(root string) ([]string, error) {
	repo, err := openRepo(root)
	if err != nil {
		return nil, err
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "list remotes")
	}
	names := make([]string, 0, len(remotes))
	for _, r := range remotes {
		names = append(names, r.Config().Name)
	}
	sort.Strings(names)
	return names, nil
}

// RemoteURL returns the first URL of the named remote.
func (*Git) RemoteURL(root, name string) (string, error) {
	repo, err := openRepo(root)
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote(name)
	if err != nil {
		if stderrors.Is(err, git.ErrRemoteNotFound) {
			return "", errors.NotFound(errors.PhaseHost, "remote", name)
		}
		return "", errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "read remote "+name)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", errors.NotFound(errors.PhaseHost, "remote url", name)
	}
	return urls[0], nil
}

// RelPath returns path relative to root with forward slashes. Paths
// outside root are rejected.
func (*Git) RelPath(root, path string) (string, error) {
	absRoot, err := canonical(root)
	if err != nil {
		return "", err
	}
	absPath, err := canonical(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "relate "+path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.InvalidInput(errors.PhaseHost, path+" is outside "+root)
	}
	return filepath.ToSlash(rel), nil
}

func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "resolve "+p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// IsDirty reports whether the worktree has uncommitted changes.
func (*Git) IsDirty(root string) (bool, error) {
	repo, err := openRepo(root)
	if err != nil {
		return false, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "repository has no worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return false, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "worktree status")
	}
	return !status.IsClean(), nil
}
