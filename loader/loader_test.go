package loader

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/browsher/engine"
	"github.com/wippyai/browsher/errors"
)

func bundle() fstest.MapFS {
	return fstest.MapFS{
		"core/config.lua": {Data: []byte(`browsher_config = { remote = "origin" }`)},
		"core/git.lua":    {Data: []byte(`browsher_git = { remote = browsher_config.remote }`)},
		"core/url.lua":    {Data: []byte(`browsher_url = { base = "https://example.com/" .. browsher_git.remote }`)},
		"core/init.lua":   {Data: []byte(`browsher = { url = browsher_url }`)},
		"platforms/cli.lua": {Data: []byte(`
browsher_platform = {}
function browsher_platform.url() return browsher.url.base end
`)},
	}
}

func newLua(t *testing.T) engine.Interpreter {
	t.Helper()
	in, err := engine.New(engine.KindLua)
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })
	return in
}

func TestLoadDefaultSequence(t *testing.T) {
	in := newLua(t)
	ld := New(bundle(), DefaultSequence(".lua"))

	loaded, err := ld.Load(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"config", "git", "url", "init", "platform"}, Sequence(loaded).Names())

	got, err := in.Call(context.Background(), "browsher_platform", "url")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/origin", got)
}

func TestLoadWithoutContext(t *testing.T) {
	in := newLua(t)

	var ctx context.Context
	loaded, err := New(bundle(), DefaultSequence(".lua")).Load(ctx, in)
	require.NoError(t, err)
	assert.Len(t, loaded, 5)
}

func TestLoadAbortsOnFailure(t *testing.T) {
	fsys := bundle()
	fsys["core/url.lua"] = &fstest.MapFile{Data: []byte(`error("bad url module")`)}

	in := newLua(t)
	loaded, err := New(fsys, DefaultSequence(".lua")).Load(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrLoad)
	assert.Contains(t, err.Error(), "core/url")
	assert.Equal(t, []string{"config", "git"}, Sequence(loaded).Names())

	assert.False(t, in.HasGlobal("browsher"))
	assert.False(t, in.HasGlobal("browsher_platform"))
}

func TestLoadOutOfOrderIsUnresolved(t *testing.T) {
	// url reads browsher_git, which a later module defines; requirements
	// are deliberately left undeclared so validation passes.
	seq := Sequence{
		{Name: "config", Path: "core/config.lua"},
		{Name: "url", Path: "core/url.lua"},
		{Name: "git", Path: "core/git.lua"},
	}

	in := newLua(t)
	_, err := New(bundle(), seq).Load(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnresolved)
	assert.Contains(t, err.Error(), "core/url")
}

func TestLoadMissingSource(t *testing.T) {
	fsys := bundle()
	delete(fsys, "core/git.lua")

	_, err := New(fsys, DefaultSequence(".lua")).Load(context.Background(), newLua(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrLoad)
	assert.Contains(t, err.Error(), "core/git")
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loaded, err := New(bundle(), DefaultSequence(".lua")).Load(ctx, newLua(t))
	assert.ErrorIs(t, err, errors.ErrCanceled)
	assert.Empty(t, loaded)
}

func TestLoadCustomLabel(t *testing.T) {
	seq := Sequence{{Name: "only", Path: "main.lua", Label: "entry"}}
	fsys := fstest.MapFS{"main.lua": {Data: []byte(`error("nope")`)}}

	_, err := New(fsys, seq).Load(context.Background(), newLua(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry")
}

func TestLoadJavaScript(t *testing.T) {
	fsys := fstest.MapFS{
		"core/config.js":   {Data: []byte(`var browsher_config = { remote: "origin" };`)},
		"core/git.js":      {Data: []byte(`var browsher_git = { remote: browsher_config.remote };`)},
		"core/url.js":      {Data: []byte(`var browsher_url = { base: "https://example.com/" + browsher_git.remote };`)},
		"core/init.js":     {Data: []byte(`var browsher = { url: browsher_url };`)},
		"platforms/cli.js": {Data: []byte(`var browsher_platform = { url: function() { return browsher.url.base; } };`)},
	}

	in, err := engine.New(engine.KindJS)
	require.NoError(t, err)
	defer in.Close()

	_, err = New(fsys, DefaultSequence(".js")).Load(context.Background(), in)
	require.NoError(t, err)

	got, err := in.Call(context.Background(), "browsher_platform", "url")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/origin", got)
}
