package runtime

import (
	"context"
	"sort"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/wippyai/browsher/engine"
	"github.com/wippyai/browsher/errors"
	"github.com/wippyai/browsher/host"
	"github.com/wippyai/browsher/loader"
)

const platformLua = `
local counter = 0
browsher_platform = {}
function browsher_platform.setup(ctx) return "ok:" .. ctx.id end
function browsher_platform.cleanup() return "bye" end
function browsher_platform.echo(v) return v end
function browsher_platform.bump()
  counter = counter + 1
  return counter
end
function browsher_platform.remote() return host.settings.get("remote") end
function browsher_platform.base() return browsher.base end
`

func luaBundle(platform string) fstest.MapFS {
	return fstest.MapFS{
		"core/config.lua":   {Data: []byte(`browsher_config = { base = "https://example.com" }`)},
		"core/git.lua":      {Data: []byte(`browsher_git = {}`)},
		"core/url.lua":      {Data: []byte(`browsher_url = { base = browsher_config.base }`)},
		"core/init.lua":     {Data: []byte(`browsher = { base = browsher_url.base, git = browsher_git }`)},
		"platforms/cli.lua": {Data: []byte(platform)},
	}
}

type recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *recorder) observe(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Name
	}
	return out
}

type BridgeSuite struct {
	suite.Suite
	ctx    context.Context
	rec    *recorder
	bridge *Bridge
}

func (s *BridgeSuite) SetupTest() {
	s.ctx = context.Background()
	s.rec = &recorder{}
	s.bridge = NewBridge(
		WithSource(luaBundle(platformLua)),
		WithHost(host.NewSettings(map[string]any{"remote": "origin"})),
		WithObserver(s.rec.observe),
	)
}

func (s *BridgeSuite) TearDownTest() {
	s.bridge.Deactivate(s.ctx)
}

func (s *BridgeSuite) TestActivateDeactivate() {
	res, err := s.bridge.Activate(s.ctx, map[string]any{"id": "42"})
	s.Require().NoError(err)
	s.Equal("ok:42", res)
	s.Equal("ok:42", s.bridge.SetupResult())
	s.Equal(StateActive, s.bridge.State())

	s.Equal("bye", s.bridge.Deactivate(s.ctx))
	s.Equal(StateDeactivated, s.bridge.State())

	_, err = s.bridge.Invoke(s.ctx, "echo", "x")
	s.ErrorIs(err, errors.ErrInvalidState)

	_, err = s.bridge.Activate(s.ctx, map[string]any{"id": "43"})
	s.ErrorIs(err, errors.ErrInvalidState)

	s.Nil(s.bridge.Deactivate(s.ctx))
}

func (s *BridgeSuite) TestSetupIsFirstAndOnce() {
	_, err := s.bridge.Activate(s.ctx, map[string]any{"id": "1"})
	s.Require().NoError(err)

	_, err = s.bridge.Invoke(s.ctx, "echo", "a")
	s.Require().NoError(err)
	_, err = s.bridge.Invoke(s.ctx, "echo", "b")
	s.Require().NoError(err)

	names := s.rec.names()
	s.Require().NotEmpty(names)
	s.Equal(FuncSetup, names[0])

	setups := 0
	for _, n := range names {
		if n == FuncSetup {
			setups++
		}
	}
	s.Equal(1, setups)
}

func (s *BridgeSuite) TestDeactivateBeforeActivate() {
	s.Nil(s.bridge.Deactivate(s.ctx))
	s.Equal(StateUninitialized, s.bridge.State())
	s.Empty(s.rec.names())

	_, err := s.bridge.Invoke(s.ctx, "echo", 1)
	s.ErrorIs(err, errors.ErrInvalidState)
	s.Nil(s.bridge.Gateway())
}

func (s *BridgeSuite) TestUnknownFunction() {
	_, err := s.bridge.Activate(s.ctx, map[string]any{"id": "1"})
	s.Require().NoError(err)

	_, err = s.bridge.Invoke(s.ctx, "does_not_exist")
	s.ErrorIs(err, errors.ErrLookup)
}

func (s *BridgeSuite) TestHostRootVisible() {
	_, err := s.bridge.Activate(s.ctx, map[string]any{"id": "1"})
	s.Require().NoError(err)

	got, err := s.bridge.Invoke(s.ctx, "remote")
	s.Require().NoError(err)
	s.Equal("origin", got)

	got, err = s.bridge.Invoke(s.ctx, "base")
	s.Require().NoError(err)
	s.Equal("https://example.com", got)
}

func (s *BridgeSuite) TestConcurrentInvokesSerialized() {
	_, err := s.bridge.Activate(s.ctx, map[string]any{"id": "1"})
	s.Require().NoError(err)

	const n = 50
	results := make([]float64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.bridge.Invoke(s.ctx, "bump")
			if err == nil {
				results[i], _ = v.(float64)
			}
		}(i)
	}
	wg.Wait()

	sort.Float64s(results)
	for i, v := range results {
		s.Equal(float64(i+1), v)
	}
}

func (s *BridgeSuite) TestStaleGatewayRejected() {
	_, err := s.bridge.Activate(s.ctx, map[string]any{"id": "1"})
	s.Require().NoError(err)

	gw := s.bridge.Gateway()
	s.Require().NotNil(gw)
	s.bridge.Deactivate(s.ctx)

	_, err = gw.Invoke(s.ctx, "echo", "x")
	s.ErrorIs(err, errors.ErrInvalidState)
}

func TestBridgeSuite(t *testing.T) {
	suite.Run(t, new(BridgeSuite))
}

func TestActivateFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		platform string
		target   error
	}{
		{
			name:     "module error",
			platform: `error("platform exploded")`,
			target:   errors.ErrLoad,
		},
		{
			name:     "missing setup",
			platform: `browsher_platform = { cleanup = function() end }`,
			target:   errors.ErrLookup,
		},
		{
			name:     "missing namespace",
			platform: `local nothing = true`,
			target:   errors.ErrLookup,
		},
		{
			name:     "setup raises",
			platform: `browsher_platform = { setup = function() error("no context") end }`,
			target:   errors.ErrInvocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			b := NewBridge(WithSource(luaBundle(tt.platform)), WithObserver(rec.observe))

			_, err := b.Activate(ctx, map[string]any{"id": "1"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, StateUninitialized, b.State())
			assert.Nil(t, b.Deactivate(ctx))
		})
	}
}

func TestActivateOutOfOrder(t *testing.T) {
	seq := loader.Sequence{
		{Name: "config", Path: "core/config.lua"},
		{Name: "init", Path: "core/init.lua"},
		{Name: "url", Path: "core/url.lua"},
		{Name: "git", Path: "core/git.lua"},
		{Name: "platform", Path: "platforms/cli.lua"},
	}
	rec := &recorder{}
	b := NewBridge(WithSource(luaBundle(platformLua)), WithSequence(seq), WithObserver(rec.observe))

	_, err := b.Activate(context.Background(), map[string]any{"id": "1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnresolved)
	assert.Contains(t, err.Error(), "core/init")
	assert.Empty(t, rec.names())
}

func TestDeactivateWithoutCleanup(t *testing.T) {
	platform := `browsher_platform = { setup = function(ctx) return ctx.id end }`
	b := NewBridge(WithSource(luaBundle(platform)))

	res, err := b.Activate(context.Background(), map[string]any{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "7", res)

	assert.Nil(t, b.Deactivate(context.Background()))
	assert.Equal(t, StateDeactivated, b.State())
}

func TestDeactivateAbsorbsCleanupFailure(t *testing.T) {
	platform := `
browsher_platform = {
  setup = function() return true end,
  cleanup = function() error("teardown failed") end,
}`
	b := NewBridge(WithSource(luaBundle(platform)))

	_, err := b.Activate(context.Background(), nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		assert.Nil(t, b.Deactivate(context.Background()))
	})
	assert.Equal(t, StateDeactivated, b.State())
}

func TestNilContext(t *testing.T) {
	b := NewBridge(WithSource(luaBundle(platformLua)))

	var ctx context.Context
	res, err := b.Activate(ctx, map[string]any{"id": "5"})
	require.NoError(t, err)
	assert.Equal(t, "ok:5", res)

	got, err := b.Invoke(ctx, "echo", "x")
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	assert.Equal(t, "bye", b.Deactivate(ctx))
}

func TestActivateWithoutSource(t *testing.T) {
	_, err := NewBridge().Activate(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, StateUninitialized, NewBridge().State())
}

func TestJavaScriptBridge(t *testing.T) {
	fsys := fstest.MapFS{
		"core/config.js": {Data: []byte(`var browsher_config = {};`)},
		"core/git.js":    {Data: []byte(`var browsher_git = {};`)},
		"core/url.js":    {Data: []byte(`var browsher_url = {};`)},
		"core/init.js":   {Data: []byte(`var browsher = { config: browsher_config };`)},
		"platforms/cli.js": {Data: []byte(`
var browsher_platform = {
  setup: function(ctx) { return "ok:" + ctx.id; },
  cleanup: function() { return "bye"; },
  remote: function() { return host.settings.get("remote"); }
};`)},
	}

	b := NewBridge(
		WithEngine(engine.KindJS),
		WithSource(fsys),
		WithHost(host.NewSettings(map[string]any{"remote": "upstream"})),
	)

	res, err := b.Activate(context.Background(), map[string]any{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "ok:42", res)

	got, err := b.Invoke(context.Background(), "remote")
	require.NoError(t, err)
	assert.Equal(t, "upstream", got)

	assert.Equal(t, "bye", b.Deactivate(context.Background()))
}
