package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/browsher/engine"
	"github.com/wippyai/browsher/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "lua", cfg.Engine)
	assert.Equal(t, "host", cfg.GlobalName)
	assert.Equal(t, "browsher_platform", cfg.Namespace)
	assert.True(t, cfg.StrictGlobals)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "browsher.yaml", `
engine: js
scripts_dir: scripts
global_name: bridge
options:
  remote: upstream
  providers:
    git.corp.example: gitlab
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "js", cfg.Engine)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "scripts"), cfg.ScriptsDir)
	assert.Equal(t, "bridge", cfg.GlobalName)
	assert.Equal(t, "browsher_platform", cfg.Namespace, "unset keys keep defaults")
	assert.True(t, cfg.StrictGlobals)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "upstream", cfg.Options["remote"])
	assert.Equal(t, map[string]any{"git.corp.example": "gitlab"}, cfg.Options["providers"])

	kind, err := cfg.EngineKind()
	require.NoError(t, err)
	assert.Equal(t, engine.KindJS, kind)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "browsher.toml", `
strict_globals = false
namespace = "editor_platform"

[log]
format = "json"

[[modules]]
name = "config"
path = "core/config.lua"

[[modules]]
name = "init"
path = "core/init.lua"
requires = ["config"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.StrictGlobals)
	assert.Equal(t, "editor_platform", cfg.Namespace)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "host", cfg.GlobalName)
	require.Len(t, cfg.Modules, 2)
	assert.Equal(t, []string{"config"}, cfg.Modules[1].Requires)

	seq, err := cfg.Sequence()
	require.NoError(t, err)
	assert.Equal(t, []string{"config", "init"}, seq.Names())
}

func TestEmptyYAMLKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil, "yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDefaultSequenceFollowsEngine(t *testing.T) {
	cfg := Default()
	seq, err := cfg.Sequence()
	require.NoError(t, err)
	assert.Equal(t, "platforms/cli.lua", seq[len(seq)-1].Path)

	cfg.Engine = "js"
	seq, err = cfg.Sequence()
	require.NoError(t, err)
	assert.Equal(t, "platforms/cli.js", seq[len(seq)-1].Path)
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   string
	}{
		{"unknown engine", "yaml", "engine: python"},
		{"bad global name", "yaml", "global_name: 'my host'"},
		{"empty namespace", "toml", `namespace = ""`},
		{"bad log level", "yaml", "log:\n  level: trace"},
		{"unknown yaml key", "yaml", "engines: lua"},
		{"unknown toml key", "toml", `engines = "lua"`},
		{"malformed toml", "toml", `engine = `},
		{"module without path", "yaml", "modules:\n  - name: config"},
		{"module order", "yaml", "modules:\n  - name: a\n    path: a.lua\n    requires: [b]\n  - name: b\n    path: b.lua"},
		{"unknown format", "ini", "engine=lua"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			require.Error(t, err)

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, errors.PhaseConfig, e.Phase)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := writeFile(t, "browsher.json", `{}`)
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config extension")
}

func TestSchema(t *testing.T) {
	out, err := Schema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(out, &schema))

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"engine", "scripts_dir", "global_name", "namespace", "modules", "options", "log"} {
		assert.Contains(t, props, key)
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(-1))
	assert.True(t, log.Core().Enabled(1))
}
