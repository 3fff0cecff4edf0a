// Package config loads bridge settings from YAML or TOML files.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/browsher/engine"
	"github.com/wippyai/browsher/errors"
	"github.com/wippyai/browsher/loader"
)

// Config is the on-disk bridge configuration.
type Config struct {
	Engine        string          `yaml:"engine" toml:"engine" json:"engine,omitempty" validate:"omitempty,oneof=lua js javascript" jsonschema:"enum=lua,enum=js,enum=javascript,description=Scripting backend"`
	ScriptsDir    string          `yaml:"scripts_dir" toml:"scripts_dir" json:"scripts_dir,omitempty" jsonschema:"description=Directory holding module sources; empty uses the embedded bundle"`
	Workspace     string          `yaml:"workspace" toml:"workspace" json:"workspace,omitempty" jsonschema:"description=Root passed to setup and the fs capability"`
	GlobalName    string          `yaml:"global_name" toml:"global_name" json:"global_name,omitempty" validate:"required,identifier"`
	Namespace     string          `yaml:"namespace" toml:"namespace" json:"namespace,omitempty" validate:"required,identifier"`
	StrictGlobals bool            `yaml:"strict_globals" toml:"strict_globals" json:"strict_globals"`
	Modules       loader.Sequence `yaml:"modules" toml:"modules" json:"modules,omitempty" validate:"omitempty,dive"`
	Options       map[string]any  `yaml:"options" toml:"options" json:"options,omitempty" jsonschema:"description=Values scripts read through host.settings"`
	Log           LogConfig       `yaml:"log" toml:"log" json:"log"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level,omitempty" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `yaml:"format" toml:"format" json:"format,omitempty" validate:"oneof=console json" jsonschema:"enum=console,enum=json"`
}

var (
	validate     = validator.New()
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func init() {
	_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifierRe.MatchString(fl.Field().String())
	})
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine:        string(engine.KindLua),
		GlobalName:    "host",
		Namespace:     "browsher_platform",
		StrictGlobals: true,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path, choosing the decoder by extension (.yaml, .yml, .toml),
// applies it over Default and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read "+path)
	}

	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".toml":
		format = "toml"
	default:
		return Config{}, errors.InvalidInput(errors.PhaseConfig, "unsupported config extension "+filepath.Ext(path))
	}

	cfg, err := Parse(data, format)
	if err != nil {
		return Config{}, err
	}
	if cfg.ScriptsDir != "" && !filepath.IsAbs(cfg.ScriptsDir) {
		cfg.ScriptsDir = filepath.Join(filepath.Dir(path), cfg.ScriptsDir)
	}
	return cfg, nil
}

// Parse decodes data in format ("yaml" or "toml") over Default and
// validates the result.
func Parse(data []byte, format string) (Config, error) {
	cfg := Default()

	var err error
	switch format {
	case "yaml":
		err = decodeYAML(data, &cfg)
	case "toml":
		err = decodeTOML(data, &cfg)
	default:
		return Config{}, errors.InvalidInput(errors.PhaseConfig, "unsupported config format "+format)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "decode "+format)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

// fileConfig mirrors Config for TOML so defined keys can be told apart
// from zero values.
type fileConfig struct {
	Engine        string          `toml:"engine"`
	ScriptsDir    string          `toml:"scripts_dir"`
	Workspace     string          `toml:"workspace"`
	GlobalName    string          `toml:"global_name"`
	Namespace     string          `toml:"namespace"`
	StrictGlobals bool            `toml:"strict_globals"`
	Modules       loader.Sequence `toml:"modules"`
	Options       map[string]any  `toml:"options"`
	Log           struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

func decodeTOML(data []byte, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("engine") {
		cfg.Engine = strings.TrimSpace(raw.Engine)
	}
	if meta.IsDefined("scripts_dir") {
		cfg.ScriptsDir = raw.ScriptsDir
	}
	if meta.IsDefined("workspace") {
		cfg.Workspace = raw.Workspace
	}
	if meta.IsDefined("global_name") {
		cfg.GlobalName = raw.GlobalName
	}
	if meta.IsDefined("namespace") {
		cfg.Namespace = raw.Namespace
	}
	if meta.IsDefined("strict_globals") {
		cfg.StrictGlobals = raw.StrictGlobals
	}
	if meta.IsDefined("modules") {
		cfg.Modules = raw.Modules
	}
	if meta.IsDefined("options") {
		cfg.Options = raw.Options
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = raw.Log.Level
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = raw.Log.Format
	}
	return nil
}

// Validate checks field constraints and, when set, the module sequence.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "validate config")
	}
	if len(c.Modules) > 0 {
		if err := c.Modules.Validate(); err != nil {
			return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "validate modules")
		}
	}
	return nil
}

// EngineKind returns the configured backend.
func (c Config) EngineKind() (engine.Kind, error) {
	return engine.ParseKind(c.Engine)
}

// Sequence returns the configured modules, or the default layout for the
// engine.
func (c Config) Sequence() (loader.Sequence, error) {
	if len(c.Modules) > 0 {
		return c.Modules, nil
	}
	kind, err := c.EngineKind()
	if err != nil {
		return nil, err
	}
	if kind == engine.KindJS {
		return loader.DefaultSequence(".js"), nil
	}
	return loader.DefaultSequence(".lua"), nil
}

// Schema returns the JSON Schema for Config.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "marshal schema")
	}
	return out, nil
}

// Logger builds a zap logger from the log section.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}

	var zc zap.Config
	if c.Log.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	log, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInitialization, err, "build logger")
	}
	return log, nil
}
