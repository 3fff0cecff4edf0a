package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/browsher/config"
	"github.com/wippyai/browsher/engine"
	"github.com/wippyai/browsher/host"
	"github.com/wippyai/browsher/runtime"
	"github.com/wippyai/browsher/scripts"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Config file (.yaml, .yml or .toml)")
		scriptsDir  = flag.String("scripts", "", "Module source directory (default: embedded Lua bundle)")
		engineName  = flag.String("engine", "", "Scripting engine: lua or js")
		funcName    = flag.String("func", "", "Namespace function to call")
		argsJSON    = flag.String("args", "", "Arguments as a JSON array")
		list        = flag.Bool("list", false, "List namespace functions and exit")
		schema      = flag.Bool("schema", false, "Print the config JSON Schema and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		argList     stringList
	)
	flag.Var(&argList, "arg", "Argument to pass (repeatable; JSON literals are decoded)")
	flag.Parse()

	if *schema {
		out, err := config.Schema()
		if err != nil {
			fatal(err)
		}
		fmt.Println(string(out))
		return
	}

	cfg, err := loadConfig(*configPath, *scriptsDir, *engineName)
	if err != nil {
		fatal(err)
	}

	log, err := cfg.Logger()
	if err != nil {
		fatal(err)
	}
	defer func() { _ = log.Sync() }()

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fatal(fmt.Errorf("interactive mode needs a terminal"))
		}
		// the TUI owns the screen; keep logs out of it
		if err := runInteractive(cfg, zap.NewNop()); err != nil {
			fatal(err)
		}
		return
	}

	args, err := buildArgs(argList, *argsJSON)
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log, *funcName, args, *list); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(path, scriptsDir, engineName string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if scriptsDir != "" {
		cfg.ScriptsDir = scriptsDir
	}
	if engineName != "" {
		cfg.Engine = engineName
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newBridge wires the standard host capabilities and module source into
// a bridge. The returned map is the activation context passed to setup.
func newBridge(cfg config.Config, log *zap.Logger) (*runtime.Bridge, map[string]any, error) {
	kind, err := cfg.EngineKind()
	if err != nil {
		return nil, nil, err
	}
	seq, err := cfg.Sequence()
	if err != nil {
		return nil, nil, err
	}

	var source = scripts.FS()
	switch {
	case cfg.ScriptsDir != "":
		source = os.DirFS(cfg.ScriptsDir)
	case kind != engine.KindLua:
		return nil, nil, fmt.Errorf("the embedded bundle is Lua; pass -scripts for the %s engine", kind)
	}

	workspace := cfg.Workspace
	if workspace == "" {
		if workspace, err = os.Getwd(); err != nil {
			return nil, nil, fmt.Errorf("working directory: %w", err)
		}
	}

	reg, err := host.NewDefault(host.Options{
		Logger:    log,
		Settings:  cfg.Options,
		Workspace: workspace,
	})
	if err != nil {
		return nil, nil, err
	}

	b := runtime.NewBridge(
		runtime.WithLogger(log),
		runtime.WithEngine(kind),
		runtime.WithSource(source),
		runtime.WithSequence(seq),
		runtime.WithGlobalName(cfg.GlobalName),
		runtime.WithNamespace(cfg.Namespace),
		runtime.WithStrictGlobals(cfg.StrictGlobals),
		runtime.WithRoot(reg.Root()),
	)

	activation := map[string]any{
		"workspace": workspace,
		"options":   cfg.Options,
	}
	return b, activation, nil
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger, funcName string, args []any, listOnly bool) error {
	b, activation, err := newBridge(cfg, log)
	if err != nil {
		return err
	}

	setup, err := b.Activate(ctx, activation)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	defer b.Deactivate(context.Background())

	if listOnly {
		funcs, err := b.Gateway().Functions()
		if err != nil {
			return err
		}
		fmt.Printf("Functions in %s:\n", cfg.Namespace)
		for _, f := range funcs {
			fmt.Printf("  %s\n", signature(f))
		}
		return nil
	}

	if funcName == "" {
		fmt.Println(formatResult(setup))
		return nil
	}

	result, err := b.Invoke(ctx, funcName, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}
	fmt.Println(formatResult(result))
	return nil
}

// signature renders a function as name(a, b, ...).
func signature(f engine.FunctionInfo) string {
	params := make([]string, 0, len(f.Params)+1)
	params = append(params, f.Params...)
	if len(params) == 0 {
		for i := 0; i < f.Arity; i++ {
			params = append(params, fmt.Sprintf("arg%d", i))
		}
	}
	if f.Variadic {
		params = append(params, "...")
	}
	return f.Name + "(" + strings.Join(params, ", ") + ")"
}
