// Package browsher embeds a scripting interpreter behind a small, ordered
// lifecycle: build the interpreter, publish the host root object, load a
// fixed sequence of script modules, then call named functions of one
// published namespace.
//
// The default bundle turns a file path and line range into a permalink on
// the repository host (GitHub, GitLab or Bitbucket) using the git state of
// the workspace.
//
// # Architecture Overview
//
//	browsher/            Root package with the Bridge interface
//	├── runtime/         Runtime (injection + loading), Gateway, Bridge lifecycle
//	├── engine/          Interpreter abstraction; gopher-lua and goja backends
//	├── loader/          Module sequence validation and ordered evaluation
//	├── host/            Host root object: git, settings, log, clipboard, env, fs
//	├── scripts/         Embedded default Lua bundle
//	├── config/          YAML/TOML configuration, validation and JSON Schema
//	├── errors/          Structured error types for debugging
//	└── cmd/browsher/    Command-line runner and interactive console
//
// # Quick Start
//
//	reg, err := host.NewDefault(host.Options{Workspace: dir})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	b := runtime.NewBridge(
//	    runtime.WithSource(scripts.FS()),
//	    runtime.WithRoot(reg.Root()),
//	)
//	if _, err := b.Activate(ctx, map[string]any{"workspace": dir}); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Deactivate(ctx)
//
//	url, err := b.Invoke(ctx, "url", "main.go", 10, 12)
//	fmt.Println(url) // https://github.com/org/repo/blob/<sha>/main.go#L10-L12
//
// # Lifecycle
//
// A bridge moves Uninitialized -> Active -> Deactivated. Activate runs
// setup exactly once; a failed activation closes the interpreter and leaves
// the bridge Uninitialized. Deactivate runs cleanup when the namespace
// defines it and always releases the interpreter.
//
// # Thread Safety
//
// Interpreters are single-threaded. The gateway serializes every call into
// the interpreter, so a Bridge may be shared between goroutines. Host
// capabilities must not call back into the gateway.
package browsher
