// Package runtime connects a host program to an embedded script bundle.
//
// The package is organized in four layers, each built on the one before:
//
//	Runtime  - owns the interpreter and injects the host root once
//	Loader   - evaluates the module sequence (package loader)
//	Gateway  - the single, serialized dispatch point into the namespace
//	Bridge   - the activate/deactivate lifecycle over all of the above
//
// # Quick Start
//
//	b := runtime.NewBridge(
//	    runtime.WithSource(scripts.FS),
//	    runtime.WithHost(host.NewGit(), host.NewSettings(opts)),
//	)
//
//	res, err := b.Activate(ctx, map[string]any{"workspace": dir})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Deactivate(ctx)
//
//	url, err := b.Invoke(ctx, "url", "src/main.go", 10, 12)
//
// # Lifecycle
//
// A bridge moves Uninitialized -> Active -> Deactivated. Activate creates the
// interpreter, injects the host root, loads every module in order, installs
// the gateway and calls setup(activation) as the first gateway call. A
// failure at any step closes the interpreter and leaves the bridge
// Uninitialized. Deactivate calls cleanup() when the namespace defines it,
// closes the interpreter and never fails.
//
// # Thread Safety
//
// Bridge and Gateway are safe for concurrent use. Gateway calls are
// serialized with a mutex; the interpreter itself is never entered by two
// goroutines at once. Host functions must not call back into the gateway.
//
// # Timeouts
//
// The bridge imposes none. Pass a context with a deadline to bound a call;
// both backends stop running script code when the context ends.
package runtime
