// Package engine embeds the scripting runtimes the bridge drives.
//
// Two backends implement Interpreter:
//
//	LuaEngine  - gopher-lua (Lua 5.1); the default backend
//	GojaEngine - goja (ECMAScript) with goja_nodejs require() and console
//
// An interpreter owns one global namespace. Modules are evaluated into it
// in order with Exec, and functions published on a namespace table are
// resolved and invoked with Function and Call.
//
// # Value Conversion
//
// Values cross the boundary through one canonical mapping:
//
//	Host value                Script value           Back to host
//	─────────────────────────────────────────────────────────────
//	nil                       nil / null             nil
//	bool                      boolean                bool
//	int*, uint*, float*       number                 float64
//	string, []byte            string                 string
//	[]T, [N]T                 list (1-based in Lua)  []any
//	map[string]T              table / object         map[string]any
//	func                      callable wrapper       (not convertible)
//	struct, pointer, chan     live reference         original value
//
// Integers beyond ±2^53 fail with a conversion error rather than rounding.
// Script functions and coroutines cannot leave the interpreter.
//
// An empty Lua table decodes as map[string]any{} unless it was created
// from a host list. Host lists record their length, so trailing nils
// survive a round trip; in tables built by scripts they are lost.
//
// # Host Functions
//
// Go functions become script callables. Arguments are coerced to the Go
// parameter types; a trailing error result, when non-nil, is raised as a
// script error that the calling script may catch with pcall or try.
//
// # Concurrency
//
// Interpreters are single-threaded and not reentrant. A host function must
// not call back into the interpreter that invoked it.
package engine
