// Package errors provides structured error types for the script bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the module label, value path, Go/script type names and
// cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindConversion).
//		Path("args", "2").
//		GoType("chan int").
//		ScriptType("table").
//		Detail("channels cannot cross the boundary").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Lookup("browsher_platform", "open", "function not defined")
//	err := errors.Load("url.lua", cause)
//
// Callers test categories with the Kind sentinels:
//
//	if errors.Is(err, bridgeerrors.ErrLookup) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
