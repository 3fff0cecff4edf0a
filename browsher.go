package browsher

import "context"

// Bridge is the lifecycle surface an editor or CLI integration drives.
// *runtime.Bridge implements it.
type Bridge interface {
	// Activate loads the module sequence and invokes setup once.
	Activate(ctx context.Context, activation any) (any, error)
	// Invoke calls a function of the published namespace.
	Invoke(ctx context.Context, name string, args ...any) (any, error)
	// Deactivate invokes cleanup and releases the interpreter.
	Deactivate(ctx context.Context) any
}
