package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the bridge the error occurred
type Phase string

const (
	PhaseConfig    Phase = "config"    // configuration loading
	PhaseInit      Phase = "init"      // interpreter creation
	PhaseInject    Phase = "inject"    // host root injection
	PhaseLoad      Phase = "load"      // module loading
	PhaseGateway   Phase = "gateway"   // gateway install and dispatch
	PhaseEncode    Phase = "encode"    // host to script
	PhaseDecode    Phase = "decode"    // script to host
	PhaseLifecycle Phase = "lifecycle" // activate/deactivate
	PhaseHost      Phase = "host"      // host capability registration
)

// Kind categorizes the error
type Kind string

const (
	KindInitialization Kind = "initialization"
	KindLoad           Kind = "load"
	KindUnresolved     Kind = "unresolved"
	KindLookup         Kind = "lookup"
	KindInvocation     Kind = "invocation"
	KindConversion     Kind = "conversion"
	KindInvalidState   Kind = "invalid_state"
	KindInvalidInput   Kind = "invalid_input"
	KindNotFound       Kind = "not_found"
	KindCanceled       Kind = "canceled"
	KindRegistration   Kind = "registration"
)

// Sentinels for errors.Is. A target without a Phase matches on Kind alone.
var (
	ErrInitialization = &Error{Kind: KindInitialization}
	ErrLoad           = &Error{Kind: KindLoad}
	ErrUnresolved     = &Error{Kind: KindUnresolved}
	ErrLookup         = &Error{Kind: KindLookup}
	ErrInvocation     = &Error{Kind: KindInvocation}
	ErrConversion     = &Error{Kind: KindConversion}
	ErrInvalidState   = &Error{Kind: KindInvalidState}
	ErrCanceled       = &Error{Kind: KindCanceled}
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	Module     string
	GoType     string
	ScriptType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Module != "" {
		b.WriteString(" in ")
		b.WriteString(e.Module)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.ScriptType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.ScriptType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", script type ")
			b.WriteString(e.ScriptType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("script type ")
			b.WriteString(e.ScriptType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.ScriptType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. An unresolved reference
// is a load failure, so it also satisfies a load target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	kindMatch := e.Kind == t.Kind || (t.Kind == KindLoad && e.Kind == KindUnresolved)
	if t.Phase == "" {
		return kindMatch
	}
	return e.Phase == t.Phase && kindMatch
}

// Message returns the innermost human-readable message: the Detail of the
// deepest *Error in the chain, or the root cause text.
func (e *Error) Message() string {
	if inner, ok := e.Cause.(*Error); ok {
		return inner.Message()
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Detail
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Module sets the module label the error is attributed to
func (b *Builder) Module(label string) *Builder {
	b.err.Module = label
	return b
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// ScriptType sets the script-side type name
func (b *Builder) ScriptType(t string) *Builder {
	b.err.ScriptType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Initialization creates an interpreter start-up failure
func Initialization(engine string, cause error) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindInitialization,
		Detail: fmt.Sprintf("start %s interpreter", engine),
		Cause:  cause,
	}
}

// Load creates a module compile/evaluation failure attributed to label
func Load(label string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLoad,
		Module: label,
		Detail: "evaluate module",
		Cause:  cause,
	}
}

// Unresolved creates an unresolved-reference failure attributed to label
func Unresolved(label, detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindUnresolved,
		Module: label,
		Detail: detail,
		Cause:  cause,
	}
}

// Lookup creates a gateway lookup failure for namespace.name
func Lookup(namespace, name, detail string) *Error {
	path := []string{namespace}
	if name != "" {
		path = append(path, name)
	}
	return &Error{
		Phase:  PhaseGateway,
		Kind:   KindLookup,
		Path:   path,
		Detail: detail,
	}
}

// Invocation creates a gateway invocation failure carrying the script message
func Invocation(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseGateway,
		Kind:   KindInvocation,
		Path:   []string{name},
		Detail: "call failed",
		Cause:  cause,
	}
}

// Conversion creates a value conversion failure
func Conversion(phase Phase, path []string, goType, scriptType, detail string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindConversion,
		Path:       path,
		GoType:     goType,
		ScriptType: scriptType,
		Detail:     detail,
	}
}

// InvalidState creates a lifecycle state violation
func InvalidState(op, state string) *Error {
	return &Error{
		Phase:  PhaseLifecycle,
		Kind:   KindInvalidState,
		Detail: fmt.Sprintf("%s not allowed in state %s", op, state),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Canceled wraps a context cancellation observed during a script call
func Canceled(phase Phase, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCanceled,
		Detail: "interrupted",
		Cause:  cause,
	}
}

// Registration creates a host capability registration error
func Registration(namespace, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s.%s", namespace, name),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// UnresolvedModule is one requirement a module sequence cannot satisfy
type UnresolvedModule struct {
	Module   string
	Requires string
	Reason   string
}

// SequenceError is returned when a declared module sequence fails validation
type SequenceError struct {
	Problems []UnresolvedModule
}

func (e *SequenceError) Error() string {
	if len(e.Problems) == 0 {
		return "[load] unresolved: empty sequence error"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("invalid module sequence (%d problem(s)):", len(e.Problems)))
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p.Module)
		if p.Requires != "" {
			b.WriteString(" -> ")
			b.WriteString(p.Requires)
		}
		b.WriteString(": ")
		b.WriteString(p.Reason)
	}
	return b.String()
}

// Is reports whether target matches this error type. Sequence errors also
// satisfy ErrUnresolved and ErrLoad.
func (e *SequenceError) Is(target error) bool {
	switch t := target.(type) {
	case *SequenceError:
		return true
	case *Error:
		return (t.Kind == KindUnresolved || t.Kind == KindLoad) && (t.Phase == "" || t.Phase == PhaseLoad)
	}
	return false
}
