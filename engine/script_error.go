package engine

// ScriptError carries an error raised inside the embedded runtime.
// Message is the script's own message; Stack is the traceback when the
// backend provides one.
type ScriptError struct {
	Message string
	Stack   string
}

func (e *ScriptError) Error() string {
	return e.Message
}
