package host

import (
	"os"
	goruntime "runtime"
)

// Env exposes process environment facts.
type Env struct{}

func (Env) Namespace() string { return "env" }

// Get returns the environment variable name, or "".
func (Env) Get(name string) string {
	return os.Getenv(name)
}

// Platform returns the operating system name (linux, darwin, windows).
func (Env) Platform() string {
	return goruntime.GOOS
}

// Cwd returns the working directory.
func (Env) Cwd() (string, error) {
	return os.Getwd()
}
