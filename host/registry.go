package host

import (
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/wippyai/browsher/errors"
)

// Capability is a struct-based host module. Every exported method except
// Namespace becomes a script function named in snake_case.
type Capability interface {
	// Namespace returns the field name under the host root (e.g. "git").
	Namespace() string
}

// ExplicitRegistrar lets a capability name its functions directly when the
// method-name conversion does not fit.
type ExplicitRegistrar interface {
	Functions() map[string]any
}

// Registry collects capabilities and builds the host root object.
type Registry struct {
	funcs map[string]map[string]any
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]map[string]any),
	}
}

// Register adds every exported method of c under c.Namespace().
func (r *Registry) Register(c Capability) error {
	ns := c.Namespace()
	if ns == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[ns] == nil {
		r.funcs[ns] = make(map[string]any)
	}

	if er, ok := c.(ExplicitRegistrar); ok {
		for name, handler := range er.Functions() {
			if reflect.ValueOf(handler).Kind() != reflect.Func {
				return errors.Registration(ns, name, errors.InvalidInput(errors.PhaseHost, "handler must be a function"))
			}
			r.funcs[ns][name] = handler
		}
		return nil
	}

	rv := reflect.ValueOf(c)
	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		if !method.IsExported() || method.Name == "Namespace" {
			continue
		}
		r.funcs[ns][toSnakeCase(method.Name)] = rv.Method(i).Interface()
	}
	return nil
}

// RegisterFunc adds a single function under namespace.name.
func (r *Registry) RegisterFunc(namespace, name string, fn any) error {
	if namespace == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}
	if fn == nil {
		return errors.Registration(namespace, name, errors.InvalidInput(errors.PhaseHost, "handler is nil"))
	}
	if reflect.ValueOf(fn).Kind() != reflect.Func {
		return errors.New(errors.PhaseHost, errors.KindRegistration).
			Path(namespace, name).
			GoType(reflect.TypeOf(fn).String()).
			Detail("handler must be a function").
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]any)
	}
	r.funcs[namespace][name] = fn
	return nil
}

// Namespaces lists registered namespaces, sorted.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.funcs))
	for ns := range r.funcs {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Functions lists the function names of namespace, sorted.
func (r *Registry) Functions(namespace string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.funcs[namespace]))
	for name := range r.funcs[namespace] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Root builds the object injected as the host global:
// {namespace: {function: handler}}. The maps are fresh copies.
func (r *Registry) Root() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	root := make(map[string]any, len(r.funcs))
	for ns, funcs := range r.funcs {
		m := make(map[string]any, len(funcs))
		for name, fn := range funcs {
			m[name] = fn
		}
		root[ns] = m
	}
	return root
}

// toSnakeCase converts PascalCase to snake_case.
// Handles acronyms: RemoteURL -> remote_url, HTTPHost -> http_host
func toSnakeCase(s string) string {
	if len(s) == 0 {
		return ""
	}

	runes := []rune(s)
	var result strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if unicode.IsUpper(r) {
			acronymEnd := i + 1
			for acronymEnd < len(runes) && unicode.IsUpper(runes[acronymEnd]) {
				acronymEnd++
			}

			if acronymEnd > i+1 {
				// Last uppercase before lowercase starts next word, not part of acronym
				if acronymEnd < len(runes) && unicode.IsLower(runes[acronymEnd]) {
					acronymEnd--
				}
			}

			if i > 0 {
				result.WriteByte('_')
			}

			for j := i; j < acronymEnd; j++ {
				result.WriteRune(unicode.ToLower(runes[j]))
			}
			i = acronymEnd - 1
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
