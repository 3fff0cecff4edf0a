package host

import (
	"strings"
)

// Settings exposes user options to scripts read-only.
type Settings struct {
	values map[string]any
}

func NewSettings(values map[string]any) *Settings {
	if values == nil {
		values = map[string]any{}
	}
	return &Settings{values: values}
}

func (*Settings) Namespace() string { return "settings" }

// Get returns the option at key. Dotted keys walk nested maps:
// get("url.pin") reads values["url"]["pin"]. Missing keys give nil.
func (s *Settings) Get(key string) any {
	if v, ok := s.values[key]; ok {
		return v
	}

	var cur any = s.values
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		if cur, ok = m[part]; !ok {
			return nil
		}
	}
	return cur
}

// All returns every option.
func (s *Settings) All() map[string]any {
	return s.values
}
