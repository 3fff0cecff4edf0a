package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// parseArg decodes a JSON literal (number, boolean, null, array, object or
// quoted string) and falls back to the raw text.
func parseArg(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// buildArgs combines -args with any -arg values, in that order.
func buildArgs(list []string, raw string) ([]any, error) {
	var args []any
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("-args must be a JSON array: %w", err)
		}
	}
	for _, s := range list {
		args = append(args, parseArg(s))
	}
	return args, nil
}

func formatResult(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return x
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}
