package loader

import (
	"path"
	"strings"

	"github.com/wippyai/browsher/errors"
	"github.com/wippyai/browsher/loader/internal/graph"
)

// Module is one script unit in a load sequence.
type Module struct {
	// Name identifies the module inside the sequence and in Requires.
	Name string `yaml:"name" toml:"name" json:"name" validate:"required"`

	// Path locates the source inside the module filesystem.
	Path string `yaml:"path" toml:"path" json:"path" validate:"required"`

	// Label tags diagnostics and compile units. Defaults to Path without
	// its extension.
	Label string `yaml:"label,omitempty" toml:"label" json:"label,omitempty"`

	// Requires names modules that must be evaluated first.
	Requires []string `yaml:"requires,omitempty" toml:"requires" json:"requires,omitempty"`
}

// DisplayLabel returns Label, or Path without its extension.
func (m Module) DisplayLabel() string {
	if m.Label != "" {
		return m.Label
	}
	return strings.TrimSuffix(m.Path, path.Ext(m.Path))
}

// Sequence is an ordered list of modules. Evaluation follows list order.
type Sequence []Module

// DefaultSequence returns the standard bundle layout with sources named
// by ext (".lua" or ".js"): core config, git and url helpers, the core
// aggregator, then the platform integration that publishes the namespace.
func DefaultSequence(ext string) Sequence {
	return Sequence{
		{Name: "config", Path: "core/config" + ext},
		{Name: "git", Path: "core/git" + ext, Requires: []string{"config"}},
		{Name: "url", Path: "core/url" + ext, Requires: []string{"config", "git"}},
		{Name: "init", Path: "core/init" + ext, Requires: []string{"config", "git", "url"}},
		{Name: "platform", Path: "platforms/cli" + ext, Requires: []string{"init"}},
	}
}

// Names returns module names in sequence order
func (s Sequence) Names() []string {
	out := make([]string, len(s))
	for i, m := range s {
		out[i] = m.Name
	}
	return out
}

// Validate checks that every requirement names a known module that appears
// earlier in the list. Problems are collected into one *errors.SequenceError.
func (s Sequence) Validate() error {
	if len(s) == 0 {
		return errors.InvalidInput(errors.PhaseLoad, "module sequence is empty")
	}

	g := graph.New()
	var problems []errors.UnresolvedModule
	for _, m := range s {
		if m.Name == "" || m.Path == "" {
			problems = append(problems, errors.UnresolvedModule{
				Module: m.Name,
				Reason: "module needs both a name and a path",
			})
			continue
		}
		if !g.AddNode(m.Name) {
			problems = append(problems, errors.UnresolvedModule{
				Module: m.Name,
				Reason: "duplicate module name",
			})
		}
	}

	position := make(map[string]int, len(s))
	for i, m := range s {
		if _, seen := position[m.Name]; !seen {
			position[m.Name] = i
		}
	}

	for i, m := range s {
		for _, req := range m.Requires {
			if !g.Has(req) {
				problems = append(problems, errors.UnresolvedModule{
					Module:   m.Name,
					Requires: req,
					Reason:   "unknown module",
				})
				continue
			}
			g.AddEdge(m.Name, req)
			if position[req] >= i && req != m.Name {
				problems = append(problems, errors.UnresolvedModule{
					Module:   m.Name,
					Requires: req,
					Reason:   "required module loads later",
				})
			}
		}
	}

	if _, ok := g.Sort(); !ok {
		for _, n := range g.Cycles() {
			problems = append(problems, errors.UnresolvedModule{
				Module: n,
				Reason: "dependency cycle",
			})
		}
	}

	if len(problems) > 0 {
		return &errors.SequenceError{Problems: problems}
	}
	return nil
}
