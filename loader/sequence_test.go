package loader

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/browsher/errors"
)

func TestDefaultSequenceValid(t *testing.T) {
	seq := DefaultSequence(".lua")
	require.NoError(t, seq.Validate())
	assert.Equal(t, "core/config", seq[0].DisplayLabel())
	assert.Equal(t, "platforms/cli", seq[len(seq)-1].DisplayLabel())
}

func TestValidateProblems(t *testing.T) {
	tests := []struct {
		name   string
		seq    Sequence
		reason string
	}{
		{
			name: "unknown requirement",
			seq: Sequence{
				{Name: "a", Path: "a.lua", Requires: []string{"ghost"}},
			},
			reason: "unknown module",
		},
		{
			name: "requirement loads later",
			seq: Sequence{
				{Name: "init", Path: "init.lua", Requires: []string{"config"}},
				{Name: "config", Path: "config.lua"},
			},
			reason: "required module loads later",
		},
		{
			name: "duplicate",
			seq: Sequence{
				{Name: "a", Path: "a.lua"},
				{Name: "a", Path: "b.lua"},
			},
			reason: "duplicate module name",
		},
		{
			name: "cycle",
			seq: Sequence{
				{Name: "a", Path: "a.lua", Requires: []string{"b"}},
				{Name: "b", Path: "b.lua", Requires: []string{"a"}},
			},
			reason: "dependency cycle",
		},
		{
			name: "missing path",
			seq: Sequence{
				{Name: "a"},
			},
			reason: "module needs both a name and a path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seq.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrUnresolved)

			var seqErr *errors.SequenceError
			require.True(t, stderrors.As(err, &seqErr))
			reasons := make([]string, len(seqErr.Problems))
			for i, p := range seqErr.Problems {
				reasons[i] = p.Reason
			}
			assert.Contains(t, reasons, tt.reason)
		})
	}
}

func TestValidateEmpty(t *testing.T) {
	err := Sequence{}.Validate()
	require.Error(t, err)
	assert.NotErrorIs(t, err, errors.ErrUnresolved)
}
