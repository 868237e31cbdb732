package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resistance/core"
)

type mockProvider struct {
	text string
	err  error
}

func (m mockProvider) Instruction(View) (string, error) { return m.text, m.err }

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	assert.True(t, inst.IsStatic())

	got, err := inst.Resolve(View{})
	require.NoError(t, err)
	assert.Equal(t, "static instruction", got)
}

func TestInstruction_Provider(t *testing.T) {
	inst := NewInstructionFromProvider(mockProvider{text: "dynamic"})
	assert.False(t, inst.IsStatic())

	got, err := inst.Resolve(View{})
	require.NoError(t, err)
	assert.Equal(t, "dynamic", got)

	boom := errors.New("boom")
	_, err = NewInstructionFromProvider(mockProvider{err: boom}).Resolve(View{})
	assert.ErrorIs(t, err, boom)
}

func TestInstruction_Func(t *testing.T) {
	inst := NewInstructionFromFunc(func(v View) (string, error) {
		if v.IsSpy() {
			return "spy", nil
		}
		return "resistance", nil
	})

	got, err := inst.Resolve(View{Spies: []core.PlayerID{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "spy", got)

	got, err = inst.Resolve(View{})
	require.NoError(t, err)
	assert.Equal(t, "resistance", got)
}

func TestInstruction_Template(t *testing.T) {
	inst := NewInstructionFromText(`You are {{.Name}}, round {{inc .Round}}.{{if .IsSpy}} Spies: {{join "," .Spies}}.{{end}}`)
	assert.True(t, inst.IsStatic())

	got, err := inst.Resolve(View{Name: "ada", Round: 2, Spies: []core.PlayerID{0, 3}})
	require.NoError(t, err)
	assert.Equal(t, "You are ada, round 3. Spies: 0,3.", got)

	got, err = inst.Resolve(View{Name: "bo"})
	require.NoError(t, err)
	assert.Equal(t, "You are bo, round 1.", got)

	_, err = NewInstructionFromText("{{.Unknown}}").Resolve(View{})
	assert.Error(t, err)
}
