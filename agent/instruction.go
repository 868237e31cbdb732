package agent

import (
	"github.com/hupe1980/resistance/core"
	"github.com/hupe1980/resistance/internal/util"
)

// View is the public game state a model agent shows its model: what the
// player may legitimately know at the moment of a decision.
type View struct {
	Name           string
	Players        int
	Self           core.PlayerID
	Spies          []core.PlayerID
	Round          int
	Attempt        int
	MissionsFailed int
	Transcript     []string
}

// IsSpy reports whether the viewing player is a spy.
func (v View) IsSpy() bool { return len(v.Spies) > 0 }

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from the current view.
type Provider interface {
	Instruction(View) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(View) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(v View) (string, error) { return f(v) }

// Instruction represents either a static instruction string or a dynamic provider.
// This mirrors a union of string | provider in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string. The
// text may use text/template actions over View, e.g. "{{.Round}}".
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(View) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(v View) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(v)
	}
	return util.RenderTemplate(i.text, v)
}
