package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	type view struct {
		Name  string
		Round int
		Spies []int
	}

	out, err := RenderTemplate("no markers <b>", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers <b>", out)

	out, err = RenderTemplate(`{{upper .Name}} round {{inc .Round}} spies {{join ", " .Spies}} <ok>`, view{Name: "ada", Round: 1, Spies: []int{0, 3}})
	require.NoError(t, err)
	assert.Equal(t, "ADA round 2 spies 0, 3 <ok>", out)

	out, err = RenderTemplate(`{{default "anon" .Name}}`, view{})
	require.NoError(t, err)
	assert.Equal(t, "anon", out)

	_, err = RenderTemplate("{{.Missing}}", view{})
	assert.Error(t, err)

	_, err = RenderTemplate("{{join \",\" .Name}}", view{Name: "x"})
	assert.Error(t, err)

	_, err = RenderTemplate("{{", nil)
	assert.Error(t, err)
}
