package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_Queue(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.Queue(`{"approve": true}`, `{"approve": false}`)

	req := Request{Messages: []Message{{Role: RoleUser, Text: "vote?"}}}

	text, _, err := Complete(context.Background(), m, req)
	require.NoError(t, err)
	assert.Equal(t, `{"approve": true}`, text)

	text, _, err = Complete(context.Background(), m, req)
	require.NoError(t, err)
	assert.Equal(t, `{"approve": false}`, text)

	text, _, err = Complete(context.Background(), m, req)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: vote?", text)

	assert.Len(t, m.Requests(), 3)
}

func TestMockModel_CannedAndStreaming(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.AddResponse("hello", "world")

	text, _, err := Complete(context.Background(), m, Request{
		Messages: []Message{{Role: RoleUser, Text: "hello"}},
		Stream:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "world", text)
	assert.Equal(t, Info{Name: "mock", Provider: "test"}, m.Info())
}

func TestMockModel_Errors(t *testing.T) {
	m := NewMockModel("mock", "test")

	_, _, err := Complete(context.Background(), m, Request{})
	assert.Error(t, err)

	boom := errors.New("boom")
	m.FailWith(boom)
	_, _, err = Complete(context.Background(), m, Request{Messages: []Message{{Role: RoleUser, Text: "x"}}})
	assert.ErrorIs(t, err, boom)
}
