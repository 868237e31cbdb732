package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resistance/model"
)

func TestModel_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "{\"approve\": true}"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	client := anthropic.NewClient(
		option.WithBaseURL(srv.URL+"/"),
		option.WithAPIKey("test"),
		option.WithMaxRetries(0),
	)
	m := NewModelFromClient(&client)

	text, usage, err := model.Complete(context.Background(), m, model.Request{
		Instructions: "You play The Resistance.",
		Messages:     []model.Message{{Role: model.RoleUser, Text: "vote?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"approve": true}`, text)
	require.NotNil(t, usage)
	assert.Equal(t, 14, usage.TotalTokens)

	assert.Equal(t, "claude-3-5-sonnet-20241022", body["model"])
	assert.NotNil(t, body["system"])
	assert.Equal(t, "anthropic", m.Info().Provider)
}

func TestBuildMessages(t *testing.T) {
	msgs := buildMessages([]model.Message{
		{Role: model.RoleUser, Text: "a"},
		{Role: model.RoleAssistant, Text: "b"},
		{Role: model.RoleUser, Text: ""},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
}
