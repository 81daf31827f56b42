package sqlgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannguyen/text2sql/internal/config"
	"github.com/tuannguyen/text2sql/internal/errors"
)

func chatTestConfig(baseURL string) config.OpenAIConfig {
	return config.OpenAIConfig{
		APIKey:    "test-key",
		BaseURL:   baseURL,
		ChatModel: "gpt-4o-mini",
	}
}

func TestNewOpenAIChat_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIChat(config.OpenAIConfig{})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatRequest

		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: "SELECT 1;"}})

		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	chat, err := NewOpenAIChat(chatTestConfig(server.URL))
	require.NoError(t, err)

	completion, err := chat.Complete(context.Background(), "system prompt", "user prompt")

	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", completion)
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(chatResponse{}))
	}))
	defer server.Close()

	chat, err := NewOpenAIChat(chatTestConfig(server.URL))
	require.NoError(t, err)

	_, err = chat.Complete(context.Background(), "s", "u")

	assert.Error(t, err)
}
