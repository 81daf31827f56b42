package embedding

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

func testConfig(baseURL string) config.OpenAIConfig {
	return config.OpenAIConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		EmbeddingModel: "text-embedding-3-small",
		Dimensions:     3,
	}
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(config.OpenAIConfig{})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest

		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"doanh thu"}, req.Input)

		resp := embeddingResponse{
			Data: []embeddingData{
				{Index: 0, Embedding: []float32{0.1, 0.2, 0.3}},
			},
		}

		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(testConfig(server.URL))
	require.NoError(t, err)

	vector, err := provider.Embed(context.Background(), "doanh thu")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestEmbedBatch_RestoresInputOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest

		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Respond out of order; the provider must sort by index
		data := make([]embeddingData, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, embeddingData{
				Index:     i,
				Embedding: []float32{float32(i)},
			})
		}

		require.NoError(t, json.NewEncoder(w).Encode(embeddingResponse{Data: data}))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(testConfig(server.URL))
	require.NoError(t, err)

	vectors, err := provider.EmbedBatch(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	require.Len(t, vectors, 3)

	for i, vector := range vectors {
		assert.Equal(t, []float32{float32(i)}, vector)
	}
}

func TestEmbed_APIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(testConfig(server.URL))
	require.NoError(t, err)

	_, err = provider.Embed(context.Background(), "doanh thu")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeEmbedding))
}

func TestEmbed_APIErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := embeddingResponse{Error: &apiError{Message: "invalid model"}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(testConfig(server.URL))
	require.NoError(t, err)

	_, err = provider.Embed(context.Background(), "doanh thu")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestName(t *testing.T) {
	provider, err := NewOpenAIProvider(testConfig("http://localhost"))
	require.NoError(t, err)

	assert.Equal(t, "openai:text-embedding-3-small", provider.Name())
	assert.Equal(t, 3, provider.Dimensions())
}
