package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/tuannguyen/text2sql/internal/config"
	"github.com/tuannguyen/text2sql/internal/errors"
)

// embedBatchSize is the number of texts sent per API call in EmbedBatch
const embedBatchSize = 100

// OpenAIProvider generates embeddings through the OpenAI embeddings API
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewOpenAIProvider creates an embedding provider from configuration
func NewOpenAIProvider(cfg config.OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrTypeConfig, "OpenAI API key is required").
			WithSuggestion("Set the TEXT2SQL_OPENAI_API_KEY environment variable")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIProvider{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      cfg.EmbeddingModel,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// OpenAI API structures
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Embed generates an embedding vector for a single text
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.embedInputs(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(vectors) == 0 {
		return nil, errors.New(errors.ErrTypeEmbedding, "provider returned no embedding")
	}

	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts, preserving input order
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	all := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))

		vectors, err := p.embedInputs(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}

		all = append(all, vectors...)
	}

	return all, nil
}

// Dimensions returns the configured embedding dimensionality
func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

// Name returns the provider name for identification
func (p *OpenAIProvider) Name() string {
	return "openai:" + p.model
}

// embedInputs makes one API call for the given inputs
func (p *OpenAIProvider) embedInputs(ctx context.Context, inputs []string) ([][]float32, error) {
	reqBody := embeddingRequest{
		Model: p.model,
		Input: inputs,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewBuffer(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "embedding request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"embedding API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response embeddingResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}

	if response.Error != nil {
		return nil, errors.Newf(errors.ErrTypeEmbedding,
			"embedding API error: %s", response.Error.Message)
	}

	// The API may return items out of order; restore input order by index
	sort.Slice(response.Data, func(i, j int) bool {
		return response.Data[i].Index < response.Data[j].Index
	})

	vectors := make([][]float32, 0, len(response.Data))
	for _, item := range response.Data {
		vectors = append(vectors, item.Embedding)
	}

	return vectors, nil
}
