package sqlgen

import (
	"context"
	"strings"

	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/logging"
	"github.com/tuannguyen/text2sql/internal/retriever"
)

// Retriever produces schema context for a question
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK, expandDepth int) (*retriever.Result, error)
}

// Generator turns a natural language question into a SQL query by
// retrieving schema context and prompting a chat model with it
type Generator struct {
	retriever Retriever
	chat      ChatClient
	logger    *logging.Logger
}

// GenerationResult carries the generated SQL together with the retrieval
// that grounded it
type GenerationResult struct {
	SQL       string
	Retrieval *retriever.Result
	Prompt    string
}

// NewGenerator creates a generator
func NewGenerator(ret Retriever, chat ChatClient, logger *logging.Logger) *Generator {
	return &Generator{
		retriever: ret,
		chat:      chat,
		logger:    logger,
	}
}

// Generate answers one question. Fails when no schema context can be
// retrieved rather than prompting the model blind.
func (g *Generator) Generate(ctx context.Context, question string, topK int) (*GenerationResult, error) {
	result, err := g.retriever.Retrieve(ctx, question, topK, 1)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGraph,
			"no relevant schema context could be retrieved")
	}

	if result.Context.Empty() {
		return nil, errors.New(errors.ErrTypeNotFound,
			"no relevant schema context could be retrieved").
			WithSuggestion("Run 'text2sql index' to build the vector indexes").
			WithSuggestion("Rephrase the question using table or column terminology")
	}

	prompt := BuildPrompt(question, result.Context, "")

	g.logger.WithField("prompt_bytes", len(prompt)).Debug("built generation prompt")

	completion, err := g.chat.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	return &GenerationResult{
		SQL:       extractSQL(completion),
		Retrieval: result,
		Prompt:    prompt,
	}, nil
}

// extractSQL strips a markdown code fence when the model wraps its answer
// in one
func extractSQL(completion string) string {
	text := strings.TrimSpace(completion)

	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```sql")
	text = strings.TrimPrefix(text, "```")

	if end := strings.LastIndex(text, "```"); end >= 0 {
		text = text[:end]
	}

	return strings.TrimSpace(text)
}
