package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tuannguyen/text2sql/internal/config"
	"github.com/tuannguyen/text2sql/internal/embedding"
	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/graph"
	"github.com/tuannguyen/text2sql/internal/logging"
)

// Execute runs the CLI
func Execute() error {
	root := &cli.Command{
		Name:  "text2sql",
		Usage: "Generate SQL from natural language questions using a schema graph",
		Description: `text2sql retrieves schema context for a question by combining vector
similarity search over a Neo4j schema graph with graph traversal, then
prompts a chat model to write the SQL. Questions may be asked in English
or Vietnamese.`,
		Commands: []*cli.Command{
			IndexCommand(),
			RetrieveCommand(),
			AskCommand(),
			SchemaCommand(),
			ConfigCommand(),
		},
	}

	err := root.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var appErr *errors.Error
		if stderrors.As(err, &appErr) {
			for _, suggestion := range appErr.Suggestions {
				fmt.Fprintf(os.Stderr, "  hint: %s\n", suggestion)
			}
		}
	}

	return err
}

// app bundles the dependencies shared by the graph-backed commands
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	store    *graph.Client
	embedder embedding.Provider
}

// initApp loads configuration and connects to the graph store
func initApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	store, err := graph.NewClient(cfg.Neo4j, logger)
	if err != nil {
		return nil, err
	}

	if err := store.VerifyConnectivity(ctx); err != nil {
		store.Close(ctx)
		return nil, err
	}

	embedder, err := embedding.NewOpenAIProvider(cfg.OpenAI)
	if err != nil {
		store.Close(ctx)
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		embedder: embedder,
	}, nil
}

// Close releases the graph store connection
func (a *app) Close(ctx context.Context) {
	a.store.Close(ctx)
}
