package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/tuannguyen/text2sql/internal/config"
)

func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:        "config",
		Usage:       "Display the active configuration",
		Description: `Show the current active configuration after merging the config file and environment variables. Secrets are redacted.`,
		Action:      runConfig,
	}
}

func runConfig(_ context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println("Active Configuration:")

	fmt.Println("\nNeo4j:")
	fmt.Printf("  URI: %s\n", cfg.Neo4j.URI)
	fmt.Printf("  User: %s\n", cfg.Neo4j.User)
	fmt.Printf("  Password: %s\n", redact(cfg.Neo4j.Password))
	fmt.Printf("  Database: %s\n", cfg.Neo4j.Database)

	fmt.Println("\nOpenAI:")
	fmt.Printf("  API Key: %s\n", redact(cfg.OpenAI.APIKey))
	fmt.Printf("  Base URL: %s\n", cfg.OpenAI.BaseURL)
	fmt.Printf("  Embedding Model: %s\n", cfg.OpenAI.EmbeddingModel)
	fmt.Printf("  Dimensions: %d\n", cfg.OpenAI.Dimensions)
	fmt.Printf("  Chat Model: %s\n", cfg.OpenAI.ChatModel)
	fmt.Printf("  Temperature: %.2f\n", cfg.OpenAI.Temperature)

	fmt.Println("\nVector Index:")
	fmt.Printf("  Index Name Prefix: %s\n", cfg.VectorIndex.IndexName)
	fmt.Printf("  Similarity Function: %s\n", cfg.VectorIndex.SimilarityFunction)
	fmt.Printf("  Top K: %d\n", cfg.VectorIndex.TopK)

	fmt.Println("\nDatabase:")
	fmt.Printf("  DSN: %s\n", redact(cfg.Database.DSN))
	fmt.Printf("  Schema Name: %s\n", cfg.Database.SchemaName)

	fmt.Println("\nSchema Cache:")
	fmt.Printf("  TTL: %s\n", cfg.SchemaCache.TTL)
	fmt.Printf("  Capacity: %d\n", cfg.SchemaCache.Capacity)

	fmt.Println("\nSelector:")
	fmt.Printf("  Max Tables: %d\n", cfg.Selector.MaxTables)
	fmt.Printf("  Fallback Tables: %v\n", cfg.Selector.FallbackTables)
	fmt.Printf("  Vocabulary File: %s\n", cfg.Selector.VocabularyFile)

	fmt.Println("\nLogging:")
	fmt.Printf("  Level: %s\n", cfg.Logging.Level)
	fmt.Printf("  Format: %s\n", cfg.Logging.Format)

	return nil
}

func redact(value string) string {
	if value == "" {
		return "(not set)"
	}

	return "********"
}
