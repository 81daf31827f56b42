package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tuannguyen/text2sql/internal/config"
	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/loader"
	"github.com/tuannguyen/text2sql/internal/logging"
	"github.com/tuannguyen/text2sql/internal/schemacache"
	"github.com/tuannguyen/text2sql/internal/selector"
)

func SchemaCommand() *cli.Command {
	return &cli.Command{
		Name:        "schema",
		Usage:       "Print relational table schemas from the live database",
		Description: `Load table definitions from the relational database. With a question argument, the keyword selector picks the relevant tables and sample rows are included. With --tables, the named tables are printed without samples. With --full, every table is printed.`,
		ArgsUsage:   " [question]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "tables",
				Usage: "Comma-separated table names to describe",
			},
			&cli.BoolFlag{
				Name:  "full",
				Usage: "Describe every table in the schema",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSchema(ctx, cmd.Args().First(), cmd.String("tables"), cmd.Bool("full"))
		},
	}
}

func runSchema(ctx context.Context, question, tableList string, full bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	catalog, err := loader.NewMySQLCatalog(cfg.Database)
	if err != nil {
		return err
	}
	defer catalog.Close()

	sel, err := buildSelector(cfg.Selector, logger)
	if err != nil {
		return err
	}

	cache := schemacache.New(cfg.SchemaCache, logger)
	schemaLoader := loader.New(catalog, cache, sel, cfg.Selector, logger)

	var text string

	switch {
	case full:
		text, err = schemaLoader.FullSchema(ctx)
	case tableList != "":
		tables := strings.Split(tableList, ",")
		for i := range tables {
			tables[i] = strings.TrimSpace(tables[i])
		}

		text, err = schemaLoader.MinimalSchema(ctx, tables)
	case question != "":
		text, err = schemaLoader.RelevantSchema(ctx, question, cfg.Selector.MaxTables)
	default:
		return errors.New(errors.ErrTypeValidation,
			"provide a question, --tables, or --full")
	}

	if err != nil {
		return err
	}

	fmt.Print(text)

	return nil
}

// buildSelector creates the keyword selector, applying the configured
// vocabulary overlay file when one is set
func buildSelector(cfg config.SelectorConfig, logger *logging.Logger) (*selector.Selector, error) {
	vocab := selector.DefaultVocabulary()

	if cfg.VocabularyFile != "" {
		overlay, err := selector.LoadVocabularyFile(cfg.VocabularyFile)
		if err != nil {
			return nil, err
		}

		vocab.Merge(overlay)
	}

	return selector.New(vocab, logger), nil
}
