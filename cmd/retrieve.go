package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/graph"
	"github.com/tuannguyen/text2sql/internal/retriever"
)

func RetrieveCommand() *cli.Command {
	return &cli.Command{
		Name:        "retrieve",
		Usage:       "Retrieve schema context for a question without generating SQL",
		Description: `Run the retrieval pipeline for a question and print the expanded schema context: tables, provenance-tagged columns, joins, and metrics. Useful for inspecting what the generator would be prompted with.`,
		ArgsUsage:   " <question>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top-k",
				Usage: "Number of vector matches to keep (defaults to the configured top_k)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the expanded context as JSON",
			},
			&cli.BoolFlag{
				Name:  "matches",
				Usage: "Also print the raw vector matches with scores",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return errors.New(errors.ErrTypeValidation, "expected exactly one question argument").
					WithSuggestion(`Quote the question: text2sql retrieve "doanh thu theo tháng"`)
			}

			return runRetrieve(ctx, args.First(),
				int(cmd.Int("top-k")), cmd.Bool("json"), cmd.Bool("matches"))
		},
	}
}

func runRetrieve(ctx context.Context, question string, topK int, asJSON, showMatches bool) error {
	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	index := graph.NewVectorIndex(app.store, app.embedder, app.cfg.VectorIndex, app.logger)
	expander := graph.NewExpander(app.store, app.logger)
	ret := retriever.New(index, expander, app.logger)

	result, err := ret.Retrieve(ctx, question, topK, 1)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(result.Context, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal context: %w", err)
		}

		fmt.Println(string(data))

		return nil
	}

	if showMatches {
		fmt.Println("Vector Matches:")

		for i, match := range result.VectorMatches {
			fmt.Printf("  %d. [%s] %s (%.4f)\n",
				i+1, match.Label, match.Node.EmbeddingText(), match.Score)
		}

		fmt.Println()
	}

	printContext(result.Context)

	return nil
}

func printContext(expanded *graph.ExpandedContext) {
	if expanded.Empty() {
		fmt.Println("No schema context found.")
		return
	}

	if len(expanded.Tables) > 0 {
		fmt.Println("Tables:")

		for _, table := range expanded.Tables {
			line := "  " + table.TableName
			if table.Description != "" {
				line += " - " + table.Description
			}

			fmt.Println(line)
		}
	}

	if len(expanded.Columns) > 0 {
		fmt.Println("\nColumns:")

		for _, col := range expanded.Columns {
			var flags []string

			if col.IsPrimaryKey {
				flags = append(flags, "pk")
			}

			if col.IsTimeColumn {
				flags = append(flags, "time")
			}

			flags = append(flags, string(col.Provenance))

			fmt.Printf("  %s.%s %s [%s]\n",
				col.TableName, col.ColumnName, col.DataType, strings.Join(flags, ","))
		}
	}

	if len(expanded.Joins) > 0 {
		fmt.Println("\nJoins:")

		for _, join := range expanded.Joins {
			fmt.Printf("  %s -> %s (%s) ON %s\n",
				join.FromTable, join.ToTable, join.JoinType, strings.Join(join.On, " AND "))
		}
	}

	if len(expanded.Metrics) > 0 {
		fmt.Println("\nMetrics:")

		for _, metric := range expanded.Metrics {
			fmt.Printf("  %s = %s (base: %s)\n", metric.Name, metric.Expression, metric.BaseTable)
		}
	}
}
