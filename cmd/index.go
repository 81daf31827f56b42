package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"

	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/graph"
)

func IndexCommand() *cli.Command {
	return &cli.Command{
		Name:        "index",
		Usage:       "Build vector indexes and embed schema nodes",
		Description: `Create the per-label vector indexes in the graph store and generate embeddings for every schema node. Safe to re-run: existing indexes are kept and embeddings are regenerated.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "label",
				Usage: "Index only one node label (Table, Column, Concept, Metric)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runIndex(ctx, cmd.String("label"))
		},
	}
}

func runIndex(ctx context.Context, labelName string) error {
	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	index := graph.NewVectorIndex(app.store, app.embedder, app.cfg.VectorIndex, app.logger)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " embedding schema nodes..."
	s.Start()

	defer s.Stop()

	if labelName != "" {
		label := graph.Label(labelName)
		if !validLabel(label) {
			s.Stop()

			return errors.Newf(errors.ErrTypeValidation, "unknown label: %s", labelName).
				WithSuggestion("Use one of: Table, Column, Concept, Metric")
		}

		index.CreateIndex(ctx, label)

		count, err := index.IndexNodes(ctx, label)
		if err != nil {
			return err
		}

		s.Stop()
		fmt.Printf("Indexed %d %s nodes\n", count, label)

		return nil
	}

	counts, err := index.IndexAllNodes(ctx)
	if err != nil {
		return err
	}

	s.Stop()

	total := 0

	for _, label := range graph.IndexedLabels {
		fmt.Printf("%-10s %d nodes\n", label, counts[label])
		total += counts[label]
	}

	fmt.Printf("Indexed %d nodes in total\n", total)

	return nil
}

func validLabel(label graph.Label) bool {
	for _, known := range graph.IndexedLabels {
		if label == known {
			return true
		}
	}

	return false
}
