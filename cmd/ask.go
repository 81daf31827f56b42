package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"

	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/graph"
	"github.com/tuannguyen/text2sql/internal/retriever"
	"github.com/tuannguyen/text2sql/internal/sqlgen"
)

func AskCommand() *cli.Command {
	return &cli.Command{
		Name:        "ask",
		Usage:       "Generate a SQL query for a natural language question",
		Description: `Retrieve schema context for the question and prompt the chat model to write SQL against it. The query is printed, not executed.`,
		ArgsUsage:   " <question>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top-k",
				Usage: "Number of vector matches to keep (defaults to the configured top_k)",
			},
			&cli.BoolFlag{
				Name:  "show-prompt",
				Usage: "Print the generation prompt before the SQL",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 1 {
				return errors.New(errors.ErrTypeValidation, "expected exactly one question argument").
					WithSuggestion(`Quote the question: text2sql ask "top 5 khách hàng theo doanh thu"`)
			}

			return runAsk(ctx, args.First(), int(cmd.Int("top-k")), cmd.Bool("show-prompt"))
		},
	}
}

func runAsk(ctx context.Context, question string, topK int, showPrompt bool) error {
	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	chat, err := sqlgen.NewOpenAIChat(app.cfg.OpenAI)
	if err != nil {
		return err
	}

	index := graph.NewVectorIndex(app.store, app.embedder, app.cfg.VectorIndex, app.logger)
	expander := graph.NewExpander(app.store, app.logger)
	ret := retriever.New(index, expander, app.logger)
	generator := sqlgen.NewGenerator(ret, chat, app.logger)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " generating SQL..."
	s.Start()

	result, err := generator.Generate(ctx, question, topK)

	s.Stop()

	if err != nil {
		return err
	}

	if showPrompt {
		fmt.Println("--- Prompt ---")
		fmt.Println(result.Prompt)
		fmt.Println("--- SQL ---")
	}

	fmt.Println(result.SQL)

	return nil
}
