package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/gema-dev/gema/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a single question from the indexed records",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return goerr.New("question is required")
			}

			pipeline, err := cfg.newPipeline(ctx)
			if err != nil {
				return err
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " retrieving and verifying..."
			sp.Start()
			resp, err := pipeline.Ask(ctx, question)
			sp.Stop()
			if err != nil {
				return err
			}

			printResponse(c, resp)
			return nil
		},
	}
}

func printResponse(c *cli.Command, resp *model.Response) {
	w := c.Root().Writer

	fmt.Fprintf(w, "%s\n", resp.Answer)
	fmt.Fprintf(w, "\n[%s]", resp.State)
	if resp.Verified() {
		fmt.Fprintf(w, " verified against %d sources", len(resp.Sources))
	}
	fmt.Fprintln(w)

	for i, src := range resp.Sources {
		fmt.Fprintf(w, "  Source %d (%s): %s\n", i+1, src.Source, src.Content)
	}
}
