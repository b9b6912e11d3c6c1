package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive question answering session",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			pipeline, err := cfg.newPipeline(ctx)
			if err != nil {
				return err
			}

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize prompt")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Ask about the indexed records. Type 'exit' to quit.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				question := strings.TrimSpace(line)
				if question == "" {
					continue
				}
				if question == "exit" || question == "quit" {
					break
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Suffix = " retrieving and verifying..."
				sp.Start()
				resp, err := pipeline.Ask(ctx, question)
				sp.Stop()
				if err != nil {
					fmt.Fprintf(c.Root().Writer, "error: %v\n", err)
					continue
				}

				printResponse(c, resp)
				fmt.Fprintln(c.Root().Writer)
			}

			return nil
		},
	}
}
