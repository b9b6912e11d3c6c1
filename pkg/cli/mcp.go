package cli

import (
	"context"

	"github.com/gema-dev/gema/pkg/mcp"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the ask pipeline as an MCP tool over stdio",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// MCP uses stdout for the protocol; logs stay on stderr.
			cfg.setupLogger()

			pipeline, err := cfg.newPipeline(ctx)
			if err != nil {
				return err
			}

			return mcp.New(pipeline, Version).Run(ctx)
		},
	}
}
