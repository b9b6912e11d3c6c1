package cli

import (
	"context"

	"github.com/gema-dev/gema/pkg/server"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg           config
		addr          string
		maxConcurrent int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       "127.0.0.1:8000",
			Sources:     cli.EnvVars("GEMA_ADDR"),
			Destination: &addr,
		},
		&cli.IntFlag{
			Name:        "max-concurrent",
			Usage:       "Maximum chat requests handled at once",
			Value:       8,
			Sources:     cli.EnvVars("GEMA_MAX_CONCURRENT"),
			Destination: &maxConcurrent,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP chat API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			pipeline, err := cfg.newPipeline(ctx)
			if err != nil {
				return err
			}

			srv := server.New(pipeline, server.WithMaxConcurrent(maxConcurrent))
			return srv.ListenAndServe(ctx, addr)
		},
	}
}
