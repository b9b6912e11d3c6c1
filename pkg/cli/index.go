package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/gema-dev/gema/pkg/adapter"
	"github.com/gema-dev/gema/pkg/index"
	"github.com/gema-dev/gema/pkg/ingest"
	"github.com/gema-dev/gema/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func indexCommand() *cli.Command {
	var (
		cfg     config
		inputs  []string
		bqQuery string
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "CSV dataset files to ingest (repeatable)",
			Sources:     cli.EnvVars("GEMA_INPUT"),
			Destination: &inputs,
		},
		&cli.StringFlag{
			Name:        "bq-query",
			Usage:       "BigQuery SQL returning funding rows to ingest",
			Sources:     cli.EnvVars("GEMA_BQ_QUERY"),
			Destination: &bqQuery,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "index",
		Usage: "Ingest datasets, embed them and store the index",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			if len(inputs) == 0 && bqQuery == "" {
				return goerr.New("at least one --input file or a --bq-query is required")
			}

			var records []*model.Record
			for _, path := range inputs {
				loaded, err := ingest.LoadCSV(path)
				if err != nil {
					return err
				}
				records = append(records, loaded...)
			}

			if bqQuery != "" {
				if cfg.project == "" {
					return goerr.New("project is required with --bq-query")
				}
				bq, err := adapter.NewBigQuery(ctx, cfg.project)
				if err != nil {
					return err
				}
				loaded, err := ingest.LoadBigQuery(ctx, bq, bqQuery, "bigquery")
				if err != nil {
					return err
				}
				records = append(records, loaded...)
			}

			embedder, err := cfg.newEmbedder(ctx)
			if err != nil {
				return err
			}
			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = fmt.Sprintf(" embedding %d records...", len(records))
			sp.Start()
			result, err := index.New(embedder, repo).Build(ctx, records)
			sp.Stop()
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Indexed %d records (%d excluded)\n", result.Indexed, len(result.Excluded))
			if cfg.project == "" {
				fmt.Fprintf(c.Root().Writer, "Dry run only: no --project set, nothing was persisted\n")
			}
			return nil
		},
	}
}
