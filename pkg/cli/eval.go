package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/gema-dev/gema/pkg/usecase/eval"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func evalCommand() *cli.Command {
	var (
		cfg         config
		casesPath   string
		output      string
		bucket      string
		concurrency int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "cases",
			Aliases:     []string{"c"},
			Usage:       "YAML file with evaluation cases",
			Sources:     cli.EnvVars("GEMA_EVAL_CASES"),
			Destination: &casesPath,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Report output file (default: stdout)",
			Sources:     cli.EnvVars("GEMA_EVAL_OUTPUT"),
			Destination: &output,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "GCS bucket to upload the report to",
			Sources:     cli.EnvVars("GEMA_EVAL_BUCKET"),
			Destination: &bucket,
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Number of cases evaluated in parallel",
			Value:       4,
			Sources:     cli.EnvVars("GEMA_EVAL_CONCURRENCY"),
			Destination: &concurrency,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:  "eval",
		Usage: "Run the evaluation suite and report quality metrics",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			cases, err := eval.LoadCases(casesPath)
			if err != nil {
				return err
			}

			pipeline, err := cfg.newPipeline(ctx)
			if err != nil {
				return err
			}

			runner := eval.NewRunner(pipeline, eval.WithConcurrency(int(concurrency)))
			report, err := runner.Run(ctx, cases)
			if err != nil {
				return err
			}

			switch {
			case bucket != "":
				storage, err := cfg.newStorage(ctx, bucket)
				if err != nil {
					return err
				}
				key := fmt.Sprintf("reports/%s.json", report.RunID)
				if err := eval.SaveReport(ctx, storage, key, report); err != nil {
					return err
				}
				fmt.Fprintf(c.Root().Writer, "Report uploaded to gs://%s/%s\n", bucket, key)

			case output != "":
				f, err := os.Create(output)
				if err != nil {
					return goerr.Wrap(err, "failed to create report file", goerr.V("path", output))
				}
				defer f.Close()
				if err := eval.WriteReport(f, report); err != nil {
					return err
				}

			default:
				if err := eval.WriteReport(c.Root().Writer, report); err != nil {
					return err
				}
			}

			fmt.Fprintf(c.Root().Writer, "Scored %d/%d cases, mean correctness %.3f\n",
				report.ScoredCases, report.TotalCases, report.MeanCorrectness)
			if len(report.Rerun) > 0 {
				fmt.Fprintf(c.Root().Writer, "Infrastructure failures, rerun: %v\n", report.Rerun)
			}
			return nil
		},
	}
}
