package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// Version is the release version embedded into server and MCP
// identification. Overridden at build time with -ldflags.
var Version = "dev"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	// Local development reads secrets from .env. Missing files are fine.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "gema",
		Usage: "Grounded question answering over funding records",
		Commands: []*cli.Command{
			indexCommand(),
			askCommand(),
			chatCommand(),
			serveCommand(),
			evalCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
