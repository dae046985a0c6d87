package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Version is set at build time with -ldflags
var Version = "dev"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	if err := loadDotEnv(); err != nil {
		logging.Default().Warn("ignoring .env", "error", err)
	}

	cmd := &cli.Command{
		Name:    "vidscribe",
		Usage:   "AI content studio for video creators",
		Version: Version,
		Commands: []*cli.Command{
			ideasCommand(),
			scriptCommand(),
			blogCommand(),
			imageCommand(),
			thumbnailCommand(),
			videoCommand(),
			voiceCommand(),
			speechCommand(),
			itemsCommand(),
			syncCommand(),
			keyCommand(),
			serveCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		renderError(os.Stderr, err)
		logging.Default().Debug("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
