package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/repository"
	"github.com/urfave/cli/v3"
)

var keyNames = map[string]string{
	"gemini":     repository.SettingGeminiKey,
	"elevenlabs": repository.SettingElevenLabsKey,
}

func settingKey(c *cli.Command) (string, error) {
	name := strings.ToLower(c.Args().First())
	key, ok := keyNames[name]
	if !ok {
		return "", goerr.New("key name must be gemini or elevenlabs", goerr.V("name", name), goerr.T(model.TagValidation))
	}
	return key, nil
}

func keyCommand() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "Manage API keys saved in the local store",
		Commands: []*cli.Command{
			keySetCommand(),
			keyClearCommand(),
			keyShowCommand(),
		},
	}
}

func keySetCommand() *cli.Command {
	var (
		cfg   config
		value string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "value",
			Usage:       "Key value, prompted without echo when omitted",
			Destination: &value,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "set",
		Usage:     "Save an API key",
		ArgsUsage: "gemini|elevenlabs",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}
			key, err := settingKey(c)
			if err != nil {
				return err
			}

			if value == "" {
				if !isTerminal(os.Stdin) {
					return goerr.New("--value is required when stdin is not a terminal", goerr.T(model.TagValidation))
				}
				value, err = readSecret(c.Args().First() + " API key: ")
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(value) == "" {
				return goerr.New("key is empty", goerr.T(model.TagValidation))
			}

			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			if err := e.settings.Set(ctx, key, value); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "%s saved\n", key)
			return nil
		},
	}
}

func keyClearCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "clear",
		Usage:     "Remove a saved API key",
		ArgsUsage: "gemini|elevenlabs",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}
			key, err := settingKey(c)
			if err != nil {
				return err
			}

			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			if err := e.settings.Delete(ctx, key); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "%s cleared\n", key)
			return nil
		},
	}
}

func keyShowCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "show",
		Usage: "Show which API keys are saved",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			var rows [][]string
			for _, name := range []string{"gemini", "elevenlabs"} {
				value, ok, err := e.settings.Get(ctx, keyNames[name])
				if err != nil {
					return err
				}
				shown := "(not set)"
				if ok {
					shown = maskSecret(value)
				}
				rows = append(rows, []string{name, shown})
			}

			sc, ok, err := e.settings.SyncConfig(ctx)
			if err != nil {
				return err
			}
			if ok {
				rows = append(rows, []string{"sync", "gs://" + sc.Bucket + "/" + sc.KeyPrefix()})
			} else {
				rows = append(rows, []string{"sync", "(not set)"})
			}

			renderTable(c.Root().Writer, []string{"NAME", "VALUE"}, rows)
			return nil
		},
	}
}
