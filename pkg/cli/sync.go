package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/usecase/cloudsync"
	"github.com/urfave/cli/v3"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Mirror saved items to Cloud Storage",
		Commands: []*cli.Command{
			syncTestCommand(),
			syncPushCommand(),
			syncListCommand(),
			syncDeleteCommand(),
			syncConfigureCommand(),
			syncClearCommand(),
		},
	}
}

// syncAction opens the store and the sync usecase before calling fn
func syncAction(cfg *config, fn func(ctx context.Context, c *cli.Command, e *env, uc *cloudsync.UseCase) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		ctx, err := cfg.setup(ctx)
		if err != nil {
			return err
		}

		e, err := cfg.newEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close(ctx)

		uc, err := cfg.newSync(ctx, e)
		if err != nil {
			return err
		}
		return fn(ctx, c, e, uc)
	}
}

func syncTestCommand() *cli.Command {
	var cfg config
	return &cli.Command{
		Name:  "test",
		Usage: "Check the bucket is reachable",
		Flags: globalFlags(&cfg),
		Action: syncAction(&cfg, func(ctx context.Context, c *cli.Command, e *env, uc *cloudsync.UseCase) error {
			if _, err := withSpinner(ctx, "Connecting to Cloud Storage", func(ctx context.Context) (struct{}, error) {
				return struct{}{}, uc.Test(ctx)
			}); err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, "Connection OK")
			return nil
		}),
	}
}

func syncPushCommand() *cli.Command {
	var cfg config
	return &cli.Command{
		Name:  "push",
		Usage: "Upload every local item",
		Flags: globalFlags(&cfg),
		Action: syncAction(&cfg, func(ctx context.Context, c *cli.Command, e *env, uc *cloudsync.UseCase) error {
			result, err := withSpinner(ctx, "Uploading items", func(ctx context.Context) (*cloudsync.PushResult, error) {
				return uc.Push(ctx, e.records)
			})
			if result != nil {
				fmt.Fprintf(c.Root().Writer, "Uploaded %d items, %d failed\n", result.Uploaded, result.Failed)
			}
			return err
		}),
	}
}

func syncListCommand() *cli.Command {
	var cfg config
	return &cli.Command{
		Name:  "list",
		Usage: "List the most recently uploaded items",
		Flags: globalFlags(&cfg),
		Action: syncAction(&cfg, func(ctx context.Context, c *cli.Command, e *env, uc *cloudsync.UseCase) error {
			items, err := withSpinner(ctx, "Listing remote items", func(ctx context.Context) ([]*model.SavedItem, error) {
				return uc.List(ctx)
			})
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(c.Root().Writer, "No remote items")
				return nil
			}
			renderTable(c.Root().Writer, itemHeaders, itemRows(items))
			return nil
		}),
	}
}

func syncDeleteCommand() *cli.Command {
	var cfg config
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a remote item",
		ArgsUsage: "<type> <id>",
		Flags:     globalFlags(&cfg),
		Action: syncAction(&cfg, func(ctx context.Context, c *cli.Command, e *env, uc *cloudsync.UseCase) error {
			if c.NArg() != 2 {
				return goerr.New("type and id are required", goerr.T(model.TagValidation))
			}
			typ, id := model.ItemType(c.Args().Get(0)), model.ItemID(c.Args().Get(1))
			if err := uc.Delete(ctx, typ, id); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Deleted %s\n", uc.Key(typ, id))
			return nil
		}),
	}
}

func syncConfigureCommand() *cli.Command {
	var (
		cfg config
		sc  model.SyncConfig
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket",
			Required:    true,
			Destination: &sc.Bucket,
		},
		&cli.StringFlag{
			Name:        "prefix",
			Usage:       "Key prefix",
			Value:       model.DefaultSyncPrefix,
			Destination: &sc.Prefix,
		},
		&cli.StringFlag{
			Name:        "project",
			Usage:       "Google Cloud project billed for requests",
			Destination: &sc.Project,
		},
		&cli.StringFlag{
			Name:        "credentials-file",
			Usage:       "Service account key file, default credentials when empty",
			Destination: &sc.CredentialsFile,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "configure",
		Usage: "Save the Cloud Storage settings",
		Flags: flags,
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

			if err := e.settings.SaveSyncConfig(ctx, &sc); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Sync configured for gs://%s/%s\n", sc.Bucket, sc.KeyPrefix())
			return nil
		},
	}
}

func syncClearCommand() *cli.Command {
	var cfg config
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove the saved Cloud Storage settings",
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

			if err := e.settings.ClearSyncConfig(ctx); err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, "Sync settings cleared")
			return nil
		},
	}
}
