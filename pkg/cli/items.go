package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/urfave/cli/v3"
)

func itemsCommand() *cli.Command {
	return &cli.Command{
		Name:  "items",
		Usage: "Manage saved items",
		Commands: []*cli.Command{
			itemsListCommand(),
			itemsShowCommand(),
			itemsDeleteCommand(),
			itemsExportCommand(),
		},
	}
}

func requireID(c *cli.Command) (model.ItemID, error) {
	id := c.Args().First()
	if id == "" {
		return "", goerr.New("item id is required", goerr.T(model.TagValidation))
	}
	return model.ItemID(id), nil
}

func itemsListCommand() *cli.Command {
	var (
		cfg config
		typ string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "type",
			Usage:       "Only list items of this type (idea, image, thumbnail, video_script)",
			Destination: &typ,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List saved items, newest first",
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

			var items []*model.SavedItem
			if typ == "" {
				items, err = e.records.List(ctx)
			} else {
				items, err = e.records.ListByType(ctx, model.ItemType(typ))
			}
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Fprintln(c.Root().Writer, "No saved items")
				return nil
			}
			renderTable(c.Root().Writer, itemHeaders, itemRows(items))
			return nil
		},
	}
}

func itemsShowCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "show",
		Usage:     "Show a saved item",
		ArgsUsage: "<id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}
			id, err := requireID(c)
			if err != nil {
				return err
			}

			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			item, err := e.records.Get(ctx, id)
			if err != nil {
				return err
			}

			// binary payloads are too large to print
			shown := *item
			if item.Type.IsBinary() {
				shown.Content = fmt.Sprintf("<%s, %d bytes, use `items export`>", item.Type, len(item.Content))
			}

			data, err := json.MarshalIndent(shown, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal item")
			}
			fmt.Fprintf(c.Root().Writer, "%s\n", string(data))
			return nil
		},
	}
}

func itemsDeleteCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a saved item",
		ArgsUsage: "<id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}
			id, err := requireID(c)
			if err != nil {
				return err
			}

			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			if err := e.records.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Deleted %s\n", id)
			return nil
		},
	}
}

func itemsExportCommand() *cli.Command {
	var (
		cfg config
		out string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Output file",
			Destination: &out,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "export",
		Usage:     "Write a saved item's content to a file",
		ArgsUsage: "<id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}
			id, err := requireID(c)
			if err != nil {
				return err
			}

			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			item, err := e.records.Get(ctx, id)
			if err != nil {
				return err
			}

			media := &model.Media{MIMEType: "text/markdown", Data: []byte(item.Content)}
			if item.Type.IsBinary() {
				media, err = model.ParseDataURL(item.Content)
				if err != nil {
					return err
				}
			}
			return writeMedia(c.Root().Writer, out, string(item.Type), media)
		},
	}
}
