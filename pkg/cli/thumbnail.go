package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/vidscribe/pkg/service/thumbnail"
	"github.com/m-mizutani/vidscribe/pkg/usecase/studio"
	"github.com/urfave/cli/v3"
)

func thumbnailCommand() *cli.Command {
	var (
		cfg      config
		req      studio.ThumbnailRequest
		text     string
		color    string
		position int64
		out      string
		rawOut   string
		save     bool
	)

	flags := withFlags(&cfg,
		&cli.StringFlag{
			Name:        "title",
			Aliases:     []string{"t"},
			Usage:       "Video title",
			Required:    true,
			Destination: &req.Title,
		},
		&cli.StringFlag{
			Name:        "visual",
			Usage:       "What the background should show",
			Required:    true,
			Destination: &req.Visual,
		},
		&cli.StringFlag{
			Name:        "style",
			Usage:       "Visual style",
			Value:       "vibrant",
			Destination: &req.Style,
		},
		&cli.StringFlag{
			Name:        "text",
			Usage:       "Overlay text, empty for none",
			Destination: &text,
		},
		&cli.StringFlag{
			Name:        "color",
			Usage:       "Overlay text color (#RRGGBB)",
			Value:       thumbnail.DefaultColor,
			Destination: &color,
		},
		&cli.IntFlag{
			Name:        "position",
			Usage:       "Overlay cell of a 3x3 grid, 0 top left to 8 bottom right",
			Value:       thumbnail.DefaultPosition,
			Destination: &position,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Output file",
			Destination: &out,
		},
		&cli.StringFlag{
			Name:        "raw-out",
			Usage:       "Also write the background without text",
			Destination: &rawOut,
		},
		&cli.BoolFlag{
			Name:        "save",
			Aliases:     []string{"s"},
			Usage:       "Save the thumbnail to the local store",
			Destination: &save,
		},
	)

	return &cli.Command{
		Name:  "thumbnail",
		Usage: "Generate a YouTube thumbnail with text overlay",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			req.Overlay = thumbnail.Overlay{
				Text:     text,
				Color:    color,
				Position: int(position),
				Show:     text != "",
			}

			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			s, err := cfg.newStudio(ctx, e)
			if err != nil {
				return err
			}

			result, err := withSpinner(ctx, "Generating thumbnail", func(ctx context.Context) (*studio.ThumbnailResult, error) {
				return s.Thumbnail(ctx, req)
			})
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if err := writeMedia(w, out, "thumbnail", result.Composed); err != nil {
				return err
			}
			if rawOut != "" {
				if err := writeMedia(w, rawOut, "background", result.Raw); err != nil {
					return err
				}
			}

			if save {
				saved, err := s.SaveThumbnail(ctx, result.Composed, req.ThumbnailInput)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Saved thumbnail %s\n", saved.ID)
			}
			return nil
		},
	}
}
