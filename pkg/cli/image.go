package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/urfave/cli/v3"
)

func imageCommand() *cli.Command {
	var (
		cfg    config
		aspect string
		out    string
		save   bool
	)

	flags := withFlags(&cfg,
		&cli.StringFlag{
			Name:        "aspect",
			Aliases:     []string{"a"},
			Usage:       "Aspect ratio (16:9, 1:1, 9:16)",
			Value:       string(model.AspectLandscape),
			Destination: &aspect,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Output file",
			Destination: &out,
		},
		&cli.BoolFlag{
			Name:        "save",
			Aliases:     []string{"s"},
			Usage:       "Save the image to the local store",
			Destination: &save,
		},
	)

	return &cli.Command{
		Name:      "image",
		Usage:     "Generate an image from a prompt",
		ArgsUsage: "<prompt>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			prompt := strings.Join(c.Args().Slice(), " ")
			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			s, err := cfg.newStudio(ctx, e)
			if err != nil {
				return err
			}

			img, err := withSpinner(ctx, "Generating image", func(ctx context.Context) (*model.Media, error) {
				return s.Image(ctx, prompt, model.AspectRatio(aspect))
			})
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if err := writeMedia(w, out, "image", img); err != nil {
				return err
			}

			if save {
				saved, err := s.SaveImage(ctx, img, prompt)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Saved image %s\n", saved.ID)
			}
			return nil
		},
	}
}
