package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/usecase/studio"
	"github.com/urfave/cli/v3"
)

func ideasCommand() *cli.Command {
	var (
		cfg          config
		save         bool
		thumbnailOut string
	)

	flags := withFlags(&cfg,
		&cli.BoolFlag{
			Name:        "save",
			Aliases:     []string{"s"},
			Usage:       "Save every idea to the local store",
			Destination: &save,
		},
		&cli.StringFlag{
			Name:        "thumbnail-out",
			Usage:       "Where to write the generated thumbnail",
			Destination: &thumbnailOut,
		},
	)

	return &cli.Command{
		Name:      "ideas",
		Usage:     "Brainstorm video ideas for YouTube and Instagram",
		ArgsUsage: "<topic>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			topic := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(topic) == "" {
				return goerr.Wrap(model.ErrEmptyPrompt, "topic is required")
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

			result, err := withSpinner(ctx, "Generating ideas", func(ctx context.Context) (*studio.IdeasResult, error) {
				return s.Ideas(ctx, topic)
			})
			if err != nil {
				return err
			}

			w := c.Root().Writer
			for _, platform := range []model.Platform{model.PlatformYouTube, model.PlatformInstagram} {
				ideas := model.ByPlatform(result.Ideas, platform)
				if len(ideas) == 0 {
					continue
				}
				fmt.Fprintf(w, "## %s\n\n", platform)
				for i, idea := range ideas {
					fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, idea.Title, idea.Description)
					if len(idea.Hashtags) > 0 {
						fmt.Fprintf(w, "   #%s\n", strings.Join(idea.Hashtags, " #"))
					}
					fmt.Fprintln(w)
				}
			}

			if result.Thumbnail != nil {
				if err := writeMedia(w, thumbnailOut, "thumbnail", result.Thumbnail); err != nil {
					return err
				}
			}
			if result.ThumbnailErr != nil {
				fmt.Fprintln(os.Stderr, "Thumbnail was not generated.")
				renderError(os.Stderr, result.ThumbnailErr)
			}

			if save {
				for _, idea := range result.Ideas {
					saved, err := s.SaveIdea(ctx, idea)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "Saved idea %s\n", saved.ID)
				}
			}

			return nil
		},
	}
}
