package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
	"github.com/m-mizutani/vidscribe/pkg/usecase/studio"
	"github.com/urfave/cli/v3"
)

func videoCommand() *cli.Command {
	var (
		cfg          config
		aspect       string
		out          string
		imageOut     string
		seedID       string
		enhance      bool
		save         bool
		pollInterval time.Duration
		pollMax      int64
	)

	flags := withFlags(&cfg,
		&cli.StringFlag{
			Name:        "aspect",
			Aliases:     []string{"a"},
			Usage:       "Aspect ratio (16:9, 9:16)",
			Value:       string(model.AspectLandscape),
			Destination: &aspect,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Output video file",
			Destination: &out,
		},
		&cli.StringFlag{
			Name:        "image-out",
			Usage:       "Also write the first frame image",
			Destination: &imageOut,
		},
		&cli.StringFlag{
			Name:        "seed",
			Usage:       "ID of a saved image or thumbnail to use as the first frame",
			Destination: &seedID,
		},
		&cli.BoolFlag{
			Name:        "enhance",
			Usage:       "Rewrite the prompt into a cinematic scene description first",
			Destination: &enhance,
		},
		&cli.BoolFlag{
			Name:        "save",
			Aliases:     []string{"s"},
			Usage:       "Save the prompt to the local store",
			Destination: &save,
		},
		&cli.DurationFlag{
			Name:        "poll-interval",
			Usage:       "Wait between video status checks",
			Sources:     cli.EnvVars("VIDSCRIBE_POLL_INTERVAL"),
			Destination: &pollInterval,
		},
		&cli.IntFlag{
			Name:        "poll-max",
			Usage:       "Give up after this many status checks",
			Sources:     cli.EnvVars("VIDSCRIBE_POLL_MAX"),
			Destination: &pollMax,
		},
	)

	return &cli.Command{
		Name:      "video",
		Usage:     "Generate a short video from a prompt",
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

			var opts []generate.Option
			if pollInterval > 0 {
				opts = append(opts, generate.WithPollInterval(pollInterval))
			}
			if pollMax > 0 {
				opts = append(opts, generate.WithPollMaxAttempts(int(pollMax)))
			}

			s, err := cfg.newStudio(ctx, e, opts...)
			if err != nil {
				return err
			}

			result, err := withSpinner(ctx, "Generating video (this can take a few minutes)", func(ctx context.Context) (*studio.VideoResult, error) {
				return s.Video(ctx, studio.VideoRequest{
					Prompt:  prompt,
					Aspect:  model.AspectRatio(aspect),
					Enhance: enhance,
					SeedID:  model.ItemID(seedID),
				})
			})
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if err := saveAsset(w, result.Video, out, "video"); err != nil {
				return err
			}
			if imageOut != "" && result.Still != nil {
				if err := writeMedia(w, imageOut, "first frame", result.Still); err != nil {
					return err
				}
			}

			if save {
				saved, err := s.SaveVideo(ctx, result.Prompt)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Saved video prompt %s\n", saved.ID)
			}
			return nil
		},
	}
}
