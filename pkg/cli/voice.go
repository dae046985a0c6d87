package cli

import (
	"context"
	"strings"

	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
	"github.com/urfave/cli/v3"
)

func voiceCommand() *cli.Command {
	var (
		cfg   config
		voice string
		out   string
		list  bool
	)

	flags := withFlags(&cfg,
		&cli.StringFlag{
			Name:        "voice",
			Aliases:     []string{"v"},
			Usage:       "Voice name (Rachel, Adam, Antoni, Elli, Josh) or ElevenLabs voice ID",
			Value:       "Rachel",
			Destination: &voice,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Output audio file",
			Destination: &out,
		},
		&cli.BoolFlag{
			Name:        "list",
			Usage:       "List built-in voices and exit",
			Destination: &list,
		},
	)

	return &cli.Command{
		Name:      "voice",
		Usage:     "Synthesize a voiceover with ElevenLabs",
		ArgsUsage: "<text>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if list {
				var rows [][]string
				for _, v := range generate.Voices() {
					rows = append(rows, []string{v.Name, v.ID})
				}
				renderTable(c.Root().Writer, []string{"NAME", "ID"}, rows)
				return nil
			}

			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			text := strings.Join(c.Args().Slice(), " ")
			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			s, err := cfg.newStudio(ctx, e)
			if err != nil {
				return err
			}

			asset, err := withSpinner(ctx, "Synthesizing voice", func(ctx context.Context) (*generate.Asset, error) {
				return s.Voice(ctx, text, voice)
			})
			if err != nil {
				return err
			}
			return saveAsset(c.Root().Writer, asset, out, "voice")
		},
	}
}

func speechCommand() *cli.Command {
	var (
		cfg   config
		voice string
		out   string
	)

	flags := withFlags(&cfg,
		&cli.StringFlag{
			Name:        "voice",
			Aliases:     []string{"v"},
			Usage:       "Gemini voice (" + strings.Join(generate.SpeechVoices(), ", ") + ")",
			Value:       "Kore",
			Destination: &voice,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Output WAV file",
			Destination: &out,
		},
	)

	return &cli.Command{
		Name:      "speech",
		Usage:     "Synthesize speech with Gemini",
		ArgsUsage: "<text>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			text := strings.Join(c.Args().Slice(), " ")
			e, err := cfg.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			s, err := cfg.newStudio(ctx, e)
			if err != nil {
				return err
			}

			audio, err := withSpinner(ctx, "Synthesizing speech", func(ctx context.Context) (*model.Media, error) {
				return s.Speech(ctx, text, voice)
			})
			if err != nil {
				return err
			}
			return writeMedia(c.Root().Writer, out, "speech", audio)
		},
	}
}
