package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
	"github.com/urfave/cli/v3"
)

func scriptCommand() *cli.Command {
	var (
		cfg      config
		input    generate.ScriptInput
		short    bool
		save     bool
		voice    string
		voiceOut string
	)

	flags := withFlags(&cfg,
		&cli.StringFlag{
			Name:        "topic",
			Aliases:     []string{"t"},
			Usage:       "Video topic",
			Required:    true,
			Destination: &input.Topic,
		},
		&cli.StringFlag{
			Name:        "type",
			Usage:       "Kind of video, e.g. tutorial, vlog, review",
			Value:       "YouTube video",
			Destination: &input.VideoType,
		},
		&cli.StringFlag{
			Name:        "tone",
			Usage:       "Tone of voice",
			Value:       "engaging",
			Destination: &input.Tone,
		},
		&cli.StringFlag{
			Name:        "audience",
			Usage:       "Target audience",
			Destination: &input.Audience,
		},
		&cli.BoolFlag{
			Name:        "short",
			Usage:       "Write a visual prompt and short voiceover for a generated video instead",
			Destination: &short,
		},
		&cli.BoolFlag{
			Name:        "save",
			Aliases:     []string{"s"},
			Usage:       "Save the script to the local store",
			Destination: &save,
		},
		&cli.StringFlag{
			Name:        "voice",
			Usage:       "Read the script aloud with this ElevenLabs voice",
			Destination: &voice,
		},
		&cli.StringFlag{
			Name:        "voice-out",
			Usage:       "Where to write the voiceover audio",
			Destination: &voiceOut,
		},
	)

	return &cli.Command{
		Name:  "script",
		Usage: "Write a video script",
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

			s, err := cfg.newStudio(ctx, e)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			var script, narration string
			if short {
				vs, err := withSpinner(ctx, "Writing video script", func(ctx context.Context) (*model.VideoScript, error) {
					return s.VideoScript(ctx, input.Topic)
				})
				if err != nil {
					return err
				}
				script = fmt.Sprintf("Visual: %s\n\nVoiceover: %s", vs.VisualPrompt, vs.VoiceoverScript)
				narration = vs.VoiceoverScript
			} else {
				script, err = withSpinner(ctx, "Writing script", func(ctx context.Context) (string, error) {
					return s.Script(ctx, input)
				})
				if err != nil {
					return err
				}
				narration = script
			}
			fmt.Fprintln(w, script)

			if save {
				saved, err := s.SaveScript(ctx, input.Topic, script)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "\nSaved script %s\n", saved.ID)
			}

			if voice != "" || voiceOut != "" {
				asset, err := withSpinner(ctx, "Recording voiceover", func(ctx context.Context) (*generate.Asset, error) {
					return s.ScriptToVoice(ctx, narration, voice)
				})
				if err != nil {
					return err
				}
				return saveAsset(w, asset, voiceOut, "voiceover")
			}

			return nil
		},
	}
}

// saveAsset moves a generated asset to path, picking a name when path is
// empty
func saveAsset(w io.Writer, asset *generate.Asset, path, kind string) error {
	if path == "" {
		path = defaultOutput(kind, &model.Media{MIMEType: asset.MIMEType})
	}
	if err := asset.SaveTo(path); err != nil {
		_ = asset.Release()
		return err
	}
	fmt.Fprintf(w, "%s saved to %s\n", kind, path)
	return nil
}
