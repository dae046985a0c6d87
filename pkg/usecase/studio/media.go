package studio

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
	"github.com/m-mizutani/vidscribe/pkg/service/thumbnail"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
)

func (s *Studio) Image(ctx context.Context, prompt string, aspect model.AspectRatio) (*model.Media, error) {
	return run(ctx, s.image, "image", func() (*model.Media, error) {
		return s.gen.Image(ctx, prompt, aspect)
	})
}

type ThumbnailRequest struct {
	generate.ThumbnailInput
	Overlay thumbnail.Overlay
}

type ThumbnailResult struct {
	Prompt string
	// Raw is the generated image before the text overlay
	Raw      *model.Media
	Composed *model.Media
}

// Thumbnail renders a 16:9 image from title, visual and style, then draws
// the overlay text on it
func (s *Studio) Thumbnail(ctx context.Context, req ThumbnailRequest) (*ThumbnailResult, error) {
	return run(ctx, s.thumbnail, "thumbnail", func() (*ThumbnailResult, error) {
		prompt, err := generate.ThumbnailPrompt(req.ThumbnailInput)
		if err != nil {
			return nil, err
		}

		raw, err := s.gen.Image(ctx, prompt, model.AspectLandscape)
		if err != nil {
			return nil, err
		}

		composed, err := thumbnail.Compose(raw, req.Overlay)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to draw thumbnail overlay")
		}

		return &ThumbnailResult{Prompt: prompt, Raw: raw, Composed: composed}, nil
	})
}

type VideoRequest struct {
	Prompt string
	Aspect model.AspectRatio
	// Enhance rewrites Prompt into a cinematic scene description first
	Enhance bool
	// SeedID selects a saved image or thumbnail as the first frame instead
	// of generating one
	SeedID model.ItemID
}

type VideoResult struct {
	Prompt string
	Still  *model.Media
	Video  *generate.Asset
}

// Video generates a still image for the prompt and then a video seeded
// with it
func (s *Studio) Video(ctx context.Context, req VideoRequest) (*VideoResult, error) {
	return run(ctx, s.video, "video", func() (*VideoResult, error) {
		if err := req.Aspect.ValidateVideo(); err != nil {
			return nil, err
		}

		prompt := req.Prompt
		if req.Enhance {
			prompt = s.gen.EnhanceVideoPrompt(ctx, prompt)
		}

		still, err := s.videoSeed(ctx, prompt, req)
		if err != nil {
			return nil, err
		}

		video, err := s.gen.Video(ctx, generate.VideoInput{
			Prompt: prompt,
			Aspect: req.Aspect,
			Seed:   still,
		})
		if err != nil {
			return nil, err
		}

		return &VideoResult{Prompt: prompt, Still: still, Video: video}, nil
	})
}

func (s *Studio) videoSeed(ctx context.Context, prompt string, req VideoRequest) (*model.Media, error) {
	if req.SeedID == "" {
		return s.gen.Image(ctx, prompt, req.Aspect)
	}

	item, err := s.records.Get(ctx, req.SeedID)
	if err != nil {
		return nil, err
	}
	if !item.Type.IsBinary() {
		return nil, goerr.Wrap(model.ErrInvalidDataURL, "seed item is not an image",
			goerr.V("id", item.ID), goerr.V("type", item.Type))
	}

	seed, err := model.ParseDataURL(item.Content)
	if err != nil {
		return nil, err
	}
	logging.From(ctx).Debug("using saved item as video seed", "id", item.ID)
	return seed, nil
}

// VideoScript drafts a visual prompt and voiceover for a short video
func (s *Studio) VideoScript(ctx context.Context, topic string) (*model.VideoScript, error) {
	return s.gen.VideoScript(ctx, topic)
}

// Voice synthesizes text with ElevenLabs. voice is a catalogue name or a raw
// voice id.
func (s *Studio) Voice(ctx context.Context, text, voice string) (*generate.Asset, error) {
	return run(ctx, s.voice, "voice", func() (*generate.Asset, error) {
		return s.gen.Voice(ctx, generate.VoiceInput{Text: text, VoiceID: voice})
	})
}

// Speech synthesizes text with the Gemini speech model
func (s *Studio) Speech(ctx context.Context, text, voice string) (*model.Media, error) {
	return run(ctx, s.speech, "speech", func() (*model.Media, error) {
		return s.gen.Speech(ctx, text, voice)
	})
}

func (s *Studio) VideoState() model.Snapshot[*VideoResult] {
	return s.video.Snapshot()
}
