package generate

import (
	"bytes"
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/adapter"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
)

const (
	voiceStability       = 0.5
	voiceSimilarityBoost = 0.75
)

// Voice is a prebuilt ElevenLabs voice
type Voice struct {
	Name string
	ID   string
}

var voices = []Voice{
	{Name: "Rachel", ID: "21m00Tcm4TlvDq8ikWAM"},
	{Name: "Adam", ID: "pNInz6obpgDQGcFmaJgB"},
	{Name: "Antoni", ID: "ErXwobaYiN019PkySvjV"},
	{Name: "Elli", ID: "MF3mGyEYCl7XYWlgWWvy"},
	{Name: "Josh", ID: "TxGEqnHWrfWFTfGW9XjX"},
}

// Voices returns the built-in voice catalogue
func Voices() []Voice {
	return append([]Voice(nil), voices...)
}

// ResolveVoice maps a catalogue name (case insensitive) to its id. Anything
// else is taken as a raw voice id; empty selects the first voice.
func ResolveVoice(nameOrID string) string {
	v := strings.TrimSpace(nameOrID)
	if v == "" {
		return voices[0].ID
	}
	for _, voice := range voices {
		if strings.EqualFold(voice.Name, v) {
			return voice.ID
		}
	}
	return v
}

type VoiceInput struct {
	Text    string
	VoiceID string
}

// Voice synthesizes text with ElevenLabs. The primary model is tried first;
// any failure except a credential error is retried once with the fallback
// model, whose error is the one reported.
func (c *Client) Voice(ctx context.Context, input VoiceInput) (*Asset, error) {
	if err := requirePrompt(input.Text); err != nil {
		return nil, err
	}
	if c.voice == nil {
		return nil, goerr.Wrap(model.ErrMissingCredential, "ElevenLabs is not configured")
	}

	voiceID := ResolveVoice(input.VoiceID)
	logger := logging.From(ctx)

	media, err := c.synthesize(ctx, input.Text, voiceID, c.voicePrimary)
	if err != nil {
		if goerr.HasTag(err, model.TagCredential) {
			return nil, goerr.Wrap(err, "failed to synthesize voice", goerr.V("voice_id", voiceID))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, goerr.Wrap(ctxErr, "voice synthesis cancelled")
		}

		logger.Warn("primary voice model failed, trying fallback",
			"error", err,
			"primary", c.voicePrimary,
			"fallback", c.voiceSecondary,
		)

		media, err = c.synthesize(ctx, input.Text, voiceID, c.voiceSecondary)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to synthesize voice with fallback model", goerr.V("voice_id", voiceID))
		}
	}

	return c.writeAsset(bytes.NewReader(media.Data), media.MIMEType, "voice-*.mp3")
}

func (c *Client) synthesize(ctx context.Context, text, voiceID, modelID string) (*model.Media, error) {
	media, err := c.voice.TextToSpeech(ctx, &adapter.TextToSpeechRequest{
		Text:            text,
		VoiceID:         voiceID,
		ModelID:         modelID,
		Stability:       voiceStability,
		SimilarityBoost: voiceSimilarityBoost,
	})
	if err != nil {
		return nil, classify(err, "text to speech failed", goerr.V("model_id", modelID))
	}
	return media, nil
}
