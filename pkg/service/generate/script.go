package generate

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
	"google.golang.org/genai"
)

const defaultAudience = "General Audience"

var videoScriptSchema = mustOutputSchema[model.VideoScript]()

type ScriptInput struct {
	Topic     string
	VideoType string
	Tone      string
	Audience  string
}

// Script writes a detailed markdown script meant to be read aloud
func (c *Client) Script(ctx context.Context, input ScriptInput) (string, error) {
	if err := requirePrompt(input.Topic); err != nil {
		return "", err
	}

	audience := strings.TrimSpace(input.Audience)
	if audience == "" {
		audience = defaultAudience
	}

	prompt, err := renderPrompt("script.md", map[string]any{
		"Topic":     input.Topic,
		"VideoType": input.VideoType,
		"Tone":      input.Tone,
		"Audience":  audience,
	})
	if err != nil {
		return "", err
	}

	script, err := c.generateText(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.8),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate script", goerr.V("topic", input.Topic))
	}
	return script, nil
}

// VideoScript returns a short voiceover with a matching visual prompt
func (c *Client) VideoScript(ctx context.Context, topic string) (*model.VideoScript, error) {
	if err := requirePrompt(topic); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt("video_script.md", map[string]any{"Topic": topic})
	if err != nil {
		return nil, err
	}

	raw, err := c.generateText(ctx, prompt, structuredConfig(videoScriptSchema))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate video script", goerr.V("topic", topic))
	}

	script, err := decodeStructured[model.VideoScript](ctx, raw, videoScriptSchema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse video script", goerr.V("topic", topic))
	}
	return &script, nil
}

// EnhanceVideoPrompt rewrites a script into a visual prompt. Any failure
// returns the script unchanged.
func (c *Client) EnhanceVideoPrompt(ctx context.Context, script string) string {
	if strings.TrimSpace(script) == "" {
		return script
	}

	prompt, err := renderPrompt("enhance_video.md", map[string]any{"Script": script})
	if err != nil {
		logging.From(ctx).Warn("failed to build enhance prompt", "error", err)
		return script
	}

	enhanced, err := c.generateText(ctx, prompt, nil)
	if err != nil {
		logging.From(ctx).Warn("failed to enhance video prompt, using the input as is", "error", err)
		return script
	}
	return enhanced
}

// ThumbnailInput describes the background image of a thumbnail
type ThumbnailInput struct {
	Title  string
	Visual string
	Style  string
}

// ThumbnailPrompt builds the image prompt for a thumbnail background
func ThumbnailPrompt(input ThumbnailInput) (string, error) {
	if err := requirePrompt(input.Title, input.Visual); err != nil {
		return "", err
	}
	prompt, err := renderPrompt("thumbnail.md", input)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(prompt), nil
}
