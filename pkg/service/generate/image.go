package generate

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
	"google.golang.org/genai"
)

const imagePromptSuffix = " . High resolution, photorealistic, cinematic lighting, 4k."

// Image generates one image. A text-only answer is returned as a refusal.
func (c *Client) Image(ctx context.Context, prompt string, aspect model.AspectRatio) (*model.Media, error) {
	if err := requirePrompt(prompt); err != nil {
		return nil, err
	}
	if err := aspect.ValidateImage(); err != nil {
		return nil, err
	}
	if c.gemini == nil {
		return nil, goerr.Wrap(model.ErrMissingCredential, "gemini is not configured")
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt+imagePromptSuffix, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: string(aspect)},
	}

	logging.From(ctx).Debug("generating image", "model", c.imageModel, "aspect", aspect)
	resp, err := c.gemini.GenerateContent(ctx, c.imageModel, contents, config)
	if err != nil {
		return nil, classify(err, "failed to generate image", goerr.V("model", c.imageModel))
	}

	media, err := responseMedia(ctx, resp)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read image response", goerr.V("model", c.imageModel))
	}
	if !media.IsImage() {
		return nil, goerr.New("model returned a non image payload",
			goerr.T(model.TagUpstream),
			goerr.V("mime", media.MIMEType),
		)
	}

	return media, nil
}
