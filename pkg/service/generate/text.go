package generate

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
	"google.golang.org/genai"
)

// generateText runs one text prompt against the text model
func (c *Client) generateText(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if c.gemini == nil {
		return "", goerr.Wrap(model.ErrMissingCredential, "gemini is not configured")
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	logging.From(ctx).Debug("generating text", "model", c.textModel, "prompt_length", len(prompt))
	resp, err := c.gemini.GenerateContent(ctx, c.textModel, contents, config)
	if err != nil {
		return "", classify(err, "failed to generate text", goerr.V("model", c.textModel))
	}

	text, err := responseText(resp)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read text response", goerr.V("model", c.textModel))
	}
	return text, nil
}

func requirePrompt(values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return model.ErrEmptyPrompt
		}
	}
	return nil
}

func structuredConfig(schema *outputSchema) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema.genai,
	}
}
