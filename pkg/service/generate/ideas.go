package generate

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"google.golang.org/genai"
)

var ideasSchema = mustOutputSchema[[]model.GeneratedIdea]()

// VideoIdeas asks for three YouTube and three Instagram ideas about topic
func (c *Client) VideoIdeas(ctx context.Context, topic string) ([]*model.GeneratedIdea, error) {
	if err := requirePrompt(topic); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt("ideas.md", map[string]any{
		"Topic":     topic,
		"YouTube":   3,
		"Instagram": 3,
	})
	if err != nil {
		return nil, err
	}

	config := structuredConfig(ideasSchema)
	config.Temperature = genai.Ptr[float32](0.7)
	config.TopP = genai.Ptr[float32](0.95)

	raw, err := c.generateText(ctx, prompt, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate video ideas", goerr.V("topic", topic))
	}

	ideas, err := decodeStructured[[]*model.GeneratedIdea](ctx, raw, ideasSchema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse video ideas", goerr.V("topic", topic))
	}

	result := make([]*model.GeneratedIdea, 0, len(ideas))
	for _, idea := range ideas {
		if idea == nil {
			continue
		}
		if err := idea.Platform.Validate(); err != nil {
			return nil, goerr.Wrap(err, "model returned an unknown platform",
				goerr.T(model.TagMalformed),
				goerr.V("payload", raw),
			)
		}
		result = append(result, idea)
	}

	return result, nil
}
