package generate

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"google.golang.org/genai"
)

var blogIdeasSchema = mustOutputSchema[[]model.BlogPostIdea]()

// BlogPostInput describes the post to write
type BlogPostInput struct {
	Title    string
	Keywords []string
	Tone     string
}

func (x BlogPostInput) templateData() map[string]any {
	return map[string]any{
		"Title":    x.Title,
		"Keywords": strings.Join(x.Keywords, ", "),
		"Tone":     x.Tone,
	}
}

// BlogIdeas returns five blog post ideas about topic
func (c *Client) BlogIdeas(ctx context.Context, topic string) ([]*model.BlogPostIdea, error) {
	if err := requirePrompt(topic); err != nil {
		return nil, err
	}

	prompt, err := renderPrompt("blog_ideas.md", map[string]any{"Topic": topic, "Count": 5})
	if err != nil {
		return nil, err
	}

	raw, err := c.generateText(ctx, prompt, structuredConfig(blogIdeasSchema))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate blog ideas", goerr.V("topic", topic))
	}

	ideas, err := decodeStructured[[]*model.BlogPostIdea](ctx, raw, blogIdeasSchema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse blog ideas", goerr.V("topic", topic))
	}

	result := make([]*model.BlogPostIdea, 0, len(ideas))
	for _, idea := range ideas {
		if idea != nil {
			result = append(result, idea)
		}
	}
	return result, nil
}

// BlogPost writes a markdown blog post
func (c *Client) BlogPost(ctx context.Context, input BlogPostInput) (string, error) {
	if err := requirePrompt(input.Title); err != nil {
		return "", err
	}

	prompt, err := renderPrompt("blog_post.md", input.templateData())
	if err != nil {
		return "", err
	}

	post, err := c.generateText(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.8),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to write blog post", goerr.V("title", input.Title))
	}
	return post, nil
}

// HTMLBlogPost writes the post as HTML wrapped by the embedded style sheet
func (c *Client) HTMLBlogPost(ctx context.Context, input BlogPostInput) (string, error) {
	if err := requirePrompt(input.Title); err != nil {
		return "", err
	}

	prompt, err := renderPrompt("blog_html.md", input.templateData())
	if err != nil {
		return "", err
	}

	body, err := c.generateText(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.7),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to write HTML blog post", goerr.V("title", input.Title))
	}

	return wrapHTML(body), nil
}

func wrapHTML(body string) string {
	body = strings.ReplaceAll(body, "```html", "")
	body = strings.ReplaceAll(body, "```", "")
	return blogStyle + body + "\n</div>"
}

// BlogImagePrompt builds the featured image prompt for a post
func BlogImagePrompt(input BlogPostInput) (string, error) {
	if err := requirePrompt(input.Title); err != nil {
		return "", err
	}
	prompt, err := renderPrompt("blog_image.md", input.templateData())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(prompt), nil
}
