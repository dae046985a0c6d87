package studio

import (
	"context"

	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
)

func (s *Studio) BlogIdeas(ctx context.Context, topic string) ([]*model.BlogPostIdea, error) {
	return s.gen.BlogIdeas(ctx, topic)
}

// BlogPost writes a post in markdown, or as a styled HTML document when html
// is set
func (s *Studio) BlogPost(ctx context.Context, input generate.BlogPostInput, html bool) (string, error) {
	return run(ctx, s.blog, "blog", func() (string, error) {
		if html {
			return s.gen.HTMLBlogPost(ctx, input)
		}
		return s.gen.BlogPost(ctx, input)
	})
}

// BlogImage renders a 16:9 featured image for the post
func (s *Studio) BlogImage(ctx context.Context, input generate.BlogPostInput) (*model.Media, error) {
	prompt, err := generate.BlogImagePrompt(input)
	if err != nil {
		return nil, err
	}
	return s.Image(ctx, prompt, model.AspectLandscape)
}

func (s *Studio) BlogState() model.Snapshot[string] {
	return s.blog.Snapshot()
}
