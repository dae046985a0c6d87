package studio

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
)

// IdeasResult is a batch of ideas plus the thumbnail rendered from the
// batch's image prompt, if any idea carried one
type IdeasResult struct {
	Ideas           []*model.GeneratedIdea
	ThumbnailPrompt string
	Thumbnail       *model.Media
	// ThumbnailErr is set when the ideas were generated but the thumbnail was not
	ThumbnailErr    error
}

// Ideas generates video ideas for topic. When an idea carries an image
// prompt one 16:9 thumbnail is generated from it. A thumbnail failure keeps
// the ideas and is reported in ThumbnailErr.
func (s *Studio) Ideas(ctx context.Context, topic string) (*IdeasResult, error) {
	return run(ctx, s.ideas, "ideas", func() (*IdeasResult, error) {
		ideas, err := s.gen.VideoIdeas(ctx, topic)
		if err != nil {
			return nil, err
		}

		result := &IdeasResult{Ideas: ideas}

		prompt, ok := model.ThumbnailPrompt(ideas)
		if !ok {
			logging.From(ctx).Debug("no idea carries an image prompt, skipping thumbnail")
			return result, nil
		}

		result.ThumbnailPrompt = prompt
		img, err := s.gen.Image(ctx, prompt, model.AspectLandscape)
		if err != nil {
			result.ThumbnailErr = goerr.Wrap(err, "failed to generate idea thumbnail", goerr.V("prompt", prompt))
			logging.From(ctx).Warn("idea thumbnail failed", "error", result.ThumbnailErr)
			return result, nil
		}
		result.Thumbnail = img

		return result, nil
	})
}

func (s *Studio) IdeasState() model.Snapshot[*IdeasResult] {
	return s.ideas.Snapshot()
}
