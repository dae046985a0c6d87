package studio

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
)

const (
	titleImage     = "Generated Image"
	titleThumbnail = "YouTube Thumbnail"
	titleVideo     = "AI Generated Video"
)

func (s *Studio) save(ctx context.Context, item *model.NewItem) (*model.SavedItem, error) {
	if s.records == nil {
		return nil, goerr.New("record store is not configured")
	}
	return s.records.Save(ctx, item)
}

// SaveIdea stores the idea description with its title and platform
func (s *Studio) SaveIdea(ctx context.Context, idea *model.GeneratedIdea) (*model.SavedItem, error) {
	if idea == nil {
		return nil, goerr.New("idea is nil", goerr.T(model.TagValidation))
	}
	return s.save(ctx, &model.NewItem{
		Type:    model.ItemTypeIdea,
		Content: idea.Description,
		Meta: model.ItemMeta{
			Title:    idea.Title,
			Platform: string(idea.Platform),
		},
	})
}

func (s *Studio) SaveImage(ctx context.Context, img *model.Media, prompt string) (*model.SavedItem, error) {
	if img == nil {
		return nil, goerr.New("image is nil", goerr.T(model.TagValidation))
	}
	return s.save(ctx, &model.NewItem{
		Type:    model.ItemTypeImage,
		Content: img.DataURL(),
		Meta:    model.ItemMeta{Title: titleImage, Prompt: prompt},
	})
}

// SaveThumbnail stores a composed thumbnail. The title falls back to a
// generic one and the visual description is kept as the prompt.
func (s *Studio) SaveThumbnail(ctx context.Context, img *model.Media, input generate.ThumbnailInput) (*model.SavedItem, error) {
	if img == nil {
		return nil, goerr.New("thumbnail is nil", goerr.T(model.TagValidation))
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = titleThumbnail
	}
	return s.save(ctx, &model.NewItem{
		Type:    model.ItemTypeThumbnail,
		Content: img.DataURL(),
		Meta:    model.ItemMeta{Title: title, Prompt: input.Visual},
	})
}

func (s *Studio) SaveScript(ctx context.Context, topic, script string) (*model.SavedItem, error) {
	return s.save(ctx, &model.NewItem{
		Type:    model.ItemTypeVideoScript,
		Content: script,
		Meta:    model.ItemMeta{Title: topic},
	})
}

// SaveVideo stores the prompt of a generated video. The video itself is a
// file and is not kept in the store.
func (s *Studio) SaveVideo(ctx context.Context, prompt string) (*model.SavedItem, error) {
	return s.save(ctx, &model.NewItem{
		Type:    model.ItemTypeVideoScript,
		Content: "Visual: " + prompt,
		Meta:    model.ItemMeta{Title: titleVideo, Prompt: prompt},
	})
}
