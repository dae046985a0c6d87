package model

import (
	"github.com/m-mizutani/goerr/v2"
)

type Platform string

const (
	PlatformYouTube   Platform = "YouTube"
	PlatformInstagram Platform = "Instagram"
)

// Validate checks if the platform is valid
func (p Platform) Validate() error {
	switch p {
	case PlatformYouTube, PlatformInstagram:
		return nil
	default:
		return goerr.Wrap(ErrInvalidPlatform, "unknown platform", goerr.V("platform", p))
	}
}

// GeneratedIdea is a single video idea. It is not persisted as is; saving an
// idea converts it to a SavedItem.
type GeneratedIdea struct {
	Platform    Platform `json:"platform" jsonschema:"YouTube or Instagram"`
	Title       string   `json:"title" jsonschema:"catchy and SEO-friendly title"`
	Description string   `json:"description" jsonschema:"script outline or step-by-step description"`
	Hashtags    []string `json:"hashtags" jsonschema:"hashtags without the # symbol"`
	ImagePrompt string   `json:"imagePrompt,omitempty" jsonschema:"thumbnail prompt, only on the first YouTube idea"`
}

// ThumbnailPrompt returns the image prompt carried by the first idea that has
// one. At most one idea per batch is expected to carry it.
func ThumbnailPrompt(ideas []*GeneratedIdea) (string, bool) {
	for _, idea := range ideas {
		if idea != nil && idea.ImagePrompt != "" {
			return idea.ImagePrompt, true
		}
	}
	return "", false
}

// ByPlatform returns ideas for the given platform keeping their order
func ByPlatform(ideas []*GeneratedIdea, p Platform) []*GeneratedIdea {
	var filtered []*GeneratedIdea
	for _, idea := range ideas {
		if idea.Platform == p {
			filtered = append(filtered, idea)
		}
	}
	return filtered
}

type BlogPostIdea struct {
	Title       string   `json:"title" jsonschema:"catchy, clickable title"`
	Summary     string   `json:"summary" jsonschema:"one sentence summary"`
	SEOKeywords []string `json:"seoKeywords" jsonschema:"five SEO keywords"`
}

type VideoScript struct {
	VisualPrompt    string `json:"visualPrompt" jsonschema:"visual description of the scene for a video generator"`
	VoiceoverScript string `json:"voiceoverScript" jsonschema:"short spoken script for a narrator"`
}
