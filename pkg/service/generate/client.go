package generate

import (
	"context"
	"time"

	"github.com/m-mizutani/vidscribe/pkg/adapter"
)

const (
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultImageModel  = "gemini-2.5-flash-image"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultVideoModel  = "veo-3.1-fast-generate-preview"

	DefaultVoiceModel         = "eleven_multilingual_v2"
	DefaultFallbackVoiceModel = "eleven_monolingual_v1"

	DefaultPollInterval    = 5 * time.Second
	DefaultPollMaxAttempts = 120
)

// Client calls the generative services. A nil gemini or voice adapter is an
// unconfigured credential and fails the capabilities that need it.
type Client struct {
	gemini adapter.Gemini
	voice  adapter.ElevenLabs

	textModel   string
	imageModel  string
	speechModel string
	videoModel  string

	voicePrimary   string
	voiceSecondary string

	pollInterval    time.Duration
	pollMaxAttempts int
	sleep           func(ctx context.Context, d time.Duration) error
	tempDir         string
}

type Option func(*Client)

func WithTextModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.textModel = name
		}
	}
}

func WithImageModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.imageModel = name
		}
	}
}

func WithSpeechModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.speechModel = name
		}
	}
}

func WithVideoModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.videoModel = name
		}
	}
}

// WithElevenLabs enables Voice
func WithElevenLabs(voice adapter.ElevenLabs) Option {
	return func(c *Client) {
		c.voice = voice
	}
}

// WithVoiceModels sets the primary and the fallback ElevenLabs model
func WithVoiceModels(primary, secondary string) Option {
	return func(c *Client) {
		if primary != "" {
			c.voicePrimary = primary
		}
		if secondary != "" {
			c.voiceSecondary = secondary
		}
	}
}

// WithPollInterval sets the wait between two video operation queries
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithPollMaxAttempts bounds the number of video operation queries
func WithPollMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pollMaxAttempts = n
		}
	}
}

// WithTempDir sets where generated video and audio assets are written
func WithTempDir(dir string) Option {
	return func(c *Client) {
		c.tempDir = dir
	}
}

func New(gemini adapter.Gemini, opts ...Option) *Client {
	c := &Client{
		gemini:          gemini,
		textModel:       DefaultTextModel,
		imageModel:      DefaultImageModel,
		speechModel:     DefaultSpeechModel,
		videoModel:      DefaultVideoModel,
		voicePrimary:    DefaultVoiceModel,
		voiceSecondary:  DefaultFallbackVoiceModel,
		pollInterval:    DefaultPollInterval,
		pollMaxAttempts: DefaultPollMaxAttempts,
		sleep:           sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
