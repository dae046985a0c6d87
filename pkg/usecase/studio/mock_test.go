package studio_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/repository"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
)

type imageCall struct {
	Prompt string
	Aspect model.AspectRatio
}

type mockGenerator struct {
	mu         sync.Mutex
	imageCalls []imageCall
	videoCalls []generate.VideoInput

	videoIdeas   func(ctx context.Context, topic string) ([]*model.GeneratedIdea, error)
	script       func(ctx context.Context, input generate.ScriptInput) (string, error)
	videoScript  func(ctx context.Context, topic string) (*model.VideoScript, error)
	enhance      func(ctx context.Context, script string) string
	blogIdeas    func(ctx context.Context, topic string) ([]*model.BlogPostIdea, error)
	blogPost     func(ctx context.Context, input generate.BlogPostInput) (string, error)
	htmlBlogPost func(ctx context.Context, input generate.BlogPostInput) (string, error)
	image        func(ctx context.Context, prompt string, aspect model.AspectRatio) (*model.Media, error)
	video        func(ctx context.Context, input generate.VideoInput) (*generate.Asset, error)
	voice        func(ctx context.Context, input generate.VoiceInput) (*generate.Asset, error)
	speech       func(ctx context.Context, text, voice string) (*model.Media, error)
}

func (m *mockGenerator) VideoIdeas(ctx context.Context, topic string) ([]*model.GeneratedIdea, error) {
	return m.videoIdeas(ctx, topic)
}

func (m *mockGenerator) Script(ctx context.Context, input generate.ScriptInput) (string, error) {
	return m.script(ctx, input)
}

func (m *mockGenerator) VideoScript(ctx context.Context, topic string) (*model.VideoScript, error) {
	return m.videoScript(ctx, topic)
}

func (m *mockGenerator) EnhanceVideoPrompt(ctx context.Context, script string) string {
	if m.enhance == nil {
		return script
	}
	return m.enhance(ctx, script)
}

func (m *mockGenerator) BlogIdeas(ctx context.Context, topic string) ([]*model.BlogPostIdea, error) {
	return m.blogIdeas(ctx, topic)
}

func (m *mockGenerator) BlogPost(ctx context.Context, input generate.BlogPostInput) (string, error) {
	return m.blogPost(ctx, input)
}

func (m *mockGenerator) HTMLBlogPost(ctx context.Context, input generate.BlogPostInput) (string, error) {
	return m.htmlBlogPost(ctx, input)
}

func (m *mockGenerator) Image(ctx context.Context, prompt string, aspect model.AspectRatio) (*model.Media, error) {
	m.mu.Lock()
	m.imageCalls = append(m.imageCalls, imageCall{Prompt: prompt, Aspect: aspect})
	m.mu.Unlock()
	if m.image == nil {
		return testPNG(), nil
	}
	return m.image(ctx, prompt, aspect)
}

func (m *mockGenerator) Video(ctx context.Context, input generate.VideoInput) (*generate.Asset, error) {
	m.mu.Lock()
	m.videoCalls = append(m.videoCalls, input)
	m.mu.Unlock()
	if m.video == nil {
		return &generate.Asset{Path: "/tmp/video.mp4", MIMEType: "video/mp4", Size: 3}, nil
	}
	return m.video(ctx, input)
}

func (m *mockGenerator) Voice(ctx context.Context, input generate.VoiceInput) (*generate.Asset, error) {
	return m.voice(ctx, input)
}

func (m *mockGenerator) Speech(ctx context.Context, text, voice string) (*model.Media, error) {
	return m.speech(ctx, text, voice)
}

func testPNG() *model.Media {
	img := image.NewRGBA(image.Rect(0, 0, 160, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 160; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 80, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return &model.Media{MIMEType: "image/png", Data: buf.Bytes()}
}

func newRecords(t *testing.T) *repository.Records {
	kv, err := repository.NewFileKV(t.TempDir())
	gt.NoError(t, err)
	return repository.NewRecords(kv)
}
