package generate_test

import (
	"context"
	"io"
	"strings"

	"github.com/m-mizutani/vidscribe/pkg/adapter"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"google.golang.org/genai"
)

type mockGemini struct {
	generateContent    func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	generateVideos     func(ctx context.Context, model string, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	getVideosOperation func(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
	download           func(ctx context.Context, uri string) (io.ReadCloser, error)
}

var _ adapter.Gemini = (*mockGemini)(nil)

func (m *mockGemini) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.generateContent(ctx, model, contents, config)
}

func (m *mockGemini) GenerateVideos(ctx context.Context, model string, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return m.generateVideos(ctx, model, prompt, image, config)
}

func (m *mockGemini) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return m.getVideosOperation(ctx, op)
}

func (m *mockGemini) Download(ctx context.Context, uri string) (io.ReadCloser, error) {
	return m.download(ctx, uri)
}

type mockElevenLabs struct {
	textToSpeech func(ctx context.Context, req *adapter.TextToSpeechRequest) (*model.Media, error)
}

func (m *mockElevenLabs) TextToSpeech(ctx context.Context, req *adapter.TextToSpeechRequest) (*model.Media, error) {
	return m.textToSpeech(ctx, req)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

func blobResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			}},
		},
	}
}

func promptOf(contents []*genai.Content) string {
	var b strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
