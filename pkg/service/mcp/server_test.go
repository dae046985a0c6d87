package mcp_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/repository"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
	"github.com/m-mizutani/vidscribe/pkg/service/mcp"
	"github.com/m-mizutani/vidscribe/pkg/usecase/studio"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type mockWorkflows struct {
	records *repository.Records

	ideas     func(ctx context.Context, topic string) (*studio.IdeasResult, error)
	image     func(ctx context.Context, prompt string, aspect model.AspectRatio) (*model.Media, error)
	thumbnail func(ctx context.Context, req studio.ThumbnailRequest) (*studio.ThumbnailResult, error)
}

func (m *mockWorkflows) Ideas(ctx context.Context, topic string) (*studio.IdeasResult, error) {
	return m.ideas(ctx, topic)
}

func (m *mockWorkflows) Script(ctx context.Context, input generate.ScriptInput) (string, error) {
	return "# " + input.Topic, nil
}

func (m *mockWorkflows) BlogPost(ctx context.Context, input generate.BlogPostInput, html bool) (string, error) {
	if html {
		return "<h1>" + input.Title + "</h1>", nil
	}
	return "# " + input.Title, nil
}

func (m *mockWorkflows) Image(ctx context.Context, prompt string, aspect model.AspectRatio) (*model.Media, error) {
	return m.image(ctx, prompt, aspect)
}

func (m *mockWorkflows) Thumbnail(ctx context.Context, req studio.ThumbnailRequest) (*studio.ThumbnailResult, error) {
	return m.thumbnail(ctx, req)
}

func (m *mockWorkflows) SaveIdea(ctx context.Context, idea *model.GeneratedIdea) (*model.SavedItem, error) {
	return m.records.Save(ctx, &model.NewItem{
		Type:    model.ItemTypeIdea,
		Content: idea.Description,
		Meta:    model.ItemMeta{Title: idea.Title, Platform: string(idea.Platform)},
	})
}

func (m *mockWorkflows) SaveImage(ctx context.Context, img *model.Media, prompt string) (*model.SavedItem, error) {
	return m.records.Save(ctx, &model.NewItem{
		Type:    model.ItemTypeImage,
		Content: img.DataURL(),
		Meta:    model.ItemMeta{Title: "Generated Image", Prompt: prompt},
	})
}

var pixel = &model.Media{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}

func setup(t *testing.T, wf *mockWorkflows) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()

	kv, err := repository.NewFileKV(t.TempDir())
	gt.NoError(t, err)
	wf.records = repository.NewRecords(kv)

	srv := mcp.NewServer(wf, wf.records, mcp.WithVersion("test"))
	testServer := httptest.NewServer(srv.Handler())
	t.Cleanup(testServer.Close)

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcpsdk.StreamableClientTransport{Endpoint: testServer.URL}, nil)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	gt.NoError(t, err)
	gt.V(t, result).NotNil()
	return result
}

func TestListTools(t *testing.T) {
	session := setup(t, &mockWorkflows{})

	tools, err := session.ListTools(context.Background(), nil)
	gt.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, name := range []string{"generate_ideas", "generate_script", "generate_blog_post", "generate_image", "generate_thumbnail", "list_items", "get_item"} {
		gt.True(t, names[name])
	}
}

func TestGenerateIdeasTool(t *testing.T) {
	wf := &mockWorkflows{
		ideas: func(ctx context.Context, topic string) (*studio.IdeasResult, error) {
			return &studio.IdeasResult{
				Ideas: []*model.GeneratedIdea{
					{Platform: model.PlatformYouTube, Title: "Go in 100s", Description: "fast intro", ImagePrompt: "gopher"},
				},
				ThumbnailPrompt: "gopher",
				Thumbnail:       pixel,
			}, nil
		},
	}
	session := setup(t, wf)

	result := callTool(t, session, "generate_ideas", map[string]any{"topic": "golang", "save": true})
	gt.False(t, result.IsError)
	gt.A(t, result.Content).Length(2)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	gt.True(t, ok)
	var ideas []*model.GeneratedIdea
	gt.NoError(t, json.Unmarshal([]byte(text.Text), &ideas))
	gt.A(t, ideas).Length(1)
	gt.Equal(t, ideas[0].Title, "Go in 100s")

	img, ok := result.Content[1].(*mcpsdk.ImageContent)
	gt.True(t, ok)
	gt.Equal(t, img.MIMEType, "image/png")

	items, err := wf.records.List(context.Background())
	gt.NoError(t, err)
	gt.A(t, items).Length(1)
	gt.Equal(t, items[0].Content, "fast intro")
}

func TestGenerateIdeasToolThumbnailFailure(t *testing.T) {
	wf := &mockWorkflows{
		ideas: func(ctx context.Context, topic string) (*studio.IdeasResult, error) {
			return &studio.IdeasResult{
				Ideas: []*model.GeneratedIdea{
					{Platform: model.PlatformYouTube, Title: "Go in 100s", Description: "fast intro", ImagePrompt: "gopher"},
				},
				ThumbnailPrompt: "gopher",
				ThumbnailErr:    goerr.New("blocked", goerr.T(model.TagRefusal)),
			}, nil
		},
	}
	session := setup(t, wf)

	result := callTool(t, session, "generate_ideas", map[string]any{"topic": "golang"})
	gt.False(t, result.IsError)
	gt.A(t, result.Content).Length(2)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	gt.True(t, ok)
	var ideas []*model.GeneratedIdea
	gt.NoError(t, json.Unmarshal([]byte(text.Text), &ideas))
	gt.A(t, ideas).Length(1)

	note, ok := result.Content[1].(*mcpsdk.TextContent)
	gt.True(t, ok)
	gt.S(t, note.Text).Contains("thumbnail not generated: refused")
}

func TestToolError(t *testing.T) {
	wf := &mockWorkflows{
		ideas: func(ctx context.Context, topic string) (*studio.IdeasResult, error) {
			return nil, goerr.Wrap(model.ErrMissingCredential, "gemini is not configured")
		},
	}
	session := setup(t, wf)

	result := callTool(t, session, "generate_ideas", map[string]any{"topic": "golang"})
	gt.True(t, result.IsError)
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	gt.True(t, ok)
	gt.S(t, text.Text).Contains("configuration error")
}

func TestImageAndItemTools(t *testing.T) {
	var gotAspect model.AspectRatio
	wf := &mockWorkflows{
		image: func(ctx context.Context, prompt string, aspect model.AspectRatio) (*model.Media, error) {
			gotAspect = aspect
			return pixel, nil
		},
	}
	session := setup(t, wf)

	result := callTool(t, session, "generate_image", map[string]any{"prompt": "sunset", "save": true})
	gt.False(t, result.IsError)
	gt.Equal(t, gotAspect, model.AspectLandscape)
	gt.A(t, result.Content).Length(2)

	items, err := wf.records.List(context.Background())
	gt.NoError(t, err)
	gt.A(t, items).Length(1)

	listed := callTool(t, session, "list_items", map[string]any{"type": "image"})
	text, ok := listed.Content[0].(*mcpsdk.TextContent)
	gt.True(t, ok)
	gt.S(t, text.Text).Contains(string(items[0].ID))
	gt.S(t, text.Text).NotContains("base64")

	got := callTool(t, session, "get_item", map[string]any{"id": string(items[0].ID)})
	gt.False(t, got.IsError)
	img, ok := got.Content[1].(*mcpsdk.ImageContent)
	gt.True(t, ok)
	gt.Equal(t, img.Data, pixel.Data)

	missing := callTool(t, session, "get_item", map[string]any{"id": "nope"})
	gt.True(t, missing.IsError)
}

func TestThumbnailTool(t *testing.T) {
	var got studio.ThumbnailRequest
	wf := &mockWorkflows{
		thumbnail: func(ctx context.Context, req studio.ThumbnailRequest) (*studio.ThumbnailResult, error) {
			got = req
			return &studio.ThumbnailResult{Composed: pixel}, nil
		},
	}
	session := setup(t, wf)

	result := callTool(t, session, "generate_thumbnail", map[string]any{
		"title":    "Go Tips",
		"visual":   "a gopher",
		"text":     "GO!",
		"position": 0,
	})
	gt.False(t, result.IsError)
	gt.Equal(t, got.Title, "Go Tips")
	gt.Equal(t, got.Overlay.Text, "GO!")
	gt.Equal(t, got.Overlay.Position, 0)
	gt.True(t, got.Overlay.Show)
	gt.Equal(t, got.Overlay.Color, "#FFFFFF")
}
