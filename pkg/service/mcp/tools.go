package mcp

import (
	"context"
	"strings"

	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
	"github.com/m-mizutani/vidscribe/pkg/service/thumbnail"
	"github.com/m-mizutani/vidscribe/pkg/usecase/studio"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ideasParams struct {
	Topic string `json:"topic" jsonschema:"topic or niche to brainstorm video ideas for"`
	Save  bool   `json:"save,omitempty" jsonschema:"save every idea to the local store"`
}

type scriptParams struct {
	Topic     string `json:"topic" jsonschema:"video topic"`
	VideoType string `json:"video_type,omitempty" jsonschema:"kind of video such as tutorial or vlog"`
	Tone      string `json:"tone,omitempty" jsonschema:"tone of voice"`
	Audience  string `json:"audience,omitempty" jsonschema:"target audience"`
}

type blogPostParams struct {
	Title    string   `json:"title" jsonschema:"post title"`
	Keywords []string `json:"keywords,omitempty" jsonschema:"SEO keywords"`
	Tone     string   `json:"tone,omitempty" jsonschema:"writing tone"`
	HTML     bool     `json:"html,omitempty" jsonschema:"return a styled HTML document instead of markdown"`
}

type imageParams struct {
	Prompt string `json:"prompt" jsonschema:"description of the image"`
	Aspect string `json:"aspect,omitempty" jsonschema:"16:9, 1:1 or 9:16, default 16:9"`
	Save   bool   `json:"save,omitempty" jsonschema:"save the image to the local store"`
}

type thumbnailParams struct {
	Title    string `json:"title" jsonschema:"video title"`
	Visual   string `json:"visual" jsonschema:"what the background should show"`
	Style    string `json:"style,omitempty" jsonschema:"visual style"`
	Text     string `json:"text,omitempty" jsonschema:"overlay text, empty for none"`
	Color    string `json:"color,omitempty" jsonschema:"overlay text color as #RRGGBB"`
	Position *int   `json:"position,omitempty" jsonschema:"overlay cell of a 3x3 grid, 0 top left to 8 bottom right"`
}

type listItemsParams struct {
	Type string `json:"type,omitempty" jsonschema:"idea, image, thumbnail or video_script"`
}

type getItemParams struct {
	ID string `json:"id" jsonschema:"saved item id"`
}

type itemSummary struct {
	ID       model.ItemID   `json:"id"`
	Type     model.ItemType `json:"type"`
	Title    string         `json:"title,omitempty"`
	Platform string         `json:"platform,omitempty"`
	Date     string         `json:"date"`
	Preview  string         `json:"preview,omitempty"`
}

const previewLength = 120

func summarize(item *model.SavedItem) itemSummary {
	s := itemSummary{
		ID:       item.ID,
		Type:     item.Type,
		Title:    item.Meta.Title,
		Platform: item.Meta.Platform,
		Date:     item.Meta.Date,
	}
	if !item.Type.IsBinary() {
		s.Preview = item.Content
		if r := []rune(s.Preview); len(r) > previewLength {
			s.Preview = string(r[:previewLength]) + "..."
		}
	}
	return s
}

func (s *Server) register() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_ideas",
		Description: "Brainstorm viral video ideas for YouTube and Instagram about a topic",
	}, s.generateIdeas)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_script",
		Description: "Write a video script in markdown",
	}, s.generateScript)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_blog_post",
		Description: "Write an SEO friendly blog post",
	}, s.generateBlogPost)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_image",
		Description: "Generate an image from a prompt",
	}, s.generateImage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_thumbnail",
		Description: "Generate a YouTube thumbnail with optional overlay text",
	}, s.generateThumbnail)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_items",
		Description: "List saved items, newest first",
	}, s.listItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_item",
		Description: "Get a saved item by id",
	}, s.getItem)
}

func (s *Server) generateIdeas(ctx context.Context, req *mcp.CallToolRequest, params *ideasParams) (*mcp.CallToolResult, any, error) {
	result, err := s.workflows.Ideas(ctx, params.Topic)
	if err != nil {
		return errorResult(ctx, "generate_ideas", err), nil, nil
	}

	if params.Save {
		for _, idea := range result.Ideas {
			if _, err := s.workflows.SaveIdea(ctx, idea); err != nil {
				return errorResult(ctx, "generate_ideas", err), nil, nil
			}
		}
	}

	out, err := jsonResult(result.Ideas)
	if err != nil {
		return nil, nil, err
	}
	if result.Thumbnail != nil {
		out.Content = append(out.Content, imageContent(result.Thumbnail))
	}
	if result.ThumbnailErr != nil {
		out.Content = append(out.Content, &mcp.TextContent{Text: "thumbnail not generated: " + errorMessage(result.ThumbnailErr)})
	}
	return out, nil, nil
}

func (s *Server) generateScript(ctx context.Context, req *mcp.CallToolRequest, params *scriptParams) (*mcp.CallToolResult, any, error) {
	script, err := s.workflows.Script(ctx, generate.ScriptInput{
		Topic:     params.Topic,
		VideoType: params.VideoType,
		Tone:      params.Tone,
		Audience:  params.Audience,
	})
	if err != nil {
		return errorResult(ctx, "generate_script", err), nil, nil
	}
	return textResult(script), nil, nil
}

func (s *Server) generateBlogPost(ctx context.Context, req *mcp.CallToolRequest, params *blogPostParams) (*mcp.CallToolResult, any, error) {
	post, err := s.workflows.BlogPost(ctx, generate.BlogPostInput{
		Title:    params.Title,
		Keywords: params.Keywords,
		Tone:     params.Tone,
	}, params.HTML)
	if err != nil {
		return errorResult(ctx, "generate_blog_post", err), nil, nil
	}
	return textResult(post), nil, nil
}

func (s *Server) generateImage(ctx context.Context, req *mcp.CallToolRequest, params *imageParams) (*mcp.CallToolResult, any, error) {
	aspect := model.AspectRatio(strings.TrimSpace(params.Aspect))
	if aspect == "" {
		aspect = model.AspectLandscape
	}

	img, err := s.workflows.Image(ctx, params.Prompt, aspect)
	if err != nil {
		return errorResult(ctx, "generate_image", err), nil, nil
	}

	out := &mcp.CallToolResult{Content: []mcp.Content{imageContent(img)}}
	if params.Save {
		saved, err := s.workflows.SaveImage(ctx, img, params.Prompt)
		if err != nil {
			return errorResult(ctx, "generate_image", err), nil, nil
		}
		out.Content = append(out.Content, &mcp.TextContent{Text: "saved as " + string(saved.ID)})
	}
	return out, nil, nil
}

func (s *Server) generateThumbnail(ctx context.Context, req *mcp.CallToolRequest, params *thumbnailParams) (*mcp.CallToolResult, any, error) {
	overlay := thumbnail.DefaultOverlay(params.Text)
	overlay.Show = params.Text != ""
	if params.Color != "" {
		overlay.Color = params.Color
	}
	if params.Position != nil {
		overlay.Position = *params.Position
	}

	result, err := s.workflows.Thumbnail(ctx, studio.ThumbnailRequest{
		ThumbnailInput: generate.ThumbnailInput{
			Title:  params.Title,
			Visual: params.Visual,
			Style:  params.Style,
		},
		Overlay: overlay,
	})
	if err != nil {
		return errorResult(ctx, "generate_thumbnail", err), nil, nil
	}

	return &mcp.CallToolResult{Content: []mcp.Content{imageContent(result.Composed)}}, nil, nil
}

func (s *Server) listItems(ctx context.Context, req *mcp.CallToolRequest, params *listItemsParams) (*mcp.CallToolResult, any, error) {
	var (
		items []*model.SavedItem
		err   error
	)
	if params.Type == "" {
		items, err = s.items.List(ctx)
	} else {
		items, err = s.items.ListByType(ctx, model.ItemType(params.Type))
	}
	if err != nil {
		return errorResult(ctx, "list_items", err), nil, nil
	}

	summaries := make([]itemSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, summarize(item))
	}

	out, err := jsonResult(summaries)
	if err != nil {
		return nil, nil, err
	}
	return out, nil, nil
}

func (s *Server) getItem(ctx context.Context, req *mcp.CallToolRequest, params *getItemParams) (*mcp.CallToolResult, any, error) {
	item, err := s.items.Get(ctx, model.ItemID(params.ID))
	if err != nil {
		return errorResult(ctx, "get_item", err), nil, nil
	}

	if item.Type.IsBinary() {
		media, err := model.ParseDataURL(item.Content)
		if err != nil {
			return errorResult(ctx, "get_item", err), nil, nil
		}
		return &mcp.CallToolResult{Content: []mcp.Content{
			&mcp.TextContent{Text: item.Meta.Title},
			imageContent(media),
		}}, nil, nil
	}

	return textResult(item.Content), nil, nil
}
