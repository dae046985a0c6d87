package mcp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
	"github.com/m-mizutani/vidscribe/pkg/usecase/studio"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "vidscribe"

// Workflows is the part of the studio exposed as tools
type Workflows interface {
	Ideas(ctx context.Context, topic string) (*studio.IdeasResult, error)
	Script(ctx context.Context, input generate.ScriptInput) (string, error)
	BlogPost(ctx context.Context, input generate.BlogPostInput, html bool) (string, error)
	Image(ctx context.Context, prompt string, aspect model.AspectRatio) (*model.Media, error)
	Thumbnail(ctx context.Context, req studio.ThumbnailRequest) (*studio.ThumbnailResult, error)
	SaveIdea(ctx context.Context, idea *model.GeneratedIdea) (*model.SavedItem, error)
	SaveImage(ctx context.Context, img *model.Media, prompt string) (*model.SavedItem, error)
}

// Items is the read side of the local record store
type Items interface {
	List(ctx context.Context) ([]*model.SavedItem, error)
	ListByType(ctx context.Context, typ model.ItemType) ([]*model.SavedItem, error)
	Get(ctx context.Context, id model.ItemID) (*model.SavedItem, error)
}

// Server publishes workflows and saved items as MCP tools
type Server struct {
	workflows Workflows
	items     Items
	version   string
	server    *mcp.Server
}

type Option func(*Server)

func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

func NewServer(workflows Workflows, items Items, opts ...Option) *Server {
	s := &Server{
		workflows: workflows,
		items:     items,
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: s.version,
	}, nil)
	s.register()

	return s
}

// Run serves over stdin and stdout until the client disconnects
func (s *Server) Run(ctx context.Context) error {
	logging.From(ctx).Info("serving MCP over stdio", "version", s.version)
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP server stopped")
	}
	return nil
}

// Handler serves the streamable HTTP transport
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal tool result")
	}
	return textResult(string(raw)), nil
}

func imageContent(m *model.Media) *mcp.ImageContent {
	return &mcp.ImageContent{Data: m.Data, MIMEType: m.MIMEType}
}

// errorResult reports a workflow failure to the client as a tool error
// rather than a protocol error, so the client model can read the reason.
func errorResult(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	logging.From(ctx).Warn("tool failed", "tool", tool, "error", err)

	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: errorMessage(err)}},
	}
}

func errorMessage(err error) string {
	msg := err.Error()
	switch model.KindOf(err) {
	case model.ErrorKindConfiguration:
		msg = "configuration error: " + msg + " (run `vidscribe key set gemini` or check the project)"
	case model.ErrorKindStorage:
		msg = "storage full: " + msg
	case model.ErrorKindRefusal:
		msg = "refused: " + msg
	}
	return msg
}
