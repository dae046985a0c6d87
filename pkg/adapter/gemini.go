package adapter

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"google.golang.org/genai"
)

// Gemini is the subset of the Gemini API used for content generation
type Gemini interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateVideos(ctx context.Context, model string, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
	// Download fetches a generated file by URI, authenticating with the API key
	Download(ctx context.Context, uri string) (io.ReadCloser, error)
}

// GeminiConfig selects the backend. APIKey uses the Gemini Developer API,
// otherwise Project and Location select Vertex AI.
type GeminiConfig struct {
	APIKey   string
	Project  string
	Location string
	BaseURL  string
}

// Validate checks that one of the backends is fully configured
func (c GeminiConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) != "" {
		return nil
	}
	if c.Project != "" && c.Location != "" {
		return nil
	}
	return goerr.Wrap(model.ErrMissingCredential, "gemini api key or project/location is required")
}

type GeminiClient struct {
	client     *genai.Client
	apiKey     string
	httpClient *http.Client
}

type GeminiOption func(*GeminiClient)

// WithDownloadClient overrides the HTTP client used by Download
func WithDownloadClient(c *http.Client) GeminiOption {
	return func(g *GeminiClient) {
		g.httpClient = c
	}
}

func NewGemini(ctx context.Context, cfg GeminiConfig, opts ...GeminiOption) (*GeminiClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  strings.TrimSpace(cfg.APIKey),
	}
	if clientCfg.APIKey == "" {
		clientCfg.Backend = genai.BackendVertexAI
		clientCfg.Project = cfg.Project
		clientCfg.Location = cfg.Location
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client", goerr.T(model.TagCredential))
	}

	g := &GeminiClient{
		client:     client,
		apiKey:     clientCfg.APIKey,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", model))
	}
	return resp, nil
}

func (g *GeminiClient) GenerateVideos(ctx context.Context, model string, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	op, err := g.client.Models.GenerateVideos(ctx, model, prompt, image, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to start video generation", goerr.V("model", model))
	}
	return op, nil
}

func (g *GeminiClient) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	updated, err := g.client.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get video operation", goerr.V("name", op.Name))
	}
	return updated, nil
}

func (g *GeminiClient) Download(ctx context.Context, uri string) (io.ReadCloser, error) {
	return download(ctx, g.httpClient, uri, g.apiKey)
}

func download(ctx context.Context, client *http.Client, uri, apiKey string) (io.ReadCloser, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid download uri", goerr.V("uri", uri))
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("key", apiKey)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build download request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download content", goerr.T(model.TagUpstream))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		tag := model.TagUpstream
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			tag = model.TagCredential
		}
		return nil, goerr.New("failed to download content",
			goerr.T(tag),
			goerr.V("status", resp.Status),
			goerr.V("code", resp.StatusCode),
		)
	}

	return resp.Body, nil
}
