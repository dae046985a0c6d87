package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
)

const defaultElevenLabsBaseURL = "https://api.elevenlabs.io"

// ElevenLabs synthesizes speech with a specific model
type ElevenLabs interface {
	TextToSpeech(ctx context.Context, req *TextToSpeechRequest) (*model.Media, error)
}

type TextToSpeechRequest struct {
	Text            string
	VoiceID         string
	ModelID         string
	Stability       float64
	SimilarityBoost float64
}

type elevenLabsClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type ElevenLabsOption func(*elevenLabsClient)

// WithElevenLabsBaseURL overrides the API endpoint (useful for tests)
func WithElevenLabsBaseURL(baseURL string) ElevenLabsOption {
	return func(c *elevenLabsClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithElevenLabsHTTPClient overrides the default HTTP client
func WithElevenLabsHTTPClient(client *http.Client) ElevenLabsOption {
	return func(c *elevenLabsClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewElevenLabs creates a client. The key is trimmed; an empty key is
// rejected here so that no request is ever sent without credentials.
func NewElevenLabs(apiKey string, opts ...ElevenLabsOption) (ElevenLabs, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, goerr.Wrap(model.ErrMissingCredential, "ElevenLabs API key is missing")
	}

	c := &elevenLabsClient{
		apiKey:     key,
		baseURL:    defaultElevenLabsBaseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type ttsRequestBody struct {
	Text          string           `json:"text"`
	ModelID       string           `json:"model_id"`
	VoiceSettings ttsVoiceSettings `json:"voice_settings"`
}

type ttsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type ttsErrorBody struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

func (c *elevenLabsClient) TextToSpeech(ctx context.Context, req *TextToSpeechRequest) (*model.Media, error) {
	body, err := json.Marshal(ttsRequestBody{
		Text:    req.Text,
		ModelID: req.ModelID,
		VoiceSettings: ttsVoiceSettings{
			Stability:       req.Stability,
			SimilarityBoost: req.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal tts request")
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(req.VoiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build tts request")
	}
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call ElevenLabs", goerr.T(model.TagUpstream), goerr.V("model_id", req.ModelID))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ttsError(resp, req.ModelID)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read audio", goerr.T(model.TagUpstream))
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || !strings.HasPrefix(mimeType, "audio/") {
		mimeType = "audio/mpeg"
	}

	return &model.Media{MIMEType: mimeType, Data: audio}, nil
}

func ttsError(resp *http.Response, modelID string) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return goerr.New("Invalid API Key. Please check your ElevenLabs key.",
			goerr.T(model.TagCredential),
			goerr.V("model_id", modelID),
		)
	}

	var detail ttsErrorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	_ = json.Unmarshal(raw, &detail)

	message := detail.Detail.Message
	if message == "" {
		message = detail.Detail.Status
	}
	if message == "" {
		message = fmt.Sprintf("API Error: %d", resp.StatusCode)
	}

	return goerr.New(message,
		goerr.T(model.TagUpstream),
		goerr.V("code", resp.StatusCode),
		goerr.V("model_id", modelID),
	)
}
