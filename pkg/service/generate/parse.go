package generate

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
	"google.golang.org/genai"
)

var fencePattern = regexp.MustCompile("(?s)^```([\\w-]*)?\\s*\\n?(.*?)\\n?\\s*```$")

// stripFence removes one optional markdown code fence around s
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil && m[2] != "" {
		return strings.TrimSpace(m[2])
	}
	return s
}

// decodeStructured parses a structured model response into T. The payload is
// validated against the schema before it is decoded, so a missing required
// field is an error instead of a zero value.
func decodeStructured[T any](ctx context.Context, raw string, schema *outputSchema) (T, error) {
	var out T
	payload := stripFence(raw)

	var instance any
	if err := json.Unmarshal([]byte(payload), &instance); err != nil {
		return out, malformed(ctx, err, "failed to unmarshal model response", raw)
	}

	if err := schema.resolved.Validate(instance); err != nil {
		return out, malformed(ctx, err, "model response does not match schema", raw)
	}

	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return out, malformed(ctx, err, "failed to decode model response", raw)
	}

	return out, nil
}

func malformed(ctx context.Context, cause error, msg, raw string) error {
	err := goerr.Wrap(cause, msg, goerr.T(model.TagMalformed), goerr.V("payload", raw))
	logging.From(ctx).Warn("malformed structured output", "error", err)
	return err
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", goerr.New("empty response from gemini", goerr.T(model.TagUpstream))
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", goerr.New("no text in gemini response", goerr.T(model.TagUpstream))
	}

	return strings.TrimSpace(b.String()), nil
}

// responseMedia returns the first inline binary part. When the model answered
// with text only, the answer is reported as a refusal.
func responseMedia(ctx context.Context, resp *genai.GenerateContentResponse) (*model.Media, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("empty response from gemini", goerr.T(model.TagUpstream))
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &model.Media{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}, nil
		}
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
	}

	if text.Len() > 0 {
		logging.From(ctx).Warn("model returned text instead of binary", "text", text.String())
		return nil, goerr.New("The model could not generate the content: "+truncate(text.String(), 100)+"...",
			goerr.T(model.TagRefusal),
			goerr.V("text", text.String()),
		)
	}

	return nil, goerr.New("no binary data returned from gemini", goerr.T(model.TagUpstream))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
