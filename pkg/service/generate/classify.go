package generate

import (
	"errors"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"google.golang.org/genai"
)

const entityNotFoundText = "Requested entity was not found"

// classify wraps err with msg and the tag describing how the caller should
// react. Errors that already carry a tag keep it.
func classify(err error, msg string, opts ...goerr.Option) error {
	if err == nil {
		return nil
	}
	if !tagged(err) {
		opts = append(opts, inferTag(err))
	}
	return goerr.Wrap(err, msg, opts...)
}

func tagged(err error) bool {
	return goerr.HasTag(err, model.TagEntityNotFound) ||
		goerr.HasTag(err, model.TagCredential) ||
		goerr.HasTag(err, model.TagValidation) ||
		goerr.HasTag(err, model.TagRefusal) ||
		goerr.HasTag(err, model.TagMalformed) ||
		goerr.HasTag(err, model.TagPollTimeout) ||
		goerr.HasTag(err, model.TagUpstream)
}

func inferTag(err error) goerr.Option {
	if strings.Contains(err.Error(), entityNotFoundText) {
		return goerr.T(model.TagEntityNotFound)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && isCredentialError(apiErr) {
		return goerr.T(model.TagCredential)
	}

	return goerr.T(model.TagUpstream)
}

func isCredentialError(e genai.APIError) bool {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		return strings.Contains(e.Message, "API key not valid") || strings.Contains(e.Message, "API_KEY_INVALID")
	}
	return false
}

// operationError converts the error payload of a finished long running
// operation into an error
func operationError(payload map[string]any) error {
	message, _ := payload["message"].(string)
	if message == "" {
		message = "video generation failed"
	}

	var code int
	switch v := payload["code"].(type) {
	case float64:
		code = int(v)
	case int:
		code = v
	}

	return genai.APIError{Code: code, Message: message}
}
