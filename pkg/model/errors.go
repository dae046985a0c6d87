package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// Error tags classify failures so that callers can react differently to each of
// them. A credential error asks the user to fix the configuration, the others
// are reported as retryable failures.
var (
	TagCredential       = goerr.NewTag("credential")
	TagEntityNotFound   = goerr.NewTag("entity_not_found")
	TagMalformed        = goerr.NewTag("malformed_response")
	TagRefusal          = goerr.NewTag("refusal")
	TagUpstream         = goerr.NewTag("upstream")
	TagPollTimeout      = goerr.NewTag("poll_timeout")
	TagStorageExhausted = goerr.NewTag("storage_exhausted")
	TagValidation       = goerr.NewTag("validation")
	TagNotFound         = goerr.NewTag("not_found")
)

var (
	ErrEmptyPrompt       = goerr.New("prompt is empty", goerr.T(TagValidation))
	ErrInvalidItemType   = goerr.New("invalid item type", goerr.T(TagValidation))
	ErrInvalidPlatform   = goerr.New("invalid platform", goerr.T(TagValidation))
	ErrInvalidAspect     = goerr.New("invalid aspect ratio", goerr.T(TagValidation))
	ErrInvalidDataURL    = goerr.New("invalid embedded binary string", goerr.T(TagValidation))
	ErrMissingCredential = goerr.New("credential is not configured", goerr.T(TagCredential))
	ErrItemNotFound      = goerr.New("item not found", goerr.T(TagNotFound))
)

// NeedsUserAction reports whether err can only be resolved by the user updating
// credentials or the selected project. Such errors are never retried.
func NeedsUserAction(err error) bool {
	return goerr.HasTag(err, TagCredential) || goerr.HasTag(err, TagEntityNotFound)
}

// ErrorKind is a coarse classification used by the presentation layer.
type ErrorKind string

const (
	ErrorKindNone          ErrorKind = ""
	ErrorKindConfiguration ErrorKind = "configuration"
	ErrorKindRefusal       ErrorKind = "refusal"
	ErrorKindMalformed     ErrorKind = "malformed"
	ErrorKindStorage       ErrorKind = "storage"
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindTransient     ErrorKind = "transient"
)

// KindOf maps err to the ErrorKind that decides how it is shown.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case NeedsUserAction(err):
		return ErrorKindConfiguration
	case goerr.HasTag(err, TagRefusal):
		return ErrorKindRefusal
	case goerr.HasTag(err, TagMalformed):
		return ErrorKindMalformed
	case goerr.HasTag(err, TagStorageExhausted):
		return ErrorKindStorage
	case goerr.HasTag(err, TagValidation):
		return ErrorKindValidation
	default:
		return ErrorKindTransient
	}
}
