package model

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Media is a binary payload with its MIME type. It is stored as an embedded
// binary string ("data:<mime>;base64,<payload>") in SavedItem.Content.
type Media struct {
	MIMEType string
	Data     []byte
}

var dataURLPattern = regexp.MustCompile(`^data:([a-zA-Z]+/[a-zA-Z0-9.+-]+);base64,(.+)$`)

// ParseDataURL splits an embedded binary string into MIME type and raw bytes
func ParseDataURL(s string) (*Media, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(s))
	if len(m) != 3 {
		return nil, goerr.Wrap(ErrInvalidDataURL, "pattern mismatch", goerr.V("prefix", prefixOf(s)))
	}

	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidDataURL, "failed to decode base64 payload", goerr.V("mime", m[1]), goerr.V("cause", err.Error()))
	}

	return &Media{MIMEType: m[1], Data: data}, nil
}

// DataURL returns the embedded binary string form
func (m *Media) DataURL() string {
	return "data:" + m.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(m.Data)
}

// IsImage reports whether the payload is an image
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.MIMEType, "image/")
}

// Extension returns a file extension matching the MIME type, including the dot
func (m *Media) Extension() string {
	switch m.MIMEType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mpeg":
		return ".mp3"
	case "video/mp4":
		return ".mp4"
	case "text/markdown":
		return ".md"
	case "text/html":
		return ".html"
	default:
		return ".bin"
	}
}

func prefixOf(s string) string {
	const n = 32
	if len(s) > n {
		return s[:n]
	}
	return s
}

type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "9:16"
)

// ValidateImage checks the aspect ratio is accepted by image generation
func (a AspectRatio) ValidateImage() error {
	switch a {
	case AspectLandscape, AspectSquare, AspectPortrait:
		return nil
	default:
		return goerr.Wrap(ErrInvalidAspect, "unsupported image aspect ratio", goerr.V("aspect", a))
	}
}

// ValidateVideo checks the aspect ratio is accepted by video generation
func (a AspectRatio) ValidateVideo() error {
	switch a {
	case AspectLandscape, AspectPortrait:
		return nil
	default:
		return goerr.Wrap(ErrInvalidAspect, "unsupported video aspect ratio", goerr.V("aspect", a))
	}
}
