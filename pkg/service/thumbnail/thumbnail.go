package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

const (
	fontScale       = 0.15
	strokeScale     = 0.08
	paddingScale    = 0.05
	topRowOffset    = 40
	jpegQuality     = 90
	DefaultColor    = "#FFFFFF"
	DefaultPosition = 7
)

var boldFont = mustParseFont(gobold.TTF)

func mustParseFont(ttf []byte) *opentype.Font {
	f, err := opentype.Parse(ttf)
	if err != nil {
		panic(err)
	}
	return f
}

// Overlay is the text drawn on top of a thumbnail
type Overlay struct {
	Text  string
	Color string
	// Position is a cell of a 3x3 grid, 0 is top left and 8 is bottom right
	Position int
	Show     bool
}

// DefaultOverlay returns white text at the bottom center
func DefaultOverlay(text string) Overlay {
	return Overlay{Text: text, Color: DefaultColor, Position: DefaultPosition, Show: true}
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Anchor is where text is placed. X is interpreted according to Align and Y
// is the vertical middle of the text.
type Anchor struct {
	X     float64
	Y     float64
	Align Align
}

// Position returns the anchor of grid cell index on a width x height image
func Position(width, height, index int) Anchor {
	w, h := float64(width), float64(height)
	padding := w * paddingScale
	xs := [3]float64{padding, w / 2, w - padding}
	ys := [3]float64{padding + topRowOffset, h / 2, h - padding}

	row, col := index/3, index%3
	return Anchor{X: xs[col], Y: ys[row], Align: Align(col)}
}

// Compose draws the overlay on src and returns a PNG. A hidden or empty
// overlay returns src re-encoded as PNG.
func Compose(src *model.Media, overlay Overlay) (*model.Media, error) {
	if src == nil || !src.IsImage() {
		return nil, goerr.New("thumbnail source is not an image", goerr.T(model.TagValidation))
	}

	img, _, err := image.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode image", goerr.T(model.TagValidation), goerr.V("mime", src.MIMEType))
	}

	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)

	if overlay.Show && strings.TrimSpace(overlay.Text) != "" {
		if err := drawOverlay(canvas, overlay); err != nil {
			return nil, err
		}
	}

	return Encode(canvas, "image/png")
}

func drawOverlay(canvas *image.RGBA, overlay Overlay) error {
	if overlay.Position < 0 || overlay.Position > 8 {
		return goerr.New("overlay position must be between 0 and 8", goerr.T(model.TagValidation), goerr.V("position", overlay.Position))
	}

	fill, err := ParseColor(overlay.Color)
	if err != nil {
		return err
	}

	width, height := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	size := float64(height) * fontScale

	face, err := opentype.NewFace(boldFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create font face")
	}
	defer face.Close()

	anchor := Position(width, height, overlay.Position)
	advance := font.MeasureString(face, overlay.Text)
	metrics := face.Metrics()

	x := fixed.Int26_6(anchor.X * 64)
	switch anchor.Align {
	case AlignCenter:
		x -= advance / 2
	case AlignRight:
		x -= advance
	}
	// middle baseline: the em box is centered on Y
	y := fixed.Int26_6(anchor.Y*64) + (metrics.Ascent-metrics.Descent)/2

	d := &font.Drawer{Dst: canvas, Face: face}

	// stroke is centered on the glyph outline, so it extends half its width
	d.Src = image.NewUniform(color.Black)
	for _, off := range strokeOffsets(size * strokeScale / 2) {
		d.Dot = fixed.Point26_6{X: x + off.X, Y: y + off.Y}
		d.DrawString(overlay.Text)
	}

	d.Src = image.NewUniform(fill)
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(overlay.Text)

	return nil
}

// strokeOffsets returns the offsets of a filled disk of radius r in pixels
func strokeOffsets(r float64) []fixed.Point26_6 {
	n := int(math.Ceil(r))
	var offsets []fixed.Point26_6
	for dy := -n; dy <= n; dy++ {
		for dx := -n; dx <= n; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if float64(dx*dx+dy*dy) <= r*r {
				offsets = append(offsets, fixed.P(dx, dy))
			}
		}
	}
	return offsets
}

// ParseColor parses "#RRGGBB" or "#RGB". Empty means white.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if hex == "" {
		return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, nil
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, goerr.New("invalid color", goerr.T(model.TagValidation), goerr.V("color", s))
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, goerr.Wrap(err, "invalid color", goerr.T(model.TagValidation), goerr.V("color", s))
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Encode writes img as PNG or JPEG
func Encode(img image.Image, mimeType string) (*model.Media, error) {
	var buf bytes.Buffer
	switch mimeType {
	case "image/png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, goerr.Wrap(err, "failed to encode png")
		}
	case "image/jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, goerr.Wrap(err, "failed to encode jpeg")
		}
	default:
		return nil, goerr.New("unsupported output format", goerr.T(model.TagValidation), goerr.V("mime", mimeType))
	}
	return &model.Media{MIMEType: mimeType, Data: buf.Bytes()}, nil
}

// Convert re-encodes an image payload into mimeType
func Convert(src *model.Media, mimeType string) (*model.Media, error) {
	if src.MIMEType == mimeType {
		return src, nil
	}
	img, _, err := image.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode image", goerr.T(model.TagValidation), goerr.V("mime", src.MIMEType))
	}
	return Encode(img, mimeType)
}
