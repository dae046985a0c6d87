package thumbnail_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/thumbnail"
)

func solidPNG(t *testing.T, w, h int, c color.Color) *model.Media {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	gt.NoError(t, png.Encode(&buf, img))
	return &model.Media{MIMEType: "image/png", Data: buf.Bytes()}
}

func decode(t *testing.T, m *model.Media) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(m.Data))
	gt.NoError(t, err)
	return img
}

func TestPosition(t *testing.T) {
	testCases := []struct {
		index int
		want  thumbnail.Anchor
	}{
		{0, thumbnail.Anchor{X: 64, Y: 104, Align: thumbnail.AlignLeft}},
		{4, thumbnail.Anchor{X: 640, Y: 360, Align: thumbnail.AlignCenter}},
		{7, thumbnail.Anchor{X: 640, Y: 656, Align: thumbnail.AlignCenter}},
		{8, thumbnail.Anchor{X: 1216, Y: 656, Align: thumbnail.AlignRight}},
	}
	for _, tc := range testCases {
		gt.Equal(t, thumbnail.Position(1280, 720, tc.index), tc.want)
	}
}

func TestParseColor(t *testing.T) {
	c, err := thumbnail.ParseColor("#FF8000")
	gt.NoError(t, err)
	gt.Equal(t, c, color.RGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff})

	c, err = thumbnail.ParseColor("#0f0")
	gt.NoError(t, err)
	gt.Equal(t, c, color.RGBA{G: 0xff, A: 0xff})

	_, err = thumbnail.ParseColor("red")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagValidation))
}

func TestCompose(t *testing.T) {
	blue := color.RGBA{B: 0xff, A: 0xff}
	src := solidPNG(t, 320, 180, blue)

	t.Run("hidden overlay keeps pixels", func(t *testing.T) {
		out, err := thumbnail.Compose(src, thumbnail.Overlay{Text: "HELLO", Show: false})
		gt.NoError(t, err)
		gt.Equal(t, out.MIMEType, "image/png")

		img := decode(t, out)
		gt.Equal(t, img.Bounds().Dx(), 320)
		r, g, b, _ := img.At(160, 150).RGBA()
		gt.Equal(t, [3]uint32{r >> 8, g >> 8, b >> 8}, [3]uint32{0, 0, 0xff})
	})

	t.Run("text is drawn in the selected cell", func(t *testing.T) {
		out, err := thumbnail.Compose(src, thumbnail.DefaultOverlay("WWWW"))
		gt.NoError(t, err)
		img := decode(t, out)

		changedBottom, changedTop := 0, 0
		for y := 0; y < 180; y++ {
			for x := 0; x < 320; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				if r>>8 == 0 && g>>8 == 0 && b>>8 == 0xff {
					continue
				}
				if y > 120 {
					changedBottom++
				} else if y < 60 {
					changedTop++
				}
			}
		}
		gt.Number(t, changedBottom).GreaterOrEqual(1)
		gt.Equal(t, changedTop, 0)
	})

	t.Run("invalid position", func(t *testing.T) {
		_, err := thumbnail.Compose(src, thumbnail.Overlay{Text: "x", Show: true, Position: 9})
		gt.Error(t, err)
	})

	t.Run("non image input", func(t *testing.T) {
		_, err := thumbnail.Compose(&model.Media{MIMEType: "audio/wav", Data: []byte{1}}, thumbnail.DefaultOverlay("x"))
		gt.True(t, goerr.HasTag(err, model.TagValidation))
	})
}

func TestConvert(t *testing.T) {
	src := solidPNG(t, 16, 16, color.White)
	out, err := thumbnail.Convert(src, "image/jpeg")
	gt.NoError(t, err)
	gt.Equal(t, out.MIMEType, "image/jpeg")
	gt.True(t, bytes.HasPrefix(out.Data, []byte{0xff, 0xd8}))
}
