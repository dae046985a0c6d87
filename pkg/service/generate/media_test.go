package generate_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/vidscribe/pkg/adapter"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
	"google.golang.org/genai"
)

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func TestImage(t *testing.T) {
	t.Run("returns inline image", func(t *testing.T) {
		var prompt string
		var config *genai.GenerateContentConfig
		gemini := &mockGemini{
			generateContent: func(ctx context.Context, m string, contents []*genai.Content, c *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				gt.Equal(t, m, generate.DefaultImageModel)
				prompt = promptOf(contents)
				config = c
				return blobResponse("image/png", []byte{0x89, 'P', 'N', 'G'}), nil
			},
		}

		media, err := generate.New(gemini).Image(context.Background(), "a red fox", model.AspectSquare)
		gt.NoError(t, err)
		gt.Equal(t, media.MIMEType, "image/png")
		gt.Equal(t, prompt, "a red fox . High resolution, photorealistic, cinematic lighting, 4k.")
		gt.Equal(t, config.ImageConfig.AspectRatio, "1:1")
	})

	t.Run("text only answer is a refusal", func(t *testing.T) {
		long := strings.Repeat("I cannot draw that. ", 10)
		gemini := &mockGemini{
			generateContent: func(ctx context.Context, m string, contents []*genai.Content, c *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse(long), nil
			},
		}

		_, err := generate.New(gemini).Image(context.Background(), "something", model.AspectLandscape)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.TagRefusal))
		gt.Equal(t, model.KindOf(err), model.ErrorKindRefusal)
		gt.S(t, err.Error()).Contains(strings.TrimSpace(long)[:50])
		gt.S(t, err.Error()).Contains("...")
	})

	t.Run("invalid aspect makes no call", func(t *testing.T) {
		gemini := &mockGemini{
			generateContent: func(ctx context.Context, m string, contents []*genai.Content, c *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				t.Error("must not be called")
				return nil, nil
			},
		}
		_, err := generate.New(gemini).Image(context.Background(), "x", model.AspectRatio("4:3"))
		gt.True(t, errors.Is(err, model.ErrInvalidAspect))
	})
}

func TestPCMToWAV(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	wav, err := generate.PCMToWAVForTest(t.TempDir(), pcm)
	gt.NoError(t, err)

	gt.A(t, wav).Length(44 + len(pcm))
	gt.Equal(t, string(wav[0:4]), "RIFF")
	gt.Equal(t, binary.LittleEndian.Uint32(wav[4:8]), uint32(36+len(pcm)))
	gt.Equal(t, string(wav[8:16]), "WAVEfmt ")
	gt.Equal(t, binary.LittleEndian.Uint16(wav[20:22]), uint16(1))
	gt.Equal(t, binary.LittleEndian.Uint16(wav[22:24]), uint16(1))
	gt.Equal(t, binary.LittleEndian.Uint32(wav[24:28]), uint32(24000))
	gt.Equal(t, binary.LittleEndian.Uint32(wav[28:32]), uint32(48000))
	gt.Equal(t, binary.LittleEndian.Uint16(wav[32:34]), uint16(2))
	gt.Equal(t, binary.LittleEndian.Uint16(wav[34:36]), uint16(16))
	gt.Equal(t, string(wav[36:40]), "data")
	gt.Equal(t, binary.LittleEndian.Uint32(wav[40:44]), uint32(len(pcm)))
	gt.Equal(t, wav[44:], pcm)

	t.Run("odd trailing byte is dropped", func(t *testing.T) {
		wav, err := generate.PCMToWAVForTest(t.TempDir(), []byte{1, 2, 3})
		gt.NoError(t, err)
		gt.A(t, wav).Length(46)
		gt.Equal(t, binary.LittleEndian.Uint32(wav[40:44]), uint32(2))
	})

	t.Run("negative samples keep their bytes", func(t *testing.T) {
		pcm := []byte{0xff, 0xff, 0x00, 0x80}
		wav, err := generate.PCMToWAVForTest(t.TempDir(), pcm)
		gt.NoError(t, err)
		gt.Equal(t, wav[44:], pcm)
	})
}

func TestSpeech(t *testing.T) {
	var voice string
	gemini := &mockGemini{
		generateContent: func(ctx context.Context, m string, contents []*genai.Content, c *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			voice = c.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName
			gt.Equal(t, c.ResponseModalities, []string{"AUDIO"})
			return blobResponse("audio/L16;codec=pcm;rate=24000", []byte{9, 9}), nil
		},
	}

	media, err := generate.New(gemini).Speech(context.Background(), "hello", "")
	gt.NoError(t, err)
	gt.Equal(t, voice, "Kore")
	gt.Equal(t, media.MIMEType, "audio/wav")
	gt.A(t, media.Data).Length(46)
}

func videoOp(name string, done bool, uri string) *genai.GenerateVideosOperation {
	op := &genai.GenerateVideosOperation{Name: name, Done: done}
	if done && uri != "" {
		op.Response = &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: uri}}},
		}
	}
	return op
}

func TestVideoPollLoop(t *testing.T) {
	t.Run("two pending responses then done costs three queries", func(t *testing.T) {
		queries := 0
		var downloaded string
		gemini := &mockGemini{
			generateVideos: func(ctx context.Context, m, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
				gt.Equal(t, config.NumberOfVideos, int32(1))
				gt.Equal(t, config.Resolution, "720p")
				gt.Equal(t, config.AspectRatio, "9:16")
				return videoOp("ops/1", false, ""), nil
			},
			getVideosOperation: func(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
				queries++
				return videoOp(op.Name, queries == 3, "https://files.example/video?alt=media"), nil
			},
			download: func(ctx context.Context, uri string) (io.ReadCloser, error) {
				downloaded = uri
				return io.NopCloser(bytes.NewReader([]byte("mp4"))), nil
			},
		}

		client := generate.New(gemini, generate.WithSleepForTest(noSleep), generate.WithTempDir(t.TempDir()))
		asset, err := client.Video(context.Background(), generate.VideoInput{Prompt: "waves", Aspect: model.AspectPortrait})
		gt.NoError(t, err)
		defer func() { gt.NoError(t, asset.Release()) }()

		gt.Equal(t, queries, 3)
		gt.Equal(t, downloaded, "https://files.example/video?alt=media")
		gt.Equal(t, asset.MIMEType, "video/mp4")
		gt.Equal(t, asset.Size, int64(3))

		raw, err := os.ReadFile(asset.Path)
		gt.NoError(t, err)
		gt.Equal(t, string(raw), "mp4")
	})

	t.Run("done without video fails without further queries", func(t *testing.T) {
		queries := 0
		gemini := &mockGemini{
			generateVideos: func(ctx context.Context, m, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
				return videoOp("ops/2", false, ""), nil
			},
			getVideosOperation: func(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
				queries++
				return videoOp(op.Name, true, ""), nil
			},
			download: func(ctx context.Context, uri string) (io.ReadCloser, error) {
				t.Error("must not download")
				return nil, nil
			},
		}

		_, err := generate.New(gemini, generate.WithSleepForTest(noSleep)).Video(context.Background(), generate.VideoInput{Prompt: "x", Aspect: model.AspectLandscape})
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("no video URI")
		gt.Equal(t, queries, 1)
	})

	t.Run("already done makes no query", func(t *testing.T) {
		gemini := &mockGemini{
			generateVideos: func(ctx context.Context, m, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
				op := &genai.GenerateVideosOperation{Name: "ops/3", Done: true, Response: &genai.GenerateVideosResponse{
					GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{VideoBytes: []byte("inline"), MIMEType: "video/mp4"}}},
				}}
				return op, nil
			},
			getVideosOperation: func(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
				t.Error("must not poll")
				return nil, nil
			},
		}

		asset, err := generate.New(gemini, generate.WithTempDir(t.TempDir())).Video(context.Background(), generate.VideoInput{Prompt: "x", Aspect: model.AspectLandscape})
		gt.NoError(t, err)
		gt.Equal(t, asset.Size, int64(6))

		dst := filepath.Join(t.TempDir(), "out", "video.mp4")
		gt.NoError(t, asset.SaveTo(dst))
		gt.Equal(t, asset.Path, dst)
		raw, err := os.ReadFile(dst)
		gt.NoError(t, err)
		gt.Equal(t, string(raw), "inline")
	})

	t.Run("max attempts", func(t *testing.T) {
		queries := 0
		gemini := &mockGemini{
			generateVideos: func(ctx context.Context, m, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
				return videoOp("ops/4", false, ""), nil
			},
			getVideosOperation: func(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
				queries++
				return videoOp(op.Name, false, ""), nil
			},
		}

		client := generate.New(gemini, generate.WithSleepForTest(noSleep), generate.WithPollMaxAttempts(4))
		_, err := client.Video(context.Background(), generate.VideoInput{Prompt: "x", Aspect: model.AspectLandscape})
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.TagPollTimeout))
		gt.Equal(t, queries, 4)
	})

	t.Run("cancellation stops polling", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		queries := 0
		gemini := &mockGemini{
			generateVideos: func(ctx context.Context, m, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
				return videoOp("ops/5", false, ""), nil
			},
			getVideosOperation: func(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
				queries++
				cancel()
				return videoOp(op.Name, false, ""), nil
			},
		}

		_, err := generate.New(gemini, generate.WithSleepForTest(noSleep)).Video(ctx, generate.VideoInput{Prompt: "x", Aspect: model.AspectLandscape})
		gt.Error(t, err)
		gt.True(t, errors.Is(err, context.Canceled))
		gt.Equal(t, queries, 1)
	})

	t.Run("entity not found needs user action", func(t *testing.T) {
		gemini := &mockGemini{
			generateVideos: func(ctx context.Context, m, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
				return &genai.GenerateVideosOperation{Name: "ops/6", Done: true, Error: map[string]any{
					"code":    float64(404),
					"message": "Requested entity was not found.",
				}}, nil
			},
		}

		_, err := generate.New(gemini).Video(context.Background(), generate.VideoInput{Prompt: "x", Aspect: model.AspectLandscape})
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.TagEntityNotFound))
		gt.True(t, model.NeedsUserAction(err))
	})

	t.Run("seed image is passed as bytes", func(t *testing.T) {
		var seed *genai.Image
		gemini := &mockGemini{
			generateVideos: func(ctx context.Context, m, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
				seed = image
				return &genai.GenerateVideosOperation{Done: true}, nil
			},
		}

		media, err := model.ParseDataURL("data:image/png;base64,aGVsbG8=")
		gt.NoError(t, err)
		_, err = generate.New(gemini).Video(context.Background(), generate.VideoInput{Prompt: "x", Aspect: model.AspectLandscape, Seed: media})
		gt.Error(t, err)
		gt.NotNil(t, seed)
		gt.Equal(t, seed.MIMEType, "image/png")
		gt.Equal(t, string(seed.ImageBytes), "hello")
	})

	t.Run("non image seed is rejected", func(t *testing.T) {
		gemini := &mockGemini{}
		_, err := generate.New(gemini).Video(context.Background(), generate.VideoInput{
			Prompt: "x",
			Aspect: model.AspectLandscape,
			Seed:   &model.Media{MIMEType: "audio/wav", Data: []byte{1}},
		})
		gt.True(t, errors.Is(err, model.ErrInvalidDataURL))
	})
}

func TestVoiceFallback(t *testing.T) {
	t.Run("credential error is not retried", func(t *testing.T) {
		var models []string
		voice := &mockElevenLabs{
			textToSpeech: func(ctx context.Context, req *adapter.TextToSpeechRequest) (*model.Media, error) {
				models = append(models, req.ModelID)
				return nil, goerr.New("Invalid API Key", goerr.T(model.TagCredential))
			},
		}

		_, err := generate.New(nil, generate.WithElevenLabs(voice)).Voice(context.Background(), generate.VoiceInput{Text: "hi"})
		gt.Error(t, err)
		gt.True(t, model.NeedsUserAction(err))
		gt.Equal(t, models, []string{generate.DefaultVoiceModel})
	})

	t.Run("entity not found still falls back", func(t *testing.T) {
		var models []string
		voice := &mockElevenLabs{
			textToSpeech: func(ctx context.Context, req *adapter.TextToSpeechRequest) (*model.Media, error) {
				models = append(models, req.ModelID)
				if req.ModelID == generate.DefaultVoiceModel {
					return nil, goerr.New("Requested entity was not found", goerr.T(model.TagEntityNotFound))
				}
				return &model.Media{MIMEType: "audio/mpeg", Data: []byte("mp3")}, nil
			},
		}

		client := generate.New(nil, generate.WithElevenLabs(voice), generate.WithTempDir(t.TempDir()))
		asset, err := client.Voice(context.Background(), generate.VoiceInput{Text: "hi"})
		gt.NoError(t, err)
		defer func() { gt.NoError(t, asset.Release()) }()

		gt.Equal(t, models, []string{generate.DefaultVoiceModel, generate.DefaultFallbackVoiceModel})
	})

	t.Run("other errors fall back once", func(t *testing.T) {
		var models []string
		voice := &mockElevenLabs{
			textToSpeech: func(ctx context.Context, req *adapter.TextToSpeechRequest) (*model.Media, error) {
				models = append(models, req.ModelID)
				gt.Equal(t, req.VoiceID, "pNInz6obpgDQGcFmaJgB")
				gt.Equal(t, req.Stability, 0.5)
				gt.Equal(t, req.SimilarityBoost, 0.75)
				if req.ModelID == generate.DefaultVoiceModel {
					return nil, goerr.New("model unavailable", goerr.T(model.TagUpstream))
				}
				return &model.Media{MIMEType: "audio/mpeg", Data: []byte("mp3")}, nil
			},
		}

		client := generate.New(nil, generate.WithElevenLabs(voice), generate.WithTempDir(t.TempDir()))
		asset, err := client.Voice(context.Background(), generate.VoiceInput{Text: "hi", VoiceID: "adam"})
		gt.NoError(t, err)
		defer func() { gt.NoError(t, asset.Release()) }()

		gt.Equal(t, models, []string{generate.DefaultVoiceModel, generate.DefaultFallbackVoiceModel})
		gt.Equal(t, asset.MIMEType, "audio/mpeg")
	})

	t.Run("fallback error is surfaced", func(t *testing.T) {
		calls := 0
		voice := &mockElevenLabs{
			textToSpeech: func(ctx context.Context, req *adapter.TextToSpeechRequest) (*model.Media, error) {
				calls++
				return nil, goerr.New("failure of "+req.ModelID, goerr.T(model.TagUpstream))
			},
		}

		_, err := generate.New(nil, generate.WithElevenLabs(voice)).Voice(context.Background(), generate.VoiceInput{Text: "hi"})
		gt.Error(t, err)
		gt.Equal(t, calls, 2)
		gt.S(t, err.Error()).Contains("failure of " + generate.DefaultFallbackVoiceModel)
	})

	t.Run("unconfigured", func(t *testing.T) {
		_, err := generate.New(nil).Voice(context.Background(), generate.VoiceInput{Text: "hi"})
		gt.True(t, goerr.HasTag(err, model.TagCredential))
	})
}

func TestResolveVoice(t *testing.T) {
	gt.Equal(t, generate.ResolveVoice(""), "21m00Tcm4TlvDq8ikWAM")
	gt.Equal(t, generate.ResolveVoice("JOSH"), "TxGEqnHWrfWFTfGW9XjX")
	gt.Equal(t, generate.ResolveVoice("customVoiceId"), "customVoiceId")
	gt.A(t, generate.Voices()).Length(5)
}
