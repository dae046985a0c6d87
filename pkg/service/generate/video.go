package generate

import (
	"bytes"
	"context"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
	"google.golang.org/genai"
)

const videoResolution = "720p"

type VideoInput struct {
	Prompt string
	Aspect model.AspectRatio
	// Seed is an optional first frame. Only images are accepted.
	Seed *model.Media
}

// Video starts a video generation and waits for it. The returned asset is
// owned by the caller and must be released or saved.
func (c *Client) Video(ctx context.Context, input VideoInput) (*Asset, error) {
	if err := requirePrompt(input.Prompt); err != nil {
		return nil, err
	}
	if err := input.Aspect.ValidateVideo(); err != nil {
		return nil, err
	}
	if c.gemini == nil {
		return nil, goerr.Wrap(model.ErrMissingCredential, "gemini is not configured")
	}

	var seed *genai.Image
	if input.Seed != nil {
		if !input.Seed.IsImage() || len(input.Seed.Data) == 0 {
			return nil, goerr.Wrap(model.ErrInvalidDataURL, "video seed must be an image", goerr.V("mime", input.Seed.MIMEType))
		}
		seed = &genai.Image{ImageBytes: input.Seed.Data, MIMEType: input.Seed.MIMEType}
	}

	config := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     videoResolution,
		AspectRatio:    string(input.Aspect),
	}

	logger := logging.From(ctx)
	logger.Info("starting video generation", "model", c.videoModel, "aspect", input.Aspect, "seeded", seed != nil)

	op, err := c.gemini.GenerateVideos(ctx, c.videoModel, input.Prompt, seed, config)
	if err != nil {
		return nil, classify(err, "failed to start video generation", goerr.V("model", c.videoModel))
	}

	op, err = c.waitVideo(ctx, op)
	if err != nil {
		return nil, err
	}

	return c.fetchVideo(ctx, op)
}

// waitVideo queries the operation until it is done. Each query after the
// initial handle counts as one attempt.
func (c *Client) waitVideo(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	logger := logging.From(ctx)

	for attempt := 0; op == nil || !op.Done; attempt++ {
		if op == nil {
			return nil, goerr.New("video operation is missing", goerr.T(model.TagUpstream))
		}
		if attempt >= c.pollMaxAttempts {
			return nil, goerr.New("video generation did not finish in time",
				goerr.T(model.TagPollTimeout),
				goerr.V("operation", op.Name),
				goerr.V("attempts", attempt),
				goerr.V("interval", c.pollInterval.String()),
			)
		}

		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, goerr.Wrap(err, "video generation cancelled", goerr.V("operation", op.Name))
		}

		next, err := c.gemini.GetVideosOperation(ctx, op)
		if err != nil {
			return nil, classify(err, "failed to poll video operation", goerr.V("operation", op.Name))
		}
		logger.Debug("polled video operation", "operation", op.Name, "attempt", attempt+1, "done", next != nil && next.Done)
		op = next
	}

	if op.Error != nil {
		return nil, classify(operationError(op.Error), "video generation failed", goerr.V("operation", op.Name))
	}

	return op, nil
}

func (c *Client) fetchVideo(ctx context.Context, op *genai.GenerateVideosOperation) (*Asset, error) {
	var video *genai.Video
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 && op.Response.GeneratedVideos[0] != nil {
		video = op.Response.GeneratedVideos[0].Video
	}
	if video == nil || (video.URI == "" && len(video.VideoBytes) == 0) {
		var filtered []string
		if op.Response != nil {
			filtered = op.Response.RAIMediaFilteredReasons
		}
		return nil, goerr.New("video generation completed but no video URI was returned",
			goerr.T(model.TagUpstream),
			goerr.V("operation", op.Name),
			goerr.V("filtered_reasons", filtered),
		)
	}

	mimeType := video.MIMEType
	if mimeType == "" {
		mimeType = "video/mp4"
	}

	if len(video.VideoBytes) > 0 {
		return c.writeAsset(bytes.NewReader(video.VideoBytes), mimeType, "video-*.mp4")
	}

	body, err := c.gemini.Download(ctx, video.URI)
	if err != nil {
		return nil, classify(err, "failed to download video content", goerr.V("operation", op.Name))
	}
	defer safeClose(ctx, body)

	return c.writeAsset(body, mimeType, "video-*.mp4")
}

func safeClose(ctx context.Context, c io.Closer) {
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", "error", err)
	}
}
