package generate

import (
	"context"
	"encoding/binary"
	"os"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
	"google.golang.org/genai"
)

const (
	DefaultSpeechVoice = "Kore"

	speechSampleRate = 24000
	speechChannels   = 1
	speechBitDepth   = 16
)

// SpeechVoices lists prebuilt Gemini voices that are known to work
func SpeechVoices() []string {
	return []string{"Kore", "Puck", "Charon", "Fenrir", "Zephyr", "Aoede"}
}

// Speech reads text with a prebuilt Gemini voice and returns it as WAV
func (c *Client) Speech(ctx context.Context, text, voice string) (*model.Media, error) {
	if err := requirePrompt(text); err != nil {
		return nil, err
	}
	if c.gemini == nil {
		return nil, goerr.Wrap(model.ErrMissingCredential, "gemini is not configured")
	}
	if strings.TrimSpace(voice) == "" {
		voice = DefaultSpeechVoice
	}

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	logging.From(ctx).Debug("generating speech", "model", c.speechModel, "voice", voice)
	resp, err := c.gemini.GenerateContent(ctx, c.speechModel, contents, config)
	if err != nil {
		return nil, classify(err, "failed to generate speech", goerr.V("model", c.speechModel), goerr.V("voice", voice))
	}

	pcm, err := responseMedia(ctx, resp)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read speech response", goerr.V("model", c.speechModel))
	}

	data, err := pcmToWAV(c.tempDir, pcm.Data)
	if err != nil {
		return nil, err
	}
	return &model.Media{MIMEType: "audio/wav", Data: data}, nil
}

// pcmToWAV encodes 24kHz mono 16-bit little endian PCM as WAV. The encoder
// seeks back to patch chunk sizes, so it writes through a temp file in dir.
func pcmToWAV(dir string, pcm []byte) ([]byte, error) {
	f, err := os.CreateTemp(dir, "speech-*.wav")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create wav file", goerr.V("dir", dir))
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}()

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	enc := wav.NewEncoder(f, speechSampleRate, speechBitDepth, speechChannels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: speechChannels, SampleRate: speechSampleRate},
		Data:           samples,
		SourceBitDepth: speechBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, goerr.Wrap(err, "failed to encode wav", goerr.V("file", f.Name()))
	}
	if err := enc.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to finalize wav", goerr.V("file", f.Name()))
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read wav", goerr.V("file", f.Name()))
	}
	return data, nil
}
