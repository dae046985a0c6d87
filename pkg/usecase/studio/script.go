package studio

import (
	"context"

	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
)

func (s *Studio) Script(ctx context.Context, input generate.ScriptInput) (string, error) {
	return run(ctx, s.script, "script", func() (string, error) {
		return s.gen.Script(ctx, input)
	})
}

// ScriptToVoice hands a finished script over to the voice workflow
func (s *Studio) ScriptToVoice(ctx context.Context, script, voice string) (*generate.Asset, error) {
	return s.Voice(ctx, script, voice)
}

func (s *Studio) ScriptState() model.Snapshot[string] {
	return s.script.Snapshot()
}
