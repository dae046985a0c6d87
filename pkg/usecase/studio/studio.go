package studio

import (
	"context"
	"time"

	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/service/generate"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
)

// Generator is the set of generation capabilities the workflows need.
// *generate.Client implements it.
type Generator interface {
	VideoIdeas(ctx context.Context, topic string) ([]*model.GeneratedIdea, error)
	Script(ctx context.Context, input generate.ScriptInput) (string, error)
	VideoScript(ctx context.Context, topic string) (*model.VideoScript, error)
	EnhanceVideoPrompt(ctx context.Context, script string) string
	BlogIdeas(ctx context.Context, topic string) ([]*model.BlogPostIdea, error)
	BlogPost(ctx context.Context, input generate.BlogPostInput) (string, error)
	HTMLBlogPost(ctx context.Context, input generate.BlogPostInput) (string, error)
	Image(ctx context.Context, prompt string, aspect model.AspectRatio) (*model.Media, error)
	Video(ctx context.Context, input generate.VideoInput) (*generate.Asset, error)
	Voice(ctx context.Context, input generate.VoiceInput) (*generate.Asset, error)
	Speech(ctx context.Context, text, voice string) (*model.Media, error)
}

// Records is the local item store used by save helpers and item seeds
type Records interface {
	Save(ctx context.Context, input *model.NewItem) (*model.SavedItem, error)
	Get(ctx context.Context, id model.ItemID) (*model.SavedItem, error)
}

// Studio runs content workflows. Each workflow has its own State, so the
// same workflow can not run twice at the same time while different
// workflows are independent.
type Studio struct {
	gen     Generator
	records Records

	ideas     *model.State[*IdeasResult]
	script    *model.State[string]
	blog      *model.State[string]
	image     *model.State[*model.Media]
	thumbnail *model.State[*ThumbnailResult]
	video     *model.State[*VideoResult]
	voice     *model.State[*generate.Asset]
	speech    *model.State[*model.Media]
}

type Option func(*Studio)

func New(gen Generator, records Records, opts ...Option) *Studio {
	s := &Studio{
		gen:       gen,
		records:   records,
		ideas:     model.NewState[*IdeasResult](),
		script:    model.NewState[string](),
		blog:      model.NewState[string](),
		image:     model.NewState[*model.Media](),
		thumbnail: model.NewState[*ThumbnailResult](),
		video:     model.NewState[*VideoResult](),
		voice:     model.NewState[*generate.Asset](),
		speech:    model.NewState[*model.Media](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WorkflowStatus is a point in time view of one workflow
type WorkflowStatus struct {
	Name    string
	Phase   model.Phase
	Err     error
	Elapsed time.Duration
}

func statusOf[T any](name string, st *model.State[T]) WorkflowStatus {
	snap := st.Snapshot()
	return WorkflowStatus{
		Name:    name,
		Phase:   snap.Phase,
		Err:     snap.Err,
		Elapsed: snap.Elapsed(),
	}
}

// Status returns the state of every workflow
func (s *Studio) Status() []WorkflowStatus {
	return []WorkflowStatus{
		statusOf("ideas", s.ideas),
		statusOf("script", s.script),
		statusOf("blog", s.blog),
		statusOf("image", s.image),
		statusOf("thumbnail", s.thumbnail),
		statusOf("video", s.video),
		statusOf("voice", s.voice),
		statusOf("speech", s.speech),
	}
}

// run records fn in st. Errors are stored and also returned.
func run[T any](ctx context.Context, st *model.State[T], name string, fn func() (T, error)) (T, error) {
	var zero T
	if err := st.Start(); err != nil {
		return zero, err
	}

	logger := logging.From(ctx).With("workflow", name)
	logger.Debug("workflow started")

	v, err := fn()
	if err != nil {
		st.Fail(err)
		logger.Debug("workflow failed", "error", err)
		return zero, err
	}

	st.Succeed(v)
	logger.Debug("workflow finished", "elapsed", st.Snapshot().Elapsed())
	return v, nil
}
