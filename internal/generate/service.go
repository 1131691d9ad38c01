package generate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"annotator/internal/annotations"
	"annotator/internal/config"
	"annotator/internal/dataset"
	"annotator/internal/logging"
	"annotator/internal/prompts"
	"annotator/internal/services"
)

// Mode selects how a run's records combine with what the episode already has.
type Mode string

const (
	ModeReplace Mode = "replace"
	ModeAppend  Mode = "append"
)

// ParseMode accepts "", "replace" and "append"; the empty string means replace.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeAppend:
		return ModeAppend, nil
	default:
		return "", services.Wrap(services.ErrValidation, "generate", "mode", fmt.Sprintf("unknown mode %q (want replace or append)", value), nil)
	}
}

// AnnotationStore is the slice of annotations.Store a run needs.
type AnnotationStore interface {
	Get(episode int) annotations.Episode
	Put(episode int, ann annotations.Episode) error
	Acquire(episode int) (func(), error)
}

// PromptSource reads the user-editable example files.
type PromptSource interface {
	Read(name string) (string, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Resolver Resolver
	Media    MediaSource
	Chat     Chatter
	Store    AnnotationStore
	Prompts  PromptSource
	Logger   *slog.Logger
}

// Service runs generation requests against one dataset and annotation store.
type Service struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
}

// NewService wires a generation service. cfg supplies request defaults.
func NewService(cfg *config.Config, deps Deps) *Service {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	return &Service{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "generate"),
	}
}

// SubtaskRequest describes one subtask labeling run. Zero values take the
// configured defaults; pointer fields distinguish "unset" from zero.
type SubtaskRequest struct {
	Episode       int
	VideoKey      string
	Stride        float64
	SummaryFrames *int
	SegmentFrames int
	MaxSteps      int
	// MaxSegments derives the stride from the episode duration when Stride is
	// unset, and stands in for MaxSteps.
	MaxSegments   int
	StartTime     *float64
	Resume        bool
	Language      string
	MergeAdjacent *bool
	Mode          Mode
	Progress      ProgressFunc
}

// SubtaskResult is what a subtask run produced and how it was stored.
type SubtaskResult struct {
	RunID    string
	Episode  int
	Mode     Mode
	Summary  string
	Segments []annotations.Subtask
}

// QARequest describes one question/answer run.
type QARequest struct {
	Episode      int
	VideoKey     string
	Stride       float64
	Window       float64
	WindowFrames int
	MaxSteps     int
	MaxSegments  int
	StartTime    *float64
	Resume       bool
	Language     string
	ScenarioType string
	ResponseType string
	Skill        string
	Dense        *bool
	Mode         Mode
	Progress     ProgressFunc
}

// QAResult is what a QA run produced and how it was stored.
type QAResult struct {
	RunID   string
	Episode int
	Mode    Mode
	Dense   bool
	Pairs   []annotations.HighLevel
}

type runScope struct {
	ctx      context.Context
	logger   *slog.Logger
	runID    string
	release  func()
	timing   dataset.EpisodeTiming
	existing annotations.Episode
}

func (s *Service) begin(ctx context.Context, kind string, episode int, videoKey string) (*runScope, error) {
	if s.deps.Resolver == nil || s.deps.Store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "generate", kind, "service is missing a dataset or annotation store", nil)
	}
	if s.deps.Chat == nil || s.deps.Media == nil {
		return nil, services.Wrap(services.ErrConfiguration, "generate", kind, "service is missing a chat client or media cache", nil)
	}
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithEpisode(ctx, episode)
	ctx = services.WithStage(ctx, kind)

	timing, err := s.deps.Resolver.Timing(episode, s.videoKey(videoKey))
	if err != nil {
		return nil, err
	}
	release, err := s.deps.Store.Acquire(episode)
	if err != nil {
		return nil, err
	}
	return &runScope{
		ctx:      ctx,
		logger:   logging.WithContext(ctx, s.logger),
		runID:    runID,
		release:  release,
		timing:   timing,
		existing: s.deps.Store.Get(episode),
	}, nil
}

func (s *Service) videoKey(key string) string {
	if strings.TrimSpace(key) != "" {
		return key
	}
	return s.cfg.Dataset.VideoKey
}

func (s *Service) readPrompt(name string) (string, error) {
	if s.deps.Prompts == nil {
		return "", nil
	}
	return s.deps.Prompts.Read(name)
}

func (s *Service) engine(progress ProgressFunc) Engine {
	return Engine{Chat: s.deps.Chat, Logger: s.logger, Progress: progress}
}

// resolveStride applies the explicit stride, then the legacy segment count,
// then the configured default.
func resolveStride(explicit float64, maxSegments int, duration, fallback float64) (float64, error) {
	switch {
	case explicit < 0:
		return 0, services.Wrap(services.ErrValidation, "generate", "stride", "stride must be positive", nil)
	case explicit > 0:
		return explicit, nil
	case maxSegments > 0:
		return math.Max(1e-3, duration) / float64(maxSegments), nil
	default:
		return fallback, nil
	}
}

// GenerateSubtasks labels an episode window by window and stores the result.
func (s *Service) GenerateSubtasks(ctx context.Context, req SubtaskRequest) (SubtaskResult, error) {
	defaults := s.cfg.Subtasks
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return SubtaskResult{}, err
	}
	if req.Resume {
		mode = ModeAppend
	}
	result := SubtaskResult{Episode: req.Episode, Mode: mode, Segments: []annotations.Subtask{}}

	run, err := s.begin(ctx, "subtasks", req.Episode, req.VideoKey)
	if err != nil {
		return result, err
	}
	defer run.release()
	result.RunID = run.runID
	duration := run.timing.Duration
	if duration <= 0 {
		run.logger.Info("episode has no duration; nothing to label")
		return result, nil
	}

	stride, err := resolveStride(req.Stride, req.MaxSegments, duration, defaults.StrideSeconds)
	if err != nil {
		return result, err
	}
	maxSteps := firstPositive(req.MaxSteps, req.MaxSegments, defaults.MaxSteps, 1)
	segmentFrames := firstPositive(req.SegmentFrames, defaults.SegmentFrames, 1)
	summaryFrames := defaults.SummaryFrames
	if req.SummaryFrames != nil {
		summaryFrames = *req.SummaryFrames
	}
	merge := defaults.MergeAdjacent
	if req.MergeAdjacent != nil {
		merge = *req.MergeAdjacent
	}
	language := firstNonEmpty(req.Language, defaults.Language)

	start := 0.0
	switch {
	case req.StartTime != nil:
		start = *req.StartTime
	case req.Resume && len(run.existing.Subtasks) > 0:
		start = run.existing.Subtasks[len(run.existing.Subtasks)-1].End
		if start >= duration {
			run.logger.Info("episode already labeled to its end", logging.Float64("resume_from", start))
			return result, nil
		}
	}
	start = clampStart(start, duration)

	video, err := s.deps.Resolver.VideoPath(req.Episode, s.videoKey(req.VideoKey))
	if err != nil {
		return result, err
	}
	examples, err := s.readPrompt(prompts.SubtaskExamplesFile)
	if err != nil {
		return result, err
	}

	started := time.Now()
	run.logger.Info("subtask generation started",
		logging.Float64("start", start),
		logging.Float64("stride", stride),
		logging.Int("max_steps", maxSteps),
		logging.String("mode", string(mode)),
	)

	summary, err := summarizeEpisode(run.ctx, s.deps.Chat, s.deps.Media, run.timing, video, summaryFrames)
	if err != nil {
		logging.ErrorWithContext(run.logger, "episode summary failed", "summary_failed",
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err),
		)
		return result, err
	}
	result.Summary = summary

	strategy := &subtaskStrategy{
		media:         s.deps.Media,
		timing:        run.timing,
		video:         video,
		stride:        stride,
		maxSteps:      maxSteps,
		segmentFrames: segmentFrames,
		systemPrompt:  defaults.SystemPrompt,
		userTemplate:  defaults.UserPromptTemplate,
		summary:       summary,
		examples:      prompts.LabelExamples(examples),
		language:      language,
		temperature:   defaults.Temperature,
		maxTokens:     defaults.MaxTokens,
	}
	total := min(maxSteps, int(math.Ceil((duration-start)/stride)))
	segments, err := Run[annotations.Subtask](run.ctx, s.engine(req.Progress), strategy, Schedule{Start: start, Stride: stride, Total: total})
	if err != nil {
		return result, err
	}
	if merge {
		before := len(segments)
		segments = MergeAdjacent(segments)
		if before != len(segments) {
			run.logger.Info("merged adjacent segments", logging.Args(append(
				logging.DecisionAttrs("merge", "merged", "identical adjacent labels"),
				logging.Int("before", before),
				logging.Int("after", len(segments)),
			)...)...)
		}
	}
	if segments == nil {
		segments = []annotations.Subtask{}
	}

	ann := run.existing
	if mode == ModeReplace {
		ann.Subtasks = segments
	} else {
		ann.Subtasks = append(ann.Subtasks, segments...)
	}
	if err := s.deps.Store.Put(req.Episode, ann); err != nil {
		return result, err
	}
	result.Segments = segments
	run.logger.Info("subtask generation finished",
		logging.Int("segments", len(segments)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// GenerateQA collects question/answer pairs for an episode and stores them as
// high-level records.
func (s *Service) GenerateQA(ctx context.Context, req QARequest) (QAResult, error) {
	defaults := s.cfg.VQA
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return QAResult{}, err
	}
	if req.Resume {
		mode = ModeAppend
	}
	dense := defaults.Dense
	if req.Dense != nil {
		dense = *req.Dense
	}
	result := QAResult{Episode: req.Episode, Mode: mode, Dense: dense, Pairs: []annotations.HighLevel{}}

	run, err := s.begin(ctx, "vqa", req.Episode, req.VideoKey)
	if err != nil {
		return result, err
	}
	defer run.release()
	result.RunID = run.runID
	duration := run.timing.Duration
	if duration <= 0 {
		run.logger.Info("episode has no duration; nothing to ask")
		return result, nil
	}

	stride, err := resolveStride(req.Stride, req.MaxSegments, duration, defaults.StrideSeconds)
	if err != nil {
		return result, err
	}
	if req.Window < 0 {
		return result, services.Wrap(services.ErrValidation, "generate", "window", "window must be positive", nil)
	}
	window := req.Window
	if window == 0 {
		window = defaults.WindowSeconds
	}
	windowFrames := firstPositive(req.WindowFrames, defaults.WindowFrames, 1)
	language := firstNonEmpty(req.Language, defaults.Language)

	start := 0.0
	switch {
	case req.StartTime != nil:
		start = *req.StartTime
	case req.Resume && len(run.existing.HighLevels) > 0:
		start = run.existing.HighLevels[len(run.existing.HighLevels)-1].End
	}
	start = math.Max(0, math.Min(start, duration))

	var steps int
	if dense {
		steps = denseSteps(duration, start, stride)
		if req.MaxSteps > 0 {
			steps = min(steps, req.MaxSteps)
		}
		if req.MaxSegments > 0 {
			steps = min(steps, req.MaxSegments)
		}
	} else {
		steps = firstPositive(req.MaxSteps, defaults.MaxSteps, 1)
	}

	video, err := s.deps.Resolver.VideoPath(req.Episode, s.videoKey(req.VideoKey))
	if err != nil {
		return result, err
	}
	demos, err := s.readPrompt(prompts.VQADemosFile)
	if err != nil {
		return result, err
	}

	strategy := newQAStrategy(qaStrategy{
		media:        s.deps.Media,
		timing:       run.timing,
		video:        video,
		stride:       stride,
		window:       window,
		windowFrames: windowFrames,
		steps:        steps,
		dense:        dense,
		systemPrompt: defaults.SystemPrompt,
		userTemplate: defaults.UserPromptTemplate,
		demoBlock:    prompts.DemoBlock(demos, defaults.DemoPairsMax),
		language:     language,
		temperature:  defaults.Temperature,
		maxTokens:    defaults.MaxTokens,
		tags: qaTags{
			scenario: firstNonEmpty(req.ScenarioType, defaults.ScenarioType),
			response: firstNonEmpty(req.ResponseType, defaults.ResponseType),
			skill:    firstNonEmpty(req.Skill, defaults.Skill),
		},
	})

	started := time.Now()
	run.logger.Info("qa generation started",
		logging.Float64("start", start),
		logging.Float64("stride", stride),
		logging.Float64("window", strategy.window),
		logging.Bool("dense", dense),
		logging.String("mode", string(mode)),
	)
	var pairs []annotations.HighLevel
	if total := min(steps, denseSteps(duration, start, stride)); total > 0 {
		pairs, err = Run[annotations.HighLevel](run.ctx, s.engine(req.Progress), strategy, Schedule{Start: start, Stride: stride, Total: total})
		if err != nil {
			return result, err
		}
	}
	if pairs == nil {
		pairs = []annotations.HighLevel{}
	}

	ann := run.existing
	if mode == ModeReplace {
		ann.HighLevels = pairs
	} else {
		ann.HighLevels = append(ann.HighLevels, pairs...)
	}
	if err := s.deps.Store.Put(req.Episode, ann); err != nil {
		return result, err
	}
	result.Pairs = pairs
	run.logger.Info("qa generation finished",
		logging.Int("pairs", len(pairs)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
