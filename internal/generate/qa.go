package generate

import (
	"context"
	"errors"
	"math"
	"strings"

	"annotator/internal/annotations"
	"annotator/internal/dataset"
	"annotator/internal/language"
	"annotator/internal/services"
	"annotator/internal/services/llm"
	"annotator/internal/textutil"
)

const (
	recentQuestionLimit = 8
	cursorEpsilon       = 1e-6
)

type qaTags struct {
	scenario string
	response string
	skill    string
}

type qaStrategy struct {
	media  MediaSource
	timing dataset.EpisodeTiming
	video  string

	stride       float64
	window       float64
	windowFrames int
	// steps caps the number of windows; 0 means unbounded.
	steps int
	dense bool

	systemPrompt string
	userTemplate string
	demoBlock    string
	language     string
	englishOnly  bool
	temperature  float64
	maxTokens    int
	tags         qaTags

	seen   map[string]struct{}
	recent []string
}

func newQAStrategy(s qaStrategy) *qaStrategy {
	// Dense windows may overlap the next step; sparse ones stay inside it.
	if !s.dense && s.window > s.stride {
		s.window = s.stride
	}
	if s.windowFrames < 1 {
		s.windowFrames = 1
	}
	s.englishOnly = textutil.IsEnglish(s.language)
	s.seen = make(map[string]struct{})
	return &s
}

func (s *qaStrategy) Done(cursor float64, step int) bool {
	if cursor >= s.timing.Duration-cursorEpsilon {
		return true
	}
	return s.steps > 0 && step >= s.steps
}

func (s *qaStrategy) Window(cursor float64, step int) Window {
	end := math.Min(s.timing.Duration, cursor+s.stride)
	if s.dense {
		end = math.Min(s.timing.Duration, cursor+s.window)
	}
	return Window{Step: step, Start: cursor, End: end}
}

func (s *qaStrategy) Request(ctx context.Context, w Window) (Request, error) {
	checkEnd := math.Min(s.timing.Duration, w.Start+s.window)
	absStart, absEnd := s.timing.Absolute(w.Start, checkEnd)
	fps := clipFPS(s.windowFrames, math.Max(1e-3, checkEnd-w.Start), windowMinFPS, windowMaxFPS)
	clip, err := s.media.ClipDataURL(ctx, s.video, absStart, absEnd, fps)
	if err != nil {
		return Request{}, err
	}
	frame, err := s.media.FrameDataURL(ctx, s.video, absStart)
	if err != nil {
		return Request{}, err
	}
	text := textutil.Bind(strings.TrimSpace(s.userTemplate), map[string]string{
		"qa_demos":         s.demoBlock,
		"time_s":           seconds(w.Start),
		"window_s":         seconds(s.window),
		"stride_s":         seconds(s.stride),
		"language":         language.PromptName(s.language),
		"recent_questions": strings.Join(s.recent, "\n"),
	})
	return Request{
		Messages: []llm.Message{
			llm.SystemMessage(strings.TrimSpace(s.systemPrompt)),
			llm.UserParts(llm.TextPart(text), llm.ImagePart(frame), llm.VideoPart(clip)),
		},
		Options: llm.ChatOptions{Temperature: s.temperature, MaxTokens: s.maxTokens, JSON: true},
	}, nil
}

func (s *qaStrategy) Parse(w Window, reply string) (annotations.HighLevel, error) {
	record, err := s.accept(w, reply)
	if err != nil && s.dense {
		return s.placeholder(w), nil
	}
	return record, err
}

func (s *qaStrategy) accept(w Window, reply string) (annotations.HighLevel, error) {
	obj, err := llm.ExtractObject(reply)
	if err != nil {
		return annotations.HighLevel{}, err
	}
	if llm.Truthy(obj["skip"]) {
		return annotations.HighLevel{}, Skip("model requested skip")
	}
	question := llm.StringField(obj, "question")
	answer := llm.StringField(obj, "answer")
	if question == "" || answer == "" {
		return annotations.HighLevel{}, Skip("empty question or answer")
	}
	if s.englishOnly && textutil.ContainsCJK(question+answer) {
		return annotations.HighLevel{}, Skip("non-English reply")
	}
	key := textutil.NormalizeQuestion(question)
	if _, dup := s.seen[key]; dup {
		return annotations.HighLevel{}, Skip("duplicate question")
	}
	s.seen[key] = struct{}{}
	s.recent = append(s.recent, question)
	if len(s.recent) > recentQuestionLimit {
		s.recent = s.recent[len(s.recent)-recentQuestionLimit:]
	}
	record := s.placeholder(w)
	record.UserPrompt = question
	record.RobotUtterance = answer
	return record, nil
}

func (s *qaStrategy) placeholder(w Window) annotations.HighLevel {
	return annotations.HighLevel{
		Start:        annotations.Round3(w.Start),
		End:          annotations.Round3(w.End),
		Skill:        s.tags.skill,
		ScenarioType: s.tags.scenario,
		ResponseType: s.tags.response,
	}
}

// Recover skips unparseable or empty replies in sparse mode. Dense mode turns
// every failure into a placeholder so each step yields one record.
func (s *qaStrategy) Recover(w Window, err error) (annotations.HighLevel, error) {
	if s.dense {
		return s.placeholder(w), nil
	}
	if errors.Is(err, services.ErrMalformedResponse) {
		return annotations.HighLevel{}, Skip("malformed reply")
	}
	return annotations.HighLevel{}, err
}

// denseSteps is the number of stride steps from cursor to the end.
func denseSteps(duration, cursor, stride float64) int {
	if duration <= cursor {
		return 0
	}
	return int(math.Ceil((duration - cursor) / math.Max(stride, cursorEpsilon)))
}
