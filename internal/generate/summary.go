package generate

import (
	"context"

	"annotator/internal/dataset"
	"annotator/internal/services"
	"annotator/internal/services/llm"
)

const (
	// Above this frame budget the summary is built from one low-rate clip.
	summaryClipThreshold = 16
	summaryMinFPS        = 0.05
	summaryMaxFPS        = 2.0
	summaryMaxTokens     = 256

	summaryClipPrompt = "You summarize a robotic manipulation episode. " +
		"Given a short video clip sampled at low FPS, describe the overall goal and " +
		`the rough phases in 2-4 sentences. Output ONLY JSON: {"summary": "..."}.`
	summaryFramesPrompt = "You summarize a robotic manipulation episode. " +
		"Given a few frames sampled across the episode, describe the overall task goal and " +
		`the rough phases in 2-4 sentences. Output ONLY JSON: {"summary": "..."}.`
	summaryUserText = "Summarize this episode."
)

// summarizeEpisode asks for a short synopsis used as context by every window
// request. A non-positive frame budget disables it.
func summarizeEpisode(ctx context.Context, chat Chatter, media MediaSource, timing dataset.EpisodeTiming, video string, frames int) (string, error) {
	if frames <= 0 {
		return "", nil
	}
	duration := timing.Duration
	if duration < 1e-3 {
		duration = 1e-3
	}

	var messages []llm.Message
	if frames > summaryClipThreshold {
		fps := clipFPS(frames, duration, summaryMinFPS, summaryMaxFPS)
		url, err := media.ClipDataURL(ctx, video, timing.VideoStart, timing.VideoEnd, fps)
		if err != nil {
			return "", err
		}
		messages = []llm.Message{
			llm.SystemMessage(summaryClipPrompt),
			llm.UserParts(llm.TextPart(summaryUserText), llm.VideoPart(url)),
		}
	} else {
		parts := []llm.Part{llm.TextPart(summaryUserText)}
		for _, t := range linspace(0, max(0, duration-1e-3), frames) {
			abs := min(max(timing.VideoStart+t, timing.VideoStart), timing.VideoEnd-1e-3)
			url, err := media.FrameDataURL(ctx, video, abs)
			if err != nil {
				return "", err
			}
			parts = append(parts, llm.ImagePart(url))
		}
		messages = []llm.Message{
			llm.SystemMessage(summaryFramesPrompt),
			llm.UserParts(parts...),
		}
	}

	reply, err := chat.Chat(ctx, messages, llm.ChatOptions{Temperature: 0, MaxTokens: summaryMaxTokens, JSON: true})
	if err != nil {
		return "", err
	}
	obj, err := llm.ExtractObject(reply)
	if err != nil {
		return "", services.Wrap(services.ErrMalformedResponse, "generate", "summary", "summary reply", err)
	}
	return llm.StringField(obj, "summary"), nil
}
