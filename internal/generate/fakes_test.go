package generate

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"annotator/internal/annotations"
	"annotator/internal/config"
	"annotator/internal/dataset"
	"annotator/internal/services/llm"
)

type chatReply struct {
	text string
	err  error
}

type scriptedChat struct {
	mu      sync.Mutex
	replies []chatReply
	calls   [][]llm.Message
}

func replies(texts ...string) *scriptedChat {
	c := &scriptedChat{}
	for _, text := range texts {
		c.replies = append(c.replies, chatReply{text: text})
	}
	return c
}

func (c *scriptedChat) Chat(_ context.Context, messages []llm.Message, _ llm.ChatOptions) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := len(c.calls)
	c.calls = append(c.calls, messages)
	if i >= len(c.replies) {
		return "", fmt.Errorf("unexpected chat call %d", i)
	}
	return c.replies[i].text, c.replies[i].err
}

func (c *scriptedChat) userText(call int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, msg := range c.calls[call] {
		if msg.Role == "user" && len(msg.Parts) > 0 {
			return msg.Parts[0].Text
		}
	}
	return ""
}

type clipCall struct {
	start, end, fps float64
}

type fakeMedia struct {
	mu     sync.Mutex
	frames []float64
	clips  []clipCall
}

func (m *fakeMedia) FrameDataURL(_ context.Context, _ string, ts float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, ts)
	return fmt.Sprintf("data:image/jpeg;base64,frame%d", len(m.frames)), nil
}

func (m *fakeMedia) ClipDataURL(_ context.Context, _ string, start, end, fps float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clips = append(m.clips, clipCall{start, end, fps})
	return fmt.Sprintf("data:video/mp4;base64,clip%d", len(m.clips)), nil
}

type fakeResolver struct {
	timing dataset.EpisodeTiming
}

func (r fakeResolver) Timing(int, string) (dataset.EpisodeTiming, error) { return r.timing, nil }

func (r fakeResolver) VideoPath(int, string) (string, error) { return "/videos/front.mp4", nil }

// concatenated returns the timing of an episode stored at offset 100s of a
// shared file.
func concatenated(duration float64) dataset.EpisodeTiming {
	return dataset.EpisodeTiming{
		FPS:          30,
		Length:       int(duration * 30),
		Duration:     duration,
		VideoStart:   100,
		VideoEnd:     100 + duration,
		Concatenated: true,
	}
}

type harness struct {
	svc   *Service
	store *annotations.Store
	media *fakeMedia
	chat  *scriptedChat
}

func newHarness(t *testing.T, timing dataset.EpisodeTiming, chat *scriptedChat) *harness {
	t.Helper()
	store, err := annotations.Open(filepath.Join(t.TempDir(), "meta", "lerobot_annotations.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	cfg := config.Default()
	media := &fakeMedia{}
	svc := NewService(&cfg, Deps{
		Resolver: fakeResolver{timing: timing},
		Media:    media,
		Chat:     chat,
		Store:    store,
	})
	return &harness{svc: svc, store: store, media: media, chat: chat}
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
