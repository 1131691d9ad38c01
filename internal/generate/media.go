package generate

import (
	"context"
	"math"
	"strconv"

	"annotator/internal/dataset"
)

// MediaSource produces embeddable frames and clips.
type MediaSource interface {
	FrameDataURL(ctx context.Context, videoPath string, ts float64) (string, error)
	ClipDataURL(ctx context.Context, videoPath string, start, end, fps float64) (string, error)
}

// Resolver maps episodes onto their video file and timeline.
type Resolver interface {
	Timing(episode int, videoKey string) (dataset.EpisodeTiming, error)
	VideoPath(episode int, videoKey string) (string, error)
}

// Frame-rate bounds for window clips.
const (
	windowMinFPS = 0.5
	windowMaxFPS = 6.0
)

// clipFPS spreads frames over duration, clamped to [lo, hi].
func clipFPS(frames int, duration, lo, hi float64) float64 {
	if frames < 1 {
		frames = 1
	}
	duration = math.Max(duration, 1e-3)
	fps := float64(frames) / duration
	return math.Min(math.Max(fps, lo), hi)
}

// linspace returns n evenly spaced points over [start, end].
func linspace(start, end float64, n int) []float64 {
	if n <= 1 || end <= start {
		return []float64{start}
	}
	step := (end - start) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// clampStart keeps a start cursor inside [0, duration-1ms].
func clampStart(t, duration float64) float64 {
	return math.Max(0, math.Min(t, math.Max(0, duration-1e-3)))
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
