package dataset

// EpisodeTiming locates an episode's timeline inside its physical video file.
// Times are in seconds; VideoStart/VideoEnd are absolute positions in the file.
type EpisodeTiming struct {
	FPS        float64 `json:"fps"`
	Length     int     `json:"length"`
	Duration   float64 `json:"duration"`
	VideoStart float64 `json:"video_start_time"`
	VideoEnd   float64 `json:"video_end_time"`

	// Concatenated is set when the span came from from/to offset columns.
	Concatenated bool `json:"concatenated"`
}

// Absolute maps a local [start, end] window onto the video file, clamping the
// start inside the episode's range and keeping at least a millisecond span.
func (t EpisodeTiming) Absolute(start, end float64) (float64, float64) {
	const minSpan = 1e-3
	absStart := clamp(t.VideoStart+start, t.VideoStart, t.VideoEnd-minSpan)
	absEnd := t.VideoStart + end
	if absEnd < t.VideoStart+start+minSpan {
		absEnd = t.VideoStart + start + minSpan
	}
	if absEnd > t.VideoEnd {
		absEnd = t.VideoEnd
	}
	return absStart, absEnd
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
