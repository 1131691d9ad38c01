package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

const (
	defaultVideoPathTemplate = "videos/{video_key}/chunk-{chunk_index:03d}/file-{file_index:03d}.mp4"
	defaultChunksSize        = 1000
	videoDType               = "video"
)

// Feature is one entry of info.json's features mapping.
type Feature struct {
	DType string `json:"dtype"`
	Shape []int  `json:"shape,omitempty"`
	Names any    `json:"names,omitempty"`
}

// Info is the subset of meta/info.json the pipeline reads. Raw keeps every
// top-level key so export can rewrite the file without dropping fields.
type Info struct {
	FPS           float64            `json:"fps"`
	VideoPath     string             `json:"video_path"`
	DataPath      string             `json:"data_path"`
	ChunksSize    int                `json:"chunks_size"`
	TotalEpisodes int                `json:"total_episodes"`
	Features      map[string]Feature `json:"features"`

	Raw map[string]json.RawMessage `json:"-"`
}

func loadInfo(path string) (Info, error) {
	var info Info
	data, err := os.ReadFile(path)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &info.Raw); err != nil {
		return info, fmt.Errorf("decode %s: %w", path, err)
	}
	if info.VideoPath == "" {
		info.VideoPath = defaultVideoPathTemplate
	}
	if info.ChunksSize <= 0 {
		info.ChunksSize = defaultChunksSize
	}
	return info, nil
}

// VideoKeys lists features stored as video, sorted by name.
func (i Info) VideoKeys() []string {
	keys := make([]string, 0, len(i.Features))
	for name, feature := range i.Features {
		if feature.DType == videoDType {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys
}

// WithFeatures returns the info document as JSON with extra features merged
// in. Keys this package does not model are preserved verbatim.
func (i Info) WithFeatures(extra map[string]Feature) ([]byte, error) {
	features := make(map[string]any, len(i.Features)+len(extra))
	var rawFeatures map[string]json.RawMessage
	if raw, ok := i.Raw["features"]; ok && json.Unmarshal(raw, &rawFeatures) == nil {
		for name, f := range rawFeatures {
			features[name] = f
		}
	} else {
		for name, f := range i.Features {
			features[name] = f
		}
	}
	for name, f := range extra {
		features[name] = f
	}

	out := make(map[string]any, len(i.Raw)+1)
	for key, raw := range i.Raw {
		out[key] = raw
	}
	if _, ok := out["fps"]; !ok && i.FPS > 0 {
		out["fps"] = i.FPS
	}
	out["features"] = features
	return json.MarshalIndent(out, "", "  ")
}
