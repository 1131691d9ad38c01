package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// DatasetFixture describes a minimal on-disk dataset: meta/info.json plus one
// meta/episodes.jsonl row per entry in Episodes.
type DatasetFixture struct {
	FPS       float64
	VideoKeys []string
	Episodes  []map[string]any
	// VideoPath overrides the info.json video_path template when set.
	VideoPath string
	// WriteVideos creates a placeholder file for every resolvable video path.
	WriteVideos bool
}

// WriteDataset materializes fixture under root and returns root.
func WriteDataset(t testing.TB, root string, fixture DatasetFixture) string {
	t.Helper()

	features := map[string]any{
		"timestamp":     map[string]any{"dtype": "float32", "shape": []int{1}},
		"frame_index":   map[string]any{"dtype": "int64", "shape": []int{1}},
		"episode_index": map[string]any{"dtype": "int64", "shape": []int{1}},
	}
	for _, key := range fixture.VideoKeys {
		features[key] = map[string]any{"dtype": "video", "shape": []int{480, 640, 3}}
	}
	info := map[string]any{
		"codebase_version": "v3.0",
		"fps":              fixture.FPS,
		"total_episodes":   len(fixture.Episodes),
		"chunks_size":      1000,
		"features":         features,
	}
	if fixture.VideoPath != "" {
		info["video_path"] = fixture.VideoPath
	}
	writeJSON(t, filepath.Join(root, "meta", "info.json"), info)

	var lines []byte
	for _, ep := range fixture.Episodes {
		encoded, err := json.Marshal(ep)
		if err != nil {
			t.Fatalf("encode episode row: %v", err)
		}
		lines = append(lines, encoded...)
		lines = append(lines, '\n')
	}
	path := filepath.Join(root, "meta", "episodes.jsonl")
	if err := os.WriteFile(path, lines, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}

	if fixture.WriteVideos {
		for _, ep := range fixture.Episodes {
			for _, key := range fixture.VideoKeys {
				chunk := intValue(ep["videos/"+key+"/chunk_index"])
				file := intValue(ep["videos/"+key+"/file_index"])
				rel := filepath.Join("videos", key, chunkDir(chunk), fileName(file))
				WriteFile(t, filepath.Join(root, rel), 64)
			}
		}
	}
	return root
}

func writeJSON(t testing.TB, path string, value any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func chunkDir(chunk int) string {
	return fmt.Sprintf("chunk-%03d", chunk)
}

func fileName(file int) string {
	return fmt.Sprintf("file-%03d.mp4", file)
}
