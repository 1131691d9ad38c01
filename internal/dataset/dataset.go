package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"annotator/internal/services"
)

const (
	// DefaultFPS applies when info.json carries no usable fps.
	DefaultFPS = 30.0

	infoFile     = "meta/info.json"
	episodesFile = "meta/episodes.jsonl"
)

// Option customises Open.
type Option func(*Dataset)

// WithDefaultFPS overrides the fallback frame rate.
func WithDefaultFPS(fps float64) Option {
	return func(d *Dataset) {
		if fps > 0 {
			d.defaultFPS = fps
		}
	}
}

// Dataset is a loaded dataset root.
type Dataset struct {
	root       string
	info       Info
	episodes   []Episode
	byIndex    map[int]int
	defaultFPS float64
}

// Open reads the info file and the episode table under root.
func Open(root string, opts ...Option) (*Dataset, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrValidation, "dataset", "open", "dataset root is empty", nil)
	}
	d := &Dataset{root: root, defaultFPS: DefaultFPS}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	info, err := loadInfo(filepath.Join(root, infoFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "dataset", "open", "info file missing", err)
		}
		return nil, services.Wrap(services.ErrValidation, "dataset", "open", "read info file", err)
	}
	episodes, err := loadEpisodes(filepath.Join(root, episodesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "dataset", "open", "episode table missing", err)
		}
		return nil, services.Wrap(services.ErrValidation, "dataset", "open", "read episode table", err)
	}
	sort.SliceStable(episodes, func(i, j int) bool { return episodes[i].Index < episodes[j].Index })

	d.info = info
	d.episodes = episodes
	d.byIndex = make(map[int]int, len(episodes))
	for i, ep := range episodes {
		d.byIndex[ep.Index] = i
	}
	return d, nil
}

// Root returns the dataset directory.
func (d *Dataset) Root() string {
	if d == nil {
		return ""
	}
	return d.root
}

// Info returns the parsed info file.
func (d *Dataset) Info() Info {
	if d == nil {
		return Info{}
	}
	return d.info
}

// FPS returns the dataset frame rate.
func (d *Dataset) FPS() float64 {
	if d == nil {
		return DefaultFPS
	}
	if d.info.FPS > 0 {
		return d.info.FPS
	}
	return d.defaultFPS
}

// VideoKeys lists the video streams declared by the info file.
func (d *Dataset) VideoKeys() []string {
	if d == nil {
		return nil
	}
	return d.info.VideoKeys()
}

// Episodes returns the episode rows in ascending index order.
func (d *Dataset) Episodes() []Episode {
	if d == nil {
		return nil
	}
	out := make([]Episode, len(d.episodes))
	copy(out, d.episodes)
	return out
}

// Episode looks up one episode row.
func (d *Dataset) Episode(index int) (Episode, error) {
	if d == nil {
		return Episode{}, services.Wrap(services.ErrDatasetNotLoaded, "dataset", "episode", "no dataset loaded", nil)
	}
	pos, ok := d.byIndex[index]
	if !ok {
		return Episode{}, services.Wrap(services.ErrNotFound, "dataset", "episode", fmt.Sprintf("episode %d not found", index), nil)
	}
	return d.episodes[pos], nil
}

// ResolveVideoKey maps an empty key to the first video stream and rejects
// keys the info file does not declare.
func (d *Dataset) ResolveVideoKey(key string) (string, error) {
	if d == nil {
		return "", services.Wrap(services.ErrDatasetNotLoaded, "dataset", "video key", "no dataset loaded", nil)
	}
	keys := d.VideoKeys()
	key = strings.TrimSpace(key)
	if key == "" {
		if len(keys) == 0 {
			return "", services.Wrap(services.ErrNotFound, "dataset", "video key", "dataset declares no video streams", nil)
		}
		return keys[0], nil
	}
	for _, k := range keys {
		if k == key {
			return key, nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "dataset", "video key", fmt.Sprintf("video key %q not found", key), nil)
}

// Timing resolves an episode's span inside its physical video file. Offsets
// from the episode row are used only when both are present; otherwise the
// episode owns its file from zero.
func (d *Dataset) Timing(index int, videoKey string) (EpisodeTiming, error) {
	ep, err := d.Episode(index)
	if err != nil {
		return EpisodeTiming{}, err
	}
	key, err := d.ResolveVideoKey(videoKey)
	if err != nil {
		return EpisodeTiming{}, err
	}
	fps := d.FPS()
	length := ep.Length()
	timing := EpisodeTiming{
		FPS:      fps,
		Length:   length,
		Duration: float64(length) / fps,
	}
	from, okFrom := ep.Float(videoColumn(key, "from_timestamp"))
	to, okTo := ep.Float(videoColumn(key, "to_timestamp"))
	if okFrom && okTo {
		timing.VideoStart = from
		timing.VideoEnd = to
		timing.Concatenated = true
		return timing, nil
	}
	timing.VideoStart = 0
	timing.VideoEnd = timing.Duration
	return timing, nil
}

// VideoPath returns the physical file backing an episode's video stream.
func (d *Dataset) VideoPath(index int, videoKey string) (string, error) {
	ep, err := d.Episode(index)
	if err != nil {
		return "", err
	}
	key, err := d.ResolveVideoKey(videoKey)
	if err != nil {
		return "", err
	}
	chunksSize := d.info.ChunksSize
	chunk, ok := ep.Int(videoColumn(key, "chunk_index"))
	if !ok {
		chunk = index / chunksSize
	}
	file, ok := ep.Int(videoColumn(key, "file_index"))
	if !ok {
		file = index
	}
	rel, err := formatPath(d.info.VideoPath, map[string]any{
		"video_key":     key,
		"chunk_index":   chunk,
		"file_index":    file,
		"episode_chunk": index / chunksSize,
		"episode_index": index,
	})
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "dataset", "video path", "expand video path template", err)
	}
	path := filepath.Join(d.root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", services.Wrap(services.ErrNotFound, "dataset", "video path", fmt.Sprintf("video file %s not found", rel), err)
	}
	return path, nil
}

func videoColumn(key, column string) string {
	return "videos/" + key + "/" + column
}
