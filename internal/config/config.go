package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir   string `toml:"cache_dir"`
	PromptsDir string `toml:"prompts_dir"`
	LogDir     string `toml:"log_dir"`
}

// Dataset describes the dataset loaded when no --dataset flag is given.
type Dataset struct {
	Root            string  `toml:"root"`
	VideoKey        string  `toml:"video_key"`
	DefaultFPS      float64 `toml:"default_fps"`
	AnnotationsFile string  `toml:"annotations_file"`
}

// Inference contains the chat completions endpoint settings.
type Inference struct {
	BaseURL           string `toml:"base_url"`
	APIKey            string `toml:"api_key"`
	Model             string `toml:"model"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	Referer           string `toml:"referer"`
	Title             string `toml:"title"`
}

// Media contains transcoder settings for the frame/clip cache.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	ImageMaxSide  int    `toml:"image_max_side"`
}

// Subtasks holds defaults for windowed subtask labeling.
type Subtasks struct {
	StrideSeconds      float64 `toml:"stride_seconds"`
	SummaryFrames      int     `toml:"summary_frames"`
	SegmentFrames      int     `toml:"segment_frames"`
	MaxSteps           int     `toml:"max_steps"`
	Language           string  `toml:"language"`
	Temperature        float64 `toml:"temperature"`
	MaxTokens          int     `toml:"max_tokens"`
	MergeAdjacent      bool    `toml:"merge_adjacent"`
	SystemPrompt       string  `toml:"system_prompt"`
	UserPromptTemplate string  `toml:"user_prompt_template"`
}

// VQA holds defaults for windowed question/answer generation.
type VQA struct {
	StrideSeconds      float64 `toml:"stride_seconds"`
	WindowSeconds      float64 `toml:"window_seconds"`
	WindowFrames       int     `toml:"window_frames"`
	MaxSteps           int     `toml:"max_steps"`
	Language           string  `toml:"language"`
	ScenarioType       string  `toml:"scenario_type"`
	ResponseType       string  `toml:"response_type"`
	Skill              string  `toml:"skill"`
	Temperature        float64 `toml:"temperature"`
	MaxTokens          int     `toml:"max_tokens"`
	DemoPairsMax       int     `toml:"demo_pairs_max"`
	Dense              bool    `toml:"dense"`
	SystemPrompt       string  `toml:"system_prompt"`
	UserPromptTemplate string  `toml:"user_prompt_template"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config aggregates every configuration section.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Dataset   Dataset   `toml:"dataset"`
	Inference Inference `toml:"inference"`
	Media     Media     `toml:"media"`
	Subtasks  Subtasks  `toml:"subtasks"`
	VQA       VQA       `toml:"vqa"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("annotator.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache, prompts and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.PromptsDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "annotator", "media")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/annotator/media"
	}
	return filepath.Join(home, ".cache", "annotator", "media")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// AnnotationsPath returns the annotation document location inside a dataset root.
func (c *Config) AnnotationsPath(root string) string {
	rel := strings.TrimSpace(c.Dataset.AnnotationsFile)
	if rel == "" {
		rel = defaultAnnotationsFile
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(root, rel)
}

// SubtaskExamplesPath is the label-example text file edited by users.
func (c *Config) SubtaskExamplesPath() string {
	return filepath.Join(c.Paths.PromptsDir, subtaskExamplesFile)
}

// VQADemosPath is the demonstration Q/A text file edited by users.
func (c *Config) VQADemosPath() string {
	return filepath.Join(c.Paths.PromptsDir, vqaDemosFile)
}
