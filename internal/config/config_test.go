package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"annotator/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("ANNOTATOR_API_KEY", "test-key")
	t.Setenv("XDG_CACHE_HOME", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Inference.APIKey != "test-key" {
		t.Fatalf("expected api key from env, got %q", cfg.Inference.APIKey)
	}
	if want := filepath.Join(tempHome, ".config", "annotator", "prompts"); cfg.Paths.PromptsDir != want {
		t.Fatalf("unexpected prompts dir: got %q want %q", cfg.Paths.PromptsDir, want)
	}
	if want := filepath.Join(tempHome, ".cache", "annotator", "media"); cfg.Paths.CacheDir != want {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, want)
	}
	if cfg.Inference.BaseURL != "http://127.0.0.1:8000/v1" {
		t.Fatalf("unexpected base url %q", cfg.Inference.BaseURL)
	}
	if cfg.Media.ImageMaxSide != 768 {
		t.Fatalf("unexpected image max side %d", cfg.Media.ImageMaxSide)
	}
	if cfg.Subtasks.StrideSeconds != 2.0 || cfg.Subtasks.SegmentFrames != 8 || !cfg.Subtasks.MergeAdjacent {
		t.Fatalf("unexpected subtask defaults %+v", cfg.Subtasks)
	}
	if cfg.VQA.StrideSeconds != 6.0 || cfg.VQA.WindowSeconds != 2.0 || cfg.VQA.Skill != "fake_vqa" {
		t.Fatalf("unexpected vqa defaults %+v", cfg.VQA)
	}
	if !strings.Contains(cfg.Subtasks.UserPromptTemplate, "{episode_summary}") {
		t.Fatal("expected default subtask template placeholders")
	}
}

func TestLoadCustomConfig(t *testing.T) {
	t.Setenv("ANNOTATOR_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"cache_dir": "~/cache",
		},
		"inference": map[string]any{
			"api_key": "file-key",
			"model":   "qwen-vl",
		},
		"subtasks": map[string]any{
			"stride_seconds": 5.0,
			"merge_adjacent": false,
		},
		"vqa": map[string]any{
			"stride_seconds": 1.0,
			"window_seconds": 3.0,
		},
		"logging": map[string]any{
			"format": "JSON",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, "cache") {
		t.Fatalf("unexpected cache dir %q", cfg.Paths.CacheDir)
	}
	if cfg.Inference.APIKey != "file-key" || cfg.Inference.Model != "qwen-vl" {
		t.Fatalf("unexpected inference section %+v", cfg.Inference)
	}
	if cfg.Subtasks.StrideSeconds != 5.0 || cfg.Subtasks.MergeAdjacent {
		t.Fatalf("unexpected subtasks section %+v", cfg.Subtasks)
	}
	if cfg.Subtasks.SegmentFrames != 8 {
		t.Fatalf("expected untouched keys to keep defaults, got %d", cfg.Subtasks.SegmentFrames)
	}
	if cfg.VQA.WindowSeconds != 1.0 {
		t.Fatalf("expected window clamped to stride, got %v", cfg.VQA.WindowSeconds)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"subtask stride", func(c *config.Config) { c.Subtasks.StrideSeconds = 0 }, "subtasks.stride_seconds"},
		{"segment frames", func(c *config.Config) { c.Subtasks.SegmentFrames = -1 }, "subtasks.segment_frames"},
		{"vqa window", func(c *config.Config) { c.VQA.WindowSeconds = 0 }, "vqa.window_seconds"},
		{"image side", func(c *config.Config) { c.Media.ImageMaxSide = 0 }, "media.image_max_side"},
		{"temperature", func(c *config.Config) { c.VQA.Temperature = 3 }, "vqa.temperature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	path := filepath.Join(tempHome, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Inference.Model == "" {
		t.Fatal("expected sample to set a model")
	}
}

func TestAnnotationsPath(t *testing.T) {
	cfg := config.Default()
	if got := cfg.AnnotationsPath("/data/ds"); got != filepath.Join("/data/ds", "meta", "lerobot_annotations.json") {
		t.Fatalf("unexpected annotations path %q", got)
	}
	cfg.Dataset.AnnotationsFile = "/abs/doc.json"
	if got := cfg.AnnotationsPath("/data/ds"); got != "/abs/doc.json" {
		t.Fatalf("unexpected absolute annotations path %q", got)
	}
}
