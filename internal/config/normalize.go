package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDataset(); err != nil {
		return err
	}
	c.normalizeInference()
	c.normalizeMedia()
	c.normalizeSubtasks()
	c.normalizeVQA()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(strings.TrimSpace(c.Paths.CacheDir)); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PromptsDir) == "" {
		c.Paths.PromptsDir = defaultPromptsDir
	}
	if c.Paths.PromptsDir, err = expandPath(strings.TrimSpace(c.Paths.PromptsDir)); err != nil {
		return fmt.Errorf("paths.prompts_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDataset() error {
	var err error
	if c.Dataset.Root, err = expandPath(strings.TrimSpace(c.Dataset.Root)); err != nil {
		return fmt.Errorf("dataset.root: %w", err)
	}
	c.Dataset.VideoKey = strings.TrimSpace(c.Dataset.VideoKey)
	c.Dataset.AnnotationsFile = strings.TrimSpace(c.Dataset.AnnotationsFile)
	if c.Dataset.AnnotationsFile == "" {
		c.Dataset.AnnotationsFile = defaultAnnotationsFile
	}
	if c.Dataset.DefaultFPS == 0 {
		c.Dataset.DefaultFPS = defaultFPS
	}
	return nil
}

func (c *Config) normalizeInference() {
	c.Inference.BaseURL = strings.TrimSpace(c.Inference.BaseURL)
	c.Inference.APIKey = strings.TrimSpace(c.Inference.APIKey)
	c.Inference.Model = strings.TrimSpace(c.Inference.Model)
	c.Inference.Referer = strings.TrimSpace(c.Inference.Referer)
	c.Inference.Title = strings.TrimSpace(c.Inference.Title)
	if value, ok := os.LookupEnv("ANNOTATOR_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.Inference.BaseURL = strings.TrimSpace(value)
	}
	if c.Inference.BaseURL == "" {
		c.Inference.BaseURL = defaultInferenceBaseURL
	}
	if c.Inference.APIKey == "" {
		if value, ok := os.LookupEnv("ANNOTATOR_API_KEY"); ok {
			c.Inference.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Inference.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Inference.TimeoutSeconds == 0 {
		c.Inference.TimeoutSeconds = defaultInferenceTimeout
	}
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeSubtasks() {
	c.Subtasks.Language = strings.TrimSpace(c.Subtasks.Language)
	if c.Subtasks.Language == "" {
		c.Subtasks.Language = defaultSubtaskLanguage
	}
	c.Subtasks.SystemPrompt = strings.TrimSpace(c.Subtasks.SystemPrompt)
	c.Subtasks.UserPromptTemplate = strings.TrimSpace(c.Subtasks.UserPromptTemplate)
}

func (c *Config) normalizeVQA() {
	c.VQA.Language = strings.TrimSpace(c.VQA.Language)
	if c.VQA.Language == "" {
		c.VQA.Language = defaultVQALanguage
	}
	c.VQA.ScenarioType = strings.TrimSpace(c.VQA.ScenarioType)
	c.VQA.ResponseType = strings.TrimSpace(c.VQA.ResponseType)
	c.VQA.Skill = strings.TrimSpace(c.VQA.Skill)
	c.VQA.SystemPrompt = strings.TrimSpace(c.VQA.SystemPrompt)
	c.VQA.UserPromptTemplate = strings.TrimSpace(c.VQA.UserPromptTemplate)
	if c.VQA.WindowSeconds > c.VQA.StrideSeconds && c.VQA.StrideSeconds > 0 {
		c.VQA.WindowSeconds = c.VQA.StrideSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
