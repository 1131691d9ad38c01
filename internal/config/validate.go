package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateInference(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateSubtasks(); err != nil {
		return err
	}
	if err := c.validateVQA(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.DefaultFPS <= 0 {
		return errors.New("dataset.default_fps must be positive")
	}
	return nil
}

func (c *Config) validateInference() error {
	if c.Inference.TimeoutSeconds < 0 {
		return errors.New("inference.timeout_seconds must be non-negative")
	}
	if c.Inference.RequestsPerMinute < 0 {
		return errors.New("inference.requests_per_minute must be non-negative")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.ImageMaxSide <= 0 {
		return errors.New("media.image_max_side must be positive")
	}
	return nil
}

func (c *Config) validateSubtasks() error {
	s := c.Subtasks
	if s.StrideSeconds <= 0 {
		return errors.New("subtasks.stride_seconds must be positive")
	}
	if s.SegmentFrames <= 0 {
		return errors.New("subtasks.segment_frames must be positive")
	}
	if s.SummaryFrames < 0 {
		return errors.New("subtasks.summary_frames must be non-negative")
	}
	if s.MaxSteps <= 0 {
		return errors.New("subtasks.max_steps must be positive")
	}
	if s.MaxTokens <= 0 {
		return errors.New("subtasks.max_tokens must be positive")
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("subtasks.temperature must be between 0 and 2 (got %v)", s.Temperature)
	}
	return nil
}

func (c *Config) validateVQA() error {
	v := c.VQA
	if v.StrideSeconds <= 0 {
		return errors.New("vqa.stride_seconds must be positive")
	}
	if v.WindowSeconds <= 0 {
		return errors.New("vqa.window_seconds must be positive")
	}
	if v.WindowFrames <= 0 {
		return errors.New("vqa.window_frames must be positive")
	}
	if v.MaxSteps <= 0 {
		return errors.New("vqa.max_steps must be positive")
	}
	if v.MaxTokens <= 0 {
		return errors.New("vqa.max_tokens must be positive")
	}
	if v.DemoPairsMax <= 0 {
		return errors.New("vqa.demo_pairs_max must be positive")
	}
	if v.Temperature < 0 || v.Temperature > 2 {
		return fmt.Errorf("vqa.temperature must be between 0 and 2 (got %v)", v.Temperature)
	}
	return nil
}
