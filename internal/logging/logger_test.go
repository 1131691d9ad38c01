package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"annotator/internal/config"
	"annotator/internal/logging"
	"annotator/internal/services"
)

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Info("file message", logging.String("k", "v"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "annotator.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "file message") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "framecache").Info("message without caller", logging.Int("entries", 3))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
	if !strings.Contains(line, "framecache: message without caller") || !strings.Contains(line, "entries=3") {
		t.Fatalf("unexpected console line %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "debug",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerShape(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["msg"] != "json message" || record["level"] != "info" || record["k"] != "v" {
		t.Fatalf("unexpected record %#v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %#v", record)
	}
}

func TestConsoleLoggerFlattensWindow(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "window.log")
	logger, err := logging.New(logging.Options{Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.With(logging.String("video_key", "front")).Info("window labeled",
		logging.Window(2, 4.5),
		logging.String("label", "pick up cup"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{"INFO window labeled", "video_key=front", "window.start=2", "window.end=4.5", `label="pick up cup"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithEpisode(ctx, 12)
	ctx = services.WithStage(ctx, "vqa")
	ctx = services.WithRunID(ctx, "run-xyz")

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, base).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record[logging.FieldEpisodeIndex] != float64(12) {
		t.Fatalf("episode field = %v", record[logging.FieldEpisodeIndex])
	}
	if record[logging.FieldStage] != "vqa" {
		t.Fatalf("stage field = %v", record[logging.FieldStage])
	}
	if record[logging.FieldRunID] != "run-xyz" {
		t.Fatalf("run id field = %v", record[logging.FieldRunID])
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "dropped record", "annotation_record_dropped", logging.String(logging.FieldErrorHint, "fix the document"))

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record[logging.FieldEventType] != "annotation_record_dropped" {
		t.Fatalf("event type = %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] != "fix the document" {
		t.Fatalf("hint should not be overwritten, got %v", record[logging.FieldErrorHint])
	}
	if record[logging.FieldImpact] == nil {
		t.Fatal("expected default impact")
	}
}
