package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"annotator/internal/services/llm"
	"annotator/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDataset(t *testing.T) {
	root := testsupport.WriteDataset(t, t.TempDir(), testsupport.DatasetFixture{
		FPS:       30,
		VideoKeys: []string{"cam"},
		Episodes:  []map[string]any{{"episode_index": 0, "length": 10}},
	})
	if result := CheckDataset(root); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	missing := CheckDataset(t.TempDir())
	if missing.Passed || !strings.Contains(missing.Detail, "meta/info.json") {
		t.Fatalf("unexpected result %#v", missing)
	}
}

func healthServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "nope", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		})
	}))
}

func TestCheckLLM_OK(t *testing.T) {
	srv := healthServer(t, http.StatusOK, `{"ok": true}`)
	defer srv.Close()

	result := CheckLLM(context.Background(), "Inference", llm.Config{BaseURL: srv.URL, Model: "vlm"})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "vlm") {
		t.Fatalf("detail %q should name the model", result.Detail)
	}
}

func TestCheckLLM_HTTPError(t *testing.T) {
	srv := healthServer(t, http.StatusUnauthorized, "")
	defer srv.Close()

	result := CheckLLM(context.Background(), "Inference", llm.Config{BaseURL: srv.URL, Model: "vlm"})
	if result.Passed {
		t.Fatal("expected failure")
	}
	if result.Detail != "endpoint returned HTTP 401" {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckLLM_MissingModel(t *testing.T) {
	result := CheckLLM(context.Background(), "Inference", llm.Config{BaseURL: "http://127.0.0.1:1"})
	if result.Passed || result.Detail != "model not configured" {
		t.Fatalf("unexpected result %#v", result)
	}
}

func TestRunAllOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg, Options{SkipInference: true})
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		if !r.Passed {
			t.Fatalf("check %s failed: %s", r.Name, r.Detail)
		}
	}
	want := "FFmpeg,FFprobe,Cache directory,Prompts directory,Inference endpoint"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("checks = %s, want %s", got, want)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatalf("expected nil, got %v", results)
	}
}
