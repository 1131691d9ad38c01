package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"annotator/internal/config"
	"annotator/internal/testsupport"
)

const frontKey = "observation.images.front"

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	root       string
	chatCalls  *atomic.Int32
}

// setupCLITestEnv writes a two-episode dataset, a config pointing at it and
// a chat server that answers every request with reply.
func setupCLITestEnv(t *testing.T, reply string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))

	root := testsupport.WriteDataset(t, filepath.Join(base, "dataset"), testsupport.DatasetFixture{
		FPS:       10,
		VideoKeys: []string{frontKey},
		Episodes: []map[string]any{
			{"episode_index": 0, "length": 20, "tasks": []string{"put the cup away"}},
			{
				"episode_index":                          1,
				"length":                                 10,
				"videos/" + frontKey + "/file_index":     0,
				"videos/" + frontKey + "/from_timestamp": 2.0,
				"videos/" + frontKey + "/to_timestamp":   3.0,
			},
		},
		WriteVideos: true,
	})

	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		payload := map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": reply}}},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithDatasetRoot(root),
		testsupport.WithInferenceURL(server.URL+"/v1"),
	)
	cfg.Media.FFmpegBinary, cfg.Media.FFprobeBinary = writeMediaStubs(t, testsupport.BaseDir(cfg))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, root: root, chatCalls: calls}
}

// writeMediaStubs installs an ffmpeg that writes a byte to its media output
// argument and an ffprobe that does nothing.
func writeMediaStubs(t *testing.T, dir string) (string, string) {
	t.Helper()
	binDir := filepath.Join(dir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	scripts := map[string]string{
		"ffmpeg":  "#!/bin/sh\nfor last; do :; done\ncase \"$last\" in *.jpg|*.mp4) printf 'x' > \"$last\" ;; esac\n",
		"ffprobe": "#!/bin/sh\nexit 0\n",
	}
	for name, script := range scripts {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
			t.Fatalf("write %s stub: %v", name, err)
		}
	}
	return filepath.Join(binDir, "ffmpeg"), filepath.Join(binDir, "ffprobe")
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", env.configPath}, args...))
}

func runCLI(t *testing.T, args []string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n---\n%s", needle, haystack)
	}
}

func decodeJSON(t *testing.T, text string, target any) {
	t.Helper()
	if err := json.Unmarshal([]byte(text), target); err != nil {
		t.Fatalf("decode output: %v\n---\n%s", err, text)
	}
}
