package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"annotator/internal/config"
	"annotator/internal/deps"
	"annotator/internal/services/llm"
)

// CheckLLM verifies that the inference endpoint answers a JSON health prompt.
// It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, name string, cfg llm.Config) Result {
	if strings.TrimSpace(cfg.Model) == "" {
		return Result{Name: name, Detail: "model not configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(cfg)
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	endpoint, _ := client.Endpoint()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (%s)", endpoint, cfg.Model)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDataset verifies that root looks like a dataset directory.
func CheckDataset(root string) Result {
	const name = "Dataset"
	for _, rel := range []string{"meta/info.json", "meta/episodes.jsonl"} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing %s)", root, rel)}
		}
	}
	if err := unix.Access(filepath.Join(root, "meta"), unix.W_OK); err != nil {
		return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (read-only; annotations cannot be saved)", root)}
	}
	return Result{Name: name, Passed: true, Detail: root}
}

// CheckSystemDeps evaluates the transcoder binaries named by cfg.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.MediaRequirements(cfg.Media.FFmpegBinary, cfg.Media.FFprobeBinary))
}

// summarizeLLMError produces a human-readable summary for health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (inference endpoint unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (inference endpoint unreachable)"
	}
	if status, ok := llm.StatusCode(err); ok {
		return fmt.Sprintf("endpoint returned HTTP %d", status)
	}
	return err.Error()
}
