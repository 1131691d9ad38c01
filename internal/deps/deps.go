package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external binary the annotator relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Version     string
	Detail      string
}

// MediaRequirements lists the transcoder binaries used by the frame cache and
// the timing probe.
func MediaRequirements(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     orDefault(ffmpeg, "ffmpeg"),
			Description: "Required for frame and clip extraction",
		},
		{
			Name:        "FFprobe",
			Command:     orDefault(ffprobe, "ffprobe"),
			Description: "Used by timing --probe",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		status.Version = probeVersion(path)
		results = append(results, status)
	}
	return results
}

// probeVersion returns the first line of `<binary> -version`, which is where
// ffmpeg and ffprobe print their release.
func probeVersion(path string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
