package framecache

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"annotator/internal/fileutil"
	"annotator/internal/logging"
	"annotator/internal/services"
)

const (
	// DefaultMaxSide bounds the larger output dimension of frames and clips.
	DefaultMaxSide = 768

	minClipSpan = 0.05
	minFPS      = 1e-6
	fallbackFPS = 1.0

	framePrefix = "frame_"
	clipPrefix  = "clip_"
)

// CommandRunner executes name with args and returns its diagnostic output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Option customizes a Cache.
type Option func(*Cache)

// WithFFmpegBinary overrides the ffmpeg executable.
func WithFFmpegBinary(binary string) Option {
	return func(c *Cache) {
		if b := strings.TrimSpace(binary); b != "" {
			c.ffmpeg = b
		}
	}
}

// WithMaxSide overrides the output size bound.
func WithMaxSide(side int) Option {
	return func(c *Cache) {
		if side > 0 {
			c.maxSide = side
		}
	}
}

// WithCommandRunner injects a custom command runner (primarily for tests).
func WithCommandRunner(r CommandRunner) Option {
	return func(c *Cache) {
		if r != nil {
			c.run = r
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logging.NewComponentLogger(logger, "framecache")
	}
}

// Cache is a content-addressed store of derived media.
type Cache struct {
	dir     string
	ffmpeg  string
	maxSide int
	run     CommandRunner
	logger  *slog.Logger
	group   singleflight.Group
}

// New prepares dir and returns a cache rooted there.
func New(dir string, opts ...Option) (*Cache, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "framecache", "init", "cache directory is empty", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "framecache", "init", "create cache directory", err)
	}
	c := &Cache{
		dir:     dir,
		ffmpeg:  "ffmpeg",
		maxSide: DefaultMaxSide,
		run:     execRunner,
		logger:  logging.NewComponentLogger(nil, "framecache"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// MaxSide returns the configured output size bound.
func (c *Cache) MaxSide() int { return c.maxSide }

// FramePath returns the cache location for a frame without producing it.
func (c *Cache) FramePath(videoPath string, ts float64) string {
	key := digest(fmt.Sprintf("%s|%s|%d", videoPath, formatSeconds(ts), c.maxSide))
	return filepath.Join(c.dir, framePrefix+key+".jpg")
}

// ClipPath returns the cache location for a clip after clamping its inputs.
// Keys use the same number formatting as the ffmpeg arguments.
func (c *Cache) ClipPath(videoPath string, start, end, fps float64) string {
	start, end, fps = clampClip(start, end, fps)
	key := digest(fmt.Sprintf("%s|%s|%s|%s|%d", videoPath, formatSeconds(start), formatSeconds(end), formatSeconds(fps), c.maxSide))
	return filepath.Join(c.dir, clipPrefix+key+".mp4")
}

// Frame returns the path of a JPEG still of videoPath at ts, scaled so its
// larger side equals the configured maximum.
func (c *Cache) Frame(ctx context.Context, videoPath string, ts float64) (string, error) {
	out := c.FramePath(videoPath, ts)
	s := strconv.Itoa(c.maxSide)
	vf := "scale=if(gt(iw\\,ih)\\," + s + "\\,-2):if(gt(iw\\,ih)\\,-2\\," + s + "):flags=bicubic"
	args := func(dest string) []string {
		return []string{
			"-hide_banner",
			"-loglevel", "error",
			"-ss", formatSeconds(ts),
			"-i", videoPath,
			"-frames:v", "1",
			"-q:v", "2",
			"-vf", vf,
			"-y",
			dest,
		}
	}
	return c.produce(ctx, "frame", out, args)
}

// Clip returns the path of a muted H.264 clip covering [start, end] sampled
// at fps. end is raised to start+0.05s and non-positive fps becomes 1.
func (c *Cache) Clip(ctx context.Context, videoPath string, start, end, fps float64) (string, error) {
	out := c.ClipPath(videoPath, start, end, fps)
	start, end, fps = clampClip(start, end, fps)
	s := strconv.Itoa(c.maxSide)
	vf := "fps=" + formatSeconds(fps) +
		",scale=" + s + ":" + s + ":force_original_aspect_ratio=decrease:flags=bicubic" +
		",pad=ceil(iw/2)*2:ceil(ih/2)*2"
	args := func(dest string) []string {
		return []string{
			"-hide_banner",
			"-loglevel", "error",
			"-ss", formatSeconds(start),
			"-to", formatSeconds(end),
			"-i", videoPath,
			"-an",
			"-vf", vf,
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-movflags", "+faststart",
			"-y",
			dest,
		}
	}
	return c.produce(ctx, "clip", out, args)
}

// FrameDataURL extracts a frame and returns it as a data URI.
func (c *Cache) FrameDataURL(ctx context.Context, videoPath string, ts float64) (string, error) {
	path, err := c.Frame(ctx, videoPath, ts)
	if err != nil {
		return "", err
	}
	return FileDataURL(path, MimeJPEG)
}

// ClipDataURL extracts a clip and returns it as a data URI.
func (c *Cache) ClipDataURL(ctx context.Context, videoPath string, start, end, fps float64) (string, error) {
	path, err := c.Clip(ctx, videoPath, start, end, fps)
	if err != nil {
		return "", err
	}
	return FileDataURL(path, MimeMP4)
}

func (c *Cache) produce(ctx context.Context, kind, out string, args func(dest string) []string) (string, error) {
	if fileutil.NonEmptyFile(out) {
		return out, nil
	}
	_, err, _ := c.group.Do(out, func() (any, error) {
		if fileutil.NonEmptyFile(out) {
			return nil, nil
		}
		return nil, c.transcode(ctx, kind, out, args)
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (c *Cache) transcode(ctx context.Context, kind, out string, args func(dest string) []string) error {
	// ffmpeg picks the muxer from the extension, so the temp name keeps it.
	tmp, err := os.CreateTemp(c.dir, ".tmp-*"+filepath.Ext(out))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "framecache", kind, "create temp file", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	output, runErr := c.run(ctx, c.ffmpeg, args(tmpPath)...)
	if runErr != nil {
		detail := strings.TrimSpace(string(output))
		logging.WarnWithContext(c.logger, "ffmpeg failed", "transcode_failed",
			logging.String("kind", kind),
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "check that the video decodes and ffmpeg was built with libx264"),
			logging.String(logging.FieldImpact, "window request aborted"),
		)
		return services.Wrap(services.ErrExternalTool, "framecache", kind, "ffmpeg failed: "+detail, runErr)
	}
	if !fileutil.NonEmptyFile(tmpPath) {
		return services.Wrap(services.ErrExternalTool, "framecache", kind, "ffmpeg produced empty "+kind, nil)
	}
	if err := os.Rename(tmpPath, out); err != nil {
		return services.Wrap(services.ErrExternalTool, "framecache", kind, "commit cache entry", err)
	}
	c.logger.Debug("cache entry written", logging.String("kind", kind), logging.String("path", out))
	return nil
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && stderr.Len() == 0 {
		return nil, err
	}
	return stderr.Bytes(), err
}

func clampClip(start, end, fps float64) (float64, float64, float64) {
	if end <= start {
		end = start + minClipSpan
	}
	if fps <= minFPS {
		fps = fallbackFPS
	}
	return start, end, fps
}

func digest(key string) string {
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
