package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"annotator/internal/annotations"
	"annotator/internal/dataset"
	"annotator/internal/fileutil"
	"annotator/internal/logging"
	"annotator/internal/services"
)

// DatabaseFile is the export database name inside the output directory.
const DatabaseFile = "annotations.db"

// AnnotationSource supplies every episode's annotations.
type AnnotationSource interface {
	All() map[int]annotations.Episode
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the exporter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) { e.logger = logging.NewComponentLogger(logger, "export") }
}

// WithLinkedVideos symlinks the source videos directory into the output.
func WithLinkedVideos(link bool) Option {
	return func(e *Exporter) { e.linkVideos = link }
}

// WithProgress reports completed partitions.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Exporter) { e.progress = fn }
}

// Exporter writes an augmented copy of one dataset.
type Exporter struct {
	ds         *dataset.Dataset
	source     AnnotationSource
	logger     *slog.Logger
	linkVideos bool
	progress   func(done, total int)
}

// NewExporter binds a dataset to its annotations.
func NewExporter(ds *dataset.Dataset, source AnnotationSource, opts ...Option) *Exporter {
	e := &Exporter{ds: ds, source: source, logger: logging.NewComponentLogger(nil, "export")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Report summarizes an export.
type Report struct {
	OutputDir      string `json:"output_dir"`
	Database       string `json:"database"`
	Partitions     int    `json:"partitions"`
	Samples        int    `json:"samples"`
	Subtasks       int    `json:"subtasks"`
	TasksHighLevel int    `json:"tasks_high_level"`
	QALabels       int    `json:"qa_labels"`
}

// Run exports into out: meta files with the extended info.json, and the
// projected sample columns plus label tables in out/annotations.db.
func (e *Exporter) Run(ctx context.Context, out string) (Report, error) {
	if e.ds == nil {
		return Report{}, services.Wrap(services.ErrDatasetNotLoaded, "export", "run", "no dataset loaded", nil)
	}
	if out == "" {
		return Report{}, services.Wrap(services.ErrValidation, "export", "run", "output directory is required", nil)
	}
	out, err := filepath.Abs(out)
	if err != nil {
		return Report{}, services.Wrap(services.ErrValidation, "export", "run", "resolve output directory", err)
	}
	if root, _ := filepath.Abs(e.ds.Root()); root == out {
		return Report{}, services.Wrap(services.ErrValidation, "export", "run", "output directory must differ from the dataset root", nil)
	}
	started := time.Now()
	logger := logging.WithContext(ctx, e.logger)

	if err := e.writeMeta(out); err != nil {
		return Report{}, err
	}

	var all map[int]annotations.Episode
	if e.source != nil {
		all = e.source.All()
	}
	labels := BuildLabels(all)
	report := Report{
		OutputDir:      out,
		Database:       filepath.Join(out, DatabaseFile),
		Subtasks:       labels.Subtasks.Len(),
		TasksHighLevel: labels.Tasks.Len(),
	}

	db, err := openSink(ctx, report.Database)
	if err != nil {
		return report, err
	}
	defer db.Close()
	if err := db.writeLabels(ctx, labels); err != nil {
		return report, err
	}
	if report.QALabels, err = db.writeQALabels(ctx, all, e.ds.FPS()); err != nil {
		return report, err
	}

	partitions, err := e.ds.Partitions()
	if err != nil {
		return report, err
	}
	for i, part := range partitions {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rows := projectPartition(part, all, e.ds.FPS(), labels)
		if err := db.writePartition(ctx, part.Name(), rows); err != nil {
			return report, err
		}
		report.Partitions++
		report.Samples += len(rows)
		logger.Debug("partition exported",
			logging.String("partition", part.Name()),
			logging.Int("samples", len(rows)),
		)
		if e.progress != nil {
			e.progress(i+1, len(partitions))
		}
	}

	if e.linkVideos {
		e.linkVideoDir(logger, out)
	}
	logger.Info("export finished",
		logging.String("output_dir", out),
		logging.Int("partitions", report.Partitions),
		logging.Int("samples", report.Samples),
		logging.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

// projectPartition walks the partition's samples one episode run at a time.
func projectPartition(part dataset.Partition, all map[int]annotations.Episode, fps float64, labels Labels) []sampleRow {
	rows := make([]sampleRow, 0, len(part.Samples))
	for start := 0; start < len(part.Samples); {
		ep := part.Samples[start].EpisodeIndex
		end := start
		for end < len(part.Samples) && part.Samples[end].EpisodeIndex == ep {
			end++
		}
		samples := part.Samples[start:end]
		timestamps := make([]float64, len(samples))
		for i, s := range samples {
			timestamps[i] = s.Timestamp
		}
		cols := Project(all[ep], timestamps, fps, labels)
		for i, s := range samples {
			rows = append(rows, sampleRow{
				rowIndex:     s.Index,
				episodeIndex: s.EpisodeIndex,
				frameIndex:   s.FrameIndex,
				timestamp:    s.Timestamp,
				subtask:      cols.SubtaskIndex[i],
				task:         cols.TaskIndexHighLevel[i],
				vqa:          cols.VQA[i],
			})
		}
		start = end
	}
	return rows
}

var exportFeatures = map[string]dataset.Feature{
	"subtask_index":         {DType: "int64", Shape: []int{1}},
	"task_index_high_level": {DType: "int64", Shape: []int{1}},
	"vqa":                   {DType: "int64", Shape: []int{1}},
}

// writeMeta copies the source meta directory and rewrites info.json.
func (e *Exporter) writeMeta(out string) error {
	srcMeta := filepath.Join(e.ds.Root(), "meta")
	dstMeta := filepath.Join(out, "meta")
	err := filepath.WalkDir(srcMeta, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcMeta, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(dstMeta, rel), 0o755)
		}
		if rel == "info.json" || !d.Type().IsRegular() {
			return nil
		}
		return fileutil.CopyFile(path, filepath.Join(dstMeta, rel))
	})
	if err != nil {
		return fmt.Errorf("copy meta: %w", err)
	}
	info, err := e.ds.Info().WithFeatures(exportFeatures)
	if err != nil {
		return fmt.Errorf("encode info: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dstMeta, "info.json"), info, 0o644); err != nil {
		return fmt.Errorf("write info: %w", err)
	}
	return nil
}

func (e *Exporter) linkVideoDir(logger *slog.Logger, out string) {
	src := filepath.Join(e.ds.Root(), "videos")
	dst := filepath.Join(out, "videos")
	if _, err := os.Stat(src); err != nil {
		return
	}
	if _, err := os.Lstat(dst); err == nil {
		return
	} else if !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(logger, "cannot inspect output videos directory", "export_videos",
			logging.String("path", dst),
			logging.Error(err),
		)
		return
	}
	if err := os.Symlink(src, dst); err != nil {
		logging.WarnWithContext(logger, "failed to link videos", "export_videos",
			logging.String("path", dst),
			logging.String(logging.FieldImpact, "exported dataset has no videos directory"),
			logging.Error(err),
		)
	}
}
