package export

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	_ "modernc.org/sqlite"

	"annotator/internal/annotations"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is recorded in every exported database.
const schemaVersion = 1

type sampleRow struct {
	rowIndex     int
	episodeIndex int
	frameIndex   int
	timestamp    float64
	subtask      int
	task         int
	vqa          int
}

// sink is a freshly created export database.
type sink struct {
	db   *sql.DB
	path string
}

func openSink(ctx context.Context, path string) (*sink, error) {
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove previous export %s: %w", path+suffix, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	s := &sink{db: db, path: path}
	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sink) createSchema(ctx context.Context) error {
	return s.inTx(ctx, "schema", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	})
}

func (s *sink) inTx(ctx context.Context, what string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s tx: %w", what, err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", what, err)
	}
	return nil
}

func (s *sink) writeLabels(ctx context.Context, labels Labels) error {
	return s.inTx(ctx, "labels", func(tx *sql.Tx) error {
		for idx, label := range labels.Subtasks.Labels() {
			if _, err := tx.ExecContext(ctx, "INSERT INTO subtasks (subtask_index, subtask) VALUES (?, ?)", idx, label); err != nil {
				return fmt.Errorf("insert subtask %q: %w", label, err)
			}
		}
		for idx, hl := range labels.TaskRecords {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO tasks_high_level (
                    task_index, task, user_prompt, robot_utterance, skill, scenario_type, response_type
                ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				idx,
				hl.UserPrompt+" | "+hl.RobotUtterance,
				hl.UserPrompt,
				hl.RobotUtterance,
				hl.Skill,
				hl.ScenarioType,
				hl.ResponseType,
			)
			if err != nil {
				return fmt.Errorf("insert task %d: %w", idx, err)
			}
		}
		return nil
	})
}

func (s *sink) writeQALabels(ctx context.Context, all map[int]annotations.Episode, fps float64) (int, error) {
	if fps <= 0 {
		fps = defaultFPS
	}
	count := 0
	err := s.inTx(ctx, "qa labels", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO qa_labels (episode_index, frame_idx, timestamp, type, question, answer) VALUES (?, ?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare qa insert: %w", err)
		}
		defer stmt.Close()
		for _, ep := range sortedEpisodes(all) {
			for _, qa := range all[ep].QALabels {
				ts := math.Round(float64(qa.FrameIdx)/fps*1e6) / 1e6
				if _, err := stmt.ExecContext(ctx, ep, qa.FrameIdx, ts, qa.Type, qa.Question, qa.Answer); err != nil {
					return fmt.Errorf("insert qa label for episode %d: %w", ep, err)
				}
				count++
			}
		}
		return nil
	})
	return count, err
}

// writePartition stores one partition's rows in a single transaction.
func (s *sink) writePartition(ctx context.Context, partition string, rows []sampleRow) error {
	return s.inTx(ctx, "partition "+partition, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO samples (
                partition_name, row_index, episode_index, frame_index, timestamp,
                subtask_index, task_index_high_level, vqa
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare sample insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, partition, r.rowIndex, r.episodeIndex, r.frameIndex, r.timestamp, r.subtask, r.task, r.vqa); err != nil {
				return fmt.Errorf("insert sample %d: %w", r.rowIndex, err)
			}
		}
		return nil
	})
}
