package annotations

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"annotator/internal/fileutil"
	"annotator/internal/logging"
	"annotator/internal/services"
)

const legacySkillsFile = "skills.json"

// Option customizes a Store.
type Option func(*Store)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "annotations")
	}
}

// Store is the in-memory annotation document with load-all/save-all
// persistence.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger

	// mu also spans Save so a merge never races a concurrent PutMany.
	mu       sync.RWMutex
	episodes map[int]Episode
	// dirty holds episodes changed by this Store since its last save.
	dirty map[int]struct{}

	heldMu sync.Mutex
	held   map[int]struct{}
}

// Open loads the document at path. A missing document falls back to the
// legacy skills file next to it, and to an empty store after that.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:     path,
		lock:     flock.New(path + ".lock"),
		logger:   logging.NewComponentLogger(nil, "annotations"),
		episodes: make(map[int]Episode),
		dirty:    make(map[int]struct{}),
		held:     make(map[int]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		episodes, err := decodeDocument(data, s.logger)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "annotations", "load", filepath.Base(path), err)
		}
		s.episodes = episodes
	case errors.Is(err, fs.ErrNotExist):
		if err := s.loadLegacySkills(); err != nil {
			return nil, err
		}
	default:
		return nil, services.Wrap(services.ErrConfiguration, "annotations", "load", filepath.Base(path), err)
	}
	s.logger.Debug("annotations loaded", logging.String("path", path), logging.Int("episodes", len(s.episodes)))
	return s, nil
}

func (s *Store) loadLegacySkills() error {
	skillsPath := filepath.Join(filepath.Dir(s.path), legacySkillsFile)
	data, err := os.ReadFile(skillsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "annotations", "load skills", skillsPath, err)
	}
	episodes, err := decodeSkills(data)
	if err != nil {
		return services.Wrap(services.ErrValidation, "annotations", "load skills", skillsPath, err)
	}
	s.episodes = episodes
	s.logger.Info("seeded subtasks from legacy skills file",
		logging.String("path", skillsPath),
		logging.Int("episodes", len(episodes)),
		logging.String(logging.FieldEventType, "skills_fallback"),
	)
	return nil
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// Get returns a copy of an episode's annotations; unknown episodes are empty.
func (s *Store) Get(episode int) Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.episodes[episode].Clone()
}

// All returns a copy of every episode's annotations.
func (s *Store) All() map[int]Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]Episode, len(s.episodes))
	for idx, ep := range s.episodes {
		out[idx] = ep.Clone()
	}
	return out
}

// Episodes lists annotated episode indexes in ascending order.
func (s *Store) Episodes() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIndexes(s.episodes)
}

// Put replaces an episode's annotations and saves the whole document.
func (s *Store) Put(episode int, ann Episode) error {
	return s.PutMany(map[int]Episode{episode: ann})
}

// PutMany replaces several episodes and saves once.
func (s *Store) PutMany(updates map[int]Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx, ann := range updates {
		s.episodes[idx] = ann.Clone()
		s.dirty[idx] = struct{}{}
	}
	return s.saveLocked()
}

// Acquire reserves an episode for one writer. The returned release func is
// idempotent.
func (s *Store) Acquire(episode int) (func(), error) {
	s.heldMu.Lock()
	defer s.heldMu.Unlock()
	if _, busy := s.held[episode]; busy {
		return nil, services.Wrap(services.ErrBusy, "annotations", "acquire", fmt.Sprintf("episode %d already has a run in progress", episode), nil)
	}
	s.held[episode] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			s.heldMu.Lock()
			delete(s.held, episode)
			s.heldMu.Unlock()
		})
	}, nil
}

// Save writes the document under the cross-process lock. Episodes written by
// other processes since Open are kept; only episodes changed through this
// Store replace their on-disk counterparts.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "annotations", "save", "create directory", err)
	}
	if err := s.lock.Lock(); err != nil {
		return services.Wrap(services.ErrConfiguration, "annotations", "save", "lock document", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release annotation lock", logging.Error(err))
		}
	}()

	merged, err := s.mergeOnDisk()
	if err != nil {
		return err
	}
	data, err := encodeDocument(merged)
	if err != nil {
		return services.Wrap(services.ErrValidation, "annotations", "save", "encode document", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "annotations", "save", filepath.Base(s.path), err)
	}
	s.episodes = merged
	clear(s.dirty)
	return nil
}

// mergeOnDisk overlays this Store's changed episodes on the current document.
// A missing document means the in-memory set (possibly seeded from the
// legacy skills file) is written as is.
func (s *Store) mergeOnDisk() (map[int]Episode, error) {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		merged := make(map[int]Episode, len(s.episodes))
		for idx, ep := range s.episodes {
			merged[idx] = ep
		}
		return merged, nil
	case err != nil:
		return nil, services.Wrap(services.ErrConfiguration, "annotations", "save", "reread "+filepath.Base(s.path), err)
	}
	merged, err := decodeDocument(data, s.logger)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "annotations", "save", "reread "+filepath.Base(s.path), err)
	}
	for idx := range s.dirty {
		merged[idx] = s.episodes[idx]
	}
	return merged, nil
}
