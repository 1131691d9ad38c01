package dataset

import (
	"sync"

	"annotator/internal/services"
)

// Manager holds the one dataset loaded at a time.
type Manager struct {
	mu      sync.RWMutex
	current *Dataset
	opts    []Option
}

// NewManager constructs an empty manager; opts apply to every Load.
func NewManager(opts ...Option) *Manager {
	return &Manager{opts: opts}
}

// Load opens root and replaces the current dataset on success.
func (m *Manager) Load(root string) (*Dataset, error) {
	d, err := Open(root, m.opts...)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.current = d
	m.mu.Unlock()
	return d, nil
}

// Current returns the loaded dataset or ErrDatasetNotLoaded.
func (m *Manager) Current() (*Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, services.Wrap(services.ErrDatasetNotLoaded, "dataset", "current", "no dataset loaded", nil)
	}
	return m.current, nil
}

// Timing resolves against the current dataset.
func (m *Manager) Timing(episode int, videoKey string) (EpisodeTiming, error) {
	d, err := m.Current()
	if err != nil {
		return EpisodeTiming{}, err
	}
	return d.Timing(episode, videoKey)
}

// VideoPath resolves against the current dataset.
func (m *Manager) VideoPath(episode int, videoKey string) (string, error) {
	d, err := m.Current()
	if err != nil {
		return "", err
	}
	return d.VideoPath(episode, videoKey)
}
