package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

// Episode is one row of the episode metadata table. Columns are kept as a
// loose mapping because their set varies between dataset versions and video
// streams.
type Episode struct {
	Index   int
	Columns map[string]any
}

// Float returns a numeric column value; null and missing columns report false.
func (e Episode) Float(column string) (float64, bool) {
	switch v := e.Columns[column].(type) {
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return v, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int returns an integer column value; null and missing columns report false.
func (e Episode) Int(column string) (int, bool) {
	f, ok := e.Float(column)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

// Length is the frame count, from the length column or the span between
// dataset_from_index and dataset_to_index.
func (e Episode) Length() int {
	if n, ok := e.Int("length"); ok && n >= 0 {
		return n
	}
	from, okFrom := e.Int("dataset_from_index")
	to, okTo := e.Int("dataset_to_index")
	if okFrom && okTo && to >= from {
		return to - from
	}
	return 0
}

// Tasks returns the task strings attached to the episode, if any.
func (e Episode) Tasks() []string {
	raw, ok := e.Columns["tasks"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func loadEpisodes(path string) ([]Episode, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var episodes []Episode
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var columns map[string]any
		if err := json.Unmarshal([]byte(text), &columns); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		ep := Episode{Columns: columns}
		idx, ok := ep.Int("episode_index")
		if !ok {
			return nil, fmt.Errorf("%s:%d: missing episode_index", path, line)
		}
		ep.Index = idx
		episodes = append(episodes, ep)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return episodes, nil
}
