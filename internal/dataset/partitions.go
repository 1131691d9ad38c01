package dataset

import (
	"fmt"
	"sort"

	"annotator/internal/services"
)

// Sample is one row of the per-sample table.
type Sample struct {
	Index        int     `json:"index"`
	EpisodeIndex int     `json:"episode_index"`
	FrameIndex   int     `json:"frame_index"`
	Timestamp    float64 `json:"timestamp"`
}

// Partition is one physical sample-table file and the rows it holds.
type Partition struct {
	Chunk    int
	File     int
	Episodes []int
	Samples  []Sample
}

// Name identifies the partition the same way the data path template does.
func (p Partition) Name() string {
	return fmt.Sprintf("chunk-%03d/file-%03d", p.Chunk, p.File)
}

type partitionKey struct{ chunk, file int }

// Partitions groups samples by their data file. Episodes without data file
// columns fall back to one file per episode inside its episode chunk.
// Timestamps are derived from frame_index/fps.
func (d *Dataset) Partitions() ([]Partition, error) {
	if d == nil {
		return nil, services.Wrap(services.ErrDatasetNotLoaded, "dataset", "partitions", "no dataset loaded", nil)
	}
	fps := d.FPS()
	groups := make(map[partitionKey]*Partition)
	var order []partitionKey
	for _, ep := range d.episodes {
		chunk, okChunk := ep.Int("data/chunk_index")
		file, okFile := ep.Int("data/file_index")
		if !okChunk || !okFile {
			chunk = ep.Index / d.info.ChunksSize
			file = ep.Index
		}
		key := partitionKey{chunk, file}
		part, ok := groups[key]
		if !ok {
			part = &Partition{Chunk: chunk, File: file}
			groups[key] = part
			order = append(order, key)
		}
		part.Episodes = append(part.Episodes, ep.Index)
		base := 0
		if from, ok := ep.Int("dataset_from_index"); ok {
			base = from
		}
		for frame := 0; frame < ep.Length(); frame++ {
			part.Samples = append(part.Samples, Sample{
				Index:        base + frame,
				EpisodeIndex: ep.Index,
				FrameIndex:   frame,
				Timestamp:    float64(frame) / fps,
			})
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].chunk != order[j].chunk {
			return order[i].chunk < order[j].chunk
		}
		return order[i].file < order[j].file
	})
	out := make([]Partition, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out, nil
}
