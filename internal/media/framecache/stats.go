package framecache

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Stats summarizes the cache directory.
type Stats struct {
	Dir        string `json:"dir"`
	Frames     int    `json:"frames"`
	Clips      int    `json:"clips"`
	Bytes      int64  `json:"bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
	TotalBytes uint64 `json:"total_bytes"`
}

// Stats counts cache entries and reports free space on the backing volume.
func (c *Cache) Stats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return stats, err
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasPrefix(name, framePrefix):
			stats.Frames++
		case strings.HasPrefix(name, clipPrefix):
			stats.Clips++
		default:
			continue
		}
		if info, err := entry.Info(); err == nil {
			stats.Bytes += info.Size()
		}
	}

	var fs unix.Statfs_t
	if err := unix.Statfs(c.dir, &fs); err == nil {
		stats.FreeBytes = fs.Bavail * uint64(fs.Bsize)
		stats.TotalBytes = fs.Blocks * uint64(fs.Bsize)
	}
	return stats, nil
}
