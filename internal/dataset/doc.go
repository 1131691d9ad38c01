// Package dataset reads the metadata of a LeRobot-style robot demonstration
// dataset and resolves episode timelines onto the physical video files that
// back them.
//
// A dataset root holds meta/info.json (fps, features, path templates) and
// meta/episodes.jsonl (one row per episode). Episodes recorded into a shared,
// concatenated video carry videos/<key>/from_timestamp and to_timestamp
// columns; Timing uses them verbatim and falls back to 0..duration per
// episode when either is missing.
//
// Manager holds the single dataset loaded by the CLI. Every lookup made
// before Load fails with services.ErrDatasetNotLoaded.
package dataset
