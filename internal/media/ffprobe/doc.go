// Package ffprobe decodes ffprobe JSON output for episode video files.
//
// The timing command uses it to compare the container duration and frame
// rate of a video file against the span the episode table claims, which is
// the quickest way to spot bad concatenation offsets.
package ffprobe
