// Package framecache extracts still frames and short re-encoded clips from
// episode videos with ffmpeg and memoizes them on disk.
//
// Entries are named by a SHA-1 of every input that affects the output (source
// path, time parameters, output size), so identical requests reuse the same
// file. An entry is valid when it exists and is non-empty. Writes land in a
// temporary file that is renamed into place, and concurrent misses on the same
// key share a single ffmpeg invocation. There is no eviction.
package framecache
