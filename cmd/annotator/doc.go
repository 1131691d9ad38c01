// Command annotator labels robot demonstration datasets with windowed model
// output and exports the result.
//
// Every command that touches a dataset resolves it from --dataset or the
// configured dataset.root. Generation commands call the configured
// chat-completions endpoint and extract frames and clips with ffmpeg into a
// content-addressed cache. Pass --json for machine-readable output.
package main
