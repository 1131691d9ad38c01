// Package annotations owns the per-episode annotation state: subtask
// segments, high-level prompt/utterance segments and frame-anchored QA labels.
//
// The whole document is loaded once when a dataset is opened and rewritten in
// full on every save (temp file, rename) while holding an flock on
// "<document>.lock", so two annotator processes never interleave writes.
// Within a process, Acquire hands out at most one writer per episode; a
// second generation run on the same episode fails fast with services.ErrBusy.
//
// Records without a time span (or a frame index, for QA labels) are dropped
// at load with a warning. When the document does not exist yet, a legacy
// meta/skills.json seeds the subtask lists.
package annotations
