// Package export projects interval annotations onto per-sample index columns
// and writes an augmented copy of the dataset.
//
// Assign and AssignPoints are pure; Project combines them for one episode.
// Exporter walks the loaded dataset's sample partitions one at a time and
// stores the projected columns, together with the label lookup tables, in a
// SQLite database next to a rewritten meta/info.json.
package export
