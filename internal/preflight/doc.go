// Package preflight provides readiness checks for the binaries, directories
// and inference endpoint the annotator depends on.
//
// The doctor command runs RunAll and renders each Result; generation commands
// run CheckDirectoryAccess on the cache directory before starting a long run.
package preflight
