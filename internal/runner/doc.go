// Package runner executes sweep tasks as child processes.
//
// Every task invokes the simulation executable with `key=value` arguments: an
// `output_dir=<dir>` token first, then one token per parameter in declaration
// order. RunTask serves scheduler array jobs, looking its assignment up in a
// params.json manifest by 1-based task id. RunSerial runs a whole sweep on the
// local machine with 0-based output directories, one task after another
// unless more workers are requested.
package runner
