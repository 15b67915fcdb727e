// Package report renders a download run in the terminal.
//
// Large batches get a progress bar; small ones get one coloured line per
// pipeline step:
//
//	2023-05-01  #3    42.0%  [image]
//
// Fatal errors are printed in a bordered block and, unless disabled, raised
// as a desktop notification before the process exits.
package report
