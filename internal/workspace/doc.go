// Package workspace manages the private, ephemeral directories a document is
// written and compiled in.
//
// Each Manager owns exactly one directory for the lifetime of one document.
// The directory is created with a unique name under the base directory and is
// removed entirely by Cleanup, whatever it contains at that point.
package workspace
