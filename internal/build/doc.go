// Package build provides the canonical execution pipeline for texdoc jobs.
//
// The service turns a loaded job into a document configuration and body,
// decides whether an unchanged job can be skipped, runs the document
// lifecycle and records the outcome in the history ledger, the notifier and
// the metrics recorder. The CLI and the watch daemon both route through
// Service.
package build
