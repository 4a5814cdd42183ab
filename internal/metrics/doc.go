// Package metrics provides build metrics for texdoc.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks at call sites:
//
//	doc := document.New(cfg, document.WithRecorder(metrics.NoopRecorder{}))
//
// PrometheusRecorder forwards to client_golang collectors registered on a
// caller-supplied registry; HTTPHandler exposes that registry for scraping
// (used by `texdoc watch --metrics-addr`).
package metrics
