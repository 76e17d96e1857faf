// Package sinks implements concrete progress consumers: structured logging,
// Prometheus metrics and scrape-run persistence. Each sink satisfies the
// progress.Sink interface and is safe for repeated Consume/Close cycles.
package sinks
