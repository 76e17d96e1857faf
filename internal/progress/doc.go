// Package progress tracks venue scrape runs. A Tracker holds the latest
// snapshot per venue for polling clients, a Reporter feeds it during one run,
// and a non-blocking Hub batches the same milestones out to pluggable sinks
// such as logs, Prometheus metrics or the scrape_runs table.
package progress
