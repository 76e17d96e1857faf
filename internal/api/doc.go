// Package api hosts the HTTP server, middleware, and REST handlers for
// operator access. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /api/venues/{id}/scrape[/async] and /api/venues/scrape-all[/async]
//     to trigger scrapes.
//   - GET /api/venues/{id}/progress and /runs for live and persisted progress.
//   - GET/POST/DELETE /api/venues for venue management.
//   - GET /api/concerts for filtered concert listings.
package api
