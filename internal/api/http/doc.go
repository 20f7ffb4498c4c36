// Package http exposes the tracker over HTTP.
//
// Routes:
//   - GET  /health
//   - GET  /metrics (Prometheus) and /api/metrics (JSON snapshot)
//   - GET  /api/entries, /api/entries/:id, /api/state
//   - POST /api/kill, /api/entries/:id/{activate,close,consume-urgency}
//   - GET  /ws (notification stream)
package http
