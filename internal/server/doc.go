// Package server provides the HTTP server for the Starfield star map.
//
// This package is internal to Starfield and handles all HTTP concerns:
//
//   - Page serving: Serves the embedded HTML page at "/" and "/login"
//   - REST API: JSON endpoints under "/stars" for viewport queries and mutations
//   - Server-Sent Events: Viewport-filtered live updates at "/stars/stream"
//   - WebSocket: The same updates as text messages at "/stars/ws"
//   - Operations: "/healthz" and Prometheus metrics at "/metrics"
//
// Every stream connection holds its own store subscription, so each client
// sees every update inside its viewport regardless of how many clients are
// connected.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
