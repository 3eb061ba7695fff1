// Package server implements the prediction HTTP API: routing,
// middleware (request logging, CORS, rate limiting, metrics), the
// prediction and health handlers, and graceful shutdown.
//
// Routes:
//
//	GET  /         liveness banner
//	POST /predict  classify text into a category and risk label
//	GET  /healthz  health status including the model directory
//	GET  /metrics  Prometheus exposition
package server
