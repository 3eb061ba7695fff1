// Package model defines the domain types for the mlship CLI:
// deployments, port bindings, and the CLIError type that carries
// process exit codes.
//
// All deployment state is persisted via Docker container labels, so
// these types are transient representations reconstructed from Docker
// API queries at runtime.
package model
