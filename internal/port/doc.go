// Package port implements host port availability scanning, replica-band
// port allocation, and TCP readiness probing for launched deployments.
//
// Replica 0 publishes the service port unchanged; each further replica
// is shifted into its own 10000-port band (hostPort = containerPort +
// replica*10000), with dynamic-range fallback when the band is exhausted
// or overflows the 16-bit port space.
package port
