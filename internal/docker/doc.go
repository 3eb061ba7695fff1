// Package docker provides Docker Engine API wrappers for building
// inference-service images and managing their containers.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Image builds streamed through the daemon's build API, with the
//     JSON progress stream decoded and error frames surfaced as
//     build failures (nothing is tagged on failure)
//   - Container label management for persisting deployment metadata
//     (Docker labels are the sole state storage mechanism)
//   - Container lifecycle operations: run, list, start, stop, remove
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
