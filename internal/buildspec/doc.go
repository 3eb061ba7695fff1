// Package buildspec handles parsing, validation, and Dockerfile
// generation for mlship.json deployment manifests.
//
// Manifests support JSONC (JSON with Comments), so this package uses
// github.com/tidwall/jsonc to strip comments before parsing with the
// standard encoding/json library.
//
// Key responsibilities:
//   - Load and parse mlship.json (with JSONC support)
//   - Apply the default build plan (python:3.10-slim base, gcc/g++
//     toolchain, requirements.txt, gunicorn entrypoint on port 10000)
//   - Validate the resulting plan
//   - Generate the Dockerfile consumed by the image builder
package buildspec
