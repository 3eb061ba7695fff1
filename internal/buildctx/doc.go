// Package buildctx assembles the tar archive streamed to the Docker
// daemon as the build context.
//
// The archive contains the application directory minus the exclusion
// patterns (built-in defaults plus the manifest's ignore list), with the
// generated Dockerfile injected as an in-memory entry. The application
// directory itself is never modified — in particular, an existing
// on-disk Dockerfile is neither required nor overwritten; it is simply
// shadowed inside the archive.
package buildctx
