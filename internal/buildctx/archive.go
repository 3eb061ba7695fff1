package buildctx

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// dockerfileName is the archive entry the injected Dockerfile is written
// under. The image builder points the daemon at this entry.
const dockerfileName = "Dockerfile"

// defaultExcludes are always excluded from the build context.
// The manifest itself is deployment metadata, not application source,
// and .git can be enormous while contributing nothing to the image.
var defaultExcludes = []string{
	".git",
	"mlship.json",
}

// Archive builds the tar archive for one image build.
//
// contextDir is the application directory. dockerfile is the generated
// Dockerfile content, injected as the "Dockerfile" entry regardless of
// what exists on disk. extraExcludes come from the manifest's ignore
// list and are matched the same way as the built-in defaults.
//
// The entire archive is assembled in memory. Inference-service contexts
// are small (source files plus model artifacts); if that assumption
// stops holding, this is the place to switch to an io.Pipe.
func Archive(contextDir string, dockerfile []byte, extraExcludes []string) (io.Reader, error) {
	excludes := append(append([]string(nil), defaultExcludes...), extraExcludes...)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	// The injected Dockerfile goes in first. A fixed ModTime keeps the
	// archive bytes stable across runs, which helps the daemon's build
	// cache when nothing else changed.
	if err := tw.WriteHeader(&tar.Header{
		Name:    dockerfileName,
		Mode:    0o644,
		Size:    int64(len(dockerfile)),
		ModTime: time.Unix(0, 0),
	}); err != nil {
		return nil, fmt.Errorf("failed to write Dockerfile header: %w", err)
	}
	if _, err := tw.Write(dockerfile); err != nil {
		return nil, fmt.Errorf("failed to write Dockerfile content: %w", err)
	}

	err := filepath.WalkDir(contextDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(contextDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if Excluded(rel, excludes) {
			if d.IsDir() {
				// Skip the whole subtree, not just the directory entry.
				return filepath.SkipDir
			}
			return nil
		}

		// The on-disk Dockerfile (if any) is shadowed by the injected one.
		if rel == dockerfileName {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		// Symlinks are archived as links, never followed — following
		// them could pull files from outside the context directory.
		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = rel
		if d.IsDir() {
			hdr.Name += "/"
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()

		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("failed to archive %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assemble build context from %s: %w", contextDir, err)
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize build context: %w", err)
	}

	return &buf, nil
}

// Excluded reports whether a slash-separated context-relative path
// matches any of the exclusion patterns.
//
// Matching follows the common .dockerignore subset: a pattern matches
// the path itself (path.Match semantics per segment via filepath.Match
// on the whole string), any parent directory of the path, or — when the
// pattern has no slash — the path's base name. That last rule is what
// makes "*.pyc" exclude compiled files in subdirectories too.
func Excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(filepath.ToSlash(pattern), "/")
		if pattern == "" {
			continue
		}

		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}

		// A directory pattern excludes everything beneath it.
		if strings.HasPrefix(rel, pattern+"/") {
			return true
		}

		// Basename match for slash-free patterns like "*.pyc".
		if !strings.Contains(pattern, "/") {
			if ok, _ := filepath.Match(pattern, filepath.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}
