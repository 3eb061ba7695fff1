package buildctx

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEntries extracts all archive entries into a name→content map.
func readEntries(t *testing.T, r io.Reader) map[string]string {
	t.Helper()
	entries := make(map[string]string)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = string(data)
	}
	return entries
}

// writeTree creates a file, making parent directories as needed.
func writeTree(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// TestArchive_InjectsDockerfile verifies that the generated Dockerfile
// is the first archive entry and shadows any on-disk Dockerfile.
func TestArchive_InjectsDockerfile(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "app.py", "print('hi')")
	writeTree(t, dir, "Dockerfile", "FROM scratch # stale on-disk file")

	r, err := Archive(dir, []byte("FROM python:3.10-slim\n"), nil)
	require.NoError(t, err)

	entries := readEntries(t, r)
	assert.Equal(t, "FROM python:3.10-slim\n", entries["Dockerfile"],
		"injected Dockerfile must shadow the on-disk one")
	assert.Equal(t, "print('hi')", entries["app.py"])
}

// TestArchive_DefaultExcludes verifies that .git and mlship.json never
// enter the build context.
func TestArchive_DefaultExcludes(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "app.py", "x")
	writeTree(t, dir, "mlship.json", `{"name":"svc"}`)
	writeTree(t, dir, ".git/HEAD", "ref: refs/heads/main")
	writeTree(t, dir, ".git/objects/aa/bb", "blob")

	r, err := Archive(dir, []byte("FROM x\n"), nil)
	require.NoError(t, err)

	entries := readEntries(t, r)
	assert.Contains(t, entries, "app.py")
	assert.NotContains(t, entries, "mlship.json")
	for name := range entries {
		assert.NotContains(t, name, ".git", "no .git content may be archived, got %s", name)
	}
}

// TestArchive_ManifestIgnore verifies manifest-supplied patterns,
// including basename matching of slash-free globs in subdirectories.
func TestArchive_ManifestIgnore(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "app.py", "x")
	writeTree(t, dir, "cache/model.tmp", "x")
	writeTree(t, dir, "pkg/mod.pyc", "x")

	r, err := Archive(dir, []byte("FROM x\n"), []string{"cache", "*.pyc"})
	require.NoError(t, err)

	entries := readEntries(t, r)
	assert.Contains(t, entries, "app.py")
	assert.NotContains(t, entries, "cache/model.tmp")
	assert.NotContains(t, entries, "pkg/mod.pyc")
}

// TestArchive_PreservesSubdirectories verifies nested files keep their
// relative paths, which the COPY . . instruction depends on.
func TestArchive_PreservesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "risk_models/retail_kmeans.json", "{}")

	r, err := Archive(dir, []byte("FROM x\n"), nil)
	require.NoError(t, err)

	entries := readEntries(t, r)
	assert.Contains(t, entries, "risk_models/")
	assert.Equal(t, "{}", entries["risk_models/retail_kmeans.json"])
}

// TestExcluded covers the pattern-matching rules in isolation.
func TestExcluded(t *testing.T) {
	patterns := []string{".git", "*.pyc", "build/", "docs/*.md"}

	assert.True(t, Excluded(".git", patterns))
	assert.True(t, Excluded(".git/config", patterns))
	assert.True(t, Excluded("a/b/c.pyc", patterns))
	assert.True(t, Excluded("build/out.bin", patterns))
	assert.True(t, Excluded("docs/readme.md", patterns))

	assert.False(t, Excluded("app.py", patterns))
	assert.False(t, Excluded("docs/sub/readme.md", patterns), "single * must not cross separators")
	assert.False(t, Excluded("builds/out.bin", patterns), "prefix match requires a full segment")
}
