package node

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.Nil(t, err)
	tw := tar.NewWriter(zw)
	for name, content := range files {
		require.Nil(t, tw.WriteHeader(&tar.Header{
			Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.Nil(t, err)
	}
	require.Nil(t, tw.Close())
	require.Nil(t, zw.Close())
	p := filepath.Join(t.TempDir(), "shard0.tar.zst")
	require.Nil(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func TestFetchUnpacksArchive(t *testing.T) {
	archive := writeArchive(t, map[string]string{"docs.json": `[{"content":"a"}]`})
	f := newFetcher(t.TempDir(), 0, S3Config{})
	dir, err := f.Fetch(context.Background(), "shard0", archive)
	require.Nil(t, err)
	got, err := os.ReadFile(filepath.Join(dir, "docs.json"))
	require.Nil(t, err)
	assert.Equal(t, `[{"content":"a"}]`, string(got))
}

func TestFetchCopiesDirectory(t *testing.T) {
	src := t.TempDir()
	require.Nil(t, os.WriteFile(filepath.Join(src, "docs.json"), []byte("[]"), 0o644))
	f := newFetcher(t.TempDir(), 1<<20, S3Config{})
	dir, err := f.Fetch(context.Background(), "shard1", src)
	require.Nil(t, err)
	_, err = os.Stat(filepath.Join(dir, "docs.json"))
	assert.Nil(t, err)
}

func TestFetchReplacesLeftovers(t *testing.T) {
	work := t.TempDir()
	stale := filepath.Join(work, "shard0", "stale.bin")
	require.Nil(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.Nil(t, os.WriteFile(stale, []byte("x"), 0o644))

	archive := writeArchive(t, map[string]string{"docs.json": "[]"})
	f := newFetcher(work, 0, S3Config{})
	dir, err := f.Fetch(context.Background(), "shard0", archive)
	require.Nil(t, err)
	_, err = os.Stat(filepath.Join(dir, "stale.bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestFetchRejectsEscapingArchive(t *testing.T) {
	archive := writeArchive(t, map[string]string{"../evil": "x"})
	f := newFetcher(t.TempDir(), 0, S3Config{})
	_, err := f.Fetch(context.Background(), "shard0", archive)
	assert.NotNil(t, err)
}

func TestFetchUnknownSource(t *testing.T) {
	f := newFetcher(t.TempDir(), 0, S3Config{})
	_, err := f.Fetch(context.Background(), "shard0", filepath.Join(t.TempDir(), "nope"))
	assert.NotNil(t, err)
}
