package jsonfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, ImagesDirName, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestFindOrphanImages(t *testing.T) {
	store, dir := newTestStore(t)
	now := time.Now()
	old := now.Add(-2 * time.Hour)

	msg, err := store.AppendImage("alice", "", "kept.png", []byte("png"))
	require.NoError(t, err)
	kept := filepath.Join(dir, ImagesDirName, ImageNameFromURL(msg.ImageURL))
	require.NoError(t, os.Chtimes(kept, old, old))

	writeImage(t, dir, "1-orphan.png", old)
	writeImage(t, dir, "nested/2-orphan.jpg", old)
	writeImage(t, dir, "3-fresh.png", now)

	orphans, err := FindOrphanImages(dir, time.Hour, now)
	require.NoError(t, err)

	names := make([]string, 0, len(orphans))
	for _, o := range orphans {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"1-orphan.png", "nested/2-orphan.jpg"}, names)
	assert.Equal(t, int64(3), orphans[0].Size)
	assert.Equal(t, filepath.Join(dir, ImagesDirName, "1-orphan.png"), orphans[0].Path)
}

func TestFindOrphanImages_ZeroMinAge(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeImage(t, dir, "1-orphan.png", now.Add(-time.Second))

	orphans, err := FindOrphanImages(dir, 0, now)
	require.NoError(t, err)
	assert.Len(t, orphans, 1)
}

func TestFindOrphanImages_MissingDirectories(t *testing.T) {
	orphans, err := FindOrphanImages(filepath.Join(t.TempDir(), "missing"), 0, time.Now())
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestFindOrphanImages_MalformedLog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MessagesFileName), []byte("{not json"), 0o644))
	writeImage(t, dir, "1-orphan.png", time.Now().Add(-time.Hour))

	_, err := FindOrphanImages(dir, 0, time.Now())
	assert.Error(t, err)
}

func TestRemoveOrphanImages(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-time.Hour)
	first := writeImage(t, dir, "1-a.png", old)
	second := writeImage(t, dir, "2-b.png", old)

	orphans, err := FindOrphanImages(dir, 0, time.Now())
	require.NoError(t, err)
	require.Len(t, orphans, 2)

	// Already gone counts as removed.
	require.NoError(t, os.Remove(second))

	removed, err := RemoveOrphanImages(orphans)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.NoFileExists(t, first)

	orphans, err = FindOrphanImages(dir, 0, time.Now())
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestReadMessages(t *testing.T) {
	store, dir := newTestStore(t)
	_, err := store.AppendText("alice", "hello")
	require.NoError(t, err)

	messages, err := ReadMessages(filepath.Join(dir, MessagesFileName))
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Text)

	messages, err = ReadMessages(filepath.Join(t.TempDir(), MessagesFileName))
	require.NoError(t, err)
	assert.Empty(t, messages)
}
