package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/chatbox/internal/store/jsonfile"
)

func writeOldImage(t *testing.T, dataDir, name string) string {
	t.Helper()
	path := filepath.Join(dataDir, jsonfile.ImagesDirName, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
	return path
}

// setupStore creates a data dir holding one referenced image.
func setupStore(t *testing.T) (string, string) {
	t.Helper()
	dataDir := t.TempDir()

	store := jsonfile.NewChatStore(dataDir)
	require.NoError(t, store.Load())

	msg, err := store.AppendImage("alice", "", "a.png", []byte("png"))
	require.NoError(t, err)

	kept := filepath.Join(dataDir, jsonfile.ImagesDirName, jsonfile.ImageNameFromURL(msg.ImageURL))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(kept, old, old))

	return dataDir, kept
}

func TestOrphanCheck_NoOrphans(t *testing.T) {
	dataDir, _ := setupStore(t)

	check := NewOrphanCheck(dataDir, time.Hour, false)
	result := check.Run(context.Background())

	assert.Equal(t, "Orphan Images", result.Name)
	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, "No orphans", result.Items[0].Label)
}

func TestOrphanCheck_WithOrphans(t *testing.T) {
	dataDir, kept := setupStore(t)
	orphan := writeOldImage(t, dataDir, "99-orphan.png")

	check := NewOrphanCheck(dataDir, time.Hour, false)
	result := check.Run(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusWarn, result.Items[0].Status)
	assert.Equal(t, "99-orphan.png", result.Items[0].Label)
	assert.True(t, result.Items[0].Fixable)

	// Report only; nothing deleted.
	assert.FileExists(t, orphan)
	assert.FileExists(t, kept)
}

func TestOrphanCheck_Fix(t *testing.T) {
	dataDir, kept := setupStore(t)
	orphan := writeOldImage(t, dataDir, "99-orphan.png")

	check := NewOrphanCheck(dataDir, time.Hour, true)
	result := check.Run(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, "deleted orphaned image", result.Items[0].Detail)

	assert.NoFileExists(t, orphan)
	assert.FileExists(t, kept)
}

func TestOrphanCheck_GracePeriod(t *testing.T) {
	dataDir, _ := setupStore(t)
	fresh := filepath.Join(dataDir, jsonfile.ImagesDirName, "100-fresh.png")
	require.NoError(t, os.WriteFile(fresh, []byte("img"), 0o644))

	check := NewOrphanCheck(dataDir, time.Hour, true)
	result := check.Run(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, "No orphans", result.Items[0].Label)
	assert.FileExists(t, fresh)
}

func TestOrphanCheck_MalformedLog(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, jsonfile.MessagesFileName), []byte("{"), 0o644))

	result := NewOrphanCheck(dataDir, 0, false).Run(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusFail, result.Items[0].Status)
	assert.Equal(t, "Scan images", result.Items[0].Label)
}
