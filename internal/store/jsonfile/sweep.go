package jsonfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hay-kot/chatbox/internal/core/chat"
)

// OrphanImage is an image file no retained message refers to.
type OrphanImage struct {
	Name    string    `json:"name"` // slash-separated, relative to the images directory
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// FindOrphanImages lists files under <dataDir>/images that are not referenced
// by the message log and were last modified more than minAge before now.
// The grace period keeps files written by an in-flight append (image on disk,
// message not yet recorded) out of the result.
//
// It reads the log from disk rather than from a live store. A malformed log
// is an error.
func FindOrphanImages(dataDir string, minAge time.Duration, now time.Time) ([]OrphanImage, error) {
	referenced, err := referencedImages(filepath.Join(dataDir, MessagesFileName))
	if err != nil {
		return nil, err
	}

	imagesDir := filepath.Join(dataDir, ImagesDirName)
	if _, err := os.Stat(imagesDir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	fsys := os.DirFS(imagesDir)
	matches, err := doublestar.Glob(fsys, "**/*", doublestar.WithNoFollow())
	if err != nil {
		return nil, fmt.Errorf("glob images: %w", err)
	}

	cutoff := now.Add(-minAge)

	var orphans []OrphanImage
	for _, name := range matches {
		info, err := fs.Stat(fsys, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue // removed between glob and stat
			}
			return nil, fmt.Errorf("stat image %s: %w", name, err)
		}

		// Skip directories - the glob returns them alongside files
		if info.IsDir() {
			continue
		}

		if referenced[name] || info.ModTime().After(cutoff) {
			continue
		}

		orphans = append(orphans, OrphanImage{
			Name:    name,
			Path:    filepath.Join(imagesDir, filepath.FromSlash(name)),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].Name < orphans[j].Name
	})

	return orphans, nil
}

// RemoveOrphanImages deletes the given files. It keeps going after a failure
// and returns the number removed alongside any joined errors.
func RemoveOrphanImages(orphans []OrphanImage) (int, error) {
	var (
		removed int
		errs    []error
	)

	for _, o := range orphans {
		if err := os.Remove(o.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", o.Name, err))
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}

// referencedImages returns the set of image names referenced by the log at path.
func referencedImages(path string) (map[string]bool, error) {
	messages, err := ReadMessages(path)
	if err != nil {
		return nil, err
	}

	refs := make(map[string]bool, len(messages))
	for _, m := range messages {
		if name := ImageNameFromURL(m.ImageURL); name != "" {
			refs[name] = true
		}
	}

	return refs, nil
}

// ReadMessages decodes the log at path without opening a store. A missing
// file is an empty log.
func ReadMessages(path string) ([]chat.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read messages file: %w", err)
	}

	return decodeMessages(data)
}
