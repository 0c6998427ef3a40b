package jsonfile

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageURLPrefix is the URL path image references are served under.
const ImageURLPrefix = "/data/" + ImagesDirName + "/"

const (
	defaultImageExt = ".bin"
	maxImageExtLen  = 10 // including the dot
)

// ImageURL returns the relative URL recorded for a stored image file.
func ImageURL(name string) string {
	return ImageURLPrefix + name
}

// ImageNameFromURL returns the file name referenced by an image URL, or ""
// when the URL does not point into the image directory.
func ImageNameFromURL(url string) string {
	if !strings.HasPrefix(url, ImageURLPrefix) {
		return ""
	}
	name := path.Base(strings.TrimPrefix(url, ImageURLPrefix))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// imageFileName generates a unique file name: a millisecond timestamp prefix,
// a random hex suffix, and an extension derived from the source file name.
func imageFileName(now time.Time, sourceFilename string) string {
	id := uuid.New()
	return fmt.Sprintf("%d-%x%s", now.UnixMilli(), id[:], imageExt(sourceFilename))
}

// imageExt returns the lower-cased extension of filename, or ".bin" when it is
// missing, too long, or contains anything but ASCII letters and digits.
func imageExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > maxImageExtLen {
		return defaultImageExt
	}

	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultImageExt
		}
	}

	return ext
}
