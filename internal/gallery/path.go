package gallery

import (
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PathFunc derives the blob path of a new image.
type PathFunc func(now time.Time, filename string) string

// StoragePath returns "images/<unix millis>_<filename>".
func StoragePath(now time.Time, filename string) string {
	return "images/" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + CleanFilename(filename)
}

// UniqueStoragePath inserts a random suffix after the timestamp so two
// uploads of the same file within one millisecond do not collide.
func UniqueStoragePath(now time.Time, filename string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "images/" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix + "_" + CleanFilename(filename)
}

// CleanFilename strips directory components from a client-supplied name.
func CleanFilename(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" || base == ".." {
		return "image"
	}
	return base
}
