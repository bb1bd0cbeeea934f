package feed

import (
	"path"
	"time"

	"github.com/DeafMist/list-digest/internal/processing"
)

// PublicPrefix is the URL prefix under which the static tree is served and
// which feed entries use in their file_path.
const PublicPrefix = "static"

// PostPath is the location of a single post's Atom file relative to the
// static root: <dev>/<Mon_YYYY>/<short id>_<clean title>.xml.
func PostPath(devName string, published time.Time, id, title string) string {
	name := processing.ShortID(id) + "_" + processing.CleanTitle(title) + ".xml"
	return path.Join(devName, processing.MonthFolder(published), name)
}

// CombinedPath is the location of a thread-level summary file.
func CombinedPath(devName string, published time.Time, title string) string {
	name := "combined_" + processing.CleanTitle(title) + ".xml"
	return path.Join(devName, processing.MonthFolder(published), name)
}

// PublicPath turns a store-relative path into the form used by feed entries.
func PublicPath(rel string) string {
	return path.Join(PublicPrefix, rel)
}
