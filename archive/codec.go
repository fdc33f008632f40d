// Package archive implements the archive create/extract support from
// spec §4.5: a small codec registry (one Codec per supported
// extension) plus the two facade-level operations, CreateArchive and
// ExtractArchive, that stream through pathvfs.Path so an archive can be
// built from, or extracted to, any backend (local, S3, SSH).
//
// Grounded on backend/archive/archiver's Archivers registry shape
// (github.com/rclone/rclone/backend/archive/archiver): a slice/map of
// small descriptors rather than a type switch. Archive format codecs
// themselves are not provided by the corpus's domain deps, so the zip
// and tar containers are built on the standard library's archive/zip
// and archive/tar, and gzip compression uses klauspost/compress/gzip
// (a drop-in, faster replacement for compress/gzip already in the
// DOMAIN STACK) in place of the stdlib codec; bzip2 is read-only,
// matching the standard library's own bzip2 package, which never
// implemented a writer.
package archive

import (
	"io"
	"strings"
	"time"
)

// Header describes one entry inside an archive, independent of
// container format.
type Header struct {
	Name    string
	Size    int64
	IsDir   bool
	Mode    uint32
	ModTime time.Time
}

// Writer appends entries to an archive being created. Content for the
// entry just started by WriteHeader is written via Write.
type Writer interface {
	WriteHeader(h Header) error
	io.Writer
	Close() error
}

// Reader walks entries out of an archive being extracted. Next moves to
// the next entry, returning io.EOF once exhausted; content for the
// current entry is read via Read.
type Reader interface {
	Next() (Header, error)
	io.Reader
}

// Codec builds Writer/Reader pairs for one archive format.
type Codec interface {
	// Extensions lists the filename suffixes this codec claims,
	// longest first (so "tar.gz" is tried before "gz").
	Extensions() []string
	NewWriter(w io.Writer) (Writer, error)
	// NewReader is supported by every codec; read-only formats (bzip2)
	// fail at NewWriter instead.
	NewReader(r io.Reader) (Reader, error)
}

var registry = map[string]Codec{}
var extensionOrder []string

// Register adds c under each of its extensions. Later registrations
// for the same extension replace earlier ones.
func Register(c Codec) {
	for _, ext := range c.Extensions() {
		ext = strings.ToLower(ext)
		if _, exists := registry[ext]; !exists {
			extensionOrder = append(extensionOrder, ext)
		}
		registry[ext] = c
	}
}

// Lookup finds the codec whose extension is a suffix of name, trying
// the longest registered extensions first so "archive.tar.gz" matches
// "tar.gz" rather than "gz".
func Lookup(name string) (Codec, string, bool) {
	lower := strings.ToLower(name)
	best := ""
	for _, ext := range extensionOrder {
		if strings.HasSuffix(lower, "."+ext) && len(ext) > len(best) {
			best = ext
		}
	}
	if best == "" {
		return nil, "", false
	}
	return registry[best], best, true
}
