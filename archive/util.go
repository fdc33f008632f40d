package archive

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"strings"
)

var errNoCurrentEntry = errors.New("archive: write called before WriteHeader")

// errBzip2WriteUnsupported mirrors the standard library's own bzip2
// package, which has never implemented a writer.
var errBzip2WriteUnsupported = errors.New("archive: bzip2 archive creation is not supported, only extraction")

func modeOf(h Header) fs.FileMode {
	mode := fs.FileMode(h.Mode)
	if mode == 0 {
		if h.IsDir {
			mode = 0o755 | fs.ModeDir
		} else {
			mode = 0o644
		}
	}
	return mode
}

func ensureTrailingSlash(name string) string {
	if strings.HasSuffix(name, "/") {
		return name
	}
	return name + "/"
}

type bytesReaderAt []byte

func (b bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(b).ReadAt(p, off)
}

// seekableSize determines the total length of r for zip.NewReader,
// which needs the archive's byte size up front. If ra already came
// from a buffered read (bytesReaderAt), its length is the size;
// otherwise r must support Seek.
func seekableSize(r io.Reader, ra io.ReaderAt) (int64, error) {
	if buf, ok := ra.(bytesReaderAt); ok {
		return int64(len(buf)), nil
	}
	s, ok := r.(io.Seeker)
	if !ok {
		return 0, errors.New("archive: reader does not support seeking and was not buffered")
	}
	size, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}

// IsPathTraversal reports whether name escapes its extraction root via
// ".." segments or an absolute path, guarding ExtractArchive against
// zip-slip style attacks.
func IsPathTraversal(name string) bool {
	if strings.HasPrefix(name, "/") {
		return true
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
