package archive

import (
	"archive/tar"
	"compress/bzip2"
	"io"

	kgzip "github.com/klauspost/compress/gzip"
)

func init() {
	Register(tarCodec{compression: compressionNone})
	Register(tarCodec{compression: compressionGzip})
	Register(tarCodec{compression: compressionBzip2})
}

type tarCompression int

const (
	compressionNone tarCompression = iota
	compressionGzip
	compressionBzip2
)

type tarCodec struct {
	compression tarCompression
}

func (c tarCodec) Extensions() []string {
	switch c.compression {
	case compressionGzip:
		return []string{"tar.gz", "tgz"}
	case compressionBzip2:
		return []string{"tar.bz2", "tbz2"}
	default:
		return []string{"tar"}
	}
}

func (c tarCodec) NewWriter(w io.Writer) (Writer, error) {
	switch c.compression {
	case compressionBzip2:
		return nil, errBzip2WriteUnsupported
	case compressionGzip:
		gz, err := kgzip.NewWriterLevel(w, kgzip.DefaultCompression)
		if err != nil {
			return nil, err
		}
		return &tarWriter{tw: tar.NewWriter(gz), closer: gz}, nil
	default:
		return &tarWriter{tw: tar.NewWriter(w)}, nil
	}
}

func (c tarCodec) NewReader(r io.Reader) (Reader, error) {
	switch c.compression {
	case compressionGzip:
		gz, err := kgzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &tarReader{tr: tar.NewReader(gz), closer: gz}, nil
	case compressionBzip2:
		return &tarReader{tr: tar.NewReader(bzip2.NewReader(r))}, nil
	default:
		return &tarReader{tr: tar.NewReader(r)}, nil
	}
}

type tarWriter struct {
	tw     *tar.Writer
	closer io.Closer
}

func (t *tarWriter) WriteHeader(h Header) error {
	th := &tar.Header{
		Name:    h.Name,
		Size:    h.Size,
		Mode:    int64(modeOf(h).Perm()),
		ModTime: h.ModTime,
	}
	if h.IsDir {
		th.Typeflag = tar.TypeDir
		th.Name = ensureTrailingSlash(th.Name)
	} else {
		th.Typeflag = tar.TypeReg
	}
	return t.tw.WriteHeader(th)
}

func (t *tarWriter) Write(p []byte) (int, error) { return t.tw.Write(p) }

func (t *tarWriter) Close() error {
	if err := t.tw.Close(); err != nil {
		return err
	}
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

type tarReader struct {
	tr     *tar.Reader
	closer io.Closer
}

func (t *tarReader) Next() (Header, error) {
	th, err := t.tr.Next()
	if err != nil {
		return Header{}, err
	}
	return Header{
		Name:    th.Name,
		Size:    th.Size,
		IsDir:   th.Typeflag == tar.TypeDir,
		Mode:    uint32(th.Mode),
		ModTime: th.ModTime,
	}, nil
}

func (t *tarReader) Read(p []byte) (int, error) { return t.tr.Read(p) }
