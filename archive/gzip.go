package archive

import (
	"io"

	kgzip "github.com/klauspost/compress/gzip"
)

// plainGzipCodec treats ".gz" as a single-member, single-file
// compressor rather than a tar container — distinct from tarCodec's
// "tar.gz", which Lookup prefers whenever both suffixes match.
type plainGzipCodec struct{}

func init() {
	Register(plainGzipCodec{})
}

func (plainGzipCodec) Extensions() []string { return []string{"gz"} }

func (plainGzipCodec) NewWriter(w io.Writer) (Writer, error) {
	gz, err := kgzip.NewWriterLevel(w, kgzip.DefaultCompression)
	if err != nil {
		return nil, err
	}
	return &gzipWriter{gz: gz}, nil
}

func (plainGzipCodec) NewReader(r io.Reader) (Reader, error) {
	gz, err := kgzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &gzipReader{gz: gz, name: gz.Name}, nil
}

type gzipWriter struct {
	gz   *kgzip.Writer
	wrote bool
}

func (g *gzipWriter) WriteHeader(h Header) error {
	g.gz.Name = h.Name
	g.gz.ModTime = h.ModTime
	g.wrote = true
	return nil
}

func (g *gzipWriter) Write(p []byte) (int, error) {
	if !g.wrote {
		return 0, errNoCurrentEntry
	}
	return g.gz.Write(p)
}

func (g *gzipWriter) Close() error { return g.gz.Close() }

type gzipReader struct {
	gz   *kgzip.Reader
	name string
	done bool
}

func (g *gzipReader) Next() (Header, error) {
	if g.done {
		return Header{}, io.EOF
	}
	g.done = true
	name := g.gz.Name
	if name == "" {
		name = g.name
	}
	return Header{Name: name, ModTime: g.gz.ModTime}, nil
}

func (g *gzipReader) Read(p []byte) (int, error) { return g.gz.Read(p) }
