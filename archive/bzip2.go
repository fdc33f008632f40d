package archive

import (
	"compress/bzip2"
	"io"
)

// plainBzip2Codec treats ".bz2" as a single-member, single-file
// decompressor. Matching the standard library's own bzip2 package,
// there is no writer: NewWriter always fails.
type plainBzip2Codec struct{}

func init() {
	Register(plainBzip2Codec{})
}

func (plainBzip2Codec) Extensions() []string { return []string{"bz2"} }

func (plainBzip2Codec) NewWriter(w io.Writer) (Writer, error) {
	return nil, errBzip2WriteUnsupported
}

func (plainBzip2Codec) NewReader(r io.Reader) (Reader, error) {
	return &bzip2Reader{r: bzip2.NewReader(r)}, nil
}

type bzip2Reader struct {
	r    io.Reader
	done bool
}

func (b *bzip2Reader) Next() (Header, error) {
	if b.done {
		return Header{}, io.EOF
	}
	b.done = true
	return Header{}, nil
}

func (b *bzip2Reader) Read(p []byte) (int, error) { return b.r.Read(p) }
