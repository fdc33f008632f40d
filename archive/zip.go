package archive

import (
	"archive/zip"
	"io"
)

type zipCodec struct{}

func init() {
	Register(zipCodec{})
}

func (zipCodec) Extensions() []string { return []string{"zip"} }

func (zipCodec) NewWriter(w io.Writer) (Writer, error) {
	return &zipWriter{zw: zip.NewWriter(w)}, nil
}

func (zipCodec) NewReader(r io.Reader) (Reader, error) {
	ra, ok := r.(io.ReaderAt)
	if !ok {
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		ra = bytesReaderAt(buf)
	}
	size, err := seekableSize(r, ra)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, err
	}
	return &zipReader{zr: zr}, nil
}

type zipWriter struct {
	zw   *zip.Writer
	curr io.Writer
}

func (z *zipWriter) WriteHeader(h Header) error {
	fh := &zip.FileHeader{Name: h.Name, Modified: h.ModTime}
	fh.SetMode(modeOf(h))
	if h.IsDir {
		fh.Name = ensureTrailingSlash(fh.Name)
	} else {
		fh.Method = zip.Deflate
	}
	w, err := z.zw.CreateHeader(fh)
	if err != nil {
		return err
	}
	z.curr = w
	return nil
}

func (z *zipWriter) Write(p []byte) (int, error) {
	if z.curr == nil {
		return 0, errNoCurrentEntry
	}
	return z.curr.Write(p)
}

func (z *zipWriter) Close() error { return z.zw.Close() }

type zipReader struct {
	zr   *zip.Reader
	idx  int
	open io.ReadCloser
}

func (z *zipReader) Next() (Header, error) {
	if z.open != nil {
		_ = z.open.Close()
		z.open = nil
	}
	if z.idx >= len(z.zr.File) {
		return Header{}, io.EOF
	}
	f := z.zr.File[z.idx]
	z.idx++
	h := Header{
		Name:    f.Name,
		Size:    int64(f.UncompressedSize64),
		IsDir:   f.FileInfo().IsDir(),
		Mode:    uint32(f.Mode()),
		ModTime: f.Modified,
	}
	if !h.IsDir {
		rc, err := f.Open()
		if err != nil {
			return Header{}, err
		}
		z.open = rc
	}
	return h, nil
}

func (z *zipReader) Read(p []byte) (int, error) {
	if z.open == nil {
		return 0, io.EOF
	}
	return z.open.Read(p)
}
