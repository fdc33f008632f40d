// Package s3backend provides the S3 PathImpl backend (spec §4.1).
// Authority is the bucket name; key is the object key. "Directory" is a
// virtual concept synthesized from delimiter listings, never a real S3
// concept, the way the teacher's backend/s3 package treats prefixes.
package s3backend

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/shimomut/tfm/pathcache"
	"github.com/shimomut/tfm/pathvfs"
	"github.com/shimomut/tfm/tfmerr"
)

func init() {
	pathvfs.RegisterScheme(pathvfs.SchemeS3, func(authority string) (pathvfs.Backend, error) {
		return New(authority)
	})
}

// Backend is the per-bucket singleton. It owns the S3 client, an
// uploader, and the bucket's TTL cache.
type Backend struct {
	bucket   string
	svc      *s3.S3
	uploader *s3manager.Uploader
	cache    *pathcache.Cache
}

// New constructs the singleton for one bucket using the default AWS
// credential chain (env vars, shared config, EC2/ECS role), the same
// resolution order the teacher's backend/s3 package relies on.
func New(bucket string) (*Backend, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, tfmerr.New(tfmerr.IO, "s3_session", bucket, err)
	}
	svc := s3.New(sess)
	return &Backend{
		bucket:   bucket,
		svc:      svc,
		uploader: s3manager.NewUploaderWithClient(svc),
		cache:    pathcache.New(bucket, pathcache.DefaultTTL),
	}, nil
}

func wrapErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return tfmerr.New(tfmerr.NotFound, op, key, err)
		case "AccessDenied":
			return tfmerr.New(tfmerr.PermissionDenied, op, key, err)
		case "RequestTimeout", request.CanceledErrorCode:
			return tfmerr.New(tfmerr.NetworkTimeout, op, key, err)
		}
	}
	return tfmerr.New(tfmerr.IO, op, key, err)
}

func dirPrefix(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSuffix(key, "/") + "/"
}

func (b *Backend) headObject(ctx context.Context, key string) (pathvfs.FileEntry, error) {
	if entry, err, found := b.cache.GetStat(key); found {
		return entry, err
	}
	out, err := b.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		werr := wrapErr("stat", key, err)
		if tfmerr.KindOf(werr) == tfmerr.NotFound {
			b.cache.PutStat(key, pathvfs.FileEntry{}, werr)
		}
		return pathvfs.FileEntry{}, werr
	}
	entry := pathvfs.FileEntry{
		Name:  lastSegment(key),
		IsDir: false,
		Size:  aws.Int64Value(out.ContentLength),
		MTime: aws.TimeValue(out.LastModified),
	}
	b.cache.PutStat(key, entry, nil)
	return entry, nil
}

func lastSegment(key string) string {
	key = strings.TrimSuffix(key, "/")
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// hasAnyWithPrefix reports whether at least one object exists with the
// given prefix, used to decide the virtual is_dir concept.
func (b *Backend) hasAnyWithPrefix(ctx context.Context, prefix string) (bool, error) {
	out, err := b.svc.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(b.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return false, wrapErr("list_directory", prefix, err)
	}
	return len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
}

func (b *Backend) Exists(ctx context.Context, p pathvfs.Path) (bool, error) {
	isDir, err := b.IsDir(ctx, p)
	if err != nil {
		return false, err
	}
	if isDir {
		return true, nil
	}
	_, err = b.headObject(ctx, p.Key())
	if err != nil {
		if tfmerr.KindOf(err) == tfmerr.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *Backend) IsDir(ctx context.Context, p pathvfs.Path) (bool, error) {
	key := p.Key()
	if key == "" || strings.HasSuffix(key, "/") {
		return true, nil
	}
	return b.hasAnyWithPrefix(ctx, dirPrefix(key))
}

func (b *Backend) IsFile(ctx context.Context, p pathvfs.Path) (bool, error) {
	isDir, err := b.IsDir(ctx, p)
	if err != nil {
		return false, err
	}
	if isDir {
		return false, nil
	}
	_, err = b.headObject(ctx, p.Key())
	if err != nil {
		if tfmerr.KindOf(err) == tfmerr.NotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *Backend) Stat(ctx context.Context, p pathvfs.Path) (pathvfs.FileEntry, error) {
	isDir, err := b.IsDir(ctx, p)
	if err != nil {
		return pathvfs.FileEntry{}, err
	}
	if isDir {
		return pathvfs.FileEntry{Name: p.Name(), IsDir: true}, nil
	}
	return b.headObject(ctx, p.Key())
}

type dirIter struct {
	entries []pathvfs.FileEntry
	idx     int
}

func (d *dirIter) Next() (pathvfs.FileEntry, bool, error) {
	if d.idx >= len(d.entries) {
		return pathvfs.FileEntry{}, false, nil
	}
	e := d.entries[d.idx]
	d.idx++
	return e, true, nil
}

// Iterdir uses delimiter-based listing; "directories" are synthesized
// common prefixes (spec §4.1). As the bulk-stat optimization, every
// listed child's stat entry is populated in the same pass (spec §4.2).
func (b *Backend) Iterdir(ctx context.Context, p pathvfs.Path) (pathvfs.DirIter, error) {
	key := p.Key()
	prefix := dirPrefix(key)

	if entries, err, found := b.cache.GetListDir(key); found {
		if err != nil {
			return nil, err
		}
		return &dirIter{entries: entries}, nil
	}

	var entries []pathvfs.FileEntry
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}
	err := b.svc.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.StringValue(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			entries = append(entries, pathvfs.FileEntry{Name: name, IsDir: true})
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.StringValue(obj.Key), prefix)
			if name == "" || strings.Contains(name, "/") {
				continue // the directory marker itself, or a deeper nested key
			}
			entries = append(entries, pathvfs.FileEntry{
				Name:  name,
				IsDir: false,
				Size:  aws.Int64Value(obj.Size),
				MTime: aws.TimeValue(obj.LastModified),
			})
		}
		return !lastPage
	})
	if err != nil {
		werr := wrapErr("iterdir", key, err)
		return nil, werr
	}

	sortEntries(entries)
	b.cache.PutListDir(key, entries, nil)
	return &dirIter{entries: entries}, nil
}

func sortEntries(entries []pathvfs.FileEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].Name > entries[j].Name; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

func (b *Backend) OpenRead(ctx context.Context, p pathvfs.Path) (io.ReadCloser, error) {
	out, err := b.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(p.Key()),
	})
	if err != nil {
		return nil, wrapErr("open", p.Key(), err)
	}
	return out.Body, nil
}

// pipeWriter streams bytes written to it into an s3manager upload
// running on a background goroutine, so Open(write-binary) can be used
// without buffering the whole object in memory.
type pipeWriter struct {
	pw     *io.PipeWriter
	done   chan error
	key    string
	closed bool
}

func (w *pipeWriter) Write(p []byte) (int, error) { return w.pw.Write(p) }

func (w *pipeWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.pw.Close(); err != nil {
		return err
	}
	if err := <-w.done; err != nil {
		return wrapErr("write", w.key, err)
	}
	return nil
}

func (b *Backend) OpenWrite(ctx context.Context, p pathvfs.Path) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, err := b.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(p.Key()),
			Body:   pr,
		})
		_ = pr.CloseWithError(err)
		done <- err
	}()
	b.cache.Invalidate(p.Parent().Key())
	return &pipeWriter{pw: pw, done: done, key: p.Key()}, nil
}

// Mkdir writes a zero-byte "key/" directory marker object so empty
// directories remain visible across a listing that found no real
// children. parents and existOk are ignored.
func (b *Backend) Mkdir(ctx context.Context, p pathvfs.Path, parents, existOk bool) error {
	key := dirPrefix(p.Key())
	_, err := b.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   strings.NewReader(""),
	})
	if err != nil {
		return wrapErr("mkdir", p.Key(), err)
	}
	b.cache.Invalidate(p.Parent().Key())
	return nil
}

func (b *Backend) Unlink(ctx context.Context, p pathvfs.Path) error {
	_, err := b.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(p.Key()),
	})
	if err != nil {
		return wrapErr("unlink", p.Key(), err)
	}
	b.cache.Invalidate(p.Parent().Key())
	return nil
}

func (b *Backend) Rmdir(ctx context.Context, p pathvfs.Path) error {
	_, err := b.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(dirPrefix(p.Key())),
	})
	if err != nil {
		return wrapErr("rmdir", p.Key(), err)
	}
	b.cache.Invalidate(p.Parent().Key())
	return nil
}

// Rename is only ever invoked for same-bucket moves; the facade returns
// CrossStorage before reaching here when authorities differ. Same-bucket
// move uses copy+delete — S3 has no native rename (spec §4.1, §4.4).
func (b *Backend) Rename(ctx context.Context, p pathvfs.Path, dest pathvfs.Path) error {
	source := b.bucket + "/" + p.Key()
	_, err := b.svc.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		CopySource: aws.String(source),
		Key:        aws.String(dest.Key()),
	})
	if err != nil {
		return wrapErr("rename", p.Key(), err)
	}
	if err := b.Unlink(ctx, p); err != nil {
		return err
	}
	b.cache.Invalidate(dest.Parent().Key())
	return nil
}

func (b *Backend) Close() error { return nil }

var _ pathvfs.Backend = (*Backend)(nil)
