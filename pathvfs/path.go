// Package pathvfs implements the Path facade from spec §4.1: a
// scheme-dispatching wrapper that exposes one API regardless of whether
// the backing store is the local disk, an S3 bucket, or an SSH/SFTP host.
// The facade itself performs no I/O; every operation is forwarded to the
// Backend singleton that owns the connection for the path's authority.
package pathvfs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/shimomut/tfm/tfmerr"
)

// Scheme identifies which storage kind a Path belongs to.
type Scheme int

const (
	SchemeLocal Scheme = iota
	SchemeS3
	SchemeSSH
)

func (s Scheme) String() string {
	switch s {
	case SchemeLocal:
		return "local"
	case SchemeS3:
		return "s3"
	case SchemeSSH:
		return "ssh"
	default:
		return "unknown"
	}
}

// OpenMode selects the direction of Open.
type OpenMode int

const (
	ReadBinary OpenMode = iota
	WriteBinary
)

// DirIter is the lazy, finite, non-restartable sequence returned by
// Iterdir. Calling Iterdir again on the same Path starts a fresh iterator.
type DirIter interface {
	// Next returns the next entry. ok is false once the sequence is
	// exhausted; err is non-nil only on a failure mid-iteration, after
	// which the caller must not call Next again.
	Next() (entry FileEntry, ok bool, err error)
}

// Backend is the uniform capability set every scheme must implement
// (spec §4.1). One Backend instance is the process-wide singleton for one
// (scheme, authority) pair; it owns whatever connection state that
// authority requires.
type Backend interface {
	Exists(ctx context.Context, p Path) (bool, error)
	IsDir(ctx context.Context, p Path) (bool, error)
	IsFile(ctx context.Context, p Path) (bool, error)
	Stat(ctx context.Context, p Path) (FileEntry, error)
	Iterdir(ctx context.Context, p Path) (DirIter, error)
	OpenRead(ctx context.Context, p Path) (io.ReadCloser, error)
	OpenWrite(ctx context.Context, p Path) (io.WriteCloser, error)
	Mkdir(ctx context.Context, p Path, parents, existOk bool) error
	Unlink(ctx context.Context, p Path) error
	Rmdir(ctx context.Context, p Path) error
	// Rename may return a *tfmerr.Error with Kind tfmerr.CrossStorage
	// when dest belongs to a different scheme/authority; the caller
	// (fileops) must then fall back to copy+delete.
	Rename(ctx context.Context, p Path, dest Path) error
	// Close releases the singleton's connection. Called only at process
	// shutdown or explicit authority eviction, never per-Path.
	Close() error
}

// Path is an immutable value identifying a location in some storage.
// Two Paths with equal (scheme, authority, normalized key) denote the
// same object, so Path is safe to use as a map key and to compare with ==.
type Path struct {
	scheme    Scheme
	authority string
	key       string
}

// New constructs a Path, normalizing key per the rules of scheme.
func New(scheme Scheme, authority, key string) Path {
	return Path{scheme: scheme, authority: authority, key: normalizeKey(scheme, key)}
}

// normalizeKey applies the cache-key hygiene rule from spec §9: trim a
// trailing slash, and collapse redundant "." / ".." segments for S3 and
// SSH only — never for local, where the OS already owns path semantics
// and collapsing would change symlink traversal behavior.
func normalizeKey(scheme Scheme, key string) string {
	switch scheme {
	case SchemeLocal:
		if key != "/" {
			key = strings.TrimSuffix(key, "/")
		}
		return key
	default:
		cleaned := path.Clean("/" + key)
		if cleaned == "/" {
			return ""
		}
		return strings.TrimPrefix(cleaned, "/")
	}
}

func (p Path) Scheme() Scheme      { return p.scheme }
func (p Path) Authority() string   { return p.authority }
func (p Path) Key() string         { return p.key }

// Render renders the Path back to its URI-like string form. Render(p)
// followed by Parse satisfies the round-trip law join(parent,name)==p.
func (p Path) Render() string {
	switch p.scheme {
	case SchemeLocal:
		if p.key == "" {
			return "/"
		}
		return p.key
	case SchemeS3:
		return fmt.Sprintf("s3://%s/%s", p.authority, p.key)
	case SchemeSSH:
		return fmt.Sprintf("ssh://%s/%s", p.authority, p.key)
	default:
		return p.key
	}
}

func (p Path) String() string { return p.Render() }

// Parse reconstructs a Path from its rendered string form.
func Parse(s string) (Path, error) {
	switch {
	case strings.HasPrefix(s, "s3://"):
		rest := strings.TrimPrefix(s, "s3://")
		parts := strings.SplitN(rest, "/", 2)
		authority := parts[0]
		key := ""
		if len(parts) == 2 {
			key = parts[1]
		}
		return New(SchemeS3, authority, key), nil
	case strings.HasPrefix(s, "ssh://"):
		rest := strings.TrimPrefix(s, "ssh://")
		parts := strings.SplitN(rest, "/", 2)
		authority := parts[0]
		key := ""
		if len(parts) == 2 {
			key = parts[1]
		}
		return New(SchemeSSH, authority, key), nil
	case s == "":
		return Path{}, tfmerr.New(tfmerr.BadFormat, "parse", s, nil)
	default:
		return New(SchemeLocal, "", s), nil
	}
}

// Join returns a new Path with child appended under p (join(parent,name)==p
// round-trip law).
func (p Path) Join(child string) Path {
	if p.key == "" {
		return New(p.scheme, p.authority, child)
	}
	return New(p.scheme, p.authority, p.key+"/"+child)
}

// Parent returns the parent Path. Parent of the root returns the root
// itself.
func (p Path) Parent() Path {
	if p.key == "" {
		return p
	}
	dir := path.Dir(p.key)
	if dir == "." {
		dir = ""
	}
	return New(p.scheme, p.authority, dir)
}

// Name returns the final path component.
func (p Path) Name() string {
	if p.key == "" {
		return ""
	}
	return path.Base(p.key)
}

// Suffix returns the extension of Name, including the leading dot, or "".
func (p Path) Suffix() string {
	n := p.Name()
	ext := path.Ext(n)
	if ext == n { // dotfile with no further suffix, e.g. ".bashrc"
		return ""
	}
	return ext
}

func (p Path) backend() (Backend, error) {
	return getRegistry().get(p.scheme, p.authority)
}

func (p Path) Exists(ctx context.Context) (bool, error) {
	b, err := p.backend()
	if err != nil {
		return false, err
	}
	return b.Exists(ctx, p)
}

func (p Path) IsDir(ctx context.Context) (bool, error) {
	b, err := p.backend()
	if err != nil {
		return false, err
	}
	return b.IsDir(ctx, p)
}

func (p Path) IsFile(ctx context.Context) (bool, error) {
	b, err := p.backend()
	if err != nil {
		return false, err
	}
	return b.IsFile(ctx, p)
}

func (p Path) Stat(ctx context.Context) (FileEntry, error) {
	b, err := p.backend()
	if err != nil {
		return FileEntry{}, err
	}
	return b.Stat(ctx, p)
}

func (p Path) Iterdir(ctx context.Context) (DirIter, error) {
	b, err := p.backend()
	if err != nil {
		return nil, err
	}
	return b.Iterdir(ctx, p)
}

func (p Path) Open(ctx context.Context, mode OpenMode) (io.ReadCloser, io.WriteCloser, error) {
	b, err := p.backend()
	if err != nil {
		return nil, nil, err
	}
	if mode == ReadBinary {
		r, err := b.OpenRead(ctx, p)
		return r, nil, err
	}
	w, err := b.OpenWrite(ctx, p)
	return nil, w, err
}

func (p Path) Mkdir(ctx context.Context, parents, existOk bool) error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	return b.Mkdir(ctx, p, parents, existOk)
}

func (p Path) Unlink(ctx context.Context) error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	return b.Unlink(ctx, p)
}

func (p Path) Rmdir(ctx context.Context) error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	return b.Rmdir(ctx, p)
}

// Rename dispatches to the source's backend. If dest differs in
// scheme/authority, the backend is expected to return a CrossStorage
// error rather than attempt anything; fileops is responsible for the
// copy+delete fallback (spec §4.4).
func (p Path) Rename(ctx context.Context, dest Path) error {
	if p.scheme != dest.scheme || p.authority != dest.authority {
		return tfmerr.New(tfmerr.CrossStorage, "rename", p.Render(), nil)
	}
	b, err := p.backend()
	if err != nil {
		return err
	}
	return b.Rename(ctx, p, dest)
}
