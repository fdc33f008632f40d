// Package search implements the SearchThread abstraction from spec
// §4.5: a background filename/content search over a Path subtree with
// per-thread (never shared) cancellation, mutex-guarded result
// streaming, and text-file sniffing for content search. Grounded on the
// rclone walk/filter test-file conventions (table-driven tests,
// testify assertions) since the corpus carries no standalone
// background-search component of its own.
package search

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shimomut/tfm/pathvfs"
)

// Kind selects what a SearchThread matches against.
type Kind int

const (
	Filename Kind = iota
	Content
)

// Result is one (Path, optional line, optional preview) hit.
type Result struct {
	Path    pathvfs.Path
	Line    int // 0 when Kind is Filename or the match has no line
	Preview string
}

// sniffSize is how many leading bytes a candidate file is inspected for
// NUL bytes and encoding validity before it's treated as text (spec
// §4.5).
const sniffSize = 8192

// CancelGrace is the maximum time the UI should wait for a superseded
// thread to observe its cancellation flag and stop producing results
// (spec §4.5: "never more than a short grace period (≤100ms)").
const CancelGrace = 100 * time.Millisecond

// Thread runs one background search. Each Thread owns its own
// cancellation flag — cancelling one Thread never affects another, even
// one searching the same root concurrently (spec §4.5 "dedicated
// cancellation flag owned by the thread").
type Thread struct {
	root    pathvfs.Path
	pattern string
	kind    Kind

	cancelled int32
	mu        sync.Mutex
	results   []Result
	done      bool
	err       error

	// authoritative reports whether this Thread is still allowed to
	// mutate the dialog's "searching" indicator. Set false once a
	// newer Thread supersedes this one; checked before every indicator
	// update so a stale thread's own completion never clears a newer
	// thread's in-progress state (spec §4.5 "per-thread active flag").
	authoritativeMu sync.Mutex
	authoritative   bool
}

// New creates a Thread ready to Run, defaulting to authoritative.
func New(root pathvfs.Path, pattern string, kind Kind) *Thread {
	return &Thread{root: root, pattern: pattern, kind: kind, authoritative: true}
}

// Cancel sets this Thread's own cancellation flag. It does not affect
// any other Thread.
func (t *Thread) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = 1
}

func (t *Thread) isCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled != 0
}

// Supersede marks this Thread non-authoritative: it may keep running to
// completion, but must no longer touch the "searching" indicator.
func (t *Thread) Supersede() {
	t.authoritativeMu.Lock()
	defer t.authoritativeMu.Unlock()
	t.authoritative = false
}

// IsAuthoritative reports whether this Thread may still mutate the
// dialog's shared "searching" indicator.
func (t *Thread) IsAuthoritative() bool {
	t.authoritativeMu.Lock()
	defer t.authoritativeMu.Unlock()
	return t.authoritative
}

// Results returns a snapshot of the hits streamed so far, and whether
// the search has finished (with its terminal error, nil on a clean
// finish or a cancellation).
func (t *Thread) Results() (results []Result, done bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Result, len(t.results))
	copy(out, t.results)
	return out, t.done, t.err
}

func (t *Thread) appendResult(r Result) {
	t.mu.Lock()
	t.results = append(t.results, r)
	t.mu.Unlock()
}

func (t *Thread) finish(err error) {
	t.mu.Lock()
	t.done = true
	t.err = err
	t.mu.Unlock()
}

// Run walks root depth-first, streaming matches into Results as they
// are found, until the subtree is exhausted or Cancel is called. Run is
// meant to be invoked with `go thread.Run(ctx)`; callers observe
// progress by polling Results.
func (t *Thread) Run(ctx context.Context) {
	err := t.walk(ctx, t.root)
	if t.isCancelled() {
		err = nil
	}
	t.finish(err)
}

func (t *Thread) walk(ctx context.Context, dir pathvfs.Path) error {
	if t.isCancelled() || ctx.Err() != nil {
		return ctx.Err()
	}

	it, err := dir.Iterdir(ctx)
	if err != nil {
		return err
	}
	for {
		if t.isCancelled() || ctx.Err() != nil {
			return ctx.Err()
		}
		entry, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		child := dir.Join(entry.Name)
		if entry.IsDir {
			if err := t.walk(ctx, child); err != nil {
				return err
			}
			continue
		}

		switch t.kind {
		case Filename:
			if strings.Contains(strings.ToLower(entry.Name), strings.ToLower(t.pattern)) {
				t.appendResult(Result{Path: child})
			}
		case Content:
			if err := t.searchContent(ctx, child); err != nil {
				return err
			}
		}
	}
}

func (t *Thread) searchContent(ctx context.Context, p pathvfs.Path) error {
	r, _, err := p.Open(ctx, pathvfs.ReadBinary)
	if err != nil {
		return err
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	sniffLen := len(content)
	if sniffLen > sniffSize {
		sniffLen = sniffSize
	}
	if !IsText(content[:sniffLen]) {
		return nil
	}

	for i, line := range strings.Split(string(content), "\n") {
		if strings.Contains(line, t.pattern) {
			t.appendResult(Result{Path: p, Line: i + 1, Preview: truncatePreview(line)})
		}
	}
	return nil
}

func truncatePreview(line string) string {
	const maxPreview = 200
	if len(line) > maxPreview {
		return line[:maxPreview]
	}
	return line
}

// IsText decides whether a byte slice looks like text by the same
// heuristic as spec §4.5: reject on any NUL byte, then accept if it
// validates as UTF-8 or, failing that, contains no byte below 0x09
// (every other byte is taken as Latin-1/CP1252).
func IsText(b []byte) bool {
	if bytes.IndexByte(b, 0) != -1 {
		return false
	}
	if len(b) == 0 {
		return true
	}
	if utf8.Valid(b) {
		return true
	}
	for _, c := range b {
		if c < 0x09 {
			return false
		}
	}
	return true
}
