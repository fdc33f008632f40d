package pathvfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTripLaw(t *testing.T) {
	for _, s := range []string{
		"/home/user/data.csv",
		"s3://bucket/inbox/data.csv",
		"ssh://myhost/var/log/app.log",
		"/",
	} {
		p, err := Parse(s)
		assert.NoError(t, err)
		p2, err := Parse(p.Render())
		assert.NoError(t, err)
		assert.Equal(t, p, p2)
	}
}

func TestJoinParentRoundTrip(t *testing.T) {
	root := New(SchemeS3, "bucket", "inbox")
	child := root.Join("data.csv")
	assert.Equal(t, "data.csv", child.Name())
	assert.Equal(t, root, child.Parent())
}

func TestEqualityByNormalizedKey(t *testing.T) {
	a := New(SchemeS3, "bucket", "inbox/")
	b := New(SchemeS3, "bucket", "inbox")
	assert.Equal(t, a, b)
}

func TestLocalNeverCollapsesDots(t *testing.T) {
	p := New(SchemeLocal, "", "/home/user/../user/file")
	assert.Equal(t, "/home/user/../user/file", p.Key())
}

func TestS3CollapsesDots(t *testing.T) {
	p := New(SchemeS3, "bucket", "a/../b")
	assert.Equal(t, "b", p.Key())
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, ".csv", New(SchemeLocal, "", "/a/data.csv").Suffix())
	assert.Equal(t, "", New(SchemeLocal, "", "/a/.bashrc").Suffix())
	assert.Equal(t, "", New(SchemeLocal, "", "/a/noext").Suffix())
}

func TestUnsupportedSchemeReturnsUnsupported(t *testing.T) {
	// No backend registered for this test binary's Scheme(99).
	p := New(Scheme(99), "x", "y")
	_, err := p.Exists(nil) //nolint:staticcheck // facade dispatch doesn't touch ctx before erroring
	assert.Error(t, err)
}
