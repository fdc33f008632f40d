package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutIdleCycle(t *testing.T) {
	base := time.Now()
	cases := []struct {
		idle time.Duration
		want time.Duration
	}{
		{0, 16 * time.Millisecond},
		{499 * time.Millisecond, 16 * time.Millisecond},
		{500 * time.Millisecond, 33 * time.Millisecond},
		{2 * time.Second, 66 * time.Millisecond},
		{5 * time.Second, 200 * time.Millisecond},
		{10 * time.Second, 1000 * time.Millisecond},
		{11 * time.Second, 1000 * time.Millisecond},
	}
	for _, c := range cases {
		got := Timeout(base, base.Add(c.idle))
		assert.Equal(t, c.want, got, "idle=%v", c.idle)
	}
}

func TestTimeoutMonotoneNonDecreasingInIdleTime(t *testing.T) {
	base := time.Now()
	prev := Timeout(base, base)
	for _, d := range []time.Duration{
		100 * time.Millisecond, 600 * time.Millisecond, 3 * time.Second,
		6 * time.Second, 12 * time.Second,
	} {
		cur := Timeout(base, base.Add(d))
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestKeypressResetsToFastest(t *testing.T) {
	now := time.Now()
	idleLong := Timeout(now.Add(-11*time.Second), now)
	assert.Equal(t, 1000*time.Millisecond, idleLong)

	freshActivity := now
	immediate := Timeout(freshActivity, now)
	assert.Equal(t, 16*time.Millisecond, immediate)
}
