package ui

import "time"

// fpsLevel is one (idleThreshold, fps, timeoutMs) row from spec §4.9.
type fpsLevel struct {
	idle    time.Duration
	fps     int
	timeout time.Duration
}

var fpsLevels = []fpsLevel{
	{0, 60, 16 * time.Millisecond},
	{500 * time.Millisecond, 30, 33 * time.Millisecond},
	{2 * time.Second, 15, 66 * time.Millisecond},
	{5 * time.Second, 5, 200 * time.Millisecond},
	{10 * time.Second, 1, 1000 * time.Millisecond},
}

// Timeout returns the next event-loop timeout given how long it has been
// since lastActivity, as of now. Querying is on-demand; there is no
// cached fps state (spec §4.9).
func Timeout(lastActivity, now time.Time) time.Duration {
	idle := now.Sub(lastActivity)
	timeout := fpsLevels[0].timeout
	for _, level := range fpsLevels {
		if idle >= level.idle {
			timeout = level.timeout
		}
	}
	return timeout
}

// TimeoutMillis is the millisecond form GetEvent(timeout_ms) expects.
func TimeoutMillis(lastActivity, now time.Time) int {
	return int(Timeout(lastActivity, now) / time.Millisecond)
}
