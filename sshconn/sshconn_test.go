package sshconn

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticResolverRoundTrip(t *testing.T) {
	r := NewStaticResolver()
	r.Add(HostConfig{Name: "myhost", Hostname: "10.0.0.1", User: "alice", Port: 22})

	cfg, err := r.Resolve("myhost")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", cfg.Hostname)
	assert.Equal(t, "alice", cfg.User)
}

func TestStaticResolverUnknownHost(t *testing.T) {
	r := NewStaticResolver()
	_, err := r.Resolve("nope")
	assert.Error(t, err)
}

func TestSocketPathIsPerHostAndPerProcess(t *testing.T) {
	p1, err := SocketPath("host-a")
	require.NoError(t, err)
	p2, err := SocketPath("host-b")
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)

	pid := os.Getpid()
	assert.Contains(t, p1, "tfm-ssh-")
	assert.True(t, strings.HasSuffix(p1, fmt.Sprintf("-%d", pid)))
}

func TestSocketPathDeterministicForSameHost(t *testing.T) {
	p1, _ := SocketPath("host-a")
	p2, _ := SocketPath("host-a")
	assert.Equal(t, p1, p2)
}
