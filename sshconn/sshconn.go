// Package sshconn owns the SSH connection singleton per authority (spec
// §5 "SSH connection manager"): one golang.org/x/crypto/ssh.Client per
// host alias, multiplexing every sftp operation issued against that host
// over a single long-lived channel — the control-master behavior the
// spec describes, achieved here without shelling out to the system ssh
// binary (that binary's own option surface is explicitly out of core
// scope per spec §1).
package sshconn

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/shimomut/tfm/tfmerr"
)

// HostConfig is the per-alias connection recipe resolved through an
// external host-config source (spec §4.1); this package only consumes
// it, it does not load it from any particular file format.
type HostConfig struct {
	Name     string
	Hostname string
	User     string
	Port     int
	KeyFile  string
}

// HostResolver resolves a host alias to its HostConfig. The concrete
// config-file loader lives outside core (spec §1); core depends only on
// this interface.
type HostResolver interface {
	Resolve(alias string) (HostConfig, error)
}

// StaticResolver is a minimal in-memory HostResolver, sufficient for
// tests and for callers that already have the host list (e.g. from CLI
// flags) without a config file.
type StaticResolver struct {
	mu    sync.RWMutex
	hosts map[string]HostConfig
}

func NewStaticResolver() *StaticResolver {
	return &StaticResolver{hosts: make(map[string]HostConfig)}
}

func (r *StaticResolver) Add(cfg HostConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hosts[cfg.Name] = cfg
}

func (r *StaticResolver) Resolve(alias string) (HostConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.hosts[alias]
	if !ok {
		return HostConfig{}, tfmerr.New(tfmerr.NotFound, "resolve_host", alias, nil)
	}
	return cfg, nil
}

// DefaultResolver is the process-wide resolver used when a connection is
// requested without one explicitly supplied.
var DefaultResolver HostResolver = NewStaticResolver()

// Conn is one authority's control-master connection: a single ssh.Client
// and the one *sftp.Client multiplexed over it. Every operation for this
// authority serializes through mu, mirroring spec §5's "operations
// serialize per connection via an internal mutex".
type Conn struct {
	mu     sync.Mutex
	alias  string
	client *ssh.Client
	sftp   *sftp.Client
}

var (
	connsMu sync.Mutex
	conns   = map[string]*Conn{}
)

// Get returns the singleton Conn for alias, dialing it on first use.
func Get(ctx context.Context, alias string, resolver HostResolver) (*Conn, error) {
	connsMu.Lock()
	if c, ok := conns[alias]; ok {
		connsMu.Unlock()
		return c, nil
	}
	connsMu.Unlock()

	if resolver == nil {
		resolver = DefaultResolver
	}
	cfg, err := resolver.Resolve(alias)
	if err != nil {
		return nil, err
	}

	c, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}

	connsMu.Lock()
	defer connsMu.Unlock()
	if existing, ok := conns[alias]; ok {
		_ = c.Close()
		return existing, nil
	}
	conns[alias] = c
	return c, nil
}

func dial(ctx context.Context, cfg HostConfig) (*Conn, error) {
	authMethods, err := authMethodsFor(cfg)
	if err != nil {
		return nil, err
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // host key verification is an external collaborator concern (known_hosts loading)
		Timeout:         10 * time.Second,
	}
	addr := net.JoinHostPort(cfg.Hostname, fmt.Sprintf("%d", port))
	client, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return nil, tfmerr.New(tfmerr.NetworkTimeout, "ssh_dial", cfg.Name, err)
	}
	sc, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return nil, tfmerr.New(tfmerr.IO, "sftp_new_client", cfg.Name, err)
	}
	return &Conn{alias: cfg.Name, client: client, sftp: sc}, nil
}

func authMethodsFor(cfg HostConfig) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}
	if cfg.KeyFile != "" {
		key, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, tfmerr.New(tfmerr.IO, "read_keyfile", cfg.KeyFile, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, tfmerr.New(tfmerr.BadFormat, "parse_keyfile", cfg.KeyFile, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if len(methods) == 0 {
		return nil, tfmerr.New(tfmerr.PermissionDenied, "auth", cfg.Name, fmt.Errorf("no usable auth method: set SSH_AUTH_SOCK or KeyFile"))
	}
	return methods, nil
}

// WithClient runs fn with the underlying *sftp.Client for the sshbackend
// package, holding Conn's mutex for the duration of the call.
func (c *Conn) WithClient(fn func(*sftp.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.sftp)
}

// Close tears down the sftp and ssh layers.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err1 := c.sftp.Close()
	err2 := c.client.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Evict removes and closes the singleton for alias, forcing a fresh
// dial (and thus a fresh control-master channel) on next use.
func Evict(alias string) error {
	connsMu.Lock()
	c, ok := conns[alias]
	delete(conns, alias)
	connsMu.Unlock()
	if !ok {
		return nil
	}
	return c.Close()
}

// SocketPath computes the per-user, per-host, per-process path named in
// spec §6: ~/.tfm/ssh_sockets/tfm-ssh-<hostnameHash>-<pid>. It only
// computes the path: nothing in this module creates, opens or locks a file
// there, and it is not a literal OpenSSH ControlPath socket, since this
// package never shells out to the system ssh/sftp binary.
func SocketPath(hostname string) (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", tfmerr.New(tfmerr.IO, "homedir", "", err)
	}
	sum := sha256.Sum256([]byte(hostname))
	hash := hex.EncodeToString(sum[:])[:16]
	return filepath.Join(home, ".tfm", "ssh_sockets", fmt.Sprintf("tfm-ssh-%s-%d", hash, os.Getpid())), nil
}

// EnsureSocketDir creates the per-user socket directory (not a
// world-writable location) if missing.
func EnsureSocketDir() error {
	home, err := homedir.Dir()
	if err != nil {
		return tfmerr.New(tfmerr.IO, "homedir", "", err)
	}
	dir := filepath.Join(home, ".tfm", "ssh_sockets")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return tfmerr.New(tfmerr.IO, "mkdir", dir, err)
	}
	return nil
}
