package pathvfs

import (
	"fmt"
	"sync"

	"github.com/shimomut/tfm/tfmerr"
)

// Factory builds the Backend singleton for one authority under scheme.
// Backends register a Factory with RegisterScheme at package init, the
// way the teacher's backend packages register an fs.RegInfo in init().
type Factory func(authority string) (Backend, error)

type registry struct {
	mu        sync.Mutex
	factories map[Scheme]Factory
	instances map[string]Backend // key: scheme|authority
}

var (
	regOnce sync.Once
	reg     *registry
)

func getRegistry() *registry {
	regOnce.Do(func() {
		reg = &registry{
			factories: make(map[Scheme]Factory),
			instances: make(map[string]Backend),
		}
	})
	return reg
}

// RegisterScheme installs the Factory used to construct Backend instances
// for scheme. Intended to be called from backend package init functions.
func RegisterScheme(scheme Scheme, f Factory) {
	r := getRegistry()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[scheme] = f
}

func instanceKey(scheme Scheme, authority string) string {
	return fmt.Sprintf("%d|%s", scheme, authority)
}

func (r *registry) get(scheme Scheme, authority string) (Backend, error) {
	key := instanceKey(scheme, authority)

	r.mu.Lock()
	if b, ok := r.instances[key]; ok {
		r.mu.Unlock()
		return b, nil
	}
	factory, ok := r.factories[scheme]
	r.mu.Unlock()
	if !ok {
		return nil, tfmerr.New(tfmerr.Unsupported, "backend", scheme.String(), nil)
	}

	// Construct outside the lock: backend construction may dial a
	// network connection (SSH control-master, S3 session) and must not
	// block lookups for unrelated authorities.
	b, err := factory(authority)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.instances[key]; ok {
		// Lost the race: another goroutine built one first. Close ours
		// and use theirs so exactly one singleton survives per authority.
		_ = b.Close()
		return existing, nil
	}
	r.instances[key] = b
	return b, nil
}

// Shutdown closes every live Backend singleton. Called once at process
// exit; individual Paths never own or close connections themselves.
func Shutdown() error {
	r := getRegistry()
	r.mu.Lock()
	instances := make([]Backend, 0, len(r.instances))
	for _, b := range r.instances {
		instances = append(instances, b)
	}
	r.instances = make(map[string]Backend)
	r.mu.Unlock()

	var firstErr error
	for _, b := range instances {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Evict drops the singleton for (scheme, authority) and closes it,
// forcing the next lookup to reconnect.
func Evict(scheme Scheme, authority string) error {
	r := getRegistry()
	key := instanceKey(scheme, authority)
	r.mu.Lock()
	b, ok := r.instances[key]
	delete(r.instances, key)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return b.Close()
}
