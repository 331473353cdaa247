// Package backend provides the LLM client contract, a lazy constructor
// registry keyed by profile kind, and the Ollama implementation.
package backend

import (
	"context"
	"sync"

	"github.com/kalambet/shtym/internal/profile"
)

// Client is the capability a transformer needs from an inference backend.
type Client interface {
	// IsAvailable probes liveness and model presence. It never blocks
	// longer than a short internal timeout.
	IsAvailable(ctx context.Context) bool

	// Invoke sends the rendered prompts and returns the model's reply.
	// Failures are reported as *InvocationError. The caller controls the
	// deadline through ctx.
	Invoke(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Constructor builds a Client from an llm-kind profile.
type Constructor func(p profile.Profile) (Client, error)

// Registry maps profile kinds to backend constructors. Construction is
// lazy: nothing is built until Load is called for an llm profile, so runs
// that never touch an LLM profile never pay for a backend.
type Registry struct {
	mu    sync.RWMutex
	ctors map[profile.Kind]Constructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[profile.Kind]Constructor)}
}

// Default returns a Registry with the built-in Ollama backend registered
// for llm profiles.
func Default() *Registry {
	r := NewRegistry()
	r.Register(profile.KindLLM, NewOllama)
	return r
}

// Register installs a constructor for the given kind, replacing any
// previous registration.
func (r *Registry) Register(kind profile.Kind, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[kind] = ctor
}

// Load resolves and constructs the backend client for p, then probes it.
//
// A missing registration or failed construction yields *UnavailableError.
// A constructed client whose server is unreachable or whose model is
// absent yields *ConnectionError. Both classes are eligible for silent
// fallback; the decision belongs to the resolver, not here.
func (r *Registry) Load(ctx context.Context, p profile.Profile) (Client, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[p.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnavailableError{Kind: string(p.Kind)}
	}

	c, err := ctor(p)
	if err != nil {
		return nil, &UnavailableError{Kind: string(p.Kind), Err: err}
	}

	if !c.IsAvailable(ctx) {
		return nil, &ConnectionError{Server: p.ServerURL, Model: p.ModelName}
	}
	return c, nil
}
