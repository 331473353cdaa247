package transform

import (
	"context"
	"time"

	"github.com/kalambet/shtym/internal/backend"
	"github.com/kalambet/shtym/internal/profile"
)

// Factory maps a profile to a concrete Transformer. It reports capability
// and never applies fallback policy: an unavailable backend is returned as
// an error for the resolver to classify.
type Factory struct {
	registry  *backend.Registry
	timeout   time.Duration
	extraVars map[string]string
}

// NewFactory creates a Factory. timeout bounds each LLM invocation;
// extraVars are additional template variables passed to llm transformers.
func NewFactory(registry *backend.Registry, timeout time.Duration, extraVars map[string]string) *Factory {
	return &Factory{registry: registry, timeout: timeout, extraVars: extraVars}
}

// Create instantiates a fresh Transformer for p.
//
// Identity profiles always succeed. LLM profiles load their backend
// lazily through the registry; a *backend.UnavailableError or
// *backend.ConnectionError from that load propagates unchanged. A kind
// with no implementation at all yields *CreationError.
func (f *Factory) Create(ctx context.Context, p profile.Profile) (Transformer, error) {
	switch p.Kind {
	case profile.KindIdentity:
		return Identity{}, nil
	case profile.KindLLM:
		client, err := f.registry.Load(ctx, p)
		if err != nil {
			return nil, err
		}
		return NewLLM(client, p, f.timeout, f.extraVars), nil
	default:
		return nil, &CreationError{Kind: string(p.Kind)}
	}
}
