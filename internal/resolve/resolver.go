// Package resolve turns a requested profile name into a ready-to-invoke
// transformer, applying the graceful-degradation policy: explicit profile
// name > configured default profile > environment-derived default >
// identity. Unavailability-class failures at any tier collapse silently to
// the identity transformer; programmer-tier failures surface.
package resolve

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kalambet/shtym/internal/backend"
	"github.com/kalambet/shtym/internal/profile"
	"github.com/kalambet/shtym/internal/transform"
)

// DefaultProvider supplies the environment-derived default profile. It
// reports ok=false when no such profile is configured.
// Implemented by config.Config.
type DefaultProvider interface {
	DefaultProfile() (profile.Profile, bool)
}

// Resolution is the outcome of one resolve call.
type Resolution struct {
	Transformer transform.Transformer

	// Profile is the name of the profile that produced the transformer.
	// Empty when the resolution degraded to identity.
	Profile string

	// Degraded is true when the identity fallback was substituted.
	Degraded bool
}

// Resolver owns the resolution decision path. The store is read-only and
// may be shared across resolutions without locking.
type Resolver struct {
	store    *profile.Store
	factory  *transform.Factory
	defaults DefaultProvider
}

// New creates a Resolver. defaults may be nil, disabling the
// environment-derived tier.
func New(store *profile.Store, factory *transform.Factory, defaults DefaultProvider) *Resolver {
	return &Resolver{store: store, factory: factory, defaults: defaults}
}

// lookupStep is one tier of the profile-selection precedence chain,
// evaluated in order. Steps are data, not nested conditionals, so the
// precedence rule stays auditable on its own.
type lookupStep struct {
	name string
	find func() (profile.Profile, bool)
}

// Resolve produces a transformer for the requested profile name ("" means
// use the default chain). It returns an error only for programmer-tier
// failures; every configuration- or capability-tier failure yields a
// degraded Resolution instead.
func (r *Resolver) Resolve(ctx context.Context, requested string) (Resolution, error) {
	p, tier, found := r.selectProfile(requested)
	if !found {
		slog.Debug("no profile resolved, using identity", "requested", requested)
		return degraded(), nil
	}

	t, err := r.factory.Create(ctx, p)
	if err != nil {
		if silent(err) {
			slog.Debug("transformer unavailable, using identity",
				"profile", p.Name, "tier", tier, "error", err)
			return degraded(), nil
		}
		return Resolution{}, err
	}

	return Resolution{Transformer: t, Profile: p.Name}, nil
}

// selectProfile walks the precedence chain and returns the first profile
// that exists, along with the tier name that produced it. A requested name
// is an exclusive tier: if it is absent the chain ends, it never falls
// through to the defaults.
func (r *Resolver) selectProfile(requested string) (profile.Profile, string, bool) {
	var steps []lookupStep
	if requested != "" {
		steps = []lookupStep{
			{"requested", func() (profile.Profile, bool) {
				p, err := r.store.Get(requested)
				if err != nil {
					var nf *profile.NotFoundError
					if !errors.As(err, &nf) {
						slog.Debug("profile lookup failed", "profile", requested, "error", err)
					}
					return profile.Profile{}, false
				}
				return p, true
			}},
		}
	} else {
		steps = []lookupStep{
			{"configured-default", func() (profile.Profile, bool) {
				return r.store.Default()
			}},
			{"environment-default", func() (profile.Profile, bool) {
				if r.defaults == nil {
					return profile.Profile{}, false
				}
				return r.defaults.DefaultProfile()
			}},
		}
	}

	for _, st := range steps {
		if p, ok := st.find(); ok {
			return p, st.name, true
		}
	}
	return profile.Profile{}, "", false
}

// silent reports whether err belongs to the unavailability class that the
// degradation policy swallows. Everything else, notably
// *transform.CreationError, indicates a defect and must surface.
func silent(err error) bool {
	var (
		unavailable *backend.UnavailableError
		connection  *backend.ConnectionError
		notFound    *profile.NotFoundError
	)
	return errors.As(err, &unavailable) ||
		errors.As(err, &connection) ||
		errors.As(err, &notFound)
}

func degraded() Resolution {
	return Resolution{Transformer: transform.Identity{}, Degraded: true}
}
