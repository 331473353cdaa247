package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/kalambet/shtym/internal/backend"
	"github.com/kalambet/shtym/internal/profile"
	"github.com/kalambet/shtym/internal/transform"
)

// availableClient is a backend.Client double that always answers.
type availableClient struct{}

func (availableClient) IsAvailable(ctx context.Context) bool { return true }

func (availableClient) Invoke(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "rewritten", nil
}

// envDefaults is a DefaultProvider double.
type envDefaults struct {
	p  profile.Profile
	ok bool
}

func (d envDefaults) DefaultProfile() (profile.Profile, bool) { return d.p, d.ok }

func workingFactory() *transform.Factory {
	reg := backend.NewRegistry()
	reg.Register(profile.KindLLM, func(p profile.Profile) (backend.Client, error) {
		return availableClient{}, nil
	})
	return transform.NewFactory(reg, 0, nil)
}

// deadFactory has no llm backend registered, so llm profiles fail with
// *backend.UnavailableError.
func deadFactory() *transform.Factory {
	return transform.NewFactory(backend.NewRegistry(), 0, nil)
}

func identityProfile(name string) profile.Profile {
	return profile.Profile{Name: name, Kind: profile.KindIdentity, SchemaVersion: 1}
}

func llmProfile(name string) profile.Profile {
	return profile.Profile{
		Name: name, Kind: profile.KindLLM, SchemaVersion: 1,
		ModelName: "llama3.2:3b", ServerURL: "http://localhost:11434",
	}
}

func TestExplicitNameWinsOverDefault(t *testing.T) {
	store := profile.NewStore(identityProfile("p1"), identityProfile("default"))
	r := New(store, workingFactory(), nil)

	res, err := r.Resolve(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Profile != "p1" || res.Degraded {
		t.Errorf("Resolve(p1) = %+v, want profile p1", res)
	}

	res, err = r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Profile != "default" || res.Degraded {
		t.Errorf("Resolve() = %+v, want configured default", res)
	}
}

func TestUnknownProfileDegradesSilently(t *testing.T) {
	store := profile.NewStore(identityProfile("default"))
	r := New(store, workingFactory(), nil)

	res, err := r.Resolve(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !res.Degraded {
		t.Error("Resolve(does-not-exist) not degraded")
	}
	if _, ok := res.Transformer.(transform.Identity); !ok {
		t.Errorf("transformer type = %T, want Identity", res.Transformer)
	}
}

func TestExplicitNameDoesNotFallThroughToDefault(t *testing.T) {
	// A default exists, but a missing explicit name must still degrade.
	store := profile.NewStore(identityProfile("default"))
	r := New(store, workingFactory(), envDefaults{p: llmProfile("env-default"), ok: true})

	res, err := r.Resolve(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Degraded {
		t.Errorf("Resolve(missing) = %+v, want degraded, not a default", res)
	}
}

func TestEnvironmentDefaultUsedWhenNoConfiguredDefault(t *testing.T) {
	store := profile.NewStore(identityProfile("other"))
	r := New(store, workingFactory(), envDefaults{p: llmProfile("env-default"), ok: true})

	res, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Degraded || res.Profile != "env-default" {
		t.Errorf("Resolve() = %+v, want env-default", res)
	}
}

func TestDegradesWhenNothingConfigured(t *testing.T) {
	r := New(profile.NewStore(), workingFactory(), envDefaults{ok: false})

	res, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Degraded {
		t.Errorf("Resolve() = %+v, want degraded", res)
	}
}

func TestBackendUnavailableDegradesSilently(t *testing.T) {
	store := profile.NewStore(llmProfile("default"))
	r := New(store, deadFactory(), nil)

	res, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !res.Degraded {
		t.Error("unavailable backend did not degrade")
	}
}

func TestConnectionFailureDegradesSilently(t *testing.T) {
	reg := backend.NewRegistry()
	reg.Register(profile.KindLLM, func(p profile.Profile) (backend.Client, error) {
		return unreachableClient{}, nil
	})
	store := profile.NewStore(llmProfile("summary"))
	r := New(store, transform.NewFactory(reg, 0, nil), nil)

	res, err := r.Resolve(context.Background(), "summary")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !res.Degraded {
		t.Error("unreachable backend did not degrade")
	}
}

type unreachableClient struct{}

func (unreachableClient) IsAvailable(ctx context.Context) bool { return false }

func (unreachableClient) Invoke(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", &backend.InvocationError{Err: errors.New("unreachable")}
}

func TestUnregisteredKindIsFatal(t *testing.T) {
	store := profile.NewStore(profile.Profile{Name: "weird", Kind: "hologram"})
	r := New(store, workingFactory(), nil)

	_, err := r.Resolve(context.Background(), "weird")
	var ce *transform.CreationError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want fatal *CreationError", err)
	}
}

func TestResolutionTotality(t *testing.T) {
	// Every unavailability-only scenario must yield a transformer.
	scenarios := []struct {
		name      string
		store     *profile.Store
		factory   *transform.Factory
		defaults  DefaultProvider
		requested string
	}{
		{"empty store, no request", profile.NewStore(), deadFactory(), nil, ""},
		{"empty store, named request", profile.NewStore(), deadFactory(), nil, "x"},
		{"llm default, dead backend", profile.NewStore(llmProfile("default")), deadFactory(), nil, ""},
		{"env default only, dead backend", profile.NewStore(), deadFactory(), envDefaults{p: llmProfile("d"), ok: true}, ""},
	}
	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			res, err := New(sc.store, sc.factory, sc.defaults).Resolve(context.Background(), sc.requested)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if res.Transformer == nil {
				t.Fatal("Resolve returned nil transformer")
			}
			out, err := res.Transformer.Transform(context.Background(), []string{"c"}, "out", "")
			if err != nil || out != "out" {
				t.Errorf("degraded transform = %q, %v, want pass-through", out, err)
			}
		})
	}
}

func TestResolvedLLMTransforms(t *testing.T) {
	store := profile.NewStore(llmProfile("summary"))
	r := New(store, workingFactory(), nil)

	res, err := r.Resolve(context.Background(), "summary")
	if err != nil {
		t.Fatal(err)
	}
	out, err := res.Transformer.Transform(context.Background(), []string{"make"}, "long output", "")
	if err != nil {
		t.Fatal(err)
	}
	if out != "rewritten" {
		t.Errorf("Transform() = %q", out)
	}
}
