package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kalambet/shtym/internal/profile"
)

// stubClient is a Client double with scripted behavior.
type stubClient struct {
	available bool
	reply     string
	err       error
}

func (s *stubClient) IsAvailable(ctx context.Context) bool { return s.available }

func (s *stubClient) Invoke(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.reply, s.err
}

func TestRegistryLoad_UnregisteredKind(t *testing.T) {
	r := NewRegistry()

	_, err := r.Load(context.Background(), profile.Profile{Name: "p", Kind: profile.KindLLM})
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UnavailableError", err)
	}
	if ue.Kind != "llm" {
		t.Errorf("UnavailableError.Kind = %q", ue.Kind)
	}
}

func TestRegistryLoad_ConstructionFailure(t *testing.T) {
	r := NewRegistry()
	r.Register(profile.KindLLM, func(p profile.Profile) (Client, error) {
		return nil, fmt.Errorf("no binary found")
	})

	_, err := r.Load(context.Background(), profile.Profile{Name: "p", Kind: profile.KindLLM})
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UnavailableError", err)
	}
}

func TestRegistryLoad_UnreachableBackend(t *testing.T) {
	r := NewRegistry()
	r.Register(profile.KindLLM, func(p profile.Profile) (Client, error) {
		return &stubClient{available: false}, nil
	})

	p := profile.Profile{Name: "p", Kind: profile.KindLLM, ModelName: "m", ServerURL: "http://localhost:1"}
	_, err := r.Load(context.Background(), p)
	var ce *ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *ConnectionError", err)
	}
	if ce.Model != "m" {
		t.Errorf("ConnectionError.Model = %q", ce.Model)
	}
}

func TestRegistryLoad_Success(t *testing.T) {
	r := NewRegistry()
	r.Register(profile.KindLLM, func(p profile.Profile) (Client, error) {
		return &stubClient{available: true, reply: "hi"}, nil
	})

	c, err := r.Load(context.Background(), profile.Profile{Name: "p", Kind: profile.KindLLM})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := c.Invoke(context.Background(), "s", "u")
	if err != nil || got != "hi" {
		t.Errorf("Invoke() = %q, %v", got, err)
	}
}

func TestDefaultRegistryLoadsOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("llama3.2:3b"))
	}))
	defer srv.Close()

	c, err := Default().Load(context.Background(), llmProfile(srv.URL))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := c.(*Ollama); !ok {
		t.Errorf("client type = %T, want *Ollama", c)
	}
}
