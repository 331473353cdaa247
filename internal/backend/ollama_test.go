package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kalambet/shtym/internal/profile"
)

// tagsJSON builds a /api/tags response with the given model names.
func tagsJSON(names ...string) []byte {
	type entry struct {
		Name string `json:"name"`
	}
	type resp struct {
		Models []entry `json:"models"`
	}
	r := resp{}
	for _, n := range names {
		r.Models = append(r.Models, entry{Name: n})
	}
	b, _ := json.Marshal(r)
	return b
}

func llmProfile(serverURL string) profile.Profile {
	return profile.Profile{
		Name:      "test",
		Kind:      profile.KindLLM,
		ModelName: "llama3.2:3b",
		ServerURL: serverURL,
	}
}

func newOllama(t *testing.T, serverURL string) Client {
	t.Helper()
	c, err := NewOllama(llmProfile(serverURL))
	if err != nil {
		t.Fatalf("NewOllama: %v", err)
	}
	return c
}

func TestIsAvailable_ModelPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("llama3.2:3b", "nomic-embed-text:latest"))
	}))
	defer srv.Close()

	if !newOllama(t, srv.URL).IsAvailable(context.Background()) {
		t.Error("IsAvailable() = false, want true")
	}
}

func TestIsAvailable_BareNameMatchesTaggedModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("mistral:latest"))
	}))
	defer srv.Close()

	p := llmProfile(srv.URL)
	p.ModelName = "mistral"
	c, err := NewOllama(p)
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = false, want tag-suffix match")
	}
}

func TestIsAvailable_ModelAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("mistral-nemo:latest"))
	}))
	defer srv.Close()

	if newOllama(t, srv.URL).IsAvailable(context.Background()) {
		t.Error("IsAvailable() = true, want false when model missing")
	}
}

func TestIsAvailable_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if newOllama(t, srv.URL).IsAvailable(context.Background()) {
		t.Error("IsAvailable() = true, want false when server is down")
	}
}

func TestInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		var req struct {
			Model    string    `json:"model"`
			Messages []Message `json:"messages"`
			Stream   bool      `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "llama3.2:3b" {
			t.Errorf("model = %q", req.Model)
		}
		if req.Stream {
			t.Error("stream = true, want false")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v, want [system user]", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": Message{Role: "assistant", Content: "3 tests passed"},
		})
	}))
	defer srv.Close()

	got, err := newOllama(t, srv.URL).Invoke(context.Background(), "summarize", "raw output")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got != "3 tests passed" {
		t.Errorf("Invoke() = %q", got)
	}
}

func TestInvoke_TimeoutSurfacesAsInvocationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newOllama(t, srv.URL).Invoke(ctx, "sys", "user")
	var ie *InvocationError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *InvocationError", err)
	}
	if !ie.Timeout {
		t.Errorf("InvocationError.Timeout = false, want true")
	}
}

func TestInvoke_ServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newOllama(t, srv.URL).Invoke(context.Background(), "sys", "user")
	var ie *InvocationError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *InvocationError", err)
	}
	if ie.Timeout {
		t.Error("Timeout = true for a 500 response")
	}
}

func TestNewOllama_RejectsEmptySettings(t *testing.T) {
	if _, err := NewOllama(profile.Profile{Name: "p", Kind: profile.KindLLM}); err == nil {
		t.Error("NewOllama with empty settings succeeded, want error")
	}
}
