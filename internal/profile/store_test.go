package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSingleProfile(t *testing.T) {
	path := writeProfiles(t, `
[profiles.summary]
kind = "llm"
systemPromptTemplate = "Summarize: $command"
userPromptTemplate = "$stdout"

[profiles.summary.llmSettings]
modelName = "llama3.2:3b"
serverURL = "http://localhost:11434"
`)

	s := Load(path)

	p, err := s.Get("summary")
	if err != nil {
		t.Fatalf("Get(summary): %v", err)
	}
	if p.Kind != KindLLM {
		t.Errorf("Kind = %q, want %q", p.Kind, KindLLM)
	}
	if p.SystemPromptTemplate != "Summarize: $command" {
		t.Errorf("SystemPromptTemplate = %q", p.SystemPromptTemplate)
	}
	if p.ModelName != "llama3.2:3b" {
		t.Errorf("ModelName = %q", p.ModelName)
	}
	if p.ServerURL != "http://localhost:11434" {
		t.Errorf("ServerURL = %q", p.ServerURL)
	}
	if p.SchemaVersion != 1 {
		t.Errorf("SchemaVersion = %d, want default 1", p.SchemaVersion)
	}
}

func TestLoadMissingFileYieldsEmptyStore(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))

	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
	if _, err := s.Get("anything"); err == nil {
		t.Fatal("Get on empty store succeeded, want NotFoundError")
	}
	if _, ok := s.Default(); ok {
		t.Error("Default() on empty store reported a profile")
	}
}

func TestLoadInvalidTOMLYieldsEmptyStore(t *testing.T) {
	path := writeProfiles(t, `[profiles.broken
kind = "llm"`)

	s := Load(path)
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for unparseable file", s.Len())
	}
}

func TestLoadSkipsMalformedEntryKeepsSiblings(t *testing.T) {
	path := writeProfiles(t, `
[profiles.good]
kind = "identity"

[profiles.badkind]
kind = "hologram"

[profiles.badtype]
kind = 42

[profiles.nollm]
kind = "llm"
systemPromptTemplate = "x"
`)

	s := Load(path)

	if _, err := s.Get("good"); err != nil {
		t.Errorf("valid sibling did not load: %v", err)
	}
	for _, name := range []string{"badkind", "badtype", "nollm"} {
		if _, err := s.Get(name); err == nil {
			t.Errorf("malformed entry %q loaded, want skipped", name)
		}
	}
}

func TestLoadLaterPathShadowsEarlier(t *testing.T) {
	global := writeProfiles(t, `
[profiles.default]
kind = "llm"
[profiles.default.llmSettings]
modelName = "global-model"
serverURL = "http://localhost:11434"

[profiles.only-global]
kind = "identity"
`)
	local := writeProfiles(t, `
[profiles.default]
kind = "identity"
`)

	s := Load(global, local)

	p, ok := s.Default()
	if !ok {
		t.Fatal("Default() missing")
	}
	if p.Kind != KindIdentity {
		t.Errorf("default Kind = %q, want local identity to shadow global llm", p.Kind)
	}
	if _, err := s.Get("only-global"); err != nil {
		t.Errorf("profile present only in the earlier source was lost: %v", err)
	}
}

func TestGetUnknownReturnsNotFoundError(t *testing.T) {
	s := NewStore(Profile{Name: "p1", Kind: KindIdentity})

	_, err := s.Get("does-not-exist")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if nf.Name != "does-not-exist" {
		t.Errorf("NotFoundError.Name = %q", nf.Name)
	}
}

func TestNames(t *testing.T) {
	s := NewStore(
		Profile{Name: "zeta", Kind: KindIdentity},
		Profile{Name: "alpha", Kind: KindIdentity},
	)

	names := s.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Names() = %v, want sorted [alpha zeta]", names)
	}
}

func TestSchemaVersionPreserved(t *testing.T) {
	path := writeProfiles(t, `
[profiles.v2]
kind = "identity"
schemaVersion = 2
`)

	s := Load(path)
	p, err := s.Get("v2")
	if err != nil {
		t.Fatal(err)
	}
	if p.SchemaVersion != 2 {
		t.Errorf("SchemaVersion = %d, want 2", p.SchemaVersion)
	}
}
