package profile

import (
	"log/slog"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// Store is an immutable mapping from profile name to Profile, built once
// from one or more configuration sources. Safe for concurrent reads.
type Store struct {
	profiles map[string]Profile
}

// Load builds a Store from the given TOML files, listed in ascending
// precedence: profiles from a later path shadow same-named profiles from
// an earlier one.
//
// Source-level problems never fail the load. A missing file contributes
// nothing, and so does a file that fails to parse — availability wins over
// strictness here, since the wrapper must keep working with whatever
// profiles it can read. Individual malformed entries are skipped without
// affecting valid siblings. Reasons are reported on the debug log only.
func Load(paths ...string) *Store {
	profiles := make(map[string]Profile)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Debug("profiles file unreadable, skipping", "path", path, "error", err)
			}
			continue
		}
		for name, p := range parseProfiles(path, string(data)) {
			profiles[name] = p
		}
	}
	return &Store{profiles: profiles}
}

// NewStore builds a Store directly from profiles, keyed by Profile.Name.
// Used by tests and by callers that assemble profiles programmatically.
func NewStore(profiles ...Profile) *Store {
	m := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		m[p.Name] = p
	}
	return &Store{profiles: m}
}

// Get returns the profile with the given name, or *NotFoundError.
func (s *Store) Get(name string) (Profile, error) {
	p, ok := s.profiles[name]
	if !ok {
		return Profile{}, &NotFoundError{Name: name}
	}
	return p, nil
}

// Default returns the profile named "default" if one was loaded.
func (s *Store) Default() (Profile, bool) {
	p, ok := s.profiles[DefaultName]
	return p, ok
}

// Names returns all loaded profile names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for n := range s.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded profiles.
func (s *Store) Len() int {
	return len(s.profiles)
}

// document mirrors the top-level shape of a profiles file. Each entry is
// kept as a toml.Primitive so one bad entry cannot poison its siblings.
type document struct {
	Profiles map[string]toml.Primitive `toml:"profiles"`
}

// entry mirrors one profiles.<name> table.
type entry struct {
	Kind                 string      `toml:"kind"`
	SchemaVersion        int         `toml:"schemaVersion"`
	SystemPromptTemplate string      `toml:"systemPromptTemplate"`
	UserPromptTemplate   string      `toml:"userPromptTemplate"`
	LLMSettings          llmSettings `toml:"llmSettings"`
}

type llmSettings struct {
	ModelName string `toml:"modelName"`
	ServerURL string `toml:"serverURL"`
}

func parseProfiles(path, data string) map[string]Profile {
	var doc document
	md, err := toml.Decode(data, &doc)
	if err != nil {
		slog.Debug("profiles file failed to parse, skipping", "path", path, "error", err)
		return nil
	}

	profiles := make(map[string]Profile, len(doc.Profiles))
	for name, prim := range doc.Profiles {
		var e entry
		if err := md.PrimitiveDecode(prim, &e); err != nil {
			slog.Debug("skipping malformed profile entry", "path", path, "profile", name, "error", err)
			continue
		}
		p, ok := e.toProfile(name)
		if !ok {
			slog.Debug("skipping invalid profile entry", "path", path, "profile", name)
			continue
		}
		profiles[name] = p
	}
	return profiles
}

// toProfile validates an entry and converts it. Reports ok=false for
// entries that violate the profile invariants: unknown kind, or an llm
// profile missing its model or server.
func (e entry) toProfile(name string) (Profile, bool) {
	if name == "" {
		return Profile{}, false
	}

	p := Profile{
		Name:          name,
		Kind:          Kind(e.Kind),
		SchemaVersion: e.SchemaVersion,
	}
	if p.SchemaVersion == 0 {
		p.SchemaVersion = 1
	}

	switch p.Kind {
	case KindIdentity:
		return p, true
	case KindLLM:
		if e.LLMSettings.ModelName == "" || e.LLMSettings.ServerURL == "" {
			return Profile{}, false
		}
		p.SystemPromptTemplate = e.SystemPromptTemplate
		p.UserPromptTemplate = e.UserPromptTemplate
		p.ModelName = e.LLMSettings.ModelName
		p.ServerURL = e.LLMSettings.ServerURL
		return p, true
	default:
		return Profile{}, false
	}
}
