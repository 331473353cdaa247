// Package profile loads named output-transformation profiles from TOML
// documents and exposes lookup by name.
package profile

import "fmt"

// Kind selects the transformer variant a profile configures.
type Kind string

const (
	KindIdentity Kind = "identity"
	KindLLM      Kind = "llm"
)

// DefaultName is the distinguished profile used when the caller requests
// no profile explicitly.
const DefaultName = "default"

// Profile is a named, declarative configuration describing how to rewrite
// captured command output. Immutable after load.
type Profile struct {
	Name          string
	Kind          Kind
	SchemaVersion int

	// llm-kind fields. Empty for identity profiles.
	SystemPromptTemplate string
	UserPromptTemplate   string
	ModelName            string
	ServerURL            string
}

// NotFoundError is returned by Store.Get for an unknown profile name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("profile %q not found", e.Name)
}
