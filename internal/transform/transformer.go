// Package transform defines the output-transformer contract and its two
// built-in variants: identity pass-through and an LLM-backed rewrite.
package transform

import (
	"context"
	"fmt"
)

// Transformer rewrites captured command output for one invocation. It
// holds no cross-invocation state.
type Transformer interface {
	Transform(ctx context.Context, command []string, stdout, stderr string) (string, error)
}

// Identity returns the captured stdout unchanged. It is the terminal
// fallback of every degraded resolution and can never fail.
type Identity struct{}

func (Identity) Transform(_ context.Context, _ []string, stdout, _ string) (string, error) {
	return stdout, nil
}

// CreationError reports a profile kind with no transformer implementation.
// This is a programming defect, not an availability problem, and is never
// silently degraded.
type CreationError struct {
	Kind string
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("no transformer implementation for profile kind %q", e.Kind)
}
