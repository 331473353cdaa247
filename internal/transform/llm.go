package transform

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kalambet/shtym/internal/backend"
	"github.com/kalambet/shtym/internal/profile"
	"github.com/kalambet/shtym/internal/template"
)

// LLM rewrites captured output by rendering the profile's prompt templates
// and invoking a backend client. Construction-time unavailability is the
// factory's concern; failures here happen per call and always surface.
type LLM struct {
	client  backend.Client
	profile profile.Profile
	timeout time.Duration
	vars    map[string]string
}

// NewLLM builds an LLM transformer for p using an already-loaded client.
// timeout bounds each Invoke call; zero means no bound beyond the caller's
// context. extraVars are merged into the template variable set; the fixed
// variables (command, stdout, stderr) always win on collision.
func NewLLM(client backend.Client, p profile.Profile, timeout time.Duration, extraVars map[string]string) *LLM {
	return &LLM{client: client, profile: p, timeout: timeout, vars: extraVars}
}

func (l *LLM) Transform(ctx context.Context, command []string, stdout, stderr string) (string, error) {
	vars := make(map[string]string, len(l.vars)+3)
	for k, v := range l.vars {
		vars[k] = v
	}
	vars["command"] = strings.Join(command, " ")
	vars["stdout"] = stdout
	vars["stderr"] = stderr

	system := template.Render(l.systemTemplate(), vars)
	user := template.Render(l.userTemplate(), vars)

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	reply, err := l.client.Invoke(ctx, system, user)
	if err != nil {
		var ie *backend.InvocationError
		if errors.As(err, &ie) {
			return "", err
		}
		return "", &backend.InvocationError{Err: err}
	}
	return reply, nil
}

func (l *LLM) systemTemplate() string {
	if l.profile.SystemPromptTemplate != "" {
		return l.profile.SystemPromptTemplate
	}
	return profile.DefaultSystemPromptTemplate
}

func (l *LLM) userTemplate() string {
	if l.profile.UserPromptTemplate != "" {
		return l.profile.UserPromptTemplate
	}
	return profile.DefaultUserPromptTemplate
}
