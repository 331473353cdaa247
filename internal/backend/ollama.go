package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kalambet/shtym/internal/profile"
)

// Message represents a chat message in the Ollama API format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Ollama communicates with an Ollama server over HTTP for one model.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllama builds an Ollama client from an llm-kind profile. It performs
// no I/O; availability is probed separately.
func NewOllama(p profile.Profile) (Client, error) {
	if p.ServerURL == "" || p.ModelName == "" {
		return nil, fmt.Errorf("profile %q has no server or model configured", p.Name)
	}
	return &Ollama{
		baseURL: strings.TrimRight(p.ServerURL, "/"),
		model:   p.ModelName,
		// Per-call deadlines come from the caller's context.
		httpClient: &http.Client{Timeout: 0},
	}, nil
}

// tagsResponse mirrors the JSON returned by GET /api/tags.
type tagsResponse struct {
	Models []modelEntry `json:"models"`
}

type modelEntry struct {
	Name string `json:"name"`
}

// IsAvailable returns true when the server responds to GET /api/tags and
// the configured model is present locally.
func (o *Ollama) IsAvailable(ctx context.Context) bool {
	models, err := o.listModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		// Ollama may return "llama3.2:3b" for a bare "llama3.2" request —
		// match without the tag suffix.
		if m == o.model || strings.HasPrefix(m, o.model+":") {
			return true
		}
	}
	return false
}

func (o *Ollama) listModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting model list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// chatResponse is the JSON returned by POST /api/chat (non-streaming).
type chatResponse struct {
	Message Message `json:"message"`
}

// Invoke sends the prompts to the configured model and returns the
// assistant's reply. All failures, including deadline expiry, surface as
// *InvocationError.
func (o *Ollama) Invoke(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	cr := chatRequest{
		Model: o.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
	}

	body, err := json.Marshal(cr)
	if err != nil {
		return "", &InvocationError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", &InvocationError{Err: fmt.Errorf("creating chat request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", &InvocationError{Timeout: isTimeout(ctx, err), Err: fmt.Errorf("chat request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &InvocationError{Err: fmt.Errorf("chat: unexpected status %d", resp.StatusCode)}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &InvocationError{Timeout: isTimeout(ctx, err), Err: fmt.Errorf("decoding chat response: %w", err)}
	}

	return result.Message.Content, nil
}

func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded)
}
