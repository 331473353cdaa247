// Package api exposes shtym's transformation pipeline to local tooling:
// a small REST surface for editor integrations and an MCP server for
// agent hosts.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/shtym/internal/backend"
	"github.com/kalambet/shtym/internal/history"
	"github.com/kalambet/shtym/internal/profile"
	"github.com/kalambet/shtym/internal/resolve"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds what the handlers need. History may be nil when disabled.
type Deps struct {
	Resolver *resolve.Resolver
	Profiles *profile.Store
	History  *history.Store
}

// NewHandler returns the REST handler.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Get("/profiles", handleProfiles(deps))
	r.Get("/history", handleHistory(deps))
	r.Post("/transform", handleTransform(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// profileInfo is the wire shape of one profile listing entry.
type profileInfo struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	SchemaVersion int    `json:"schema_version"`
	ModelName     string `json:"model_name,omitempty"`
	ServerURL     string `json:"server_url,omitempty"`
}

func handleProfiles(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := deps.Profiles.Names()
		infos := make([]profileInfo, 0, len(names))
		for _, name := range names {
			p, err := deps.Profiles.Get(name)
			if err != nil {
				continue
			}
			infos = append(infos, profileInfo{
				Name:          p.Name,
				Kind:          string(p.Kind),
				SchemaVersion: p.SchemaVersion,
				ModelName:     p.ModelName,
				ServerURL:     p.ServerURL,
			})
		}
		writeJSON(w, infos)
	}
}

func handleHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.History == nil {
			httpError(w, http.StatusServiceUnavailable, "history is disabled")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		records, err := deps.History.List(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "listing history: %v", err)
			return
		}
		if records == nil {
			records = []history.Record{}
		}
		writeJSON(w, records)
	}
}

// transformRequest is the POST /transform body.
type transformRequest struct {
	Command []string `json:"command"`
	Stdout  string   `json:"stdout"`
	Stderr  string   `json:"stderr"`
	Profile string   `json:"profile"`
}

// transformResponse is the POST /transform reply.
type transformResponse struct {
	Output   string `json:"output"`
	Profile  string `json:"profile,omitempty"`
	Degraded bool   `json:"degraded"`
}

func handleTransform(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req transformRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}
		if len(req.Command) == 0 {
			httpError(w, http.StatusBadRequest, "command is required and must not be empty")
			return
		}

		res, err := deps.Resolver.Resolve(r.Context(), req.Profile)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "resolving transformer: %v", err)
			return
		}

		output, err := res.Transformer.Transform(r.Context(), req.Command, req.Stdout, req.Stderr)
		if err != nil {
			var ie *backend.InvocationError
			if errors.As(err, &ie) && ie.Timeout {
				httpError(w, http.StatusGatewayTimeout, "transform timed out: %v", err)
				return
			}
			httpError(w, http.StatusBadGateway, "transform failed: %v", err)
			return
		}

		slog.Debug("transform served", "profile", res.Profile, "degraded", res.Degraded)
		writeJSON(w, transformResponse{
			Output:   output,
			Profile:  res.Profile,
			Degraded: res.Degraded,
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": fmt.Sprintf(format, args...),
	})
}
