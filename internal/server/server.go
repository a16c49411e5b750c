// Package server exposes the HTTP API. Every response uses the same
// JSON envelope: success plus one of message, error, databases,
// results, veilleData, or suggestions.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/latifnjimoluh/veille/internal/notion"
	"github.com/latifnjimoluh/veille/internal/pipeline"
	"github.com/latifnjimoluh/veille/internal/schema"
)

// NotionService is the read side of the Notion client the raw routes
// need.
type NotionService interface {
	ListDatabases(ctx context.Context) ([]notion.Database, error)
	QueryDatabase(ctx context.Context, databaseID string) ([]notion.Page, error)
}

// Runner executes one digest pipeline run.
type Runner interface {
	Run(ctx context.Context, v schema.Variant, databaseID, recipient string) (*pipeline.RunResult, error)
}

type response struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message,omitempty"`
	Error         string            `json:"error,omitempty"`
	Databases     []notion.Database `json:"databases,omitempty"`
	Results       any               `json:"results,omitempty"`
	VeilleData    []schema.Item     `json:"veilleData,omitempty"`
	Suggestions   string            `json:"suggestions,omitempty"`
	PatchFailures int               `json:"patchFailures,omitempty"`
}

type runRequest struct {
	RecipientEmail string `json:"recipientEmail"`
}

// Server holds dependencies for the HTTP handlers.
type Server struct {
	notion NotionService
	runner Runner
	mux    *http.ServeMux
}

// New wires up routes and returns a ready-to-use Server.
func New(n NotionService, runner Runner) *Server {
	s := &Server{notion: n, runner: runner, mux: http.NewServeMux()}
	s.routes()
	return s
}

// ServeHTTP makes Server satisfy the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/databases", s.handleListDatabases)
	s.mux.HandleFunc("GET /api/databases/{id}", s.handleRawQuery)

	for _, v := range []schema.Variant{schema.Techno, schema.Tech, schema.Radar} {
		variant := v
		s.mux.HandleFunc("GET /api/databases-"+variant.Name+"/{id}", func(w http.ResponseWriter, r *http.Request) {
			s.handleVariantItems(w, r, variant)
		})
		s.mux.HandleFunc("POST /api/gemini-"+variant.Name+"/{id}", func(w http.ResponseWriter, r *http.Request) {
			s.handleRunDigest(w, r, variant)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Success: true, Message: "ok"})
}

func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	databases, err := s.notion.ListDatabases(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Databases: databases})
}

func (s *Server) handleRawQuery(w http.ResponseWriter, r *http.Request) {
	pages, err := s.notion.QueryDatabase(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Results: pages})
}

func (s *Server) handleVariantItems(w http.ResponseWriter, r *http.Request, v schema.Variant) {
	pages, err := s.notion.QueryDatabase(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, VeilleData: v.ProjectAll(pages)})
}

func (s *Server) handleRunDigest(w http.ResponseWriter, r *http.Request, v schema.Variant) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Error: "corps JSON invalide"})
		return
	}
	if req.RecipientEmail == "" {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Error: "recipientEmail est requis"})
		return
	}

	result, err := s.runner.Run(r.Context(), v, r.PathValue("id"), req.RecipientEmail)
	if err != nil {
		writeError(w, err)
		return
	}

	if !result.Sent {
		writeJSON(w, http.StatusOK, response{Success: true, Message: result.Message})
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success:       true,
		Message:       result.Message,
		Results:       result.Items,
		Suggestions:   result.Suggestions,
		PatchFailures: result.PatchFailures,
	})
}

func writeError(w http.ResponseWriter, err error) {
	log.Printf("Request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, response{Success: false, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// Serve starts the HTTP server on the given port.
func Serve(n NotionService, runner Runner, port int) error {
	srv := New(n, runner)
	addr := fmt.Sprintf(":%d", port)
	log.Printf("Server listening on http://127.0.0.1%s", addr)
	return http.ListenAndServe(addr, srv)
}
