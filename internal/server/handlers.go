package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/bismuthai/codegraph/pkg/ingest"
	"github.com/bismuthai/codegraph/pkg/overlay"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ready"})
}

// ingestRequest carries the file set to walk. File content is base64-encoded
// JSON strings rather than raw bytes, since the knowledge graph also indexes
// binary-adjacent formats (images, lockfiles) that must round-trip exactly.
type ingestRequest struct {
	GraphID string            `json:"graph_id"`
	Files   map[string]string `json:"files"`
}

// handleIngest runs the ingestion pipeline for the posted file set and
// streams every progress event the pipeline reports back as a server-sent
// event (the "resolving" stage reports once per analyzed file), terminated
// by a final "done" or "error" event.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	if req.GraphID == "" {
		s.writeError(w, r, http.StatusBadRequest, "graph_id is required")
		return
	}

	files := make(map[string][]byte, len(req.Files))
	for name, encoded := range req.Files {
		content, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("file %s: invalid base64: %v", name, err))
			return
		}
		files[name] = content
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(e ingest.Event) {
		payload, err := json.Marshal(e)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	err := s.pipeline.Run(r.Context(), req.GraphID, files, writeEvent)
	if err != nil {
		s.logger.Error("ingest failed", slog.String("graph_id", req.GraphID), slog.Any("error", err))
		writeEvent(ingest.Event{Stage: "error", Message: err.Error()})
		return
	}
}

// handleDelete removes a graph and its search rows entirely.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graph_id")

	if err := s.search.DeleteGraph(r.Context(), graphID); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.graphs.Delete(graphID); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	render.NoContent(w, r)
}

type queryRequest struct {
	Query     string           `json:"query"`
	SeedNodes []int            `json:"seed_nodes,omitempty"`
	OnlyTests bool             `json:"only_tests,omitempty"`
	Edits     []overlayEditDTO `json:"edits,omitempty"`
}

type overlayEditDTO struct {
	Path    string  `json:"path"`
	Content *string `json:"content"` // nil means the file was deleted
}

type queryResponse struct {
	Hits []hitDTO `json:"hits"`
}

type hitDTO struct {
	NodeID   int     `json:"node_id"`
	Symbol   string  `json:"symbol"`
	FileName string  `json:"file_name"`
	Line     int     `json:"line"`
	EndLine  int     `json:"end_line"`
	Score    float64 `json:"score"`
}

// handleQuery runs a retrieval query against graph_id, optionally applying
// transient overlay edits for the duration of this request only.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graph_id")

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	if req.Query == "" {
		s.writeError(w, r, http.StatusBadRequest, "query is required")
		return
	}

	edits := make([]overlay.Edit, 0, len(req.Edits))
	for _, e := range req.Edits {
		var content []byte
		if e.Content != nil {
			content = []byte(*e.Content)
		}
		edits = append(edits, overlay.Edit{Path: e.Path, Content: content})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	hits, err := s.engine.Query(ctx, graphID, req.Query, req.SeedNodes, req.OnlyTests, edits)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	resp := queryResponse{Hits: make([]hitDTO, 0, len(hits))}
	for _, h := range hits {
		resp.Hits = append(resp.Hits, hitDTO{
			NodeID:   h.Node.ID,
			Symbol:   h.Node.Symbol,
			FileName: h.Node.FileName,
			Line:     h.Node.Line,
			EndLine:  h.Node.EndLine,
			Score:    h.Score,
		})
	}
	render.JSON(w, r, resp)
}
