package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// documentPath extracts the document path from the URL (everything after /api/documents/).
// Supports encoded slashes from OpenAPI clients (e.g. docs%2Fguide.md).
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Diagnostics handles GET /api/diagnostics.
//
//	@Summary		Get the diagnostics of the latest lint run
//	@Tags			lint
//	@Produce		json
//	@Success		200	{object}	diagnostics.Report
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/diagnostics [get]
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Current()
	if err != nil {
		writeError(w, "diagnostics", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"diagnostics": res.Report.Diagnostics,
		"errors":      res.Report.Errors,
		"warnings":    res.Report.Warnings,
		"exit_code":   res.Report.ExitCode(),
	})
}

// Lint handles POST /api/lint.
//
//	@Summary		Run a lint pass now
//	@Tags			lint
//	@Produce		json
//	@Success		200	{object}	diagnostics.Report
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lint [post]
func (h *Handler) Lint(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Lint(r.Context())
	if err != nil {
		writeError(w, "lint", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"diagnostics": res.Report.Diagnostics,
		"errors":      res.Report.Errors,
		"warnings":    res.Report.Warnings,
		"exit_code":   res.Report.ExitCode(),
	})
}

// Files handles GET /api/files.
//
//	@Summary		List reachable documents
//	@Tags			files
//	@Produce		json
//	@Param			sort	query		string	false	"Sort field"	Enums(path, depth)
//	@Param			query	query		string	false	"Front-matter filter, e.g. status=done,!draft"
//	@Success		200		{object}	map[string]any
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	files, err := h.svc.Files(q.Get("sort"), q.Get("query"))
	if err != nil {
		writeError(w, "files", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"files": files,
		"total": len(files),
	})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a single document by path
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.Document(path)
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across exported documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the reachability graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	graph, err := h.svc.Graph()
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}
