package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Framian/umami/pkg/adapters/postgres"
	"github.com/Framian/umami/pkg/connection"
	"github.com/Framian/umami/pkg/core"
	"github.com/Framian/umami/pkg/filters"
	"github.com/Framian/umami/pkg/paging"
)

// QueryOptions is the JSON form of core.QueryOptions.
type QueryOptions struct {
	Page           int               `json:"page"`
	PageSize       *int              `json:"pageSize"`
	OrderBy        string            `json:"orderBy"`
	SortDescending bool              `json:"sortDescending"`
	Search         string            `json:"search"`
	JoinSession    bool              `json:"joinSession"`
	Prefix         string            `json:"prefix"`
	Columns        map[string]string `json:"columns"`
}

func (o QueryOptions) toCore() core.QueryOptions {
	return core.QueryOptions{
		Page:           o.Page,
		PageSize:       o.PageSize,
		OrderBy:        o.OrderBy,
		SortDescending: o.SortDescending,
		Search:         o.Search,
		JoinSession:    o.JoinSession,
		Prefix:         o.Prefix,
		Columns:        o.Columns,
	}
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Name     string         `json:"name"`
	Template string         `json:"template"`
	Filters  map[string]any `json:"filters"`
	Params   map[string]any `json:"params"`
	Options  QueryOptions   `json:"options"`
}

// TableRequest is the body of POST /api/table.
type TableRequest struct {
	Table         string       `json:"table"`
	Columns       []string     `json:"columns"`
	SearchColumns []string     `json:"searchColumns"`
	Options       QueryOptions `json:"options"`
}

// ConnectionRequest is the body of POST /api/connection.
type ConnectionRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	mode, err := s.resolver.Ping(r.Context())
	if err != nil {
		s.logger.Warn("heartbeat failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"mode": mode.String(),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Template == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "template is required"})
		return
	}

	opts := req.Options.toCore()
	parsed := filters.ParseFilters(filters.FromMap(req.Filters), opts)

	page, err := paging.PagedRawQuery(r.Context(), s.resolver, parsed.Expand(req.Template), parsed.Params(req.Params), opts, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	var req TableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Table == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "table is required"})
		return
	}

	opts := req.Options.toCore()
	model := paging.TableModel{Table: req.Table, Columns: req.Columns, Querier: s.resolver}
	criteria := paging.Criteria{Where: paging.SearchExpression(opts.Search, req.SearchColumns...)}

	page, err := paging.PagedQuery[core.Row](r.Context(), model, criteria, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSetConnection(w http.ResponseWriter, r *http.Request) {
	var req ConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	dsn, ok := postgres.NormalizeConnectionString(req.URL)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	sess, _ := s.sessions.Get(r, s.sessionName)
	sess.Values[sessionURLKey] = dsn
	if err := sess.Save(r, w); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("session connection set", "url", postgres.SanitizeConnectionString(dsn))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearConnection(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.sessions.Get(r, s.sessionName)
	delete(sess.Values, sessionURLKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, connection.ErrNoConnectionString) {
		status = http.StatusServiceUnavailable
	}
	s.logger.Error("request failed", "error", err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
