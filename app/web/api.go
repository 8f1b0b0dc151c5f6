package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	log "github.com/go-pkgz/lgr"

	"github.com/cabwad/hris/app/web/persistence"
)

const defaultPageSize = 10

// statusResponse is the envelope used by account endpoints
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// pageLinks holds urls of the neighbor pages, nil if there is no such page
type pageLinks struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// pagedResponse is a page of list results
type pagedResponse struct {
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Links       pageLinks `json:"links"`
	Count       int       `json:"count"`
	TotalPages  int       `json:"total_pages"`
	CurrentPage int       `json:"current_page"`
	Results     any       `json:"results"`
}

// pageParams reads page and page_size query params, both are 1-based and positive
type pageParams struct {
	page int
	size int
}

func readPage(r *http.Request) pageParams {
	res := pageParams{page: 1, size: defaultPageSize}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		res.page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 {
		res.size = min(v, 1000)
	}
	return res
}

func (p pageParams) store() persistence.Page {
	return persistence.Page{Limit: p.size, Offset: (p.page - 1) * p.size}
}

// paged makes the list envelope with links to neighbor pages
func (p pageParams) paged(r *http.Request, message string, total int, results any) pagedResponse {
	pages := int(math.Ceil(float64(total) / float64(p.size)))
	link := func(page int) *string {
		if page < 1 || page > pages {
			return nil
		}
		u := url.URL{Path: r.URL.Path}
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page))
		u.RawQuery = q.Encode()
		res := u.String()
		return &res
	}
	return pagedResponse{
		Status:      "success",
		Message:     message,
		Links:       pageLinks{Next: link(p.page + 1), Previous: link(p.page - 1)},
		Count:       total,
		TotalPages:  pages,
		CurrentPage: p.page,
		Results:     results,
	}
}

// pathID parses numeric id path value
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, r.PathValue(name))
	}
	return id, nil
}

// decodeJSON reads request body into v
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// storeErrorStatus maps store errors to http status codes
func storeErrorStatus(err error) int {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, persistence.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, persistence.ErrWrongEmployee):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeStoreError writes error response for a store error, internal errors are logged and hidden
func (s *Server) writeStoreError(w http.ResponseWriter, err error, what string) {
	code := storeErrorStatus(err)
	if code == http.StatusInternalServerError {
		log.Printf("[ERROR] %s: %v", what, err)
		s.writeJSONError(w, code, what)
		return
	}
	s.writeJSONError(w, code, err.Error())
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeStatus writes the status/message envelope
func (s *Server) writeStatus(w http.ResponseWriter, code int, message string, data any) {
	st := "success"
	if code >= http.StatusBadRequest {
		st = "error"
	}
	s.writeJSON(w, code, statusResponse{Status: st, Message: message, Data: data})
}
