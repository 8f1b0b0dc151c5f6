package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabwad/hris/app/web/persistence"
)

func TestReadPage(t *testing.T) {
	tbl := []struct {
		query      string
		page, size int
		offset     int
	}{
		{"", 1, 10, 0},
		{"?page=3", 3, 10, 20},
		{"?page=2&page_size=25", 2, 25, 25},
		{"?page=0&page_size=-5", 1, 10, 0},
		{"?page=x&page_size=5000", 1, 1000, 0},
	}
	for _, tt := range tbl {
		t.Run(tt.query, func(t *testing.T) {
			pp := readPage(httptest.NewRequest(http.MethodGet, "/list"+tt.query, http.NoBody))
			assert.Equal(t, tt.page, pp.page)
			assert.Equal(t, tt.size, pp.size)
			assert.Equal(t, persistence.Page{Limit: tt.size, Offset: tt.offset}, pp.store())
		})
	}
}

func TestPageParams_paged(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/employee/list?category=casual&page=2&page_size=5", http.NoBody)
	pp := readPage(r)
	res := pp.paged(r, "ok", 12, []int{1, 2})
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 2, res.CurrentPage)
	require.NotNil(t, res.Links.Next)
	assert.Equal(t, "/api/employee/list?category=casual&page=3&page_size=5", *res.Links.Next)
	require.NotNil(t, res.Links.Previous)
	assert.Equal(t, "/api/employee/list?category=casual&page=1&page_size=5", *res.Links.Previous)

	empty := readPage(r).paged(r, "ok", 0, []int{})
	assert.Equal(t, 0, empty.TotalPages)
	assert.Nil(t, empty.Links.Next)
	assert.Nil(t, empty.Links.Previous)
}

func TestStoreErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, storeErrorStatus(fmt.Errorf("x: %w", persistence.ErrNotFound)))
	assert.Equal(t, http.StatusConflict, storeErrorStatus(fmt.Errorf("x: %w", persistence.ErrAlreadyExists)))
	assert.Equal(t, http.StatusBadRequest, storeErrorStatus(fmt.Errorf("x: %w", persistence.ErrWrongEmployee)))
	assert.Equal(t, http.StatusInternalServerError, storeErrorStatus(errors.New("disk full")))
}

func TestServer_writeStoreError(t *testing.T) {
	srv := &Server{}

	rec := httptest.NewRecorder()
	srv.writeStoreError(rec, errors.New("secret sql details"), "failed to list")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to list"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.writeStoreError(rec, fmt.Errorf("employee %q: %w", "E1", persistence.ErrNotFound), "failed to get")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "E1")
}

func TestServer_writeStatus(t *testing.T) {
	srv := &Server{}
	rec := httptest.NewRecorder()
	srv.writeStatus(rec, http.StatusBadRequest, "bad", nil)
	assert.JSONEq(t, `{"status":"error","message":"bad"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
