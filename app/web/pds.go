package web

import (
	"bytes"
	"net/http"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cabwad/hris/app/pds"
	"github.com/cabwad/hris/app/web/persistence"
)

var pdsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hris",
	Name:      "pds_generated_total",
	Help:      "Number of filled PDS documents",
}, []string{"kind"})

// GET /api/pds/schema
func (s *Server) handlePDSSchema(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, pds.Schema())
}

// GET /api/pds/{employee_id}
func (s *Server) handleGetPDS(w http.ResponseWriter, r *http.Request) {
	secs, err := s.store.LoadPDS(r.Context(), r.PathValue("employee_id"))
	if err != nil {
		s.writeStoreError(w, err, "failed to load pds")
		return
	}
	s.writeJSON(w, http.StatusOK, pds.Present(pds.Sections(secs)))
}

// POST /api/pds and POST /api/pds/{employee_id} save sections present in the submission,
// employee id from the path takes precedence over the body
func (s *Server) handleSavePDS(w http.ResponseWriter, r *http.Request) {
	sub := pds.Submission{}
	if err := decodeJSON(r, &sub); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	empID := r.PathValue("employee_id")
	if empID == "" {
		empID = strings.TrimSpace(sub.EmployeeID)
	}
	if empID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "employee_id is required")
		return
	}
	if _, err := s.store.GetEmployee(r.Context(), empID); err != nil {
		s.writeStoreError(w, err, "failed to get employee")
		return
	}

	secs, err := pds.Normalize(sub, s.now())
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SavePDS(r.Context(), empID, persistence.PDSSections(secs)); err != nil {
		s.writeStoreError(w, err, "failed to save pds")
		return
	}
	log.Printf("[INFO] pds of %s saved, %d sections", empID, len(secs))
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "PDS data saved successfully", "employee_id": empID})
}

// DELETE /api/pds/{employee_id} responds with number of deleted rows per section
func (s *Server) handleDeletePDS(w http.ResponseWriter, r *http.Request) {
	empID := r.PathValue("employee_id")
	counts, err := s.store.DeletePDS(r.Context(), empID)
	if err != nil {
		s.writeStoreError(w, err, "failed to delete pds")
		return
	}
	log.Printf("[INFO] pds of %s deleted: %v", empID, counts)
	s.writeJSON(w, http.StatusOK, map[string]any{"message": "PDS data deleted successfully", "employee_id": empID,
		"deleted": counts})
}

// GET /api/pds/{employee_id}/pdf renders the stored PDS into the form template
func (s *Server) handlePDSPDF(w http.ResponseWriter, r *http.Request) {
	if s.filler == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "pds generation is not configured")
		return
	}
	empID := r.PathValue("employee_id")
	secs, err := s.store.LoadPDS(r.Context(), empID)
	if err != nil {
		s.writeStoreError(w, err, "failed to load pds")
		return
	}
	data, err := s.filler.Fill(pds.FieldValues(pds.Flatten(pds.FromSections(pds.Sections(secs)))))
	if err != nil {
		log.Printf("[ERROR] failed to fill pds of %s: %v", empID, err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to fill pds form")
		return
	}
	pdsGenerated.WithLabelValues("stored").Inc()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+empID+`_PDS.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := bytes.NewReader(data).WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write pds of %s: %v", empID, err)
	}
}
