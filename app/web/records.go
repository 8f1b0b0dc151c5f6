package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/cabwad/hris/app/dates"
	"github.com/cabwad/hris/app/web/persistence"
)

// recordsRequest is the body of the service records upsert
type recordsRequest struct {
	EmployeeID     string                      `json:"employee_id"`
	ServiceRecords []persistence.ServiceRecord `json:"service_records"`
}

// employeeRecords is the employee header with service history
type employeeRecords struct {
	EmployeeID     string                      `json:"employee_id"`
	Surname        string                      `json:"surname"`
	FirstName      string                      `json:"first_name"`
	MiddleName     string                      `json:"middle_name"`
	BirthDate      string                      `json:"birth_date"`
	BirthPlace     string                      `json:"birth_place"`
	ServiceRecords []persistence.ServiceRecord `json:"service_records"`
}

// GET /api/service-record
func (s *Server) handleListServiceRecords(w http.ResponseWriter, r *http.Request) {
	pp := readPage(r)
	recs, total, err := s.store.ListServiceRecords(r.Context(), pp.store())
	if err != nil {
		s.writeStoreError(w, err, "failed to list service records")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"count": total, "results": displayRecords(recs)})
}

// GET /api/service-record/{employee_id}
func (s *Server) handleEmployeeServiceRecords(w http.ResponseWriter, r *http.Request) {
	emp, err := s.store.GetEmployee(r.Context(), r.PathValue("employee_id"))
	if err != nil {
		s.writeStoreError(w, err, "failed to get employee")
		return
	}
	recs, err := s.store.ServiceRecords(r.Context(), emp.EmployeeID)
	if err != nil {
		s.writeStoreError(w, err, "failed to get service records")
		return
	}
	s.writeJSON(w, http.StatusOK, employeeRecords{
		EmployeeID:     emp.EmployeeID,
		Surname:        emp.Surname,
		FirstName:      emp.FirstName,
		MiddleName:     emp.MiddleName,
		BirthDate:      dates.Format(emp.BirthDate, dates.LongLayout),
		BirthPlace:     emp.BirthPlace,
		ServiceRecords: displayRecords(recs),
	})
}

// POST /api/service-record and POST /api/service-record/{employee_id} upsert records of the employee.
// The body is either {"employee_id", "service_records"} or a bare list of records.
func (s *Server) handleSaveServiceRecords(w http.ResponseWriter, r *http.Request) {
	req := recordsRequest{}
	body := json.RawMessage{}
	if err := decodeJSON(r, &body); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	target := any(&req)
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		target = &req.ServiceRecords
	}
	if err := json.Unmarshal(body, target); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	empID := r.PathValue("employee_id")
	if empID == "" {
		empID = strings.TrimSpace(req.EmployeeID)
	}
	if empID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "employee_id is required")
		return
	}
	for i := range req.ServiceRecords {
		if err := normalizeRecord(&req.ServiceRecords[i]); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	saved, err := s.store.SaveServiceRecords(r.Context(), empID, req.ServiceRecords)
	if err != nil {
		s.writeStoreError(w, err, "failed to save service records")
		return
	}
	log.Printf("[INFO] %d service records of %s saved", len(saved), empID)
	s.writeJSON(w, http.StatusOK, recordsRequest{EmployeeID: empID, ServiceRecords: saved})
}

// PUT /api/service-record/record/{id}
func (s *Server) handleUpdateServiceRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.store.GetServiceRecord(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "failed to get service record")
		return
	}
	owner := rec.EmployeeID
	if err := decodeJSON(r, &rec); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec.ID, rec.EmployeeID = id, owner
	if err := normalizeRecord(&rec); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.UpdateServiceRecord(r.Context(), rec); err != nil {
		s.writeStoreError(w, err, "failed to update service record")
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// DELETE /api/service-record/record/{id}
func (s *Server) handleDeleteServiceRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.DeleteServiceRecord(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "failed to delete service record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/service-record/{employee_id}/pdf
func (s *Server) handleServiceRecordPDF(w http.ResponseWriter, r *http.Request) {
	if s.report == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "service record rendering is not configured")
		return
	}
	emp, err := s.store.GetEmployee(r.Context(), r.PathValue("employee_id"))
	if err != nil {
		s.writeStoreError(w, err, "failed to get employee")
		return
	}
	recs, err := s.store.ServiceRecords(r.Context(), emp.EmployeeID)
	if err != nil {
		s.writeStoreError(w, err, "failed to get service records")
		return
	}

	buf := bytes.Buffer{}
	if err := s.report.ServiceRecord(&buf, emp, recs); err != nil {
		log.Printf("[ERROR] failed to render service record of %s: %v", emp.EmployeeID, err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to render service record")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+emp.EmployeeID+`_service_record.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write service record of %s: %v", emp.EmployeeID, err)
	}
}

// normalizeRecord trims fields and stores dates as YYYY-MM-DD, "PRESENT" and other words are kept in service_to
func normalizeRecord(rec *persistence.ServiceRecord) error {
	rec.Designation = strings.TrimSpace(rec.Designation)
	rec.Status = strings.TrimSpace(rec.Status)
	rec.Station = strings.TrimSpace(rec.Station)
	rec.Salary = strings.TrimSpace(rec.Salary)
	rec.Absence = strings.TrimSpace(rec.Absence)
	if rec.Designation == "" {
		return errors.New("designation is required")
	}
	from, err := dates.ISO(rec.ServiceFrom)
	if err != nil {
		return errors.New("invalid service_from: " + err.Error())
	}
	rec.ServiceFrom = from
	if to, err := dates.ISO(rec.ServiceTo); err == nil {
		rec.ServiceTo = to
	} else {
		rec.ServiceTo = strings.ToUpper(strings.TrimSpace(rec.ServiceTo))
	}
	return nil
}

// displayRecords formats record dates as "January 02, 2006"
func displayRecords(recs []persistence.ServiceRecord) []persistence.ServiceRecord {
	res := make([]persistence.ServiceRecord, len(recs))
	for i, r := range recs {
		r.ServiceFrom = dates.Format(r.ServiceFrom, dates.LongLayout)
		r.ServiceTo = dates.Format(r.ServiceTo, dates.LongLayout)
		res[i] = r
	}
	return res
}
