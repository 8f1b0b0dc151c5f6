package web

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/cabwad/hris/app/drive"
	"github.com/cabwad/hris/app/pds"
	"github.com/cabwad/hris/app/web/persistence"
)

// GET /api/employee/list with category, is_active, search, page and page_size
func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	pp := readPage(r)
	q := r.URL.Query()
	filter := persistence.EmployeeFilter{Category: q.Get("category"), Search: strings.TrimSpace(q.Get("search")),
		Page: pp.store()}
	if v := q.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "invalid is_active value")
			return
		}
		filter.Active = &active
	}
	emps, total, err := s.store.ListEmployees(r.Context(), filter)
	if err != nil {
		s.writeStoreError(w, err, "failed to list employees")
		return
	}
	s.writeJSON(w, http.StatusOK, pp.paged(r, "Employees retrieved successfully", total, emps))
}

// GET /api/employee/list/{employee_id}
func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := s.store.GetEmployee(r.Context(), r.PathValue("employee_id"))
	if err != nil {
		s.writeStoreError(w, err, "failed to get employee")
		return
	}
	s.writeJSON(w, http.StatusOK, emp)
}

// POST /api/employee/list
func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	emp := persistence.Employee{IsActive: true}
	if err := decodeJSON(r, &emp); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	emp.ID = 0
	if err := validateEmployee(&emp); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.CreateEmployee(r.Context(), &emp); err != nil {
		s.writeStoreError(w, err, "failed to create employee")
		return
	}
	log.Printf("[INFO] employee %s (%s) created", emp.EmployeeID, emp.FullName())
	s.writeJSON(w, http.StatusCreated, emp)
}

// PUT /api/employee/list/{employee_id} updates fields present in the request, files are not changed
func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := s.store.GetEmployee(r.Context(), r.PathValue("employee_id"))
	if err != nil {
		s.writeStoreError(w, err, "failed to get employee")
		return
	}
	orig := emp
	if err := decodeJSON(r, &emp); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	emp.ID, emp.EmployeeID, emp.CreatedAt, emp.Files = orig.ID, orig.EmployeeID, orig.CreatedAt, orig.Files
	if err := validateEmployee(&emp); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.UpdateEmployee(r.Context(), &emp); err != nil {
		s.writeStoreError(w, err, "failed to update employee")
		return
	}
	s.writeJSON(w, http.StatusOK, emp)
}

// DELETE /api/employee/list/{employee_id} marks employee inactive
func (s *Server) handleDeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("employee_id")
	if err := s.store.DeactivateEmployee(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "failed to deactivate employee")
		return
	}
	emp, err := s.store.GetEmployee(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "failed to get employee")
		return
	}
	log.Printf("[INFO] employee %s deactivated", id)
	s.writeJSON(w, http.StatusOK, map[string]any{"detail": "Employee deactivated successfully", "employee": emp})
}

// GET /api/employee/count returns number of active employees per appointment status
func (s *Server) handleEmployeeCount(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CountByStatus(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "failed to count employees")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{
		"total_permanent":           counts[persistence.StatusPermanent],
		"total_casual":              counts[persistence.StatusCasual],
		"total_job_order":           counts[persistence.StatusJobOrder],
		"total_co_terminus":         counts[persistence.StatusCoTerminus],
		"total_contract_of_service": counts[persistence.StatusContractOfService],
		"total_temporary":           counts[persistence.StatusTemporary],
	})
}

// fileUpload is the request of the employee file upload
type fileUpload struct {
	FileType string `json:"file_type"`
	Payload  struct {
		FileName    string `json:"fileName"`
		FileType    string `json:"fileType"`
		FileContent string `json:"fileContent"`
	} `json:"payload"`
	Employee struct {
		EmployeeID string `json:"employee_id"`
	} `json:"employee"`
}

// POST /api/employee/files uploads a document into the employee's drive folder
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	if s.drive == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "document storage is not configured")
		return
	}
	req := fileUpload{}
	if err := decodeJSON(r, &req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Employee.EmployeeID == "" || req.Payload.FileName == "" || req.FileType == "" {
		s.writeJSONError(w, http.StatusBadRequest, "file_type, payload.fileName and employee.employee_id are required")
		return
	}
	mime, data, err := parseDataURL(req.Payload.FileContent)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if mime == "" {
		mime = req.Payload.FileType
	}

	emp, err := s.store.GetEmployee(r.Context(), req.Employee.EmployeeID)
	if err != nil {
		s.writeStoreError(w, err, "failed to get employee")
		return
	}
	if emp.FolderID == "" {
		if emp.FolderID, err = s.drive.CreateFolder(r.Context(), folderName(emp.Surname, emp.FirstName), s.driveFolder); err != nil {
			log.Printf("[ERROR] failed to create folder for employee %s: %v", emp.EmployeeID, err)
			s.writeJSONError(w, http.StatusBadGateway, "failed to create employee folder")
			return
		}
		if err := s.store.UpdateEmployee(r.Context(), &emp); err != nil {
			s.writeStoreError(w, err, "failed to update employee")
			return
		}
	}

	fileID, err := s.drive.Upload(r.Context(), req.Payload.FileName, mime, bytes.NewReader(data), emp.FolderID)
	if err != nil {
		log.Printf("[ERROR] failed to upload %s for employee %s: %v", req.Payload.FileName, emp.EmployeeID, err)
		s.writeJSONError(w, http.StatusBadGateway, "failed to upload file")
		return
	}
	file := persistence.EmployeeFile{EmployeeID: emp.EmployeeID, Name: req.Payload.FileName, FileID: fileID,
		FileType: req.FileType}
	if err := s.store.AddEmployeeFile(r.Context(), &file); err != nil {
		s.writeStoreError(w, err, "failed to record file")
		return
	}
	log.Printf("[INFO] file %s (%s, %d bytes) uploaded for employee %s", file.Name, file.FileType, len(data), emp.EmployeeID)
	s.writeJSON(w, http.StatusCreated, map[string]any{"message": "File uploaded successfully", "file": file,
		"link": drive.ShareLink(fileID)})
}

// POST /api/employee/create-pds fills the PDS form, stores it in a new drive folder
// and creates the employee with the filled form attached
func (s *Server) handleCreatePDS(w http.ResponseWriter, r *http.Request) {
	if s.drive == nil || s.filler == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "pds generation is not configured")
		return
	}
	sub := pds.Submission{}
	if err := decodeJSON(r, &sub); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	emp := persistence.Employee{
		EmployeeID:        strings.TrimSpace(sub.EmployeeID),
		FirstName:         sub.Text("p_first_name"),
		Surname:           sub.Text("p_surname"),
		MiddleName:        sub.Text("p_middle_name"),
		AppointmentStatus: sub.AppointmentStatus,
		Position:          sub.Position,
		Department:        sub.Department,
		BirthPlace:        sub.Text("p_birth_place"),
		Phone:             sub.Text("p_mobile"),
		Email:             sub.Text("p_email"),
		IsActive:          true,
	}
	if emp.EmployeeID == "" {
		emp.EmployeeID = uuid.NewString()
	}
	if err := validateEmployee(&emp); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	sections, err := pds.Normalize(sub, s.now())
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if personal := sections[pds.SectionPersonal]; len(personal) > 0 {
		emp.BirthDate, _ = personal[0]["p_birth_date"].(string)
	}

	// drive folder is not transactional, reject duplicates before touching it
	switch _, err = s.store.GetEmployee(r.Context(), emp.EmployeeID); {
	case err == nil:
		s.writeStoreError(w, fmt.Errorf("employee %q: %w", emp.EmployeeID, persistence.ErrAlreadyExists), "")
		return
	case !errors.Is(err, persistence.ErrNotFound):
		s.writeStoreError(w, err, "failed to check employee")
		return
	}

	data, err := s.filler.Fill(pds.FieldValues(pds.Flatten(sub)))
	if err != nil {
		log.Printf("[ERROR] failed to fill pds for %s: %v", emp.FullName(), err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to fill pds form")
		return
	}
	pdsGenerated.WithLabelValues("create").Inc()

	name := folderName(emp.Surname, emp.FirstName)
	if emp.FolderID, err = s.drive.CreateFolder(r.Context(), name, s.driveFolder); err != nil {
		log.Printf("[ERROR] failed to create folder %q: %v", name, err)
		s.writeJSONError(w, http.StatusBadGateway, "failed to create employee folder")
		return
	}
	fileID, err := s.drive.Upload(r.Context(), name+"_PDS", "application/pdf", bytes.NewReader(data), emp.FolderID)
	if err != nil {
		log.Printf("[ERROR] failed to upload pds of %q: %v", name, err)
		s.writeJSONError(w, http.StatusBadGateway, "failed to upload pds")
		return
	}
	if err := s.drive.Share(r.Context(), fileID); err != nil {
		log.Printf("[WARN] failed to share pds %s: %v", fileID, err)
	}

	emp.Files = []persistence.EmployeeFile{{Name: name + "_PDS", FileID: fileID, FileType: "PDS"}}
	if err := s.store.CreateEmployee(r.Context(), &emp); err != nil {
		s.writeStoreError(w, err, "failed to create employee")
		return
	}
	if err := s.store.SavePDS(r.Context(), emp.EmployeeID, persistence.PDSSections(sections)); err != nil {
		log.Printf("[WARN] failed to save pds data of %s: %v", emp.EmployeeID, err)
	}
	log.Printf("[INFO] employee %s (%s) created from pds, file %s", emp.EmployeeID, emp.FullName(), fileID)
	s.writeJSON(w, http.StatusCreated, map[string]string{"pds_link": drive.ShareLink(fileID)})
}

// parseDataURL decodes "data:<mime>;base64,<content>", a bare base64 string is accepted as well
func parseDataURL(s string) (mime string, data []byte, err error) {
	if strings.TrimSpace(s) == "" {
		return "", nil, errors.New("payload.fileContent is required")
	}
	content := s
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, body, found := strings.Cut(rest, ",")
		if !found {
			return "", nil, errors.New("invalid data url, missing content")
		}
		mt, isB64 := strings.CutSuffix(meta, ";base64")
		if !isB64 {
			return "", nil, errors.New("invalid data url, content must be base64 encoded")
		}
		mime, content = mt, body
	}
	data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(content))
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 content: %w", err)
	}
	if len(data) == 0 {
		return "", nil, errors.New("file is empty")
	}
	return mime, data, nil
}

// folderName is the drive folder name of an employee, "SURNAME, FIRST NAME"
func folderName(surname, firstName string) string {
	return strings.ToUpper(strings.TrimSpace(surname)) + ", " + strings.ToUpper(strings.TrimSpace(firstName))
}

func validateEmployee(e *persistence.Employee) error {
	e.EmployeeID = strings.TrimSpace(e.EmployeeID)
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.Surname = strings.TrimSpace(e.Surname)
	e.AppointmentStatus = strings.ToUpper(strings.TrimSpace(e.AppointmentStatus))
	switch {
	case e.EmployeeID == "":
		return errors.New("employee_id is required")
	case e.FirstName == "" || e.Surname == "":
		return errors.New("first_name and surname are required")
	}
	if e.AppointmentStatus == "" {
		e.AppointmentStatus = persistence.StatusPermanent
	}
	return nil
}
