package web

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabwad/hris/app/web/mocks"
	"github.com/cabwad/hris/app/web/persistence"
)

type employeesPage struct {
	Count   int                    `json:"count"`
	Results []persistence.Employee `json:"results"`
}

func TestServer_handleListEmployees(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee(t, persistence.Employee{EmployeeID: "E1", FirstName: "JUAN", Surname: "DELA CRUZ"})
	env.addEmployee(t, persistence.Employee{EmployeeID: "E2", FirstName: "MARIA", Surname: "SANTOS",
		AppointmentStatus: persistence.StatusCasual})
	env.addEmployee(t, persistence.Employee{EmployeeID: "E3", FirstName: "PEDRO", Surname: "REYES"})
	require.NoError(t, env.store.DeactivateEmployee(context.Background(), "E3"))

	tbl := []struct {
		query string
		ids   []string
	}{
		{"", []string{"E1", "E2", "E3"}},
		{"?category=casual", []string{"E2"}},
		{"?is_active=false", []string{"E3"}},
		{"?search=santos", []string{"E2"}},
	}
	for _, tt := range tbl {
		t.Run(tt.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/employee/list"+tt.query, env.adminToken, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			page := decodeBody[employeesPage](t, rec)
			ids := []string{}
			for _, e := range page.Results {
				ids = append(ids, e.EmployeeID)
			}
			assert.ElementsMatch(t, tt.ids, ids)
			assert.Equal(t, len(tt.ids), page.Count)
		})
	}

	rec := env.do(t, http.MethodGet, "/api/employee/list?is_active=sure", env.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_employeeCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/employee/list", env.adminToken, map[string]any{
		"employee_id": " E100 ", "first_name": "JUAN", "surname": "DELA CRUZ", "position": "CLERK",
		"birth_date": "1990-05-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[persistence.Employee](t, rec)
	assert.Equal(t, "E100", created.EmployeeID)
	assert.Equal(t, persistence.StatusPermanent, created.AppointmentStatus)
	assert.True(t, created.IsActive)

	t.Run("duplicate", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/employee/list", env.adminToken, map[string]any{
			"employee_id": "E100", "first_name": "X", "surname": "Y"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/employee/list", env.adminToken, map[string]any{"first_name": "X"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "employee_id is required")
		rec = env.do(t, http.MethodPost, "/api/employee/list", env.adminToken, map[string]any{"employee_id": "E9"})
		assert.Contains(t, rec.Body.String(), "first_name and surname are required")
	})

	t.Run("get", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/employee/list/E100", env.adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		emp := decodeBody[persistence.Employee](t, rec)
		assert.Equal(t, "CLERK", emp.Position)
		assert.Equal(t, "1990-05-01", emp.BirthDate)

		rec = env.do(t, http.MethodGet, "/api/employee/list/NOPE", env.adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update keeps identity", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/employee/list/E100", env.adminToken, map[string]any{
			"employee_id": "OTHER", "position": "SUPERVISOR", "appointment_status": "casual"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		emp := decodeBody[persistence.Employee](t, rec)
		assert.Equal(t, "E100", emp.EmployeeID)
		assert.Equal(t, "SUPERVISOR", emp.Position)
		assert.Equal(t, persistence.StatusCasual, emp.AppointmentStatus)
		assert.Equal(t, "JUAN", emp.FirstName)

		stored, err := env.store.GetEmployee(context.Background(), "E100")
		require.NoError(t, err)
		assert.Equal(t, "SUPERVISOR", stored.Position)

		rec = env.do(t, http.MethodPut, "/api/employee/list/NOPE", env.adminToken, map[string]any{"position": "X"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("deactivate", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/employee/list/E100", env.adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decodeBody[struct {
			Detail   string               `json:"detail"`
			Employee persistence.Employee `json:"employee"`
		}](t, rec)
		assert.Equal(t, "Employee deactivated successfully", resp.Detail)
		assert.False(t, resp.Employee.IsActive)

		rec = env.do(t, http.MethodDelete, "/api/employee/list/NOPE", env.adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_handleEmployeeCount(t *testing.T) {
	env := newTestEnv(t)
	for i, st := range []string{persistence.StatusPermanent, persistence.StatusPermanent, persistence.StatusCasual,
		persistence.StatusJobOrder, persistence.StatusContractOfService} {
		env.addEmployee(t, persistence.Employee{EmployeeID: string(rune('A' + i)), FirstName: "F", Surname: "S",
			AppointmentStatus: st})
	}
	require.NoError(t, env.store.DeactivateEmployee(context.Background(), "A"))

	rec := env.do(t, http.MethodGet, "/api/employee/count", env.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_permanent":1,"total_casual":1,"total_job_order":1,"total_co_terminus":0,
		"total_contract_of_service":1,"total_temporary":0}`, rec.Body.String())
}

func TestServer_handleUploadFile(t *testing.T) {
	drv := &mocks.DriveServiceMock{
		CreateFolderFunc: func(_ context.Context, name, parent string) (string, error) { return "folder-1", nil },
		UploadFunc: func(_ context.Context, name, mimeType string, r io.Reader, parent string) (string, error) {
			data, err := io.ReadAll(r)
			if err != nil {
				return "", err
			}
			if string(data) != "hello" {
				return "", errors.New("unexpected content")
			}
			return "file-1", nil
		},
	}
	env := newTestEnv(t, func(c *Config) { c.Drive = drv })
	env.addEmployee(t, persistence.Employee{EmployeeID: "E1", FirstName: "Juan", Surname: "Dela Cruz"})

	body := map[string]any{
		"file_type": "APPOINTMENT",
		"payload": map[string]string{"fileName": "appointment.txt", "fileType": "text/plain",
			"fileContent": "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))},
		"employee": map[string]string{"employee_id": "E1"},
	}
	rec := env.do(t, http.MethodPost, "/api/employee/files", env.adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "https://drive.google.com/file/d/file-1/view?usp=sharing")

	require.Len(t, drv.CreateFolderCalls(), 1)
	assert.Equal(t, "DELA CRUZ, JUAN", drv.CreateFolderCalls()[0].Name)
	assert.Equal(t, "root-folder", drv.CreateFolderCalls()[0].Parent)
	require.Len(t, drv.UploadCalls(), 1)
	assert.Equal(t, "folder-1", drv.UploadCalls()[0].Parent)
	assert.Equal(t, "text/plain", drv.UploadCalls()[0].MimeType)

	emp, err := env.store.GetEmployee(context.Background(), "E1")
	require.NoError(t, err)
	assert.Equal(t, "folder-1", emp.FolderID)
	require.Len(t, emp.Files, 1)
	assert.Equal(t, "file-1", emp.Files[0].FileID)
	assert.Equal(t, "APPOINTMENT", emp.Files[0].FileType)

	t.Run("existing folder reused", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/employee/files", env.adminToken, body)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Len(t, drv.CreateFolderCalls(), 1)
	})

	t.Run("bad content", func(t *testing.T) {
		bad := map[string]any{"file_type": "X", "employee": map[string]string{"employee_id": "E1"},
			"payload": map[string]string{"fileName": "a.txt", "fileContent": "data:text/plain;base64,@@@"}}
		rec := env.do(t, http.MethodPost, "/api/employee/files", env.adminToken, bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid base64")
	})

	t.Run("unknown employee", func(t *testing.T) {
		other := map[string]any{"file_type": "X", "employee": map[string]string{"employee_id": "NOPE"},
			"payload": map[string]string{"fileName": "a.txt", "fileContent": "aGVsbG8="}}
		rec := env.do(t, http.MethodPost, "/api/employee/files", env.adminToken, other)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_handleUploadFileNoDrive(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/employee/files", env.adminToken, map[string]any{})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_handleCreatePDS(t *testing.T) {
	filler := &mocks.PDSFillerMock{FillFunc: func(values map[string]any) ([]byte, error) {
		return []byte("%PDF-filled"), nil
	}}
	drv := &mocks.DriveServiceMock{
		CreateFolderFunc: func(_ context.Context, name, parent string) (string, error) { return "folder-9", nil },
		UploadFunc: func(_ context.Context, name, mimeType string, r io.Reader, parent string) (string, error) {
			return "pds-file", nil
		},
		ShareFunc: func(_ context.Context, fileID string) error { return nil },
	}
	env := newTestEnv(t, func(c *Config) {
		c.Filler = filler
		c.Drive = drv
	})

	body := map[string]any{
		"employee_id": "E77", "position": "ENGINEER", "department": "OPERATIONS",
		"personal_information": map[string]any{"p_surname": "Dela Cruz", "p_first_name": "Juan",
			"p_birth_date": "5/1/1990", "p_sex_male": true},
		"work_experience": []map[string]any{{"w_from": "1/2/2015", "w_position": "CLERK", "w_salary": ""}},
		"other_information": map[string]any{"skills": []map[string]any{{"of_skill": "Driving"}}},
	}
	rec := env.do(t, http.MethodPost, "/api/employee/create-pds", env.adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"pds_link":"https://drive.google.com/file/d/pds-file/view?usp=sharing"}`, rec.Body.String())

	require.Len(t, filler.FillCalls(), 1)
	values := filler.FillCalls()[0].Values
	assert.Equal(t, "Dela Cruz", values["p_surname"])
	assert.Equal(t, true, values["p_sex_male"])
	assert.Equal(t, "CLERK", values["w_position_1"])
	assert.Equal(t, "Driving", values["of_skill_1"])

	require.Len(t, drv.CreateFolderCalls(), 1)
	assert.Equal(t, "DELA CRUZ, JUAN", drv.CreateFolderCalls()[0].Name)
	require.Len(t, drv.UploadCalls(), 1)
	assert.Equal(t, "DELA CRUZ, JUAN_PDS", drv.UploadCalls()[0].Name)
	assert.Equal(t, "application/pdf", drv.UploadCalls()[0].MimeType)
	require.Len(t, drv.ShareCalls(), 1)

	emp, err := env.store.GetEmployee(context.Background(), "E77")
	require.NoError(t, err)
	assert.Equal(t, "ENGINEER", emp.Position)
	assert.Equal(t, "1990-05-01", emp.BirthDate)
	assert.Equal(t, "folder-9", emp.FolderID)
	require.Len(t, emp.Files, 1)
	assert.Equal(t, "pds-file", emp.Files[0].FileID)

	secs, err := env.store.LoadPDS(context.Background(), "E77")
	require.NoError(t, err)
	require.Len(t, secs["work_experience"], 1)
	assert.InDelta(t, 0, secs["work_experience"][0]["w_salary"], 0.0001)

	t.Run("duplicate employee", func(t *testing.T) {
		folders, fills := len(drv.CreateFolderCalls()), len(filler.FillCalls())
		rec := env.do(t, http.MethodPost, "/api/employee/create-pds", env.adminToken, body)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "already exists")
		assert.Len(t, drv.CreateFolderCalls(), folders, "no drive folder for duplicate")
		assert.Len(t, drv.UploadCalls(), 1)
		assert.Len(t, filler.FillCalls(), fills)
	})

	t.Run("generated id", func(t *testing.T) {
		noID := map[string]any{"personal_information": map[string]any{"p_surname": "Cruz", "p_first_name": "Ana"}}
		rec := env.do(t, http.MethodPost, "/api/employee/create-pds", env.adminToken, noID)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		emps, total, err := env.store.ListEmployees(context.Background(), persistence.EmployeeFilter{Search: "Ana"})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		assert.Len(t, emps[0].EmployeeID, 36)
	})

	t.Run("invalid date", func(t *testing.T) {
		bad := map[string]any{"employee_id": "E78", "personal_information": map[string]any{"p_surname": "X",
			"p_first_name": "Y", "p_birth_date": "13/45/1990"}}
		rec := env.do(t, http.MethodPost, "/api/employee/create-pds", env.adminToken, bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing names", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/employee/create-pds", env.adminToken,
			map[string]any{"personal_information": map[string]any{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestParseDataURL(t *testing.T) {
	tbl := []struct {
		in      string
		mime    string
		data    string
		wantErr string
	}{
		{in: "data:application/pdf;base64,aGVsbG8=", mime: "application/pdf", data: "hello"},
		{in: "aGVsbG8=", data: "hello"},
		{in: "", wantErr: "required"},
		{in: "data:text/plain,hello", wantErr: "base64 encoded"},
		{in: "data:text/plain;base64", wantErr: "missing content"},
		{in: "data:text/plain;base64,", wantErr: "empty"},
		{in: "not base64!", wantErr: "invalid base64"},
	}
	for _, tt := range tbl {
		t.Run(tt.in, func(t *testing.T) {
			mime, data, err := parseDataURL(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mime, mime)
			assert.Equal(t, tt.data, string(data))
		})
	}
}

func TestFolderName(t *testing.T) {
	assert.Equal(t, "DELA CRUZ, JUAN", folderName(" dela cruz", "Juan "))
}
