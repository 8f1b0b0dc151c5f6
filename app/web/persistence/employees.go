package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// appointment statuses used as employee categories
const (
	StatusPermanent         = "PERMANENT"
	StatusCasual            = "CASUAL"
	StatusJobOrder          = "JOB ORDER"
	StatusCoTerminus        = "CO-TERMINUS"
	StatusContractOfService = "CONTRACT OF SERVICE"
	StatusTemporary         = "TEMPORARY"
)

// Employee is the master record of a district employee
type Employee struct {
	ID                int64          `db:"id" json:"id"`
	EmployeeID        string         `db:"employee_id" json:"employee_id"`
	FirstName         string         `db:"first_name" json:"first_name"`
	Surname           string         `db:"surname" json:"surname"`
	MiddleName        string         `db:"middle_name" json:"middle_name"`
	AppointmentStatus string         `db:"appointment_status" json:"appointment_status"`
	Position          string         `db:"position" json:"position"`
	Department        string         `db:"department" json:"department"`
	BirthDate         string         `db:"birth_date" json:"birth_date"` // YYYY-MM-DD
	BirthPlace        string         `db:"birth_place" json:"birth_place"`
	Address           string         `db:"address" json:"address"`
	FirstDayService   string         `db:"first_day_service" json:"first_day_service"`
	CivilService      string         `db:"civil_service" json:"civil_service"`
	CivilStatus       string         `db:"civil_status" json:"civil_status"`
	Sex               string         `db:"sex" json:"sex"`
	Phone             string         `db:"phone" json:"phone"`
	Email             string         `db:"email" json:"email"`
	FolderID          string         `db:"folder_id" json:"folder_id"`
	IsActive          bool           `db:"is_active" json:"is_active"`
	CreatedAt         UnixTime       `db:"created_at" json:"created_at"`
	UpdatedAt         UnixTime       `db:"updated_at" json:"updated_at"`
	Files             []EmployeeFile `db:"-" json:"files"`
}

// FullName returns "SURNAME, FIRST MIDDLE"
func (e Employee) FullName() string {
	name := strings.TrimSpace(e.Surname + ", " + e.FirstName)
	if e.MiddleName != "" {
		name += " " + e.MiddleName
	}
	return name
}

// EmployeeFile is a document stored in the employee's drive folder
type EmployeeFile struct {
	ID         int64    `db:"id" json:"id"`
	EmployeeID string   `db:"employee_id" json:"-"`
	Name       string   `db:"name" json:"name"`
	FileID     string   `db:"file_id" json:"file_id"`
	FileType   string   `db:"file_type" json:"file_type"`
	UploadedAt UnixTime `db:"uploaded_at" json:"uploaded"`
}

// EmployeeFilter selects employees for ListEmployees
type EmployeeFilter struct {
	Category string // appointment status, case-insensitive
	Active   *bool
	Search   string // matches employee id, first name or surname
	Page
}

const employeeColumns = `id, employee_id, first_name, surname, middle_name, appointment_status, position, department,
	birth_date, birth_place, address, first_day_service, civil_service, civil_status, sex, phone, email, folder_id,
	is_active, created_at, updated_at`

// CreateEmployee inserts a new employee, employee_id must be unique.
// Attached files are stored as well.
func (s *Store) CreateEmployee(ctx context.Context, e *Employee) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	found, err := s.exists(ctx, tx, "SELECT COUNT(*) FROM employees WHERE employee_id = ?", e.EmployeeID)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("employee %q: %w", e.EmployeeID, ErrAlreadyExists)
	}

	now := Now()
	e.CreatedAt, e.UpdatedAt = now, now
	res, err := tx.NamedExecContext(ctx, `INSERT INTO employees
		(employee_id, first_name, surname, middle_name, appointment_status, position, department, birth_date,
		birth_place, address, first_day_service, civil_service, civil_status, sex, phone, email, folder_id,
		is_active, created_at, updated_at)
		VALUES (:employee_id, :first_name, :surname, :middle_name, :appointment_status, :position, :department,
		:birth_date, :birth_place, :address, :first_day_service, :civil_service, :civil_status, :sex, :phone, :email,
		:folder_id, :is_active, :created_at, :updated_at)`, e)
	if err != nil {
		return fmt.Errorf("failed to insert employee %q: %w", e.EmployeeID, err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get employee id: %w", err)
	}

	for i := range e.Files {
		e.Files[i].EmployeeID = e.EmployeeID
		if err := insertFile(ctx, tx, &e.Files[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateEmployee replaces all editable fields of the employee identified by EmployeeID
func (s *Store) UpdateEmployee(ctx context.Context, e *Employee) error {
	e.UpdatedAt = Now()
	res, err := s.db.NamedExecContext(ctx, `UPDATE employees SET
		first_name = :first_name, surname = :surname, middle_name = :middle_name,
		appointment_status = :appointment_status, position = :position, department = :department,
		birth_date = :birth_date, birth_place = :birth_place, address = :address,
		first_day_service = :first_day_service, civil_service = :civil_service, civil_status = :civil_status,
		sex = :sex, phone = :phone, email = :email, folder_id = :folder_id, is_active = :is_active,
		updated_at = :updated_at
		WHERE employee_id = :employee_id`, e)
	if err != nil {
		return fmt.Errorf("failed to update employee %q: %w", e.EmployeeID, err)
	}
	return mustAffect(res, fmt.Sprintf("employee %q", e.EmployeeID))
}

// GetEmployee returns employee with files by business employee id
func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	var e Employee
	err := s.db.GetContext(ctx, &e, "SELECT "+employeeColumns+" FROM employees WHERE employee_id = ?", employeeID)
	if errors.Is(err, sql.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, fmt.Errorf("failed to get employee %q: %w", employeeID, err)
	}
	if e.Files, err = s.EmployeeFiles(ctx, employeeID); err != nil {
		return Employee{}, err
	}
	return e, nil
}

// ListEmployees returns employees matching the filter ordered by surname, with total count.
// Files are not loaded for list results.
func (s *Store) ListEmployees(ctx context.Context, f EmployeeFilter) (res []Employee, total int, err error) {
	conds, args := []string{"1=1"}, []any{}
	if f.Category != "" {
		conds = append(conds, "UPPER(appointment_status) = ?")
		args = append(args, strings.ToUpper(f.Category))
	}
	if f.Active != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, *f.Active)
	}
	if f.Search != "" {
		like := "%" + strings.ToUpper(f.Search) + "%"
		conds = append(conds, "(UPPER(employee_id) LIKE ? OR UPPER(first_name) LIKE ? OR UPPER(surname) LIKE ?)")
		args = append(args, like, like, like)
	}
	where := strings.Join(conds, " AND ")

	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM employees WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}
	res = []Employee{}
	query := "SELECT " + employeeColumns + " FROM employees WHERE " + where + " ORDER BY surname, first_name" + f.clause()
	if err := s.db.SelectContext(ctx, &res, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	return res, total, nil
}

// DeactivateEmployee marks employee as inactive
func (s *Store) DeactivateEmployee(ctx context.Context, employeeID string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE employees SET is_active = ?, updated_at = ? WHERE employee_id = ?",
		false, Now(), employeeID)
	if err != nil {
		return fmt.Errorf("failed to deactivate employee %q: %w", employeeID, err)
	}
	return mustAffect(res, fmt.Sprintf("employee %q", employeeID))
}

// CountByStatus returns number of active employees per appointment status (upper-cased)
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"cnt"`
	}
	err := s.db.SelectContext(ctx, &rows, `SELECT UPPER(appointment_status) AS status, COUNT(*) AS cnt
		FROM employees WHERE is_active = ? GROUP BY UPPER(appointment_status)`, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count employees: %w", err)
	}
	res := map[string]int{}
	for _, r := range rows {
		res[r.Status] = r.Count
	}
	return res, nil
}

// AddEmployeeFile attaches a file record to an existing employee
func (s *Store) AddEmployeeFile(ctx context.Context, f *EmployeeFile) error {
	found, err := s.exists(ctx, s.db, "SELECT COUNT(*) FROM employees WHERE employee_id = ?", f.EmployeeID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("employee %q: %w", f.EmployeeID, ErrNotFound)
	}
	return insertFile(ctx, s.db, f)
}

// EmployeeFiles returns files attached to the employee, newest first
func (s *Store) EmployeeFiles(ctx context.Context, employeeID string) ([]EmployeeFile, error) {
	files := []EmployeeFile{}
	err := s.db.SelectContext(ctx, &files, `SELECT id, employee_id, name, file_id, file_type, uploaded_at
		FROM employee_files WHERE employee_id = ? ORDER BY uploaded_at DESC, id DESC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of employee %q: %w", employeeID, err)
	}
	return files, nil
}

type namedExecer interface {
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
}

func insertFile(ctx context.Context, db namedExecer, f *EmployeeFile) error {
	if f.UploadedAt.IsZero() {
		f.UploadedAt = Now()
	}
	res, err := db.NamedExecContext(ctx, `INSERT INTO employee_files (employee_id, name, file_id, file_type, uploaded_at)
		VALUES (:employee_id, :name, :file_id, :file_type, :uploaded_at)`, f)
	if err != nil {
		return fmt.Errorf("failed to insert file %q: %w", f.Name, err)
	}
	if f.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get file id: %w", err)
	}
	return nil
}
