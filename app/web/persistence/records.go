package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrWrongEmployee is returned when a service record id belongs to another employee
var ErrWrongEmployee = errors.New("service record belongs to another employee")

// ServiceRecord is one line of an employee's service history. Dates are kept as entered.
type ServiceRecord struct {
	ID          int64  `db:"id" json:"id"`
	EmployeeID  string `db:"employee_id" json:"employee_id"`
	ServiceFrom string `db:"service_from" json:"service_from"`
	ServiceTo   string `db:"service_to" json:"service_to"`
	Designation string `db:"designation" json:"designation"`
	Status      string `db:"status" json:"status"`
	Salary      string `db:"salary" json:"salary"`
	Station     string `db:"station" json:"station"`
	Absence     string `db:"absence" json:"absence"`
}

const recordColumns = "id, employee_id, service_from, service_to, designation, status, salary, station, absence"

// ServiceRecords returns service records of the employee, latest first
func (s *Store) ServiceRecords(ctx context.Context, employeeID string) ([]ServiceRecord, error) {
	res := []ServiceRecord{}
	err := s.db.SelectContext(ctx, &res, "SELECT "+recordColumns+` FROM service_records
		WHERE employee_id = ? ORDER BY service_from DESC, id DESC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list service records of %q: %w", employeeID, err)
	}
	return res, nil
}

// ListServiceRecords returns a page of all service records with total count
func (s *Store) ListServiceRecords(ctx context.Context, p Page) (res []ServiceRecord, total int, err error) {
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM service_records"); err != nil {
		return nil, 0, fmt.Errorf("failed to count service records: %w", err)
	}
	res = []ServiceRecord{}
	query := "SELECT " + recordColumns + " FROM service_records ORDER BY service_from DESC, id DESC" + p.clause()
	if err := s.db.SelectContext(ctx, &res, query); err != nil {
		return nil, 0, fmt.Errorf("failed to list service records: %w", err)
	}
	return res, total, nil
}

// GetServiceRecord returns a single service record
func (s *Store) GetServiceRecord(ctx context.Context, id int64) (ServiceRecord, error) {
	var r ServiceRecord
	err := s.db.GetContext(ctx, &r, "SELECT "+recordColumns+" FROM service_records WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return ServiceRecord{}, ErrNotFound
	}
	if err != nil {
		return ServiceRecord{}, fmt.Errorf("failed to get service record %d: %w", id, err)
	}
	return r, nil
}

// SaveServiceRecords upserts records for the employee in one transaction.
// Records with an id are updated, records without id or with unknown id are created.
// A record id owned by another employee fails the whole batch with ErrWrongEmployee.
func (s *Store) SaveServiceRecords(ctx context.Context, employeeID string, recs []ServiceRecord) ([]ServiceRecord, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	found, err := s.exists(ctx, tx, "SELECT COUNT(*) FROM employees WHERE employee_id = ?", employeeID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("employee %q: %w", employeeID, ErrNotFound)
	}

	saved := make([]ServiceRecord, 0, len(recs))
	for _, r := range recs {
		r.EmployeeID = employeeID
		if r.ID != 0 {
			var owner string
			err := tx.GetContext(ctx, &owner, "SELECT employee_id FROM service_records WHERE id = ?", r.ID)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				r.ID = 0 // unknown id, create a new record
			case err != nil:
				return nil, fmt.Errorf("failed to check service record %d: %w", r.ID, err)
			case owner != employeeID:
				return nil, fmt.Errorf("record %d: %w", r.ID, ErrWrongEmployee)
			}
		}

		if r.ID != 0 {
			if _, err := tx.NamedExecContext(ctx, `UPDATE service_records SET service_from = :service_from,
				service_to = :service_to, designation = :designation, status = :status, salary = :salary,
				station = :station, absence = :absence WHERE id = :id`, r); err != nil {
				return nil, fmt.Errorf("failed to update service record %d: %w", r.ID, err)
			}
			saved = append(saved, r)
			continue
		}

		if err := insertRecord(ctx, tx, &r); err != nil {
			return nil, err
		}
		saved = append(saved, r)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return saved, nil
}

// CreateServiceRecord inserts a single record for an existing employee
func (s *Store) CreateServiceRecord(ctx context.Context, r *ServiceRecord) error {
	found, err := s.exists(ctx, s.db, "SELECT COUNT(*) FROM employees WHERE employee_id = ?", r.EmployeeID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("employee %q: %w", r.EmployeeID, ErrNotFound)
	}
	return insertRecord(ctx, s.db, r)
}

// UpdateServiceRecord replaces fields of an existing record, the owner can't be changed
func (s *Store) UpdateServiceRecord(ctx context.Context, r ServiceRecord) error {
	res, err := s.db.NamedExecContext(ctx, `UPDATE service_records SET service_from = :service_from,
		service_to = :service_to, designation = :designation, status = :status, salary = :salary,
		station = :station, absence = :absence WHERE id = :id`, r)
	if err != nil {
		return fmt.Errorf("failed to update service record %d: %w", r.ID, err)
	}
	return mustAffect(res, fmt.Sprintf("service record %d", r.ID))
}

// DeleteServiceRecord removes a single record
func (s *Store) DeleteServiceRecord(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM service_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete service record %d: %w", id, err)
	}
	return mustAffect(res, fmt.Sprintf("service record %d", id))
}

func insertRecord(ctx context.Context, db namedExecer, r *ServiceRecord) error {
	res, err := db.NamedExecContext(ctx, `INSERT INTO service_records
		(employee_id, service_from, service_to, designation, status, salary, station, absence)
		VALUES (:employee_id, :service_from, :service_to, :designation, :status, :salary, :station, :absence)`, r)
	if err != nil {
		return fmt.Errorf("failed to insert service record: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get service record id: %w", err)
	}
	return nil
}
