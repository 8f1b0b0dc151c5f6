package persistence

import (
	"context"
	"encoding/json"
	"fmt"
)

// PDSSections maps a section name to its rows. Single-row sections hold one element.
type PDSSections map[string][]map[string]any

// SavePDS replaces the given sections of the employee's PDS in one transaction.
// Sections not present in the map are left untouched, an empty slice clears the section.
func (s *Store) SavePDS(ctx context.Context, employeeID string, sections PDSSections) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	found, err := s.exists(ctx, tx, "SELECT COUNT(*) FROM employees WHERE employee_id = ?", employeeID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("employee %q: %w", employeeID, ErrNotFound)
	}

	for section, rows := range sections {
		if _, err := tx.ExecContext(ctx, "DELETE FROM pds_sections WHERE employee_id = ? AND section = ?",
			employeeID, section); err != nil {
			return fmt.Errorf("failed to clear section %s: %w", section, err)
		}
		for pos, row := range rows {
			data, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("failed to marshal %s row %d: %w", section, pos, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO pds_sections (employee_id, section, position, data)
				VALUES (?, ?, ?, ?)`, employeeID, section, pos, string(data)); err != nil {
				return fmt.Errorf("failed to save %s row %d: %w", section, pos, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadPDS returns all stored sections of the employee's PDS, rows in saved order.
// ErrNotFound is returned when nothing is stored.
func (s *Store) LoadPDS(ctx context.Context, employeeID string) (PDSSections, error) {
	var rows []struct {
		Section  string `db:"section"`
		Position int    `db:"position"`
		Data     string `db:"data"`
	}
	err := s.db.SelectContext(ctx, &rows, `SELECT section, position, data FROM pds_sections
		WHERE employee_id = ? ORDER BY section, position`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pds of %q: %w", employeeID, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	res := PDSSections{}
	for _, r := range rows {
		row := map[string]any{}
		if err := json.Unmarshal([]byte(r.Data), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s row %d: %w", r.Section, r.Position, err)
		}
		res[r.Section] = append(res[r.Section], row)
	}
	return res, nil
}

// DeletePDS removes all PDS sections of the employee and returns number of deleted rows per section
func (s *Store) DeletePDS(ctx context.Context, employeeID string) (map[string]int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var counts []struct {
		Section string `db:"section"`
		Count   int    `db:"cnt"`
	}
	if err := tx.SelectContext(ctx, &counts, `SELECT section, COUNT(*) AS cnt FROM pds_sections
		WHERE employee_id = ? GROUP BY section`, employeeID); err != nil {
		return nil, fmt.Errorf("failed to count pds sections of %q: %w", employeeID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM pds_sections WHERE employee_id = ?", employeeID); err != nil {
		return nil, fmt.Errorf("failed to delete pds of %q: %w", employeeID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	res := map[string]int{}
	for _, c := range counts {
		res[c.Section] = c.Count
	}
	return res, nil
}
