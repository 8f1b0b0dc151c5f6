package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/cabwad/hris/app/web/enums"
)

// DefaultRetentionDays is used when backup record has no retention set
const DefaultRetentionDays = 30

// Backup tracks a database export or restore run
type Backup struct {
	ID                int64                 `db:"id"`
	Filename          string                `db:"filename"`
	CreatedAt         UnixTime              `db:"created_at"`
	SizeBytes         int64                 `db:"size_bytes"`
	IsCompressed      bool                  `db:"is_compressed"`
	Status            enums.BackupStatus    `db:"status"`
	StorageLocation   enums.StorageLocation `db:"storage_location"`
	LocalPath         string                `db:"local_path"` // file name inside the backup directory
	GoogleDriveID     string                `db:"google_drive_id"`
	ExecutionTime     float64               `db:"execution_time_seconds"`
	ErrorMessage      string                `db:"error_message"`
	CommandExecuted   string                `db:"command_executed"`
	DatabaseName      string                `db:"database_name"`
	UserWhoRan        string                `db:"user_who_ran"`
	RetentionDays     int                   `db:"retention_days"`
	ScheduledDeletion UnixTime              `db:"scheduled_deletion"`
}

// FormattedSize returns human readable size with two decimals
func (b Backup) FormattedSize() string {
	if b.SizeBytes <= 0 {
		return "Unknown size"
	}
	size := float64(b.SizeBytes)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f TB", size)
}

// DaysUntilDeletion returns whole days left before scheduled deletion, never negative
func (b Backup) DaysUntilDeletion(now time.Time) int {
	if b.ScheduledDeletion.IsZero() {
		return 0
	}
	days := int(math.Floor(b.ScheduledDeletion.Sub(now).Hours() / 24))
	return max(days, 0)
}

// IsLocalAvailable reports whether the backup has a local file recorded
func (b Backup) IsLocalAvailable() bool {
	return b.LocalPath != "" &&
		(b.StorageLocation == enums.StorageLocationLocal || b.StorageLocation == enums.StorageLocationBoth)
}

// IsGoogleDriveAvailable reports whether the backup was uploaded to drive
func (b Backup) IsGoogleDriveAvailable() bool {
	return b.GoogleDriveID != "" &&
		(b.StorageLocation == enums.StorageLocationGoogleDrive || b.StorageLocation == enums.StorageLocationBoth)
}

// BackupFilter selects backups for ListBackups
type BackupFilter struct {
	Status  enums.BackupStatus    // zero value means any
	Storage enums.StorageLocation // zero value means any
	Limit   int
}

const backupColumns = `id, filename, created_at, size_bytes, is_compressed, status, storage_location, local_path,
	google_drive_id, execution_time_seconds, error_message, command_executed, database_name, user_who_ran,
	retention_days, scheduled_deletion`

// SaveBackup inserts a new backup record (zero ID) or updates existing one.
// Local path is reduced to the file name and scheduled deletion derived from retention if not set.
func (s *Store) SaveBackup(ctx context.Context, b *Backup) error {
	if b.LocalPath != "" {
		b.LocalPath = filepath.Base(b.LocalPath)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = Now()
	}
	if b.RetentionDays <= 0 {
		b.RetentionDays = DefaultRetentionDays
	}
	if b.ScheduledDeletion.IsZero() {
		b.ScheduledDeletion = UnixTime{Time: b.CreatedAt.AddDate(0, 0, b.RetentionDays)}
	}
	if b.Status == (enums.BackupStatus{}) {
		b.Status = enums.BackupStatusInProgress
	}
	if b.StorageLocation == (enums.StorageLocation{}) {
		b.StorageLocation = enums.StorageLocationLocal
	}

	if b.ID == 0 {
		res, err := s.db.NamedExecContext(ctx, `INSERT INTO backups
			(filename, created_at, size_bytes, is_compressed, status, storage_location, local_path, google_drive_id,
			execution_time_seconds, error_message, command_executed, database_name, user_who_ran, retention_days,
			scheduled_deletion)
			VALUES (:filename, :created_at, :size_bytes, :is_compressed, :status, :storage_location, :local_path,
			:google_drive_id, :execution_time_seconds, :error_message, :command_executed, :database_name,
			:user_who_ran, :retention_days, :scheduled_deletion)`, b)
		if err != nil {
			return fmt.Errorf("failed to insert backup %q: %w", b.Filename, err)
		}
		if b.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get backup id: %w", err)
		}
		return nil
	}

	res, err := s.db.NamedExecContext(ctx, `UPDATE backups SET filename = :filename, created_at = :created_at,
		size_bytes = :size_bytes, is_compressed = :is_compressed, status = :status,
		storage_location = :storage_location, local_path = :local_path, google_drive_id = :google_drive_id,
		execution_time_seconds = :execution_time_seconds, error_message = :error_message,
		command_executed = :command_executed, database_name = :database_name, user_who_ran = :user_who_ran,
		retention_days = :retention_days, scheduled_deletion = :scheduled_deletion
		WHERE id = :id`, b)
	if err != nil {
		return fmt.Errorf("failed to update backup %d: %w", b.ID, err)
	}
	return mustAffect(res, fmt.Sprintf("backup %d", b.ID))
}

// GetBackup returns backup record by id
func (s *Store) GetBackup(ctx context.Context, id int64) (Backup, error) {
	var b Backup
	err := s.db.GetContext(ctx, &b, "SELECT "+backupColumns+" FROM backups WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Backup{}, ErrNotFound
	}
	if err != nil {
		return Backup{}, fmt.Errorf("failed to get backup %d: %w", id, err)
	}
	return b, nil
}

// ListBackups returns backups matching the filter, newest first
func (s *Store) ListBackups(ctx context.Context, f BackupFilter) ([]Backup, error) {
	conds, args := []string{"1=1"}, []any{}
	if f.Status != (enums.BackupStatus{}) {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Storage != (enums.StorageLocation{}) {
		conds = append(conds, "storage_location = ?")
		args = append(args, f.Storage)
	}
	query := "SELECT " + backupColumns + " FROM backups WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY created_at DESC, id DESC" + Page{Limit: f.Limit}.clause()

	res := []Backup{}
	if err := s.db.SelectContext(ctx, &res, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	return res, nil
}

// BackupsCreatedBefore returns backups created before the cutoff, optionally with the given status
func (s *Store) BackupsCreatedBefore(ctx context.Context, cutoff time.Time, status enums.BackupStatus) ([]Backup, error) {
	query := "SELECT " + backupColumns + " FROM backups WHERE created_at < ?"
	args := []any{cutoff.Unix()}
	if status != (enums.BackupStatus{}) {
		query += " AND status = ?"
		args = append(args, status)
	}
	res := []Backup{}
	if err := s.db.SelectContext(ctx, &res, query+" ORDER BY created_at", args...); err != nil {
		return nil, fmt.Errorf("failed to list old backups: %w", err)
	}
	return res, nil
}

// BackupsDueForDeletion returns backups with scheduled deletion before the given time
func (s *Store) BackupsDueForDeletion(ctx context.Context, now time.Time) ([]Backup, error) {
	res := []Backup{}
	err := s.db.SelectContext(ctx, &res, "SELECT "+backupColumns+` FROM backups
		WHERE scheduled_deletion > 0 AND scheduled_deletion < ? ORDER BY created_at`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list expired backups: %w", err)
	}
	return res, nil
}

// DeleteBackup removes the backup record
func (s *Store) DeleteBackup(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM backups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete backup %d: %w", id, err)
	}
	return mustAffect(res, fmt.Sprintf("backup %d", id))
}
