package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/cabwad/hris/app/backup"
	"github.com/cabwad/hris/app/web/enums"
	"github.com/cabwad/hris/app/web/persistence"
)

// backupView is the API representation of a backup record with derived fields
type backupView struct {
	ID                     int64                 `json:"id"`
	Filename               string                `json:"filename"`
	CreatedAt              time.Time             `json:"created_at"`
	SizeBytes              int64                 `json:"size_bytes"`
	FormattedSize          string                `json:"formatted_size"`
	IsCompressed           bool                  `json:"is_compressed"`
	Status                 enums.BackupStatus    `json:"status"`
	StorageLocation        enums.StorageLocation `json:"storage_location"`
	LocalPath              string                `json:"local_path"`
	GoogleDriveID          string                `json:"google_drive_id"`
	ExecutionTime          float64               `json:"execution_time_seconds"`
	ErrorMessage           string                `json:"error_message"`
	DatabaseName           string                `json:"database_name"`
	UserWhoRan             string                `json:"user_who_ran"`
	RetentionDays          int                   `json:"retention_days"`
	ScheduledDeletion      *time.Time            `json:"scheduled_deletion"`
	DaysUntilDeletion      int                   `json:"days_until_deletion"`
	IsLocalAvailable       bool                  `json:"is_local_available"`
	IsGoogleDriveAvailable bool                  `json:"is_google_drive_available"`
}

func (s *Server) backupView(b persistence.Backup) backupView {
	res := backupView{
		ID:                     b.ID,
		Filename:               b.Filename,
		CreatedAt:              b.CreatedAt.Time,
		SizeBytes:              b.SizeBytes,
		FormattedSize:          b.FormattedSize(),
		IsCompressed:           b.IsCompressed,
		Status:                 b.Status,
		StorageLocation:        b.StorageLocation,
		LocalPath:              b.LocalPath,
		GoogleDriveID:          b.GoogleDriveID,
		ExecutionTime:          b.ExecutionTime,
		ErrorMessage:           b.ErrorMessage,
		DatabaseName:           b.DatabaseName,
		UserWhoRan:             b.UserWhoRan,
		RetentionDays:          b.RetentionDays,
		DaysUntilDeletion:      b.DaysUntilDeletion(s.now()),
		IsLocalAvailable:       s.backups.FileAvailable(b),
		IsGoogleDriveAvailable: b.IsGoogleDriveAvailable(),
	}
	if !b.ScheduledDeletion.IsZero() {
		ts := b.ScheduledDeletion.Time
		res.ScheduledDeletion = &ts
	}
	return res
}

// backupParams are parameters of backup operations, each operation reads its own subset
type backupParams struct {
	Database        string `json:"database"`
	Compress        *bool  `json:"compress"`
	UploadDrive     bool   `json:"upload_drive"`
	MonthlyFolders  *bool  `json:"monthly_folders"`
	Days            *int   `json:"days"`
	Status          string `json:"status"`
	BackupID        int64  `json:"backup_id"`
	Destination     string `json:"destination"`
	NewDatabaseName string `json:"new_database_name"`
}

func (p backupParams) create(user string) backup.CreateParams {
	return backup.CreateParams{
		Database:       p.Database,
		Compress:       p.Compress == nil || *p.Compress,
		UploadDrive:    p.UploadDrive,
		MonthlyFolders: p.MonthlyFolders == nil || *p.MonthlyFolders,
		User:           user,
	}
}

// backupsEnabled writes 503 if backups are not configured
func (s *Server) backupsEnabled(w http.ResponseWriter) bool {
	if s.backups == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "backups are not configured")
		return false
	}
	return true
}

// GET /api/backup with status, storage and limit filters
func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := persistence.BackupFilter{}
	if v := q.Get("status"); v != "" {
		st, err := enums.ParseBackupStatus(v)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = st
	}
	if v := q.Get("storage"); v != "" {
		loc, err := enums.ParseStorageLocation(v)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Storage = loc
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			s.writeJSONError(w, http.StatusBadRequest, "invalid limit value")
			return
		}
		filter.Limit = limit
	}

	recs, err := s.store.ListBackups(r.Context(), filter)
	if err != nil {
		s.writeStoreError(w, err, "failed to list backups")
		return
	}
	res := make([]backupView, 0, len(recs))
	for _, b := range recs {
		res = append(res, s.backupView(b))
	}
	s.writeJSON(w, http.StatusOK, res)
}

// POST /api/backup creates a backup and responds with its record
func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	if !s.backupsEnabled(w) {
		return
	}
	params := backupParams{}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &params); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	rec, err := s.backups.Create(r.Context(), params.create(requestUser(r)))
	if err != nil {
		s.writeBackupError(w, "Backup failed", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.backupView(rec))
}

// GET /api/backup/{id}
func (s *Server) handleGetBackup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.store.GetBackup(r.Context(), id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "Backup not found")
			return
		}
		s.writeStoreError(w, err, "failed to get backup")
		return
	}
	s.writeJSON(w, http.StatusOK, s.backupView(rec))
}

// DELETE /api/backup/{id}?delete_file=true
func (s *Server) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	if !s.backupsEnabled(w) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	deleteFile, _ := strconv.ParseBool(r.URL.Query().Get("delete_file"))
	fileDeleted, err := s.backups.Delete(r.Context(), id, deleteFile)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "Backup not found")
			return
		}
		s.writeBackupError(w, "Failed to delete backup", err)
		return
	}
	log.Printf("[INFO] backup %d deleted by %s, file deleted: %v", id, requestUser(r), fileDeleted)
	s.writeJSON(w, http.StatusOK, map[string]any{"message": "Backup record deleted", "file_deleted": fileDeleted})
}

// GET /api/backup/{id}/download sends the backup file as attachment
func (s *Server) handleDownloadBackup(w http.ResponseWriter, r *http.Request) {
	if !s.backupsEnabled(w) {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.store.GetBackup(r.Context(), id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "Backup not found")
			return
		}
		s.writeStoreError(w, err, "failed to get backup")
		return
	}
	if !s.backups.FileAvailable(rec) {
		s.writeJSONError(w, http.StatusNotFound, "Backup file not available for download")
		return
	}

	path := s.backups.Path(rec)
	fh, err := os.Open(path) //nolint:gosec // path is built from the backup directory and stored file name
	if err != nil {
		log.Printf("[WARN] failed to open backup file %s: %v", path, err)
		s.writeJSONError(w, http.StatusNotFound, "Backup file not available for download")
		return
	}
	defer fh.Close()
	st, err := fh.Stat()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "failed to read backup file")
		return
	}

	w.Header().Set("Content-Type", backup.ContentType(rec))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(rec.Filename)))
	http.ServeContent(w, r, rec.Filename, st.ModTime(), fh)
}

// POST /api/backup/execute runs {operation, parameters}, operation is create, cleanup or restore
func (s *Server) handleExecuteBackup(w http.ResponseWriter, r *http.Request) {
	if !s.backupsEnabled(w) {
		return
	}
	req := struct {
		Operation  string       `json:"operation"`
		Parameters backupParams `json:"parameters"`
	}{}
	if err := decodeJSON(r, &req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	op, err := enums.ParseBackupOperation(req.Operation)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Unsupported operation: "+req.Operation)
		return
	}
	params := req.Parameters

	switch op {
	case enums.BackupOperationCreate:
		rec, err := s.backups.Create(r.Context(), params.create(requestUser(r)))
		if err != nil {
			s.writeBackupError(w, "Failed to create backup", err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"message": "Backup created successfully", "file": s.backups.Path(rec)})

	case enums.BackupOperationCleanup:
		days := 30
		if params.Days != nil {
			days = *params.Days
		}
		status := enums.BackupStatus{}
		if params.Status != "" {
			if status, err = enums.ParseBackupStatus(params.Status); err != nil {
				s.writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		res, err := s.backups.Cleanup(r.Context(), days, status)
		if err != nil {
			s.writeBackupError(w, "Cleanup failed", err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"message": fmt.Sprintf(
			"Cleanup completed. Deleted %d backup records and %d backup files.", res.Records, res.Files)})

	case enums.BackupOperationRestore:
		if params.BackupID <= 0 {
			s.writeJSONError(w, http.StatusBadRequest, "backup_id is required")
			return
		}
		res, err := s.backups.Restore(r.Context(), backup.RestoreParams{BackupID: params.BackupID,
			Destination: params.Destination, NewDatabase: params.NewDatabaseName, User: requestUser(r)})
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Backup with ID %d not found", params.BackupID))
				return
			}
			s.writeBackupError(w, "Restore failed", err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"message":          fmt.Sprintf("Database restored successfully to '%s'", res.Target),
			"source_backup_id": res.SourceID,
			"target_database":  res.Target,
		})
	}
}

// writeBackupError maps backup manager errors to http status codes
func (s *Server) writeBackupError(w http.ResponseWriter, prefix string, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, backup.ErrFileMissing), errors.Is(err, backup.ErrInvalidName):
		code = http.StatusBadRequest
	case errors.Is(err, backup.ErrBusy):
		code = http.StatusConflict
	}
	log.Printf("[WARN] %s: %v", prefix, err)
	s.writeJSONError(w, code, prefix+": "+err.Error())
}

// requestUser returns username of the authenticated user
func requestUser(r *http.Request) string {
	if u, ok := userFromContext(r.Context()); ok {
		return u.Username
	}
	return "api_user"
}
