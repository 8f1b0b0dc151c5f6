package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"

	"github.com/cabwad/hris/app/web/enums"
	"github.com/cabwad/hris/app/web/persistence"
)

// removeConcurrency limits parallel file removals
const removeConcurrency = 4

// CleanupResult counts removed records and files
type CleanupResult struct {
	Records int `json:"records"`
	Files   int `json:"files"`
}

// Cleanup removes backup records created more than days ago, optionally only with the given status,
// together with their local files
func (m *Manager) Cleanup(ctx context.Context, days int, status enums.BackupStatus) (CleanupResult, error) {
	if days < 0 {
		return CleanupResult{}, fmt.Errorf("invalid cleanup age %d days", days)
	}
	cutoff := m.now().AddDate(0, 0, -days)
	recs, err := m.store.BackupsCreatedBefore(ctx, cutoff, status)
	if err != nil {
		return CleanupResult{}, err
	}
	res, err := m.remove(ctx, recs, false)
	observe(enums.BackupOperationCleanup, resultStatus(err), 0)
	log.Printf("[INFO] cleanup of backups older than %d days, removed %d records and %d files", days, res.Records, res.Files)
	return res, err
}

// Expire removes backups past their scheduled deletion, including drive copies
func (m *Manager) Expire(ctx context.Context) (CleanupResult, error) {
	recs, err := m.store.BackupsDueForDeletion(ctx, m.now())
	if err != nil {
		return CleanupResult{}, err
	}
	res, err := m.remove(ctx, recs, true)
	if res.Records > 0 {
		log.Printf("[INFO] retention cleanup removed %d records and %d files", res.Records, res.Files)
	}
	return res, err
}

// Delete removes a single backup record, with its local file if deleteFile is set
func (m *Manager) Delete(ctx context.Context, id int64, deleteFile bool) (fileDeleted bool, err error) {
	b, err := m.store.GetBackup(ctx, id)
	if err != nil {
		return false, fmt.Errorf("backup %d: %w", id, err)
	}
	if deleteFile {
		fileDeleted = m.removeFile(b)
	}
	if err := m.store.DeleteBackup(ctx, id); err != nil {
		return fileDeleted, err
	}
	log.Printf("[INFO] backup %d (%s) deleted, file deleted: %v", id, b.Filename, fileDeleted)
	return fileDeleted, nil
}

// remove deletes files in parallel and then the records
func (m *Manager) remove(ctx context.Context, recs []persistence.Backup, withDrive bool) (CleanupResult, error) {
	var files atomic.Int32
	gr := syncs.NewSizedGroup(removeConcurrency)
	for _, b := range recs {
		gr.Go(func(ctx context.Context) {
			if m.removeFile(b) {
				files.Add(1)
			}
			if withDrive && m.drive != nil && b.GoogleDriveID != "" {
				if err := m.drive.Delete(ctx, b.GoogleDriveID); err != nil {
					log.Printf("[WARN] can't delete drive copy of backup %d, %v", b.ID, err)
				}
			}
		})
	}
	gr.Wait()

	res := CleanupResult{Files: int(files.Load())}
	errs := []error{}
	for _, b := range recs {
		if err := m.store.DeleteBackup(ctx, b.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Records++
	}
	return res, errors.Join(errs...)
}

// removeFile deletes local backup file, returns true if a file was removed
func (m *Manager) removeFile(b persistence.Backup) bool {
	if !m.FileAvailable(b) {
		return false
	}
	if err := os.Remove(m.Path(b)); err != nil {
		log.Printf("[WARN] can't remove backup file %s, %v", m.Path(b), err)
		return false
	}
	return true
}

// RunRetention removes expired backups, used by scheduler after each backup
func (m *Manager) RunRetention(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	if _, err := m.Expire(ctx); err != nil {
		log.Printf("[WARN] retention cleanup failed, %v", err)
	}
}

func resultStatus(err error) enums.BackupStatus {
	if err != nil {
		return enums.BackupStatusFailed
	}
	return enums.BackupStatusSuccess
}
