package backup

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/cabwad/hris/app/web/enums"
	"github.com/cabwad/hris/app/web/persistence"
)

// restore destinations
const (
	DestinationSame = "same"
	DestinationNew  = "new"
)

// RestoreParams define source backup and target database.
// Destination is "same" (or empty) for the backup's database, "new" to create NewDatabase,
// any other value names an existing database.
type RestoreParams struct {
	BackupID    int64
	Destination string
	NewDatabase string
	User        string
}

// RestoreResult describes finished restore
type RestoreResult struct {
	SourceID int64              `json:"source_backup_id"`
	Target   string             `json:"target_database"`
	Record   persistence.Backup `json:"-"`
}

// Target resolves and validates the target database name for the backup
func (p RestoreParams) Target(b persistence.Backup) (string, error) {
	switch p.Destination {
	case "", DestinationSame:
		return b.DatabaseName, nil
	case DestinationNew:
		if p.NewDatabase == "" {
			return "", fmt.Errorf("%w: new_database_name is required", ErrInvalidName)
		}
		return p.NewDatabase, validName(p.NewDatabase)
	default:
		return p.Destination, validName(p.Destination)
	}
}

// Restore loads the backup file into the target database with mysql client.
// Credentials are passed in a temporary defaults file, gzipped dumps are decompressed on the fly.
// A restore record with storage "none" is saved for both outcomes.
func (m *Manager) Restore(ctx context.Context, p RestoreParams) (RestoreResult, error) {
	src, err := m.store.GetBackup(ctx, p.BackupID)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("backup %d: %w", p.BackupID, err)
	}
	if !m.FileAvailable(src) {
		return RestoreResult{}, fmt.Errorf("%w: %s", ErrFileMissing, src.LocalPath)
	}
	target, err := p.Target(src)
	if err != nil {
		return RestoreResult{}, err
	}
	tool, err := lookup(m.ClientPath, "mysql")
	if err != nil {
		return RestoreResult{}, err
	}
	if !m.busy.CompareAndSwap(false, true) {
		return RestoreResult{}, ErrBusy
	}
	defer m.busy.Store(false)

	if p.User == "" {
		p.User = "system"
	}
	st := m.now()
	log.Printf("[INFO] restore of backup %d (%s) into %s started by %s", src.ID, src.Filename, target, p.User)

	rec := persistence.Backup{
		Filename:        "Restore from " + filepath.Base(src.LocalPath),
		CreatedAt:       persistence.UnixTime{Time: st},
		IsCompressed:    src.IsCompressed,
		StorageLocation: enums.StorageLocationNone,
		DatabaseName:    target,
		UserWhoRan:      p.User,
		CommandExecuted: tool + " --defaults-file=****** " + target,
		RetentionDays:   m.RetentionDays,
	}

	runErr := m.restore(ctx, tool, src, target, p.Destination == DestinationNew)
	rec.ExecutionTime = m.now().Sub(st).Seconds()
	rec.Status = enums.BackupStatusSuccess
	if runErr != nil {
		rec.Status = enums.BackupStatusFailed
		rec.ErrorMessage = runErr.Error()
		log.Printf("[WARN] restore of backup %d into %s failed, %v", src.ID, target, runErr)
	}
	if err := m.store.SaveBackup(ctx, &rec); err != nil {
		log.Printf("[WARN] can't record restore of backup %d, %v", src.ID, err)
	}
	observe(enums.BackupOperationRestore, rec.Status, rec.ExecutionTime)
	m.report(ctx, enums.BackupOperationRestore, rec, runErr)

	res := RestoreResult{SourceID: src.ID, Target: target, Record: rec}
	if runErr != nil {
		return res, runErr
	}
	log.Printf("[INFO] backup %d restored into %s in %.2fs", src.ID, target, rec.ExecutionTime)
	return res, nil
}

func (m *Manager) restore(ctx context.Context, tool string, src persistence.Backup, target string, create bool) error {
	defaults, err := m.defaultsFile()
	if err != nil {
		return err
	}
	defer func() {
		if e := os.Remove(defaults); e != nil {
			log.Printf("[WARN] can't remove %s, %v", defaults, e)
		}
	}()
	defaultsArg := "--defaults-file=" + defaults

	if create {
		stmt := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`;", target)
		if err := m.runClient(ctx, tool, nil, defaultsArg, "-e", stmt); err != nil {
			return fmt.Errorf("failed to create database %s: %w", target, err)
		}
	}

	fh, err := os.Open(m.Path(src))
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer fh.Close()

	var in io.Reader = fh
	if src.IsCompressed || strings.HasSuffix(strings.ToLower(src.LocalPath), ".gz") {
		gz, err := gzip.NewReader(fh)
		if err != nil {
			return fmt.Errorf("failed to decompress backup file: %w", err)
		}
		defer gz.Close()
		in = gz
	}
	return m.runClient(ctx, tool, in, defaultsArg, target)
}

// runClient executes mysql client with stdin and keeps the tail of stderr for errors
func (m *Manager) runClient(ctx context.Context, tool string, stdin io.Reader, args ...string) error {
	stderr := newTailWriter(m.MaxErrLines)
	cmd := exec.CommandContext(ctx, tool, args...) //nolint:gosec // tool and args are from trusted config
	cmd.Stdin = stdin
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		if msg := stderr.String(); msg != "" {
			return fmt.Errorf("mysql failed: %w: %s", err, msg)
		}
		return fmt.Errorf("mysql failed: %w", err)
	}
	return nil
}

// defaultsFile writes connection credentials to a private temporary option file
func (m *Manager) defaultsFile() (string, error) {
	fh, err := os.CreateTemp("", "hris-restore-*.cnf")
	if err != nil {
		return "", fmt.Errorf("failed to make defaults file: %w", err)
	}
	content := fmt.Sprintf("[client]\nhost=%s\nport=%d\nuser=%s\npassword=%s\n",
		m.MySQL.Host, m.MySQL.Port, m.MySQL.User, m.MySQL.Password)
	_, werr := fh.WriteString(content)
	cerr := fh.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(fh.Name())
		return "", fmt.Errorf("failed to write defaults file: %w", err)
	}
	return fh.Name(), nil
}
