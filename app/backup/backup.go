// Package backup dumps the MySQL database with mysqldump, restores dumps with mysql client
// and maintains backup records with their files locally and in Google Drive.
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
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/cabwad/hris/app/conditions"
	"github.com/cabwad/hris/app/dates"
	"github.com/cabwad/hris/app/notify"
	"github.com/cabwad/hris/app/web/enums"
	"github.com/cabwad/hris/app/web/persistence"
)

// DefaultNameTemplate makes backup file names like hris-20250304_150607
const DefaultNameTemplate = "{{.DB}}-{{.YYYYMMDD}}_{{.HHMMSS}}"

// errors reported by Manager
var (
	ErrBusy          = errors.New("another backup operation is running")
	ErrToolNotFound  = errors.New("mysql client tool not found")
	ErrFileMissing   = errors.New("backup file not available")
	ErrInvalidName   = errors.New("invalid database name, use only letters, numbers and underscores")
	ErrResourceCheck = errors.New("resource check failed")
)

// Store keeps backup records
type Store interface {
	SaveBackup(ctx context.Context, b *persistence.Backup) error
	GetBackup(ctx context.Context, id int64) (persistence.Backup, error)
	BackupsCreatedBefore(ctx context.Context, cutoff time.Time, status enums.BackupStatus) ([]persistence.Backup, error)
	BackupsDueForDeletion(ctx context.Context, now time.Time) ([]persistence.Backup, error)
	DeleteBackup(ctx context.Context, id int64) error
}

// Uploader stores backup files in the cloud
type Uploader interface {
	EnsureFolder(ctx context.Context, name, parent string) (string, error)
	Upload(ctx context.Context, name, mimeType string, r io.Reader, parent string) (string, error)
	Delete(ctx context.Context, fileID string) error
}

// Notifier reports finished operations
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event) error
}

// MySQL connection parameters passed to the client tools
type MySQL struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Config of the backup manager
type Config struct {
	Dir           string // local directory for backup files
	MySQL         MySQL
	DumpPath      string // mysqldump executable, looked up in PATH if empty
	ClientPath    string // mysql executable, looked up in PATH if empty
	NameTemplate  string
	RetentionDays int
	DriveFolder   string // parent drive folder for uploads
	MaxErrLines   int    // stderr lines kept in error messages
	Conditions    conditions.Config
	NotifyTimeout time.Duration
}

// Manager runs backup, restore and cleanup operations
type Manager struct {
	Config
	store    Store
	drive    Uploader
	notifier Notifier
	fallback Dumper
	now      func() time.Time
	busy     atomic.Bool
}

// Option customizes Manager
type Option func(m *Manager)

// WithUploader enables drive uploads
func WithUploader(u Uploader) Option { return func(m *Manager) { m.drive = u } }

// WithFallback sets dumper used when mysqldump is missing or fails
func WithFallback(d Dumper) Option { return func(m *Manager) { m.fallback = d } }

// WithNotifier enables notifications
func WithNotifier(n Notifier) Option { return func(m *Manager) { m.notifier = n } }

// NewManager makes Manager, creating the backup directory if missing
func NewManager(cfg Config, store Store, opts ...Option) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, errors.New("backup directory not set")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to make backup directory %s: %w", cfg.Dir, err)
	}
	if cfg.NameTemplate == "" {
		cfg.NameTemplate = DefaultNameTemplate
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = persistence.DefaultRetentionDays
	}
	if cfg.MaxErrLines <= 0 {
		cfg.MaxErrLines = 20
	}
	if cfg.MySQL.Host == "" {
		cfg.MySQL.Host = "localhost"
	}
	if cfg.MySQL.Port == 0 {
		cfg.MySQL.Port = 3306
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 30 * time.Second
	}
	m := &Manager{Config: cfg, store: store, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// CreateParams control a single backup run
type CreateParams struct {
	Database       string // configured database if empty
	Compress       bool
	UploadDrive    bool
	MonthlyFolders bool
	User           string
}

// Create dumps the database into the backup directory and records the result.
// The returned record is saved in both success and failure cases.
func (m *Manager) Create(ctx context.Context, p CreateParams) (persistence.Backup, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return persistence.Backup{}, ErrBusy
	}
	defer m.busy.Store(false)

	st := m.now()
	db := p.Database
	if db == "" {
		db = m.MySQL.Database
	}
	if db == "" {
		return persistence.Backup{}, errors.New("no database name specified")
	}
	if err := validName(db); err != nil {
		return persistence.Backup{}, err
	}
	if p.User == "" {
		p.User = "system"
	}

	name, err := dates.Expand(m.NameTemplate, db, st)
	if err != nil {
		return persistence.Backup{}, err
	}
	name += ".sql"
	if p.Compress {
		name += ".gz"
	}

	rec := persistence.Backup{
		Filename:        name,
		CreatedAt:       persistence.UnixTime{Time: st},
		IsCompressed:    p.Compress,
		Status:          enums.BackupStatusInProgress,
		StorageLocation: enums.StorageLocationLocal,
		LocalPath:       name,
		DatabaseName:    db,
		UserWhoRan:      p.User,
		RetentionDays:   m.RetentionDays,
	}
	if err = m.store.SaveBackup(ctx, &rec); err != nil {
		return persistence.Backup{}, fmt.Errorf("failed to record backup: %w", err)
	}
	log.Printf("[INFO] backup %d of %s started by %s, file %s", rec.ID, db, p.User, name)

	runErr := m.dump(ctx, db, p.Compress, &rec)
	rec.ExecutionTime = m.now().Sub(st).Seconds()
	if runErr != nil {
		rec.Status = enums.BackupStatusFailed
		rec.ErrorMessage = runErr.Error()
		log.Printf("[WARN] backup %d of %s failed, %v", rec.ID, db, runErr)
	} else {
		rec.Status = enums.BackupStatusSuccess
		if p.UploadDrive {
			m.upload(ctx, &rec, p.MonthlyFolders)
		}
		log.Printf("[INFO] backup %d of %s completed, %s in %.2fs", rec.ID, db, rec.FormattedSize(), rec.ExecutionTime)
	}

	if err = m.store.SaveBackup(ctx, &rec); err != nil {
		return rec, fmt.Errorf("failed to update backup %d: %w", rec.ID, err)
	}
	observe(enums.BackupOperationCreate, rec.Status, rec.ExecutionTime)
	m.report(ctx, enums.BackupOperationCreate, rec, runErr)
	if runErr != nil {
		return rec, runErr
	}
	return rec, nil
}

// dump writes the backup file with mysqldump. If mysqldump is missing or fails and a fallback dumper is set,
// the dump is made over the database connection instead. Failed dumps leave no local file on the record.
func (m *Manager) dump(ctx context.Context, db string, compress bool, rec *persistence.Backup) (err error) {
	defer func() {
		if err != nil {
			rec.LocalPath = ""
			rec.StorageLocation = enums.StorageLocationNone
		}
	}()

	if ok, reason := conditions.Check(m.conditions()); !ok {
		return fmt.Errorf("%w: %s", ErrResourceCheck, reason)
	}

	path := m.Path(*rec)
	dumpErr := m.mysqldump(ctx, db, compress, path, rec)
	if dumpErr != nil && m.fallback != nil {
		log.Printf("[WARN] mysqldump method failed (%v), trying sql connection dump", dumpErr)
		fbErr := writeFile(path, compress, func(w io.Writer) error { return m.fallback.Dump(ctx, db, w) })
		if fbErr != nil {
			return fmt.Errorf("%w, connection dump failed: %v", dumpErr, fbErr)
		}
		rec.CommandExecuted = FallbackCommand
		dumpErr = nil
	}
	if dumpErr != nil {
		return dumpErr
	}

	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat backup file: %w", err)
	}
	rec.SizeBytes = fi.Size()
	return nil
}

// mysqldump runs the dump tool with stdout streamed to the backup file
func (m *Manager) mysqldump(ctx context.Context, db string, compress bool, path string, rec *persistence.Backup) error {
	tool, err := lookup(m.DumpPath, "mysqldump")
	if err != nil {
		return err
	}

	args := []string{"-h" + m.MySQL.Host, "-P" + strconv.Itoa(m.MySQL.Port), "-u" + m.MySQL.User}
	if m.MySQL.Password != "" {
		args = append(args, "-p"+m.MySQL.Password)
	}
	args = append(args, db)
	rec.CommandExecuted = maskCommand(append([]string{tool}, args...))
	log.Printf("[DEBUG] running %s", rec.CommandExecuted)

	stderr := newTailWriter(m.MaxErrLines)
	err = writeFile(path, compress, func(w io.Writer) error {
		cmd := exec.CommandContext(ctx, tool, args...) //nolint:gosec // tool and args are from trusted config
		cmd.Stdout = w
		cmd.Stderr = stderr
		return cmd.Run()
	})
	if err != nil {
		if msg := stderr.String(); msg != "" {
			return fmt.Errorf("mysqldump failed: %w: %s", err, msg)
		}
		return fmt.Errorf("mysqldump failed: %w", err)
	}
	return nil
}

// writeFile creates the file and passes plain or gzip writer to fn, the file is removed if anything fails
func writeFile(path string, compress bool, fn func(w io.Writer) error) error {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // path inside backup dir
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}

	var out io.Writer = fh
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(fh)
		out = gz
	}

	runErr := fn(out)
	if gz != nil {
		if err := gz.Close(); err != nil && runErr == nil {
			runErr = fmt.Errorf("failed to finish compression: %w", err)
		}
	}
	if err := fh.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close backup file: %w", err)
	}

	if runErr != nil {
		if e := os.Remove(path); e != nil && !os.IsNotExist(e) {
			log.Printf("[WARN] can't remove partial backup %s, %v", path, e)
		}
		return runErr
	}
	return nil
}

// upload sends backup file to drive. Upload failures keep the local backup successful.
func (m *Manager) upload(ctx context.Context, rec *persistence.Backup, monthly bool) {
	if m.drive == nil {
		log.Printf("[WARN] drive upload requested for backup %d, but drive is not configured", rec.ID)
		return
	}
	parent := m.DriveFolder
	if monthly {
		folder, err := m.drive.EnsureFolder(ctx, rec.CreatedAt.Format("2006-01"), parent)
		if err != nil {
			log.Printf("[WARN] can't make monthly folder for backup %d, %v", rec.ID, err)
			return
		}
		parent = folder
	}

	fh, err := os.Open(m.Path(*rec))
	if err != nil {
		log.Printf("[WARN] can't open backup %d for upload, %v", rec.ID, err)
		return
	}
	defer fh.Close()

	id, err := m.drive.Upload(ctx, rec.Filename, contentType(rec.Filename), fh, parent)
	if err != nil {
		log.Printf("[WARN] can't upload backup %d, %v", rec.ID, err)
		return
	}
	rec.GoogleDriveID = id
	rec.StorageLocation = enums.StorageLocationBoth
}

// Path returns absolute path of the backup file, empty if there is no local file
func (m *Manager) Path(b persistence.Backup) string {
	if b.LocalPath == "" {
		return ""
	}
	if filepath.IsAbs(b.LocalPath) {
		return b.LocalPath
	}
	return filepath.Join(m.Dir, filepath.Base(b.LocalPath))
}

// FileAvailable reports whether the backup file exists locally
func (m *Manager) FileAvailable(b persistence.Backup) bool {
	path := m.Path(b)
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func (m *Manager) conditions() conditions.Config {
	res := m.Conditions
	if res.DiskFreePath == "" {
		res.DiskFreePath = m.Dir
	}
	return res
}

// report sends notification about finished operation, failures are logged only
func (m *Manager) report(ctx context.Context, op enums.BackupOperation, rec persistence.Backup, opErr error) {
	if m.notifier == nil {
		return
	}
	ev := notify.Event{Operation: op.String(), Database: rec.DatabaseName, Filename: rec.Filename,
		Size: rec.FormattedSize(), Duration: time.Duration(rec.ExecutionTime * float64(time.Second)), TS: m.now()}
	if opErr != nil {
		ev.Error = opErr.Error()
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.NotifyTimeout)
	defer cancel()
	if err := m.notifier.Notify(nctx, ev); err != nil {
		log.Printf("[WARN] failed to notify, %v", err)
	}
}

// lookup finds the client tool by configured path or in PATH
func lookup(configured, name string) (string, error) {
	if configured == "" {
		configured = name
	}
	path, err := exec.LookPath(configured)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrToolNotFound, name, err)
	}
	return path, nil
}

// maskCommand joins command arguments hiding the password
func maskCommand(args []string) string {
	res := make([]string, len(args))
	for i, a := range args {
		if strings.HasPrefix(a, "-p") && i > 0 {
			a = "-p******"
		}
		res[i] = a
	}
	return strings.Join(res, " ")
}

// validName checks database name, only letters, digits and underscore allowed
func validName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	for _, r := range name {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// contentType of the backup file for downloads and uploads
func contentType(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		return "application/gzip"
	}
	return "application/sql"
}

// ContentType returns mime type of the backup file
func ContentType(b persistence.Backup) string { return contentType(b.Filename) }
