// Package web implements the HTTP API of the HR records service
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cabwad/hris/app/auth"
	"github.com/cabwad/hris/app/backup"
	"github.com/cabwad/hris/app/web/enums"
	"github.com/cabwad/hris/app/web/persistence"
)

// Server represents the web server
type Server struct {
	store       Persistence
	tokens      *auth.Tokens
	backups     BackupManager
	filler      PDSFiller
	drive       DriveService
	report      ReportRenderer
	driveFolder string // parent folder for employee folders
	version     string
	maxBody     int64
	loginRate   float64
	now         func() time.Time
}

//go:generate moq -out mocks/backup_manager.go -pkg mocks -skip-ensure -fmt goimports . BackupManager
//go:generate moq -out mocks/pds_filler.go -pkg mocks -skip-ensure -fmt goimports . PDSFiller
//go:generate moq -out mocks/drive_service.go -pkg mocks -skip-ensure -fmt goimports . DriveService
//go:generate moq -out mocks/report_renderer.go -pkg mocks -skip-ensure -fmt goimports . ReportRenderer

// Persistence defines storage operations used by the API
type Persistence interface {
	CreateUser(ctx context.Context, u *persistence.User) error
	GetUser(ctx context.Context, id int64) (persistence.User, error)
	GetUserByUsername(ctx context.Context, username string) (persistence.User, error)
	ListUsers(ctx context.Context, f persistence.UserFilter) ([]persistence.User, int, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	DeleteUser(ctx context.Context, id int64) error
	BlacklistToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
	PurgeExpiredTokens(ctx context.Context, before time.Time) (int64, error)

	CreateEmployee(ctx context.Context, e *persistence.Employee) error
	UpdateEmployee(ctx context.Context, e *persistence.Employee) error
	GetEmployee(ctx context.Context, employeeID string) (persistence.Employee, error)
	ListEmployees(ctx context.Context, f persistence.EmployeeFilter) ([]persistence.Employee, int, error)
	DeactivateEmployee(ctx context.Context, employeeID string) error
	CountByStatus(ctx context.Context) (map[string]int, error)
	AddEmployeeFile(ctx context.Context, f *persistence.EmployeeFile) error

	ServiceRecords(ctx context.Context, employeeID string) ([]persistence.ServiceRecord, error)
	ListServiceRecords(ctx context.Context, p persistence.Page) ([]persistence.ServiceRecord, int, error)
	GetServiceRecord(ctx context.Context, id int64) (persistence.ServiceRecord, error)
	SaveServiceRecords(ctx context.Context, employeeID string, recs []persistence.ServiceRecord) ([]persistence.ServiceRecord, error)
	UpdateServiceRecord(ctx context.Context, r persistence.ServiceRecord) error
	DeleteServiceRecord(ctx context.Context, id int64) error

	SavePDS(ctx context.Context, employeeID string, sections persistence.PDSSections) error
	LoadPDS(ctx context.Context, employeeID string) (persistence.PDSSections, error)
	DeletePDS(ctx context.Context, employeeID string) (map[string]int, error)

	ListBackups(ctx context.Context, f persistence.BackupFilter) ([]persistence.Backup, error)
	GetBackup(ctx context.Context, id int64) (persistence.Backup, error)

	Ping(ctx context.Context) error
}

// BackupManager runs database backup operations
type BackupManager interface {
	Create(ctx context.Context, p backup.CreateParams) (persistence.Backup, error)
	Restore(ctx context.Context, p backup.RestoreParams) (backup.RestoreResult, error)
	Cleanup(ctx context.Context, days int, status enums.BackupStatus) (backup.CleanupResult, error)
	Delete(ctx context.Context, id int64, deleteFile bool) (bool, error)
	Path(b persistence.Backup) string
	FileAvailable(b persistence.Backup) bool
}

// PDSFiller fills the PDS template with field values
type PDSFiller interface {
	Fill(values map[string]any) ([]byte, error)
}

// DriveService stores employee documents
type DriveService interface {
	CreateFolder(ctx context.Context, name, parent string) (string, error)
	Upload(ctx context.Context, name, mimeType string, r io.Reader, parent string) (string, error)
	Share(ctx context.Context, fileID string) error
}

// ReportRenderer renders the service record PDF
type ReportRenderer interface {
	ServiceRecord(w io.Writer, emp persistence.Employee, recs []persistence.ServiceRecord) error
}

// Config holds server configuration
type Config struct {
	Store         Persistence
	Tokens        *auth.Tokens
	Backups       BackupManager  // backup endpoints respond 503 if nil
	Filler        PDSFiller      // pds pdf endpoints respond 503 if nil
	Drive         DriveService   // uploads and create-pds respond 503 if nil
	Report        ReportRenderer // service record pdf responds 503 if nil
	DriveFolder   string
	Version       string
	MaxBodySize   int64   // max request size, 32MB if not set
	LoginRate     float64 // login attempts per second per ip, 1 if not set
}

// New creates a new web server
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("web server initialization failed: store is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("web server initialization failed: tokens are required")
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 32 * 1024 * 1024
	}
	if cfg.LoginRate <= 0 {
		cfg.LoginRate = 1
	}
	return &Server{
		store:       cfg.Store,
		tokens:      cfg.Tokens,
		backups:     cfg.Backups,
		filler:      cfg.Filler,
		drive:       cfg.Drive,
		report:      cfg.Report,
		driveFolder: cfg.DriveFolder,
		version:     cfg.Version,
		maxBody:     cfg.MaxBodySize,
		loginRate:   cfg.LoginRate,
		now:         time.Now,
	}, nil
}

// Run starts the web server and blocks until ctx is canceled
func (s *Server) Run(ctx context.Context, address string) error {
	go s.purgeTokens(ctx)

	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      5 * time.Minute, // restore and backup run inside the request
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// purgeTokens removes expired blacklist entries once an hour
func (s *Server) purgeTokens(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		if n, err := s.store.PurgeExpiredTokens(ctx, s.now()); err != nil {
			log.Printf("[WARN] failed to purge token blacklist: %v", err)
		} else if n > 0 {
			log.Printf("[DEBUG] purged %d expired blacklisted tokens", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("hris", "cabwad", s.version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(s.maxBody),
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	router.Handle("GET /metrics", promhttp.Handler())

	router.Mount("/api").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)

		api.Mount("/account").Route(func(acc *routegroup.Bundle) {
			acc.With(tollbooth.HTTPMiddleware(s.loginLimiter())).HandleFunc("POST /login", s.handleLogin)
			acc.HandleFunc("POST /token/refresh", s.handleTokenRefresh)
			acc.HandleFunc("POST /token/verify", s.handleTokenVerify)
			acc.HandleFunc("POST /token/blacklist", s.handleTokenBlacklist)

			acc.Group().Route(func(authed *routegroup.Bundle) {
				authed.Use(s.authMiddleware)
				authed.HandleFunc("POST /logout", s.handleLogout)
				authed.HandleFunc("GET /me", s.handleMe)
				authed.HandleFunc("POST /change-password", s.handleChangePassword)

				authed.Group().Route(func(admin *routegroup.Bundle) {
					admin.Use(requireAdmin)
					admin.HandleFunc("GET /list", s.handleListAccounts)
					admin.HandleFunc("POST /list", s.handleCreateAccount)
					admin.HandleFunc("DELETE /list/{id}", s.handleDeleteAccount)
					admin.HandleFunc("POST /admin/reset-password", s.handleResetPassword)
				})
			})
		})

		api.Mount("/employee").Route(func(emp *routegroup.Bundle) {
			emp.Use(s.authMiddleware, requireAdmin)
			emp.HandleFunc("GET /list", s.handleListEmployees)
			emp.HandleFunc("POST /list", s.handleCreateEmployee)
			emp.HandleFunc("GET /list/{employee_id}", s.handleGetEmployee)
			emp.HandleFunc("PUT /list/{employee_id}", s.handleUpdateEmployee)
			emp.HandleFunc("DELETE /list/{employee_id}", s.handleDeactivateEmployee)
			emp.HandleFunc("GET /count", s.handleEmployeeCount)
			emp.HandleFunc("POST /files", s.handleUploadFile)
			emp.HandleFunc("POST /create-pds", s.handleCreatePDS)
		})

		api.Mount("/pds").Route(func(pds *routegroup.Bundle) {
			pds.Use(s.authMiddleware)
			pds.HandleFunc("GET /schema", s.handlePDSSchema)
			pds.HandleFunc("POST /{$}", s.handleSavePDS)
			pds.HandleFunc("GET /{employee_id}", s.handleGetPDS)
			pds.HandleFunc("POST /{employee_id}", s.handleSavePDS)
			pds.HandleFunc("DELETE /{employee_id}", s.handleDeletePDS)
			pds.HandleFunc("GET /{employee_id}/pdf", s.handlePDSPDF)
		})

		api.Mount("/service-record").Route(func(sr *routegroup.Bundle) {
			sr.Use(s.authMiddleware)
			sr.HandleFunc("GET /{$}", s.handleListServiceRecords)
			sr.HandleFunc("POST /{$}", s.handleSaveServiceRecords)
			sr.HandleFunc("PUT /record/{id}", s.handleUpdateServiceRecord)
			sr.HandleFunc("DELETE /record/{id}", s.handleDeleteServiceRecord)
			sr.HandleFunc("GET /{employee_id}", s.handleEmployeeServiceRecords)
			sr.HandleFunc("POST /{employee_id}", s.handleSaveServiceRecords)
			sr.HandleFunc("GET /{employee_id}/pdf", s.handleServiceRecordPDF)
		})

		api.Mount("/backup").Route(func(bk *routegroup.Bundle) {
			bk.Use(s.authMiddleware, requireAdmin)
			bk.HandleFunc("GET /{$}", s.handleListBackups)
			bk.HandleFunc("POST /{$}", s.handleCreateBackup)
			bk.HandleFunc("POST /execute", s.handleExecuteBackup)
			bk.HandleFunc("GET /{id}", s.handleGetBackup)
			bk.HandleFunc("DELETE /{id}", s.handleDeleteBackup)
			bk.HandleFunc("GET /{id}/download", s.handleDownloadBackup)
		})
	})

	return trimSlash(router)
}

// listRoots are group roots registered with a trailing slash
var listRoots = map[string]bool{"/api/pds/": true, "/api/service-record/": true, "/api/backup/": true}

// trimSlash drops the trailing slash before routing, so /api/account/login/ and /api/account/login are the same route
func trimSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") && !listRoots[p] {
			r.URL.Path = strings.TrimSuffix(p, "/")
			r.URL.RawPath = ""
		}
		next.ServeHTTP(w, r)
	})
}

// loginLimiter limits login attempts per client ip, rest.RealIP sets RemoteAddr before it
func (s *Server) loginLimiter() *limiter.Limiter {
	lmt := tollbooth.NewLimiter(s.loginRate, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	lmt.SetMessageContentType("application/json; charset=utf-8")
	lmt.SetMessage(`{"status":"error","message":"too many login attempts"}`)
	return lmt
}
