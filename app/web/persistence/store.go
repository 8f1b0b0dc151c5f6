package persistence

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a record with the same unique key exists
var ErrAlreadyExists = errors.New("already exists")

// Engine names a supported database backend
type Engine string

// supported engines
const (
	EngineSQLite Engine = "sqlite"
	EngineMySQL  Engine = "mysql"
)

// Store implements persistence for all HR records
type Store struct {
	db     *sqlx.DB
	engine Engine
}

// New opens the database for the given engine and creates the schema.
// For sqlite the dsn is a file path, for mysql it is a go-sql-driver DSN.
func New(engine Engine, dsn string) (*Store, error) {
	switch engine {
	case EngineSQLite, EngineMySQL:
	default:
		return nil, fmt.Errorf("unsupported database engine %q", engine)
	}

	if engine == EngineMySQL {
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(string(engine), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if engine == EngineSQLite {
		// enable WAL mode for better concurrency, single writer keeps sqlite from busy errors
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
			}
			return nil, fmt.Errorf("failed to set WAL mode: %w", err)
		}
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, engine: engine}
	if err := s.Initialize(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// mysqlDSN turns on clientFoundRows, updates report matched rows and
// an update writing the same values still counts as found
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// Initialize creates the database schema
func (s *Store) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id {{pk}},
			username {{str}} NOT NULL,
			email {{str}} NOT NULL,
			first_name {{str}} NOT NULL DEFAULT '',
			last_name {{str}} NOT NULL DEFAULT '',
			birthdate {{str}} NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			is_staff BOOLEAN NOT NULL DEFAULT 0,
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			is_superuser BOOLEAN NOT NULL DEFAULT 0,
			password_hash {{str}} NOT NULL DEFAULT '',
			date_joined BIGINT NOT NULL DEFAULT 0,
			UNIQUE (username),
			UNIQUE (email)
		)`,
		`CREATE TABLE IF NOT EXISTS token_blacklist (
			jti {{str}} NOT NULL PRIMARY KEY,
			expires_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS employees (
			id {{pk}},
			employee_id {{str}} NOT NULL,
			first_name {{str}} NOT NULL DEFAULT '',
			surname {{str}} NOT NULL DEFAULT '',
			middle_name {{str}} NOT NULL DEFAULT '',
			appointment_status {{str}} NOT NULL DEFAULT '',
			position {{str}} NOT NULL DEFAULT '',
			department {{str}} NOT NULL DEFAULT '',
			birth_date {{str}} NOT NULL DEFAULT '',
			birth_place {{str}} NOT NULL DEFAULT '',
			address {{str}} NOT NULL DEFAULT '',
			first_day_service {{str}} NOT NULL DEFAULT '',
			civil_service {{str}} NOT NULL DEFAULT '',
			civil_status {{str}} NOT NULL DEFAULT '',
			sex {{str}} NOT NULL DEFAULT '',
			phone {{str}} NOT NULL DEFAULT '',
			email {{str}} NOT NULL DEFAULT '',
			folder_id {{str}} NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at BIGINT NOT NULL DEFAULT 0,
			updated_at BIGINT NOT NULL DEFAULT 0,
			UNIQUE (employee_id)
		)`,
		`CREATE TABLE IF NOT EXISTS employee_files (
			id {{pk}},
			employee_id {{str}} NOT NULL,
			name {{str}} NOT NULL,
			file_id {{str}} NOT NULL DEFAULT '',
			file_type {{str}} NOT NULL DEFAULT '',
			uploaded_at BIGINT NOT NULL DEFAULT 0,
			FOREIGN KEY (employee_id) REFERENCES employees(employee_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS service_records (
			id {{pk}},
			employee_id {{str}} NOT NULL,
			service_from {{str}} NOT NULL DEFAULT '',
			service_to {{str}} NOT NULL DEFAULT '',
			designation {{str}} NOT NULL DEFAULT '',
			status {{str}} NOT NULL DEFAULT '',
			salary {{str}} NOT NULL DEFAULT '',
			station {{str}} NOT NULL DEFAULT '',
			absence {{str}} NOT NULL DEFAULT '',
			FOREIGN KEY (employee_id) REFERENCES employees(employee_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS pds_sections (
			employee_id {{str}} NOT NULL,
			section {{key}} NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			data {{text}} NOT NULL,
			PRIMARY KEY (employee_id, section, position)
		)`,
		`CREATE TABLE IF NOT EXISTS backups (
			id {{pk}},
			filename {{str}} NOT NULL,
			created_at BIGINT NOT NULL DEFAULT 0,
			size_bytes BIGINT NOT NULL DEFAULT 0,
			is_compressed BOOLEAN NOT NULL DEFAULT 1,
			status {{key}} NOT NULL DEFAULT 'in_progress',
			storage_location {{key}} NOT NULL DEFAULT 'local',
			local_path {{str}} NOT NULL DEFAULT '',
			google_drive_id {{str}} NOT NULL DEFAULT '',
			execution_time_seconds DOUBLE NOT NULL DEFAULT 0,
			error_message {{text}} NOT NULL,
			command_executed {{text}} NOT NULL,
			database_name {{str}} NOT NULL DEFAULT '',
			user_who_ran {{str}} NOT NULL DEFAULT '',
			retention_days INTEGER NOT NULL DEFAULT 30,
			scheduled_deletion BIGINT NOT NULL DEFAULT 0
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(s.dialect(query)); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// dialect replaces type placeholders in DDL with engine specific types
func (s *Store) dialect(query string) string {
	repl := strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{str}}", "TEXT",
		"{{key}}", "TEXT",
		"{{text}}", "TEXT",
	)
	if s.engine == EngineMySQL {
		repl = strings.NewReplacer(
			"{{pk}}", "BIGINT PRIMARY KEY AUTO_INCREMENT",
			"{{str}}", "VARCHAR(255)",
			"{{key}}", "VARCHAR(64)",
			"{{text}}", "LONGTEXT",
		)
	}
	return repl.Replace(query)
}

// exists runs a count query and reports whether it matched anything
func (s *Store) exists(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (bool, error) {
	var count int
	if err := sqlx.GetContext(ctx, q, &count, query, args...); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return count > 0, nil
}

// UnixTime keeps time.Time in the database as unix seconds
type UnixTime struct {
	time.Time
}

// Now returns the current time truncated to seconds
func Now() UnixTime {
	return UnixTime{Time: time.Now().Truncate(time.Second)}
}

// Value implements the driver.Valuer interface
func (t UnixTime) Value() (driver.Value, error) {
	if t.IsZero() {
		return int64(0), nil
	}
	return t.Unix(), nil
}

// Scan implements the sql.Scanner interface
func (t *UnixTime) Scan(value any) error {
	var ts int64
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case int64:
		ts = v
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unix time %q: %w", string(v), err)
		}
		ts = n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unix time %q: %w", v, err)
		}
		ts = n
	default:
		return fmt.Errorf("unsupported unix time type %T", value)
	}
	if ts <= 0 {
		t.Time = time.Time{}
		return nil
	}
	t.Time = time.Unix(ts, 0)
	return nil
}

// Page holds limit and offset for list queries, zero limit means no limit
type Page struct {
	Limit  int
	Offset int
}

func (p Page) clause() string {
	if p.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.Limit, max(p.Offset, 0))
}
