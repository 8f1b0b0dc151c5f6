package backup

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// FallbackCommand is recorded as the executed command of dumps made over the database connection
const FallbackCommand = "sql_connection_dump"

// Dumper writes a logical dump of the database
type Dumper interface {
	Dump(ctx context.Context, db string, w io.Writer) error
}

// SQLDumper dumps tables through a MySQL connection with SHOW CREATE TABLE and INSERT statements.
// It is slower than mysqldump and skips routines and triggers.
type SQLDumper struct {
	Open func(db string) (*sqlx.DB, error)
	now  func() time.Time
}

// NewSQLDumper makes dumper connecting with the given parameters
func NewSQLDumper(my MySQL) *SQLDumper {
	return &SQLDumper{now: time.Now, Open: func(db string) (*sqlx.DB, error) {
		return sqlx.Open("mysql", connDSN(my, db))
	}}
}

// connDSN makes go-sql-driver DSN, localhost:3306 by default
func connDSN(my MySQL, db string) string {
	if my.Host == "" {
		my.Host = "localhost"
	}
	if my.Port == 0 {
		my.Port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.User, cfg.Passwd, cfg.DBName = my.User, my.Password, db
	cfg.Net, cfg.Addr = "tcp", net.JoinHostPort(my.Host, strconv.Itoa(my.Port))
	return cfg.FormatDSN()
}

// Dump writes create statements and rows of all tables
func (d *SQLDumper) Dump(ctx context.Context, db string, w io.Writer) error {
	conn, err := d.Open(db)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", db, err)
	}
	defer conn.Close() //nolint:errcheck // read only

	tables := []string{}
	if err = conn.SelectContext(ctx, &tables, "SHOW TABLES"); err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	now := time.Now
	if d.now != nil {
		now = d.now
	}
	if _, err = fmt.Fprintf(w, "-- MySQL database dump of %s\n-- Generated on %s\n-- Using sql connection dump\n\n"+
		"SET FOREIGN_KEY_CHECKS=0;\n\n", db, now().Format(time.RFC3339)); err != nil {
		return err
	}
	for _, table := range tables {
		log.Printf("[DEBUG] dumping table %s", table)
		if err = dumpTable(ctx, conn, table, w); err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}
	}
	_, err = io.WriteString(w, "SET FOREIGN_KEY_CHECKS=1;\n")
	return err
}

func dumpTable(ctx context.Context, conn *sqlx.DB, table string, w io.Writer) error {
	row, err := conn.QueryxContext(ctx, "SHOW CREATE TABLE "+quoteIdent(table))
	if err != nil {
		return fmt.Errorf("failed to get table structure: %w", err)
	}
	var create []any
	if row.Next() {
		create, err = row.SliceScan()
	}
	_ = row.Close()
	if err != nil {
		return fmt.Errorf("failed to read table structure: %w", err)
	}
	if len(create) < 2 {
		return fmt.Errorf("no structure returned for %s", table)
	}
	if _, err = fmt.Fprintf(w, "%s;\n\n", asString(create[1])); err != nil {
		return err
	}

	rows, err := conn.QueryxContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return fmt.Errorf("failed to read rows: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read only

	types, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("failed to get columns: %w", err)
	}
	cols := make([]string, len(types))
	binary := make([]bool, len(types))
	for i, ct := range types {
		cols[i] = ct.Name()
		binary[i] = isBinaryType(ct.DatabaseTypeName())
	}

	count := 0
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if _, err = io.WriteString(w, insertStatement(table, cols, vals, binary)); err != nil {
			return err
		}
		count++
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("failed to read rows: %w", err)
	}
	if count > 0 {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

// insertStatement makes a single-row INSERT, binary columns are written as hex literals
func insertStatement(table string, cols []string, vals []any, binary []bool) string {
	qcols := make([]string, len(cols))
	for i, c := range cols {
		qcols[i] = quoteIdent(c)
	}
	qvals := make([]string, len(vals))
	for i, v := range vals {
		qvals[i] = sqlValue(v, i < len(binary) && binary[i])
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);\n", quoteIdent(table), strings.Join(qcols, ", "),
		strings.Join(qvals, ", "))
}

var sqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\x00", `\0`, "\n", `\n`, "\r", `\r`, "\x1a", `\Z`)

func sqlValue(v any, binary bool) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case time.Time:
		return "'" + val.Format(time.DateTime) + "'"
	case []byte:
		if binary {
			if len(val) == 0 {
				return "''"
			}
			return fmt.Sprintf("0x%x", val)
		}
		return "'" + sqlEscaper.Replace(string(val)) + "'"
	default:
		return "'" + sqlEscaper.Replace(fmt.Sprint(val)) + "'"
	}
}

func isBinaryType(name string) bool {
	switch strings.ToUpper(name) {
	case "BINARY", "VARBINARY", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BIT", "GEOMETRY":
		return true
	}
	return false
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func asString(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}
