package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cabwad/hris/app/web/persistence"
)

func Test_makeHostName(t *testing.T) {
	opts.Notify.HostName = "test"
	assert.Equal(t, "test", makeHostName())

	opts.Notify.HostName = ""
	exp, err := os.Hostname()
	require.NoError(t, err)
	assert.Equal(t, exp, makeHostName())
}

func Test_makeNotifier(t *testing.T) {
	defer func() { opts.Notify.EnabledCompletion, opts.Notify.EnabledError, opts.Notify.ToEmails = false, false, nil }()

	opts.Notify.EnabledCompletion, opts.Notify.EnabledError = false, false
	opts.Notify.FromEmail = ""
	opts.Notify.ToEmails = []string{"hr@example.com"}
	assert.Nil(t, makeNotifier())

	opts.Notify.EnabledError = true
	notif := makeNotifier()
	require.NotNil(t, notif)
	assert.True(t, notif.IsOnError())
	assert.False(t, notif.IsOnCompletion())
	assert.Equal(t, "hris@"+makeHostName(), opts.Notify.FromEmail, "empty from is set from host name")

	opts.Notify.ToEmails = nil
	assert.Nil(t, makeNotifier(), "no recipients")
}

func Test_setupLogsWithLogsDisabled(t *testing.T) {
	opts.Log.Enabled = false
	assert.Equal(t, os.Stdout, setupLogs())
}

func Test_setupLogsToFile(t *testing.T) {
	defer func() { opts.Log.Enabled, opts.Log.Filename = false, "" }()
	fname := filepath.Join(t.TempDir(), "hris.log")

	opts.Log.Enabled = true
	opts.Log.Filename = fname
	opts.Log.MaxSize = 100
	opts.Log.MaxBackups = 7
	opts.Log.MaxAge = 0
	opts.Log.EnabledCompress = true

	out := setupLogs()
	require.IsType(t, &lumberjack.Logger{}, out)

	logger := out.(*lumberjack.Logger)
	assert.Equal(t, fname, logger.Filename)
	assert.Equal(t, 100, logger.MaxSize)
	assert.Equal(t, 7, logger.MaxBackups)
	assert.Equal(t, 0, logger.MaxAge)
	assert.True(t, logger.Compress)
	assert.NoError(t, logger.Close())
}

func Test_loadEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("HRIS_TEST_LOAD_ENV=from-file\n"), 0o600))
	t.Setenv("HRIS_ENV_FILE", "")
	defer os.Unsetenv("HRIS_TEST_LOAD_ENV") //nolint:errcheck // test cleanup

	require.NoError(t, loadEnv([]string{"server", "--env-file", envFile}))
	assert.Equal(t, "from-file", os.Getenv("HRIS_TEST_LOAD_ENV"))

	t.Run("missing file ignored", func(t *testing.T) {
		assert.NoError(t, loadEnv([]string{"--env-file=" + filepath.Join(t.TempDir(), "nope.env")}))
	})

	t.Run("broken file", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.env")
		require.NoError(t, os.WriteFile(bad, []byte("this is not\x00 env"), 0o600))
		t.Setenv("HRIS_ENV_FILE", bad)
		assert.Error(t, loadEnv(nil))
	})
}

func Test_mysqlParams(t *testing.T) {
	defer func() { opts.Store.Engine, opts.Store.DSN, opts.MySQL.User = "", "", "" }()

	t.Run("sqlite keeps explicit values", func(t *testing.T) {
		opts.Store.Engine = "sqlite"
		opts.MySQL.Host, opts.MySQL.Database = "db.local", "cabwad"
		res, err := mysqlParams()
		require.NoError(t, err)
		assert.Equal(t, "db.local", res.Host)
		assert.Equal(t, "cabwad", res.Database)
		opts.MySQL.Host, opts.MySQL.Database = "", ""
	})

	t.Run("filled from dsn", func(t *testing.T) {
		opts.Store.Engine = "mysql"
		opts.Store.DSN = "hr:secret@tcp(10.0.0.5:3307)/cabwad_hris?parseTime=true"
		opts.MySQL.User = "backup"
		res, err := mysqlParams()
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.5", res.Host)
		assert.Equal(t, 3307, res.Port)
		assert.Equal(t, "backup", res.User, "explicit user wins")
		assert.Equal(t, "secret", res.Password)
		assert.Equal(t, "cabwad_hris", res.Database)
	})

	t.Run("bad dsn", func(t *testing.T) {
		opts.Store.Engine = "mysql"
		opts.Store.DSN = "not a dsn"
		_, err := mysqlParams()
		assert.Error(t, err)
	})
}

func Test_makeConditions(t *testing.T) {
	defer func() { opts.Backup.MinFreeMB, opts.Backup.MaxLoadAvg, opts.Backup.Dir = 0, 0, "" }()

	opts.Backup.Dir = "/var/backups"
	opts.Backup.MinFreeMB = 0
	res := makeConditions()
	assert.Equal(t, "/var/backups", res.DiskFreePath)
	assert.Nil(t, res.DiskFreeBytes)
	assert.Nil(t, res.DiskFreeAbove)
	assert.Nil(t, res.MemoryBelow)
	assert.Nil(t, res.LoadAvgBelow)

	opts.Backup.MinFreeMB = 100
	opts.Backup.MaxLoadAvg = 4.5
	res = makeConditions()
	require.NotNil(t, res.DiskFreeBytes)
	assert.Equal(t, uint64(100*1024*1024), *res.DiskFreeBytes)
	require.NotNil(t, res.LoadAvgBelow)
	assert.InDelta(t, 4.5, *res.LoadAvgBelow, 0.001)
}

func Test_runCreateSuperuser(t *testing.T) {
	setupStore(t)
	opts.CreateSuperuser.Email = "admin@cabwad.com"
	opts.CreateSuperuser.FirstName, opts.CreateSuperuser.LastName = "Super", "Admin"
	opts.CreateSuperuser.Birthdate = "2025-01-01"

	out := bytes.Buffer{}
	require.NoError(t, run(context.Background(), "create-superuser", &out))
	assert.Contains(t, out.String(), "Superuser created successfully")
	assert.Contains(t, out.String(), "Username: admin2025")

	out.Reset()
	require.NoError(t, run(context.Background(), "create-superuser", &out))
	assert.Contains(t, out.String(), "already exists")

	store, err := persistence.New(persistence.EngineSQLite, opts.Store.DSN)
	require.NoError(t, err)
	defer store.Close()
	u, err := store.GetUserByEmail(context.Background(), "admin@cabwad.com")
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsAdmin)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsActive)
}

func Test_runImportEmployees(t *testing.T) {
	setupStore(t)
	fname := filepath.Join(t.TempDir(), "employees.json")
	data := `[{"employee_id": "2021-001", "first_name": "Maria", "surname": "Reyes", "position": "clerk"},
		{"employee_id": "2021-002", "first_name": "Jose", "surname": "Santos", "employment_status": "casual"}]`
	require.NoError(t, os.WriteFile(fname, []byte(data), 0o600))
	opts.ImportEmployees.Args.File = fname

	out := bytes.Buffer{}
	require.NoError(t, run(context.Background(), "import-employees", &out))
	assert.Contains(t, out.String(), "Created 2 employees")

	store, err := persistence.New(persistence.EngineSQLite, opts.Store.DSN)
	require.NoError(t, err)
	defer store.Close()
	emp, err := store.GetEmployee(context.Background(), "2021-001")
	require.NoError(t, err)
	assert.Equal(t, "MARIA", emp.FirstName)
	assert.Equal(t, "CLERK", emp.Position)
}

func Test_runUpdateAddresses(t *testing.T) {
	setupStore(t)
	defer func() { opts.UpdateAddresses.EmployeeID, opts.UpdateAddresses.Address = "", "" }()

	opts.UpdateAddresses.EmployeeID = "2021-001"
	err := run(context.Background(), "update-addresses", &bytes.Buffer{})
	require.EqualError(t, err, "--address is required with --employee-id")

	opts.UpdateAddresses.Address = "Banlic, Cabuyao"
	err = run(context.Background(), "update-addresses", &bytes.Buffer{})
	require.EqualError(t, err, "employee with ID 2021-001 not found")

	opts.UpdateAddresses.EmployeeID = ""
	opts.UpdateAddresses.Args.File = ""
	err = run(context.Background(), "update-addresses", &bytes.Buffer{})
	assert.EqualError(t, err, "either a file or --employee-id with --address is required")
}

func Test_runServerRequiresSecret(t *testing.T) {
	setupStore(t)
	opts.Auth.Secret = ""
	opts.Drive.Credentials = ""
	err := run(context.Background(), "server", &bytes.Buffer{})
	assert.EqualError(t, err, "jwt secret is required, set --auth.secret or HRIS_AUTH_SECRET")
}

func Test_runUnknownCommand(t *testing.T) {
	setupStore(t)
	opts.Drive.Credentials = ""
	err := run(context.Background(), "blah", &bytes.Buffer{})
	assert.EqualError(t, err, `unknown command "blah"`)
}

// setupStore points opts to a fresh sqlite database
func setupStore(t *testing.T) {
	t.Helper()
	opts.Store.Engine = "sqlite"
	opts.Store.DSN = filepath.Join(t.TempDir(), "hris.db")
}
