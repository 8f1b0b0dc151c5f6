package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/umputun/go-flags"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cabwad/hris/app/auth"
	"github.com/cabwad/hris/app/backup"
	"github.com/cabwad/hris/app/conditions"
	"github.com/cabwad/hris/app/drive"
	"github.com/cabwad/hris/app/importer"
	"github.com/cabwad/hris/app/notify"
	"github.com/cabwad/hris/app/pds"
	"github.com/cabwad/hris/app/report"
	"github.com/cabwad/hris/app/web"
	"github.com/cabwad/hris/app/web/enums"
	"github.com/cabwad/hris/app/web/persistence"
)

type options struct {
	EnvFile string `long:"env-file" env:"HRIS_ENV_FILE" default:".env" description:"dotenv file loaded before parsing"`
	Dbg     bool   `long:"dbg" env:"HRIS_DEBUG" description:"debug mode"`

	Store struct {
		Engine string `long:"engine" env:"ENGINE" choice:"sqlite" choice:"mysql" default:"sqlite" description:"database engine"`
		DSN    string `long:"dsn" env:"DSN" default:"hris.db" description:"sqlite file or mysql dsn"`
	} `group:"store" namespace:"store" env-namespace:"HRIS_STORE"`

	MySQL struct {
		Host     string `long:"host" env:"HOST" description:"mysql host, from store dsn if empty"`
		Port     int    `long:"port" env:"PORT" description:"mysql port, from store dsn if empty"`
		User     string `long:"user" env:"USER" description:"mysql user, from store dsn if empty"`
		Password string `long:"password" env:"PASSWORD" description:"mysql password, from store dsn if empty"`
		Database string `long:"database" env:"DATABASE" description:"database to back up, from store dsn if empty"`
	} `group:"mysql" namespace:"mysql" env-namespace:"HRIS_MYSQL"`

	Backup struct {
		Dir            string        `long:"dir" env:"DIR" default:"backups" description:"local backup directory"`
		DumpPath       string        `long:"dump-path" env:"DUMP_PATH" description:"mysqldump executable, PATH lookup if empty"`
		ClientPath     string        `long:"client-path" env:"CLIENT_PATH" description:"mysql executable, PATH lookup if empty"`
		NameTemplate   string        `long:"name" env:"NAME" default:"{{.DB}}-{{.YYYYMMDD}}_{{.HHMMSS}}" description:"backup file name template"`
		RetentionDays  int           `long:"retention" env:"RETENTION" default:"30" description:"days to keep backups"`
		Schedule       string        `long:"schedule" env:"SCHEDULE" description:"cron spec of scheduled backups, disabled if empty"`
		UploadDrive    bool          `long:"upload" env:"UPLOAD" description:"upload scheduled backups to drive"`
		DriveFolder    string        `long:"drive-folder" env:"DRIVE_FOLDER" description:"parent drive folder for backups"`
		MaxErrLines    int           `long:"max-err" env:"MAX_ERR" default:"20" description:"stderr lines kept in errors"`
		NoConnDump     bool          `long:"no-conn-dump" env:"NO_CONN_DUMP" description:"don't fall back to sql connection dump if mysqldump fails"`
		MinFreeMB      uint64        `long:"min-free-mb" env:"MIN_FREE_MB" default:"100" description:"minimal free disk space, MB"`
		MinFreePercent int           `long:"min-free-percent" env:"MIN_FREE_PERCENT" description:"minimal free disk space, percent"`
		MaxMemPercent  int           `long:"max-mem-percent" env:"MAX_MEM_PERCENT" description:"maximal memory usage, percent"`
		MaxLoadAvg     float64       `long:"max-load" env:"MAX_LOAD" description:"maximal 1m load average"`
		NotifyTimeout  time.Duration `long:"notify-timeout" env:"NOTIFY_TIMEOUT" default:"30s" description:"notification timeout"`
	} `group:"backup" namespace:"backup" env-namespace:"HRIS_BACKUP"`

	Auth struct {
		Secret     string        `long:"secret" env:"SECRET" description:"jwt signing secret, required by server"`
		Issuer     string        `long:"issuer" env:"ISSUER" default:"hris" description:"jwt issuer"`
		AccessTTL  time.Duration `long:"access-ttl" env:"ACCESS_TTL" default:"1h" description:"access token lifetime"`
		RefreshTTL time.Duration `long:"refresh-ttl" env:"REFRESH_TTL" default:"168h" description:"refresh token lifetime"`
	} `group:"auth" namespace:"auth" env-namespace:"HRIS_AUTH"`

	Drive struct {
		Credentials string `long:"credentials" env:"CREDENTIALS" description:"service account json, drive disabled if empty"`
		Folder      string `long:"folder" env:"FOLDER" description:"parent folder of employee folders"`

		Repeater struct {
			Attempts int           `long:"attempts" env:"ATTEMPTS" default:"3" description:"how many times to repeat failed call"`
			Duration time.Duration `long:"duration" env:"DURATION" default:"1s" description:"initial duration"`
			Factor   float64       `long:"factor" env:"FACTOR" default:"2" description:"backoff factor"`
			Jitter   bool          `long:"jitter" env:"JITTER" description:"jitter"`
		} `group:"repeater" namespace:"repeater" env-namespace:"REPEATER"`
	} `group:"drive" namespace:"drive" env-namespace:"HRIS_DRIVE"`

	PDS struct {
		Template string `long:"template" env:"TEMPLATE" default:"assets/pds_template.pdf" description:"CS Form 212 template"`
	} `group:"pds" namespace:"pds" env-namespace:"HRIS_PDS"`

	Report struct {
		Office         string `long:"office" env:"OFFICE" default:"CABUYAO WATER DISTRICT" description:"office name in the header"`
		Address        string `long:"address" env:"ADDRESS" default:"Cabuyao, Laguna" description:"office address in the header"`
		Signatory      string `long:"signatory" env:"SIGNATORY" description:"certifying officer"`
		SignatoryTitle string `long:"signatory-title" env:"SIGNATORY_TITLE" description:"certifying officer title"`
	} `group:"report" namespace:"report" env-namespace:"HRIS_REPORT"`

	Notify struct {
		EnabledError       bool          `long:"enabled-error" env:"ENABLED_ERROR" description:"enable email notifications on errors"`
		EnabledCompletion  bool          `long:"enabled-complete" env:"ENABLED_COMPLETE" description:"enable completion notifications"`
		SMTPHost           string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort           int           `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP port"`
		SMTPUsername       string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword       string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS            bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPTimeOut        time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		FromEmail          string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails           []string      `long:"to" env:"TO" description:"SMTP to email(s)" env-delim:","`
		ErrorTemplate      string        `long:"err-template" env:"ERR_TEMPLATE" description:"custom error template"`
		CompletionTemplate string        `long:"done-template" env:"DONE_TEMPLATE" description:"custom completion template"`
		HostName           string        `long:"host" env:"HOSTNAME" description:"host name reported in notifications"`
	} `group:"notify" namespace:"notify" env-namespace:"HRIS_NOTIFY"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging"`
		Filename        string `long:"filename" env:"FILENAME" description:"file to write logs to, stdout if empty"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max size of log file in MB before rotation"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of rotated files to keep"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max days to retain old log files"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"HRIS_LOG"`

	Web struct {
		Address     string  `long:"address" env:"ADDRESS" default:":8080" description:"web server listen address"`
		LoginRate   float64 `long:"login-rate" env:"LOGIN_RATE" default:"1" description:"login attempts per second per ip"`
		MaxBodySize int64   `long:"max-body" env:"MAX_BODY" default:"33554432" description:"max request size"`
	} `group:"web" namespace:"web" env-namespace:"HRIS_WEB"`

	Server struct{} `command:"server" description:"run http api with scheduled backups (default)"`

	BackupCmd struct {
		Database   string `long:"database" description:"database to dump, configured one if empty"`
		NoCompress bool   `long:"no-compress" description:"write plain sql file"`
		Drive      bool   `long:"drive" description:"upload to drive"`
		NoMonthly  bool   `long:"no-monthly" description:"upload without monthly folder"`
	} `command:"backup" description:"dump the database"`

	RestoreCmd struct {
		ID          int64  `long:"id" required:"true" description:"backup record id"`
		Destination string `long:"destination" default:"same" description:"same, new or existing database name"`
		NewDatabase string `long:"new-db" description:"name of the database to create with destination=new"`
	} `command:"restore" description:"restore the database from a backup"`

	CleanupCmd struct {
		Days   int    `long:"days" default:"30" description:"delete backups older than days"`
		Status string `long:"status" description:"only backups with the status"`
	} `command:"cleanup" description:"delete old backup records and files"`

	CreateSuperuser struct {
		Email     string `long:"email" default:"admin@cabwad.com" description:"superuser email"`
		FirstName string `long:"first-name" default:"Super" description:"superuser first name"`
		LastName  string `long:"last-name" default:"Admin" description:"superuser last name"`
		Birthdate string `long:"birthdate" default:"2025-01-01" description:"superuser birthdate, also the initial password"`
	} `command:"create-superuser" description:"create default superuser"`

	ImportEmployees struct {
		Folders bool `long:"folders" description:"make a drive folder for every employee"`
		Args    struct {
			File string `positional-arg-name:"file" required:"true"`
		} `positional-args:"yes"`
	} `command:"import-employees" description:"import employees from json or yaml"`

	ImportServiceRecords struct {
		DryRun bool `long:"dry-run" description:"report without changing the database"`
		Args   struct {
			Path string `positional-arg-name:"path" required:"true"`
		} `positional-args:"yes"`
	} `command:"import-service-records" description:"import service records from json file or directory"`

	UpdateAddresses struct {
		Format     string `long:"format" choice:"json" choice:"csv" default:"json" description:"input format"`
		EmployeeID string `long:"employee-id" description:"update a single employee"`
		Address    string `long:"address" description:"address for the single employee"`
		Args       struct {
			File string `positional-arg-name:"file"`
		} `positional-args:"yes"`
	} `command:"update-addresses" description:"update employee addresses"`

	UpdateBirthplaces struct {
		DryRun bool `long:"dry-run" description:"report without changing the database"`
		Args   struct {
			Path string `positional-arg-name:"path" required:"true"`
		} `positional-args:"yes"`
	} `command:"update-birthplaces" description:"standardize employee birth places"`
}

var opts options

var revision = "unknown"

func main() {
	fmt.Printf("hris %s\n", revision)

	if err := loadEnv(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "can't load env file: %v\n", err)
		os.Exit(2)
	}

	p := flags.NewParser(&opts, flags.Default)
	p.SubcommandsOptional = true
	if _, err := p.Parse(); err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel) // handle SIGQUIT, SIGINT and SIGTERM

	cmd := "server"
	if p.Active != nil {
		cmd = p.Active.Name
	}
	if err := run(ctx, cmd, os.Stdout); err != nil {
		log.Printf("[ERROR] %s failed, %v", cmd, err)
		os.Exit(1)
	}
}

// loadEnv reads dotenv file before flags are parsed, so its values act as env defaults.
// The file is taken from --env-file argument or HRIS_ENV_FILE, missing file is ignored.
func loadEnv(args []string) error {
	file := os.Getenv("HRIS_ENV_FILE")
	for i, a := range args {
		if a == "--env-file" && i+1 < len(args) {
			file = args[i+1]
		}
		if v, ok := strings.CutPrefix(a, "--env-file="); ok {
			file = v
		}
	}
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	return nil
}

// run executes a command with all dependencies made from opts
func run(ctx context.Context, cmd string, out io.Writer) error {
	store, err := persistence.New(persistence.Engine(opts.Store.Engine), opts.Store.DSN)
	if err != nil {
		return fmt.Errorf("can't open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("[WARN] failed to close store: %v", err)
		}
	}()

	switch cmd {
	case "create-superuser":
		return createSuperuser(ctx, store, out)
	case "import-employees", "import-service-records", "update-addresses", "update-birthplaces":
		return runImport(ctx, cmd, store, out)
	}

	gdrive, err := makeDrive(ctx)
	if err != nil {
		return err
	}

	switch cmd {
	case "backup", "restore", "cleanup":
		mgr, err := makeBackupManager(store, gdrive)
		if err != nil {
			return err
		}
		return runBackup(ctx, cmd, mgr, out)
	case "server":
		return runServer(ctx, store, gdrive)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func runServer(ctx context.Context, store *persistence.Store, gdrive *drive.Client) error {
	if opts.Auth.Secret == "" {
		return errors.New("jwt secret is required, set --auth.secret or HRIS_AUTH_SECRET")
	}
	cfg := web.Config{
		Store:       store,
		Tokens:      auth.NewTokens(opts.Auth.Secret, opts.Auth.Issuer, opts.Auth.AccessTTL, opts.Auth.RefreshTTL),
		Report:      report.New(report.Header(opts.Report)),
		DriveFolder: opts.Drive.Folder,
		Version:     revision,
		MaxBodySize: opts.Web.MaxBodySize,
		LoginRate:   opts.Web.LoginRate,
	}
	if _, err := os.Stat(opts.PDS.Template); err == nil {
		cfg.Filler = pds.NewFiller(opts.PDS.Template)
	} else {
		log.Printf("[WARN] pds template %s not available, pds pdf disabled", opts.PDS.Template)
	}
	if gdrive != nil {
		cfg.Drive = gdrive
	}

	var mgr *backup.Manager
	if opts.Store.Engine == string(persistence.EngineMySQL) || opts.MySQL.Database != "" {
		m, err := makeBackupManager(store, gdrive)
		if err != nil {
			return err
		}
		mgr, cfg.Backups = m, m
	} else {
		log.Printf("[INFO] backups disabled, no mysql database configured")
	}

	srv, err := web.New(cfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, opts.Web.Address) })
	if mgr != nil && opts.Backup.Schedule != "" {
		sched := backup.Scheduler{
			Cron:    cron.New(),
			Creator: mgr,
			Spec:    opts.Backup.Schedule,
			Params:  backup.CreateParams{Compress: true, UploadDrive: opts.Backup.UploadDrive && gdrive != nil, MonthlyFolders: true},
		}
		g.Go(func() error { return sched.Do(gctx) })
	}
	return g.Wait()
}

func runBackup(ctx context.Context, cmd string, mgr *backup.Manager, out io.Writer) error {
	switch cmd {
	case "backup":
		c := opts.BackupCmd
		rec, err := mgr.Create(ctx, backup.CreateParams{Database: c.Database, Compress: !c.NoCompress,
			UploadDrive: c.Drive, MonthlyFolders: !c.NoMonthly, User: "cli"})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Backup created: %s (%s)\n", mgr.Path(rec), rec.FormattedSize())
	case "restore":
		c := opts.RestoreCmd
		res, err := mgr.Restore(ctx, backup.RestoreParams{BackupID: c.ID, Destination: c.Destination,
			NewDatabase: c.NewDatabase, User: "cli"})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Database restored successfully to '%s' from backup %d\n", res.Target, res.SourceID)
	case "cleanup":
		status := enums.BackupStatus{}
		if opts.CleanupCmd.Status != "" {
			st, err := enums.ParseBackupStatus(opts.CleanupCmd.Status)
			if err != nil {
				return err
			}
			status = st
		}
		res, err := mgr.Cleanup(ctx, opts.CleanupCmd.Days, status)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Cleanup completed. Deleted %d backup records and %d backup files.\n", res.Records, res.Files)
	}
	return nil
}

func runImport(ctx context.Context, cmd string, store *persistence.Store, out io.Writer) error {
	var imOpts []importer.Option
	if cmd == "import-employees" && opts.ImportEmployees.Folders {
		gdrive, err := makeDrive(ctx)
		if err != nil {
			return err
		}
		if gdrive == nil {
			return errors.New("drive credentials are required for --folders")
		}
		imOpts = append(imOpts, importer.WithFolders(gdrive, opts.Drive.Folder))
	}
	im := importer.New(store, imOpts...)

	var (
		sum  importer.Summary
		what string
		err  error
	)
	switch cmd {
	case "import-employees":
		sum, err = im.Employees(ctx, opts.ImportEmployees.Args.File)
		what = "employees"
	case "import-service-records":
		sum, err = im.ServiceRecords(ctx, opts.ImportServiceRecords.Args.Path, opts.ImportServiceRecords.DryRun)
		what = "service records"
	case "update-addresses":
		c := opts.UpdateAddresses
		if c.EmployeeID != "" {
			if c.Address == "" {
				return errors.New("--address is required with --employee-id")
			}
			return im.Address(ctx, c.EmployeeID, c.Address)
		}
		if c.Args.File == "" {
			return errors.New("either a file or --employee-id with --address is required")
		}
		sum, err = im.Addresses(ctx, c.Args.File, c.Format)
		what = "addresses"
	case "update-birthplaces":
		sum, err = im.Birthplaces(ctx, opts.UpdateBirthplaces.Args.Path, opts.UpdateBirthplaces.DryRun)
		what = "birth places"
	}
	if err != nil {
		return err
	}
	sum.Report(out, what)
	return nil
}

func createSuperuser(ctx context.Context, store *persistence.Store, out io.Writer) error {
	c := opts.CreateSuperuser
	if _, err := store.GetUserByEmail(ctx, c.Email); err == nil {
		fmt.Fprintf(out, "Superuser with email %s already exists\n", c.Email)
		return nil
	}
	u, err := auth.NewUser(auth.NewUserParams{Email: c.Email, Birthdate: c.Birthdate,
		FirstName: c.FirstName, LastName: c.LastName, Admin: true, Superuser: true})
	if err != nil {
		return err
	}
	if err := store.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, persistence.ErrAlreadyExists) {
			fmt.Fprintf(out, "Superuser %s already exists\n", u.Username)
			return nil
		}
		return err
	}
	fmt.Fprintf(out, "Superuser created successfully\nUsername: %s\nEmail: %s\n", u.Username, u.Email)
	return nil
}

// makeDrive returns nil client if drive credentials are not set
func makeDrive(ctx context.Context) (*drive.Client, error) {
	if opts.Drive.Credentials == "" {
		log.Printf("[INFO] drive credentials not set, drive disabled")
		return nil, nil
	}
	rptr := repeater.New(&strategy.Backoff{Repeats: opts.Drive.Repeater.Attempts, Duration: opts.Drive.Repeater.Duration,
		Factor: opts.Drive.Repeater.Factor, Jitter: opts.Drive.Repeater.Jitter})
	c, err := drive.New(ctx, drive.Params{CredentialsFile: opts.Drive.Credentials, Repeater: rptr})
	if err != nil {
		return nil, fmt.Errorf("can't make drive client: %w", err)
	}
	return c, nil
}

func makeBackupManager(store *persistence.Store, gdrive *drive.Client) (*backup.Manager, error) {
	my, err := mysqlParams()
	if err != nil {
		return nil, err
	}
	cfg := backup.Config{
		Dir:           opts.Backup.Dir,
		MySQL:         my,
		DumpPath:      opts.Backup.DumpPath,
		ClientPath:    opts.Backup.ClientPath,
		NameTemplate:  opts.Backup.NameTemplate,
		RetentionDays: opts.Backup.RetentionDays,
		DriveFolder:   opts.Backup.DriveFolder,
		MaxErrLines:   opts.Backup.MaxErrLines,
		Conditions:    makeConditions(),
		NotifyTimeout: opts.Backup.NotifyTimeout,
	}
	var bopts []backup.Option
	if gdrive != nil {
		bopts = append(bopts, backup.WithUploader(gdrive))
	}
	if n := makeNotifier(); n != nil {
		bopts = append(bopts, backup.WithNotifier(n))
	}
	if !opts.Backup.NoConnDump {
		bopts = append(bopts, backup.WithFallback(backup.NewSQLDumper(my)))
	}
	return backup.NewManager(cfg, store, bopts...)
}

// mysqlParams fills connection parameters not set explicitly from the mysql store dsn
func mysqlParams() (backup.MySQL, error) {
	res := backup.MySQL{Host: opts.MySQL.Host, Port: opts.MySQL.Port, User: opts.MySQL.User,
		Password: opts.MySQL.Password, Database: opts.MySQL.Database}
	if opts.Store.Engine != string(persistence.EngineMySQL) {
		return res, nil
	}
	dsn, err := mysql.ParseDSN(opts.Store.DSN)
	if err != nil {
		return res, fmt.Errorf("can't parse mysql dsn: %w", err)
	}
	if host, port, err := net.SplitHostPort(dsn.Addr); err == nil {
		if res.Host == "" {
			res.Host = host
		}
		if p, err := strconv.Atoi(port); err == nil && res.Port == 0 {
			res.Port = p
		}
	}
	if res.User == "" {
		res.User = dsn.User
	}
	if res.Password == "" {
		res.Password = dsn.Passwd
	}
	if res.Database == "" {
		res.Database = dsn.DBName
	}
	return res, nil
}

// makeConditions converts resource limits to checks, zero values are not checked
func makeConditions() conditions.Config {
	res := conditions.Config{DiskFreePath: opts.Backup.Dir}
	if opts.Backup.MinFreeMB > 0 {
		b := opts.Backup.MinFreeMB * 1024 * 1024
		res.DiskFreeBytes = &b
	}
	if opts.Backup.MinFreePercent > 0 {
		v := opts.Backup.MinFreePercent
		res.DiskFreeAbove = &v
	}
	if opts.Backup.MaxMemPercent > 0 {
		v := opts.Backup.MaxMemPercent
		res.MemoryBelow = &v
	}
	if opts.Backup.MaxLoadAvg > 0 {
		v := opts.Backup.MaxLoadAvg
		res.LoadAvgBelow = &v
	}
	return res
}

// makeNotifier returns nil if notifications are disabled or have no recipients
func makeNotifier() *notify.Service {
	if !opts.Notify.EnabledError && !opts.Notify.EnabledCompletion {
		return nil
	}
	if opts.Notify.FromEmail == "" {
		opts.Notify.FromEmail = "hris@" + makeHostName()
	}
	return notify.NewService(notify.Params{
		EnabledError:       opts.Notify.EnabledError,
		EnabledCompletion:  opts.Notify.EnabledCompletion,
		ErrorTemplate:      opts.Notify.ErrorTemplate,
		CompletionTemplate: opts.Notify.CompletionTemplate,
		Host:               makeHostName(),
	}, notify.SendersParams{
		SMTPHost:     opts.Notify.SMTPHost,
		SMTPPort:     opts.Notify.SMTPPort,
		SMTPTLS:      opts.Notify.SMTPTLS,
		SMTPUsername: opts.Notify.SMTPUsername,
		SMTPPassword: opts.Notify.SMTPPassword,
		SMTPTimeout:  opts.Notify.SMTPTimeOut,
		FromEmail:    opts.Notify.FromEmail,
		ToEmails:     opts.Notify.ToEmails,
	})
}

func makeHostName() string {
	if opts.Notify.HostName != "" {
		return opts.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// setupLogs configures logger and returns the writer it logs to, rotated file if filename set
func setupLogs() io.Writer {
	var out io.Writer = os.Stdout
	if !opts.Log.Enabled {
		log.Setup(log.Out(io.Discard), log.Err(io.Discard))
		return out
	}

	if opts.Log.Filename != "" {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
	}

	if opts.Dbg {
		log.Setup(log.Out(out), log.Err(out), log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile)
		return out
	}
	log.Setup(log.Out(out), log.Err(out), log.Msec)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] %v received, shutting down", sig)
			cancel()
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
