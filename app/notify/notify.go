// Package notify delivers backup failure and completion messages via email
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
)

//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// Notifier delivers a message to the destination url, implemented by go-pkgz/notify senders
type Notifier interface {
	notify.Notifier
}

// Service sends rendered html messages to all configured destinations
type Service struct {
	Params
	destinations []Notifier
	fromEmail    string
	toEmail      []string
	errTmpl      *template.Template
	doneTmpl     *template.Template
}

// Params control which events are reported and allow custom templates
type Params struct {
	EnabledError       bool
	EnabledCompletion  bool
	ErrorTemplate      string // path to custom error template, default used if empty or broken
	CompletionTemplate string // path to custom completion template
	Host               string // reported host name, MHOST env or os hostname if empty
}

// SendersParams define smtp server and recipients
type SendersParams struct {
	SMTPHost     string
	SMTPPort     int
	SMTPTLS      bool
	SMTPUsername string
	SMTPPassword string
	SMTPTimeout  time.Duration
	FromEmail    string
	ToEmails     []string
}

// Event describes a finished backup operation
type Event struct {
	Operation string
	Database  string
	Filename  string
	Size      string
	Duration  time.Duration
	Error     string
	TS        time.Time
	Host      string
}

// NewService makes notification service, returns nil if there are no recipients
func NewService(p Params, sp SendersParams) *Service {
	if len(sp.ToEmails) == 0 {
		return nil
	}
	if p.Host == "" {
		p.Host = hostName()
	}
	res := &Service{Params: p, fromEmail: sp.FromEmail, toEmail: sp.ToEmails}
	res.errTmpl = loadTemplate(p.ErrorTemplate, defaultErrorTemplate)
	res.doneTmpl = loadTemplate(p.CompletionTemplate, defaultCompletionTemplate)
	if sp.SMTPHost != "" {
		res.destinations = append(res.destinations, notify.NewEmail(notify.SMTPParams{
			Host:        sp.SMTPHost,
			Port:        sp.SMTPPort,
			TLS:         sp.SMTPTLS,
			ContentType: "text/html",
			Username:    sp.SMTPUsername,
			Password:    sp.SMTPPassword,
			TimeOut:     sp.SMTPTimeout,
		}))
	}
	if len(res.destinations) == 0 && (p.EnabledError || p.EnabledCompletion) {
		log.Printf("[WARN] notifications enabled for %s, but smtp host is not set, nothing will be sent",
			strings.Join(sp.ToEmails, ","))
	}
	return res
}

// IsOnError status enabling on-error notification
func (s *Service) IsOnError() bool { return s.EnabledError }

// IsOnCompletion status enabling on-completion notification
func (s *Service) IsOnCompletion() bool { return s.EnabledCompletion }

// Notify renders the event with the error or completion template and sends it, if enabled
func (s *Service) Notify(ctx context.Context, ev Event) error {
	if ev.TS.IsZero() {
		ev.TS = time.Now()
	}
	ev.Host = s.Host
	if ev.Error != "" {
		if !s.IsOnError() {
			return nil
		}
		msg, err := s.MakeErrorHTML(ev)
		if err != nil {
			return fmt.Errorf("can't make html email: %w", err)
		}
		return s.Send(ctx, fmt.Sprintf("%s of %s failed on %s", ev.Operation, ev.Database, s.Host), msg)
	}
	if !s.IsOnCompletion() {
		return nil
	}
	msg, err := s.MakeCompletionHTML(ev)
	if err != nil {
		return fmt.Errorf("can't make html email: %w", err)
	}
	return s.Send(ctx, fmt.Sprintf("%s of %s completed on %s", ev.Operation, ev.Database, s.Host), msg)
}

// MakeErrorHTML renders failure message
func (s *Service) MakeErrorHTML(ev Event) (string, error) {
	return execute(s.errTmpl, ev)
}

// MakeCompletionHTML renders completion message
func (s *Service) MakeCompletionHTML(ev Event) (string, error) {
	return execute(s.doneTmpl, ev)
}

// Send message with the subject to all destinations
func (s *Service) Send(ctx context.Context, subj, text string) error {
	to := strings.Join(s.toEmail, ",")
	dest := fmt.Sprintf("mailto:%s?from=%s&subject=%s", to, s.fromEmail, url.QueryEscape(subj))
	errs := []error{}
	for _, d := range s.destinations {
		if err := d.Send(ctx, dest, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func execute(t *template.Template, ev Event) (string, error) {
	buf := bytes.Buffer{}
	if err := t.Execute(&buf, ev); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

// loadTemplate reads custom template from file, falls back to the default one on any error
func loadTemplate(path, fallback string) *template.Template {
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // template path from trusted config
		if err == nil {
			t, err := template.New("msg").Parse(string(data))
			if err == nil {
				return t
			}
			log.Printf("[WARN] can't parse template %s, using default: %v", path, err)
		} else {
			log.Printf("[WARN] can't read template %s, using default: %v", path, err)
		}
	}
	return template.Must(template.New("msg").Parse(fallback))
}

func hostName() string {
	if h := os.Getenv("MHOST"); h != "" {
		return h
	}
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

const style = `<style type="text/css">
			body { font-family: "Arial"; font-size: 1.0em; }
			ul { margin-top: -0.5em; margin-left: -0.5em; }
			pre { padding: 0.6em; font-size: 0.7em; background-color: #E8E2A0; font-family: "Menlo";
				white-space: pre-wrap; word-wrap: break-word; }
			.bold { color: #882828; font-weight: 900; }
		</style>`

const defaultErrorTemplate = `<!DOCTYPE html>
<html>
	<head>
		<meta name="viewport" content="width=device-width" />
		<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
		` + style + `
	</head>
	<body>
		<p>Database {{.Operation}} failed on <span class="bold">{{.Host}}</span> at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
		<ul>
			<li>Database: <span class="bold">{{.Database}}</span></li>
			{{if .Filename}}<li>File: <span class="bold">{{.Filename}}</span></li>{{end}}
		</ul>
		<pre>
{{.Error}}
		</pre>
	</body>
</html>
`

const defaultCompletionTemplate = `<!DOCTYPE html>
<html>
	<head>
		<meta name="viewport" content="width=device-width" />
		<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
		` + style + `
	</head>
	<body>
		<p>Database {{.Operation}} completed on <span class="bold">{{.Host}}</span> at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
		<ul>
			<li>Database: <span class="bold">{{.Database}}</span></li>
			{{if .Filename}}<li>File: <span class="bold">{{.Filename}}</span></li>{{end}}
			{{if .Size}}<li>Size: <span class="bold">{{.Size}}</span></li>{{end}}
			<li>Duration: <span class="bold">{{.Duration}}</span></li>
		</ul>
	</body>
</html>
`
