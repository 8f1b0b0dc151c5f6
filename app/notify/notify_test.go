package notify

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabwad/hris/app/notify/mocks"
)

func testEvent(errMsg string) Event {
	return Event{Operation: "backup", Database: "hris", Filename: "hris-20250304_150607.sql.gz", Size: "1.50 MB",
		Duration: 3 * time.Second, Error: errMsg, TS: time.Date(2025, 3, 4, 15, 6, 7, 0, time.UTC)}
}

func TestService_EmptyDestinations(t *testing.T) {
	svc := NewService(Params{}, SendersParams{})
	require.Nil(t, svc)
}

func TestService_SMTPDestination(t *testing.T) {
	svc := NewService(Params{}, SendersParams{ToEmails: []string{"hr@example.com"}, SMTPHost: "localhost", SMTPPort: 25})
	require.NotNil(t, svc)
	assert.Len(t, svc.destinations, 1)

	svc = NewService(Params{}, SendersParams{ToEmails: []string{"hr@example.com"}})
	require.NotNil(t, svc)
	assert.Empty(t, svc.destinations)
}

func TestService_NoSMTPWarning(t *testing.T) {
	buf := bytes.Buffer{}
	log.Setup(log.Out(&buf))
	defer log.Setup(log.Out(os.Stdout), log.Err(os.Stderr))

	svc := NewService(Params{EnabledError: true}, SendersParams{ToEmails: []string{"hr@cabwad.local"}})
	require.NotNil(t, svc)
	assert.Empty(t, svc.destinations)
	assert.Contains(t, buf.String(), "[WARN] notifications enabled for hr@cabwad.local, but smtp host is not set")

	buf.Reset()
	NewService(Params{}, SendersParams{ToEmails: []string{"hr@cabwad.local"}})
	assert.NotContains(t, buf.String(), "smtp host is not set", "no warning when disabled")

	buf.Reset()
	NewService(Params{EnabledCompletion: true}, SendersParams{ToEmails: []string{"hr@cabwad.local"}, SMTPHost: "mail.local"})
	assert.NotContains(t, buf.String(), "smtp host is not set")
}

func TestMakeErrorHTMLDefault(t *testing.T) {
	svc := NewService(Params{Host: "hr-host"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	ev := testEvent("mysqldump: access denied")
	ev.Host = "hr-host"
	res, err := svc.MakeErrorHTML(ev)
	require.NoError(t, err)
	assert.Contains(t, res, "Database backup failed on <span class=\"bold\">hr-host</span>")
	assert.Contains(t, res, "<li>Database: <span class=\"bold\">hris</span></li>")
	assert.Contains(t, res, "mysqldump: access denied")
	assert.Contains(t, res, "2025-03-04T15:06:07Z")
}

func TestMakeErrorHTMLCustom(t *testing.T) {
	svc := NewService(Params{ErrorTemplate: "testfiles/err.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	res, err := svc.MakeErrorHTML(testEvent("boom"))
	require.NoError(t, err)
	assert.Contains(t, res, "Backup failed: hris")
	assert.Contains(t, res, "File: hris-20250304_150607.sql.gz")

	svc = NewService(Params{ErrorTemplate: "testfiles/err-bad.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	res, err = svc.MakeErrorHTML(testEvent("boom"))
	require.NoError(t, err)
	assert.Contains(t, res, "<li>Database: <span class=\"bold\">hris</span></li>")

	svc = NewService(Params{ErrorTemplate: "testfiles/not-found.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	res, err = svc.MakeErrorHTML(testEvent("boom"))
	require.NoError(t, err)
	assert.Contains(t, res, "Database backup failed")
}

func TestMakeCompletionHTML(t *testing.T) {
	svc := NewService(Params{}, SendersParams{ToEmails: []string{"test@example.com"}})
	res, err := svc.MakeCompletionHTML(testEvent(""))
	require.NoError(t, err)
	assert.Contains(t, res, "Database backup completed")
	assert.Contains(t, res, "<li>Size: <span class=\"bold\">1.50 MB</span></li>")
	assert.Contains(t, res, "<li>Duration: <span class=\"bold\">3s</span></li>")

	svc = NewService(Params{CompletionTemplate: "testfiles/completed.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	res, err = svc.MakeCompletionHTML(testEvent(""))
	require.NoError(t, err)
	assert.Equal(t, "Backup done: hris, 1.50 MB\n", res)
}

func TestService_Notify(t *testing.T) {
	tbl := []struct {
		name       string
		params     Params
		errMsg     string
		sent       bool
		subjPrefix string
	}{
		{name: "error enabled", params: Params{EnabledError: true}, errMsg: "boom", sent: true,
			subjPrefix: "backup+of+hris+failed"},
		{name: "error disabled", params: Params{EnabledCompletion: true}, errMsg: "boom", sent: false},
		{name: "completion enabled", params: Params{EnabledCompletion: true}, sent: true,
			subjPrefix: "backup+of+hris+completed"},
		{name: "completion disabled", params: Params{EnabledError: true}, sent: false},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mocks.NotifierMock{SendFunc: func(context.Context, string, string) error { return nil }}
			tt.params.Host = "hr-host"
			svc := NewService(tt.params, SendersParams{ToEmails: []string{"hr@example.com"}, FromEmail: "noreply@example.com"})
			svc.destinations = []Notifier{mock}
			require.NoError(t, svc.Notify(context.Background(), testEvent(tt.errMsg)))
			if !tt.sent {
				assert.Empty(t, mock.SendCalls())
				return
			}
			require.Len(t, mock.SendCalls(), 1)
			assert.Contains(t, mock.SendCalls()[0].Destination, "mailto:hr@example.com?from=noreply@example.com&subject="+tt.subjPrefix)
		})
	}
}

func TestService_IsOnCompletionAndError(t *testing.T) {
	svc := NewService(Params{EnabledCompletion: true}, SendersParams{ToEmails: []string{"test@example.com"}})
	assert.True(t, svc.IsOnCompletion())
	assert.False(t, svc.IsOnError())

	svc = NewService(Params{EnabledError: true}, SendersParams{ToEmails: []string{"test@example.com"}})
	assert.False(t, svc.IsOnCompletion())
	assert.True(t, svc.IsOnError())
}

func TestService_Send(t *testing.T) {
	var sent []string
	failing := errors.New("smtp down")
	mailer := &mocks.NotifierMock{
		SendFunc: func(_ context.Context, dest, text string) error {
			sent = append(sent, dest+" | "+text)
			if strings.Contains(text, "fail me") {
				return failing
			}
			return nil
		},
		SchemaFunc: func() string { return "mailto" },
	}
	svc := Service{destinations: []Notifier{mailer, mailer}, fromEmail: "hris@cabwad.local",
		toEmail: []string{"it@cabwad.local", "hr@cabwad.local"}}

	require.NoError(t, svc.Send(context.Background(), "Backup of hris done", "all good"))
	require.Len(t, sent, 2, "each destination called")
	assert.Equal(t, "mailto:it@cabwad.local,hr@cabwad.local?from=hris@cabwad.local&subject=Backup+of+hris+done | all good",
		sent[0])

	err := svc.Send(context.Background(), "subj", "fail me")
	require.Error(t, err)
	assert.ErrorIs(t, err, failing)
	assert.Len(t, mailer.SendCalls(), 4)
}

func TestService_NotifySubjects(t *testing.T) {
	subjects := []string{}
	mailer := &mocks.NotifierMock{
		SendFunc: func(_ context.Context, dest, _ string) error {
			subjects = append(subjects, dest[strings.Index(dest, "subject=")+len("subject="):])
			return nil
		},
		SchemaFunc: func() string { return "mailto" },
	}
	svc := Service{Params: Params{EnabledError: true, Host: "hr-server"}, destinations: []Notifier{mailer},
		toEmail: []string{"it@cabwad.local"}}
	svc.errTmpl = loadTemplate("", defaultErrorTemplate)
	svc.doneTmpl = loadTemplate("", defaultCompletionTemplate)

	require.NoError(t, svc.Notify(context.Background(), Event{Operation: "backup", Database: "hris"}))
	assert.Empty(t, subjects, "completion notifications disabled")

	require.NoError(t, svc.Notify(context.Background(), Event{Operation: "restore", Database: "hris", Error: "access denied"}))
	require.Len(t, subjects, 1)
	assert.Equal(t, "restore+of+hris+failed+on+hr-server", subjects[0])

	svc.EnabledCompletion = true
	require.NoError(t, svc.Notify(context.Background(), Event{Operation: "backup", Database: "hris"}))
	require.Len(t, subjects, 2)
	assert.Equal(t, "backup+of+hris+completed+on+hr-server", subjects[1])
}
