// Package dates parses the date formats found in HR records and expands date templates in file names
package dates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// display layouts
const (
	LongLayout  = "January 02, 2006"
	ShortLayout = "01/02/2006"
)

// layouts accepted by Parse, in order of preference
var layouts = []string{
	time.DateOnly,
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"02-Jan-2006",
	"06/01/02",
	time.RFC3339,
}

// Parse reads date in any of the accepted layouts
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Format re-formats a date string with the layout, unparsable values are returned unchanged
func Format(s, layout string) string {
	t, err := Parse(s)
	if err != nil {
		return s
	}
	return t.Format(layout)
}

// ISO re-formats a date string as YYYY-MM-DD
func ISO(s string) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return t.Format(time.DateOnly), nil
}

// tmpl holds values available in name templates, like {{.DB}}-{{.YYYYMMDD}}_{{.HHMMSS}}
type tmpl struct {
	DB       string
	YYYYMMDD string
	HHMMSS   string
	YYYYMM   string
	YYYY     string
	MM       string
	DD       string
	UNIX     int64
}

// Expand renders name template for the given time and database name
func Expand(pattern, db string, ts time.Time) (string, error) {
	t, err := template.New("name").Option("missingkey=error").Parse(pattern)
	if err != nil {
		return "", fmt.Errorf("failed to parse name template %q: %w", pattern, err)
	}
	data := tmpl{
		DB:       db,
		YYYYMMDD: ts.Format("20060102"),
		HHMMSS:   ts.Format("150405"),
		YYYYMM:   ts.Format("2006-01"),
		YYYY:     ts.Format("2006"),
		MM:       ts.Format("01"),
		DD:       ts.Format("02"),
		UNIX:     ts.Unix(),
	}
	buf := bytes.Buffer{}
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to expand name template %q: %w", pattern, err)
	}
	return buf.String(), nil
}
