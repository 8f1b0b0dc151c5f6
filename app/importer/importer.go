// Package importer loads employees and service records from JSON, YAML and CSV files
// and applies bulk corrections to employee master data.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cabwad/hris/app/web/persistence"
)

// Store is the persistence used by importer
type Store interface {
	CreateEmployee(ctx context.Context, e *persistence.Employee) error
	GetEmployee(ctx context.Context, employeeID string) (persistence.Employee, error)
	UpdateEmployee(ctx context.Context, e *persistence.Employee) error
	CreateServiceRecord(ctx context.Context, r *persistence.ServiceRecord) error
}

// FolderMaker creates employee folders in the document storage
type FolderMaker interface {
	CreateFolder(ctx context.Context, name, parent string) (string, error)
}

// Importer applies import files to the store
type Importer struct {
	store       Store
	folders     FolderMaker
	parent      string // parent folder for employee folders
	concurrency int
}

// Option customizes Importer
type Option func(im *Importer)

// WithFolders makes a storage folder for every imported employee
func WithFolders(f FolderMaker, parent string) Option {
	return func(im *Importer) { im.folders, im.parent = f, parent }
}

// WithConcurrency sets number of files parsed in parallel
func WithConcurrency(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.concurrency = n
		}
	}
}

// New makes Importer
func New(store Store, opts ...Option) *Importer {
	res := &Importer{store: store, concurrency: 4}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Summary of an import run
type Summary struct {
	Files   int
	Created int
	Updated int
	Skipped int
	DryRun  bool
	Errors  []string
}

func (s *Summary) add(o Summary) {
	s.Created += o.Created
	s.Updated += o.Updated
	s.Skipped += o.Skipped
	s.Errors = append(s.Errors, o.Errors...)
}

func (s *Summary) errorf(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// Report prints human readable summary
func (s Summary) Report(w io.Writer, what string) {
	fmt.Fprintln(w, strings.Repeat("=", 50))
	if s.Files > 0 {
		fmt.Fprintf(w, "Processed %d files\n", s.Files)
	}
	verb := "Created"
	if s.DryRun {
		fmt.Fprintln(w, "DRY RUN: no changes were made to the database")
		verb = "Would create"
	}
	if s.Created > 0 || s.Updated == 0 {
		fmt.Fprintf(w, "%s %d %s\n", verb, s.Created, what)
	}
	if s.Updated > 0 {
		fmt.Fprintf(w, "Updated %d %s\n", s.Updated, what)
	}
	fmt.Fprintf(w, "Skipped %d\n", s.Skipped)
	if len(s.Errors) > 0 {
		fmt.Fprintln(w, "\nThe following errors occurred:")
		for _, e := range s.Errors {
			fmt.Fprintf(w, "- %s\n", e)
		}
	}
}

// flexString accepts JSON strings, numbers and null
type flexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *flexString) UnmarshalJSON(data []byte) error {
	switch {
	case string(data) == "null":
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", string(data))
		}
		*f = flexString(n.String())
	}
	return nil
}

// UnmarshalYAML accepts any scalar node
func (f *flexString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected scalar value", node.Line)
	}
	if node.Tag == "!!null" {
		*f = ""
		return nil
	}
	*f = flexString(node.Value)
	return nil
}

func (f flexString) String() string { return strings.TrimSpace(string(f)) }
