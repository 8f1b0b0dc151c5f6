package pds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/go-pkgz/lgr"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Filler fills the CS Form 212 PDF template with field values
type Filler struct {
	template string
	conf     *model.Configuration
}

// NewFiller makes Filler for the PDF template at the given path
func NewFiller(template string) *Filler {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Filler{template: template, conf: conf}
}

// formGroup mirrors the form export of pdfcpu, only fields we fill are kept
type formGroup struct {
	Header json.RawMessage `json:"header,omitempty"`
	Forms  []form          `json:"forms"`
}

type form struct {
	TextFields []*textField `json:"textfield,omitempty"`
	DateFields []*textField `json:"datefield,omitempty"`
	CheckBoxes []*checkBox  `json:"checkbox,omitempty"`
}

type textField struct {
	Pages     []int  `json:"pages"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	Multiline bool   `json:"multiline,omitempty"`
	Locked    bool   `json:"locked"`
}

type checkBox struct {
	Pages  []int  `json:"pages"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Value  bool   `json:"value"`
	Locked bool   `json:"locked"`
}

// Fill reads form fields of the template and fills every one of them from values.
// Text fields without value get EmptyText, checkboxes are set with IsChecked.
func (f *Filler) Fill(values map[string]any) ([]byte, error) {
	tmpl, err := os.ReadFile(f.template)
	if err != nil {
		return nil, fmt.Errorf("failed to read pds template: %w", err)
	}

	exported := bytes.Buffer{}
	if err := api.ExportFormJSON(bytes.NewReader(tmpl), &exported, filepath.Base(f.template), f.conf); err != nil {
		return nil, fmt.Errorf("failed to read form fields of %s: %w", f.template, err)
	}
	group := formGroup{}
	if err := json.Unmarshal(exported.Bytes(), &group); err != nil {
		return nil, fmt.Errorf("failed to parse form fields of %s: %w", f.template, err)
	}

	filled := applyValues(group, values)
	log.Printf("[DEBUG] filling %d pds fields", filled)

	data, err := json.Marshal(group)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal form values: %w", err)
	}
	out := bytes.Buffer{}
	if err := api.FillForm(bytes.NewReader(tmpl), bytes.NewReader(data), &out, f.conf); err != nil {
		return nil, fmt.Errorf("failed to fill pds form: %w", err)
	}
	return out.Bytes(), nil
}

// applyValues sets values of all fields in the group and returns number of fields touched
func applyValues(group formGroup, values map[string]any) (count int) {
	for _, fm := range group.Forms {
		for _, tf := range fm.TextFields {
			tf.Value = TextValue(values[tf.Name])
			count++
		}
		for _, df := range fm.DateFields {
			v, ok := values[df.Name].(string)
			if !ok {
				v = ""
			}
			df.Value = v
			count++
		}
		for _, cb := range fm.CheckBoxes {
			cb.Value = IsChecked(values[cb.Name])
			count++
		}
	}
	return count
}
