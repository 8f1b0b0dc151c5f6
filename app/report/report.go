// Package report renders the Service Record of an employee as a PDF document
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	log "github.com/go-pkgz/lgr"

	"github.com/cabwad/hris/app/dates"
	"github.com/cabwad/hris/app/web/persistence"
)

// Header describes the issuing office printed on every service record
type Header struct {
	Office         string
	Address        string
	Signatory      string
	SignatoryTitle string
}

// Renderer makes service record PDFs
type Renderer struct {
	hdr      Header
	compress bool
	now      func() time.Time
}

// New makes Renderer for the office header
func New(hdr Header) *Renderer {
	return &Renderer{hdr: hdr, compress: true, now: time.Now}
}

const certification = "This is to certify that the employee named herein above actually rendered services in this " +
	"Office as shown by the service record below, each line of which is supported by appointment and other " +
	"papers actually issued by this Office and approved by the authorities concerned."

// column of the records table, width in mm
type column struct {
	title string
	width float64
	value func(persistence.ServiceRecord) string
}

var columns = []column{
	{title: "From", width: 24, value: func(r persistence.ServiceRecord) string { return dates.Format(r.ServiceFrom, dates.ShortLayout) }},
	{title: "To", width: 24, value: func(r persistence.ServiceRecord) string { return dates.Format(r.ServiceTo, dates.ShortLayout) }},
	{title: "Designation", width: 56, value: func(r persistence.ServiceRecord) string { return r.Designation }},
	{title: "Status", width: 32, value: func(r persistence.ServiceRecord) string { return r.Status }},
	{title: "Salary", width: 28, value: func(r persistence.ServiceRecord) string { return r.Salary }},
	{title: "Station / Place of Assignment", width: 52, value: func(r persistence.ServiceRecord) string { return r.Station }},
	{title: "Leave of Absence w/o Pay", width: 38, value: func(r persistence.ServiceRecord) string { return r.Absence }},
}

const lineHeight = 5.0

// ServiceRecord writes the PDF of the employee's service history to w, records are printed oldest first
func (r *Renderer) ServiceRecord(w io.Writer, emp persistence.Employee, recs []persistence.ServiceRecord) error {
	pdf := r.render(emp, recs)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render service record of %s: %w", emp.EmployeeID, err)
	}
	log.Printf("[DEBUG] service record of %s rendered, %d records, %d pages", emp.EmployeeID, len(recs), pdf.PageNo())
	return nil
}

func (r *Renderer) render(emp persistence.Employee, recs []persistence.ServiceRecord) *fpdf.Fpdf {
	pdf := fpdf.New("L", "mm", "Letter", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(false, 15)
	pdf.SetTitle("Service Record - "+emp.FullName(), true)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	r.header(pdf, tr, emp)
	r.table(pdf, tr, sortRecords(recs))
	r.footer(pdf, tr)
	return pdf
}

func (r *Renderer) header(pdf *fpdf.Fpdf, tr func(string) string, emp persistence.Employee) {
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 6, tr(strings.ToUpper(r.hdr.Office)), "", 1, "C", false, 0, "")
	if r.hdr.Address != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, tr(r.hdr.Address), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 8, "SERVICE RECORD", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	field := func(label, value string, w float64) {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(28, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(w, 6, tr(value), "B", 0, "L", false, 0, "")
		pdf.CellFormat(6, 6, "", "", 0, "L", false, 0, "")
	}
	field("Name:", strings.TrimSpace(emp.Surname+", "+emp.FirstName+" "+emp.MiddleName), 110)
	field("Employee ID:", emp.EmployeeID, 60)
	pdf.Ln(7)
	field("Birth Date:", dates.Format(emp.BirthDate, dates.LongLayout), 110)
	field("Birth Place:", emp.BirthPlace, 60)
	pdf.Ln(9)

	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 4.5, certification, "", "J", false)
	pdf.Ln(3)
}

func (r *Renderer) table(pdf *fpdf.Fpdf, tr func(string) string, recs []persistence.ServiceRecord) {
	_, pageH := pdf.GetPageSize()
	left, _, _, bottom := pdf.GetMargins()

	tableHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(225, 225, 225)
		for _, c := range columns {
			pdf.CellFormat(c.width, 8, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	tableHeader()

	if len(recs) == 0 {
		pdf.CellFormat(totalWidth(), 8, "No service records", "1", 1, "C", false, 0, "")
		return
	}

	for _, rec := range recs {
		cells := make([][]string, len(columns))
		lines := 1
		for i, c := range columns {
			cells[i] = pdf.SplitText(tr(c.value(rec)), c.width-2)
			if len(cells[i]) > lines {
				lines = len(cells[i])
			}
		}
		h := float64(lines)*lineHeight + 1

		if pdf.GetY()+h > pageH-bottom-8 {
			pdf.AddPage()
			tableHeader()
		}

		x, y := pdf.GetXY()
		for i, c := range columns {
			pdf.Rect(x, y, c.width, h, "D")
			pdf.SetXY(x+1, y+0.5)
			pdf.MultiCell(c.width-2, lineHeight, strings.Join(cells[i], "\n"), "", "L", false)
			x += c.width
		}
		pdf.SetXY(left, y+h)
	}
}

func (r *Renderer) footer(pdf *fpdf.Fpdf, tr func(string) string) {
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+30 > pageH-15 {
		pdf.AddPage()
	}
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, "Issued in compliance with Executive Order No. 54 dated August 10, 1954, and in accordance "+
		"with Circular No. 58 dated August 10, 1954 of the System.", "", 1, "L", false, 0, "")
	pdf.Ln(10)

	left, _, _, _ := pdf.GetMargins()
	pdf.CellFormat(40, 5, r.now().Format(dates.LongLayout), "B", 0, "C", false, 0, "")
	pdf.SetX(left + totalWidth() - 80)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(80, 5, tr(strings.ToUpper(r.hdr.Signatory)), "B", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(40, 5, "Date", "", 0, "C", false, 0, "")
	pdf.SetX(left + totalWidth() - 80)
	pdf.CellFormat(80, 5, tr(r.hdr.SignatoryTitle), "", 1, "C", false, 0, "")
}

func totalWidth() (res float64) {
	for _, c := range columns {
		res += c.width
	}
	return res
}

// sortRecords returns a copy of records ordered by service_from ascending.
// Unparsable dates go last, keeping their original order.
func sortRecords(recs []persistence.ServiceRecord) []persistence.ServiceRecord {
	res := make([]persistence.ServiceRecord, len(recs))
	copy(res, recs)
	sort.SliceStable(res, func(i, j int) bool {
		ti, erri := dates.Parse(res[i].ServiceFrom)
		tj, errj := dates.Parse(res[j].ServiceFrom)
		switch {
		case erri != nil:
			return false
		case errj != nil:
			return true
		default:
			return ti.Before(tj)
		}
	})
	return res
}
