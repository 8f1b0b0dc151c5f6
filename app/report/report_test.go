package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabwad/hris/app/web/persistence"
)

func testRenderer() *Renderer {
	r := New(Header{Office: "Cabuyao Water District", Address: "Cabuyao, Laguna",
		Signatory: "Juana Dela Cruz", SignatoryTitle: "HR Officer"})
	r.compress = false
	r.now = func() time.Time { return time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC) }
	return r
}

func TestRenderer_ServiceRecord(t *testing.T) {
	emp := persistence.Employee{EmployeeID: "E-001", Surname: "SANTOS", FirstName: "MARIA", MiddleName: "REYES",
		BirthDate: "1990-05-17", BirthPlace: "LAGUNA"}
	recs := []persistence.ServiceRecord{
		{ID: 2, ServiceFrom: "2015-01-01", ServiceTo: "PRESENT", Designation: "ENGINEER II", Status: "PERMANENT",
			Salary: "35,000", Station: "MAIN OFFICE"},
		{ID: 1, ServiceFrom: "2010-06-01", ServiceTo: "2014-12-31", Designation: "ENGINEER I", Status: "CASUAL",
			Salary: "20,000", Station: "MAIN OFFICE", Absence: "NONE"},
	}

	buf := bytes.Buffer{}
	require.NoError(t, testRenderer().ServiceRecord(&buf, emp, recs))
	out := buf.String()
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, out, "SERVICE RECORD")
	assert.Contains(t, out, "SANTOS, MARIA REYES")
	assert.Contains(t, out, "May 17, 1990")
	assert.Contains(t, out, "ENGINEER II")
	assert.Contains(t, out, "06/01/2010")
	assert.Contains(t, out, "PRESENT")
	assert.Contains(t, out, "JUANA DELA CRUZ")
	assert.Contains(t, out, "February 03, 2025")
}

func TestRenderer_NoRecords(t *testing.T) {
	buf := bytes.Buffer{}
	err := testRenderer().ServiceRecord(&buf, persistence.Employee{EmployeeID: "E-002", Surname: "CRUZ"}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No service records")
}

func TestRenderer_PageBreak(t *testing.T) {
	recs := make([]persistence.ServiceRecord, 0, 60)
	for i := range 60 {
		recs = append(recs, persistence.ServiceRecord{ServiceFrom: fmt.Sprintf("%d-01-01", 1960+i),
			ServiceTo: fmt.Sprintf("%d-12-31", 1960+i), Designation: "CLERK WITH A VERY LONG DESIGNATION THAT WRAPS LINES",
			Status: "PERMANENT", Salary: "1,000"})
	}
	pdf := testRenderer().render(persistence.Employee{EmployeeID: "E-003"}, recs)
	require.NoError(t, pdf.Error())
	assert.Greater(t, pdf.PageNo(), 2)
}

func TestSortRecords(t *testing.T) {
	recs := []persistence.ServiceRecord{
		{ID: 1, ServiceFrom: "unknown"},
		{ID: 2, ServiceFrom: "2012-01-01"},
		{ID: 3, ServiceFrom: "January 5, 2001"},
		{ID: 4, ServiceFrom: "3/1/2005"},
	}
	res := sortRecords(recs)
	ids := []int64{}
	for _, r := range res {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{3, 4, 2, 1}, ids)
	assert.Equal(t, int64(1), recs[0].ID, "input not modified")
}
