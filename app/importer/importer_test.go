package importer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabwad/hris/app/web/persistence"
)

func newStore(t *testing.T) *persistence.Store {
	t.Helper()
	store, err := persistence.New(persistence.EngineSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	fname := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fname, []byte(body), 0o600))
	return fname
}

func addEmployee(t *testing.T, store *persistence.Store, id, first, last string) {
	t.Helper()
	emp := persistence.Employee{EmployeeID: id, FirstName: first, Surname: last, IsActive: true,
		AppointmentStatus: persistence.StatusPermanent}
	require.NoError(t, store.CreateEmployee(context.Background(), &emp))
}

type fakeFolders struct {
	mu    sync.Mutex
	names []string
	fail  bool
}

func (f *fakeFolders) CreateFolder(_ context.Context, name, parent string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("drive is down")
	}
	f.names = append(f.names, parent+"/"+name)
	return "folder-" + name, nil
}

func TestImporter_Employees(t *testing.T) {
	store := newStore(t)
	addEmployee(t, store, "E-3", "OLD", "ONE")
	folders := &fakeFolders{}
	im := New(store, WithFolders(folders, "root"))

	fname := writeFile(t, t.TempDir(), "employees.json", `[
		{"employee_id": "E-1", "first_name": "juan", "surname": "dela cruz", "birth_date": "1/5/1980",
		 "position": "engineer", "first_day_service": "March 3, 2010"},
		{"employee_id": 102, "first_name": "maria", "surname": "santos", "employment_status": "casual"},
		{"employee_id": "E-3", "first_name": "dup", "surname": "one"},
		{"first_name": "no", "surname": "id"},
		{"employee_id": "E-5", "first_name": "bad", "surname": "date", "birth_date": "someday"}
	]`)
	res, err := im.Employees(context.Background(), fname)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 3, res.Skipped)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], "E-3 already exists")

	emp, err := store.GetEmployee(context.Background(), "E-1")
	require.NoError(t, err)
	assert.Equal(t, "JUAN", emp.FirstName)
	assert.Equal(t, "DELA CRUZ", emp.Surname)
	assert.Equal(t, "ENGINEER", emp.Position)
	assert.Equal(t, "1980-01-05", emp.BirthDate)
	assert.Equal(t, "2010-03-03", emp.FirstDayService)
	assert.Equal(t, persistence.StatusPermanent, emp.AppointmentStatus)
	assert.Equal(t, "folder-JUAN DELA CRUZ", emp.FolderID)
	assert.True(t, emp.IsActive)

	emp, err = store.GetEmployee(context.Background(), "102")
	require.NoError(t, err)
	assert.Equal(t, persistence.StatusCasual, emp.AppointmentStatus)
	assert.Contains(t, folders.names, "root/MARIA SANTOS")
}

func TestImporter_EmployeesYAML(t *testing.T) {
	store := newStore(t)
	im := New(store, WithFolders(&fakeFolders{fail: true}, ""))
	fname := writeFile(t, t.TempDir(), "employees.yml", `
- employee_id: 7
  first_name: pedro
  surname: reyes
  birth_date: 1975-11-30
  phone: ~
`)
	res, err := im.Employees(context.Background(), fname)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Empty(t, res.Errors)

	emp, err := store.GetEmployee(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "PEDRO", emp.FirstName)
	assert.Equal(t, "1975-11-30", emp.BirthDate)
	assert.Empty(t, emp.FolderID, "folder failure only logged")
}

func TestImporter_EmployeesBadFile(t *testing.T) {
	im := New(newStore(t))
	_, err := im.Employees(context.Background(), "/no/such/file.json")
	require.Error(t, err)

	fname := writeFile(t, t.TempDir(), "employees.json", `{"employee_id": "E-1"}`)
	_, err = im.Employees(context.Background(), fname)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a list of employees")
}

func TestImporter_ServiceRecords(t *testing.T) {
	store := newStore(t)
	addEmployee(t, store, "E-1", "JUAN", "DELA CRUZ")
	addEmployee(t, store, "E-2", "MARIA", "SANTOS")

	dir := t.TempDir()
	writeFile(t, dir, "juan.json", `{"employee_info": {"employee_id": "E-1"}, "service_records": [
		{"from": "01/02/2010", "to": "12/31/2015", "designation": "Clerk", "status": "Permanent", "salary": 12000,
		 "station": "Main", "absence": null},
		{"from": "01/01/2016", "designation": "Engineer", "status": "Permanent"},
		null,
		{"from": "", "designation": "No From"}
	]}`)
	writeFile(t, dir, "maria.json", `{"employee_info": {"employee_id": "E-2"}, "service_records": null}`)
	writeFile(t, dir, "ghost.json", `{"employee_info": {"employee_id": "E-9"}, "service_records": []}`)
	writeFile(t, dir, "noinfo.json", `{"service_records": []}`)
	writeFile(t, dir, "noid.json", `{"employee_info": {"name": "x"}, "service_records": []}`)
	writeFile(t, dir, "broken.json", `{"employee_info": `)
	writeFile(t, dir, "notes.txt", `ignored`)

	im := New(store, WithConcurrency(2))
	res, err := im.ServiceRecords(context.Background(), dir, true)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Files)
	assert.Equal(t, 2, res.Created)
	assert.True(t, res.DryRun)
	recs, err := store.ServiceRecords(context.Background(), "E-1")
	require.NoError(t, err)
	assert.Empty(t, recs, "dry run writes nothing")

	res, err = im.ServiceRecords(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 6, res.Skipped) // null and no-from records, ghost, noinfo, noid, broken
	assert.Len(t, res.Errors, 4)
	errs := bytes.Buffer{}
	res.Report(&errs, "service records")
	assert.Contains(t, errs.String(), "employee with ID E-9 not found (file: ghost.json, name: ghost)")
	assert.Contains(t, errs.String(), "missing employee_id in file noid.json")
	assert.Contains(t, errs.String(), "noinfo.json does not contain expected employee_info structure")
	assert.Contains(t, errs.String(), "broken.json")

	recs, err = store.ServiceRecords(context.Background(), "E-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	found := map[string]persistence.ServiceRecord{}
	for _, r := range recs {
		found[r.Designation] = r
	}
	assert.Equal(t, "12000", found["Clerk"].Salary)
	assert.Equal(t, "2015-12-31", found["Clerk"].ServiceTo)
	assert.Equal(t, "2010-01-02", found["Clerk"].ServiceFrom)
	assert.Empty(t, found["Clerk"].Absence)
	assert.Empty(t, found["Engineer"].ServiceTo)
}

func TestImporter_ServiceRecordsMixedDates(t *testing.T) {
	store := newStore(t)
	addEmployee(t, store, "E-1", "JUAN", "DELA CRUZ")
	fname := writeFile(t, t.TempDir(), "juan.json", `{"employee_info": {"employee_id": "E-1"}, "service_records": [
		{"from": "2/1/2009", "to": "12/31/2009", "designation": "Casual"},
		{"from": "January 5, 2016", "to": "present", "designation": "Engineer"},
		{"from": "2010-01-04", "to": "Dec 31, 2015", "designation": "Clerk"},
		{"from": "sometime 2008", "to": "", "designation": "Aide"}
	]}`)

	res, err := New(store).ServiceRecords(context.Background(), fname, false)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Created)

	recs, err := store.ServiceRecords(context.Background(), "E-1")
	require.NoError(t, err)
	require.Len(t, recs, 4)
	got := make([]string, 0, len(recs))
	for _, r := range recs {
		got = append(got, r.Designation+" "+r.ServiceFrom+" "+r.ServiceTo)
	}
	assert.Equal(t, []string{
		"Aide sometime 2008 ",
		"Engineer 2016-01-05 PRESENT",
		"Clerk 2010-01-04 2015-12-31",
		"Casual 2009-02-01 2009-12-31",
	}, got, "newest first, unparsable dates kept")
}

func TestIsoDate(t *testing.T) {
	assert.Equal(t, "2015-12-31", isoDate(" 12/31/2015 ", false))
	assert.Equal(t, "2015-12-31", isoDate("Dec 31, 2015", true))
	assert.Equal(t, "PRESENT", isoDate("present", true))
	assert.Equal(t, "present", isoDate("present", false))
	assert.Empty(t, isoDate("", true))
}

func TestImporter_ServiceRecordsSingleFile(t *testing.T) {
	store := newStore(t)
	addEmployee(t, store, "E-1", "JUAN", "DELA CRUZ")
	fname := writeFile(t, t.TempDir(), "juan.json", `{"employee_info": {"employee_id": "E-1"},
		"service_records": [{"from": "2010-01-01", "designation": "Clerk"}]}`)

	res, err := New(store).ServiceRecords(context.Background(), fname, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 1, res.Created)

	_, err = New(store).ServiceRecords(context.Background(), "/no/such/dir", false)
	require.Error(t, err)

	res, err = New(store).ServiceRecords(context.Background(), t.TempDir(), false)
	require.NoError(t, err)
	assert.Zero(t, res.Files)
}

func TestImporter_Addresses(t *testing.T) {
	store := newStore(t)
	addEmployee(t, store, "E-1", "JUAN", "DELA CRUZ")
	addEmployee(t, store, "E-2", "MARIA", "SANTOS")
	dir := t.TempDir()
	im := New(store)

	t.Run("json", func(t *testing.T) {
		fname := writeFile(t, dir, "addr.json", `[{"employee_id": "E-1", "address": "Brgy. 1, Cabanatuan"},
			{"employee_id": "E-9", "address": "nowhere"}, {"employee_id": "E-2"}]`)
		res, err := im.Addresses(context.Background(), fname, "json")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Updated)
		assert.Equal(t, 2, res.Skipped)
		emp, err := store.GetEmployee(context.Background(), "E-1")
		require.NoError(t, err)
		assert.Equal(t, "Brgy. 1, Cabanatuan", emp.Address)
		assert.Equal(t, "JUAN", emp.FirstName, "other fields kept")
	})

	t.Run("csv", func(t *testing.T) {
		fname := writeFile(t, dir, "addr.csv", "address,employee_id\n\"Sumacab, Cabanatuan\",E-2\n,E-1\n")
		res, err := im.Addresses(context.Background(), fname, "csv")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Updated)
		assert.Equal(t, 1, res.Skipped)
		emp, err := store.GetEmployee(context.Background(), "E-2")
		require.NoError(t, err)
		assert.Equal(t, "Sumacab, Cabanatuan", emp.Address)
	})

	t.Run("bad csv header", func(t *testing.T) {
		fname := writeFile(t, dir, "bad.csv", "id,addr\nE-1,x\n")
		_, err := im.Addresses(context.Background(), fname, "csv")
		require.Error(t, err)
	})

	t.Run("single", func(t *testing.T) {
		require.NoError(t, im.Address(context.Background(), "E-1", "Aduas"))
		emp, err := store.GetEmployee(context.Background(), "E-1")
		require.NoError(t, err)
		assert.Equal(t, "Aduas", emp.Address)
		err = im.Address(context.Background(), "E-9", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := im.Addresses(context.Background(), filepath.Join(dir, "none.json"), "json")
		require.Error(t, err)
	})
}

func TestImporter_Birthplaces(t *testing.T) {
	store := newStore(t)
	addEmployee(t, store, "E-1", "JUAN", "DELA CRUZ")
	addEmployee(t, store, "E-2", "MARIA", "SANTOS")
	ctx := context.Background()
	emp, err := store.GetEmployee(ctx, "E-2")
	require.NoError(t, err)
	emp.BirthPlace = "Old Place"
	require.NoError(t, store.UpdateEmployee(ctx, &emp))

	dir := t.TempDir()
	writeFile(t, dir, "juan.json", `{"employee_info": {"employee_id": "E-1", "birth_place": "cabanatuan city, nueva ecija"}}`)
	writeFile(t, dir, "list.json", `{"employee_info": [{"employee_id": "E-2"}, {"employee_id": "E-7", "birth_place": "x"},
		{"birth_place": "no id"}]}`)
	writeFile(t, dir, "list-only.json", `[{"employee_id": "E-1"}]`)
	writeFile(t, dir, "bad.json", `{`)

	im := New(store)
	res, err := im.Birthplaces(ctx, dir, true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	emp, err = store.GetEmployee(ctx, "E-2")
	require.NoError(t, err)
	assert.Equal(t, "Old Place", emp.BirthPlace, "dry run keeps values")

	res, err = im.Birthplaces(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Files)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, 4, res.Skipped) // unknown id, missing id, list-only, bad
	assert.Len(t, res.Errors, 4)

	emp, err = store.GetEmployee(ctx, "E-1")
	require.NoError(t, err)
	assert.Equal(t, "Cabanatuan City, Nueva Ecija", emp.BirthPlace)
	emp, err = store.GetEmployee(ctx, "E-2")
	require.NoError(t, err)
	assert.Empty(t, emp.BirthPlace, "missing birth_place clears the value")
}

func TestStandardizePlace(t *testing.T) {
	tbl := []struct {
		in, out string
	}{
		{"", ""},
		{"manila", "Manila"},
		{"SAN JOSE DE BUENAVISTA", "San Jose De Buenavista"},
		{"city of san fernando, pampanga", "City of San Fernando, Pampanga"},
		{"town in the hills", "Town in the Hills"},
		{"port mcarthur", "Port McArthur"},
		{"fort macdonald", "Fort MacDonald"},
		{"lapu-lapu city", "Lapu-Lapu City"},
		{"  gapan ,  nueva   ecija ", "Gapan, Nueva Ecija"},
		{"the city, of manila", "The City, Of Manila"},
	}
	for _, tt := range tbl {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.out, StandardizePlace(tt.in))
		})
	}
}

func TestSummary_Report(t *testing.T) {
	buf := bytes.Buffer{}
	s := Summary{Files: 2, Created: 3, Skipped: 1, DryRun: true, Errors: []string{"oops"}}
	s.Report(&buf, "records")
	assert.Contains(t, buf.String(), "Processed 2 files")
	assert.Contains(t, buf.String(), "DRY RUN")
	assert.Contains(t, buf.String(), "Would create 3 records")
	assert.Contains(t, buf.String(), "Skipped 1")
	assert.Contains(t, buf.String(), "- oops")

	buf.Reset()
	Summary{Updated: 4}.Report(&buf, "employees")
	assert.Contains(t, buf.String(), "Updated 4 employees")
	assert.NotContains(t, buf.String(), "Created")
}
