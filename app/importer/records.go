package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"

	"github.com/cabwad/hris/app/dates"
	"github.com/cabwad/hris/app/web/persistence"
)

// recordsFile is the service record export of a single employee
type recordsFile struct {
	EmployeeInfo   *employeeInfo `json:"employee_info"`
	ServiceRecords []*recordRow  `json:"service_records"`
	hasRecords     bool          // service_records key present, even as null
}

type employeeInfo struct {
	EmployeeID *flexString `json:"employee_id"`
}

type recordRow struct {
	From        flexString `json:"from"`
	To          flexString `json:"to"`
	Designation flexString `json:"designation"`
	Status      flexString `json:"status"`
	Salary      flexString `json:"salary"`
	Station     flexString `json:"station"`
	Absence     flexString `json:"absence"`
}

// parsed import file, err set when the file can't be used at all
type parsedFile struct {
	path string
	data recordsFile
	err  error
}

// ServiceRecords imports service records from a JSON file or from all JSON files in a directory.
// Files are parsed in parallel and applied in name order. Records without from and designation,
// and null records are skipped. Existing records are kept, new ones are added.
func (im *Importer) ServiceRecords(ctx context.Context, path string, dryRun bool) (Summary, error) {
	files, err := jsonFiles(path)
	if err != nil {
		return Summary{}, err
	}
	res := Summary{DryRun: dryRun, Files: len(files)}
	if len(files) == 0 {
		log.Printf("[WARN] no json files found in %s", path)
		return res, nil
	}

	for _, pf := range im.parseAll(files) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if pf.err != nil {
			res.Skipped++
			res.errorf("%s: %v", filepath.Base(pf.path), pf.err)
			continue
		}
		res.add(im.applyRecords(ctx, pf, dryRun))
	}
	log.Printf("[INFO] processed %d files, %d records, skipped %d", res.Files, res.Created, res.Skipped)
	return res, nil
}

func (im *Importer) applyRecords(ctx context.Context, pf parsedFile, dryRun bool) (res Summary) {
	name := filepath.Base(pf.path)
	if pf.data.EmployeeInfo == nil {
		res.Skipped++
		res.errorf("file %s does not contain expected employee_info structure", name)
		return res
	}
	if pf.data.EmployeeInfo.EmployeeID == nil || pf.data.EmployeeInfo.EmployeeID.String() == "" {
		res.Skipped++
		res.errorf("missing employee_id in file %s", name)
		return res
	}
	empID := pf.data.EmployeeInfo.EmployeeID.String()
	emp, err := im.store.GetEmployee(ctx, empID)
	if err != nil {
		res.Skipped++
		if errors.Is(err, persistence.ErrNotFound) {
			res.errorf("employee with ID %s not found (file: %s, name: %s)", empID, name, strings.TrimSuffix(name, filepath.Ext(name)))
			return res
		}
		res.errorf("employee %s: %v", empID, err)
		return res
	}
	if !pf.data.hasRecords {
		res.Skipped++
		res.errorf("missing service_records section in file %s", name)
		return res
	}
	if len(pf.data.ServiceRecords) == 0 {
		log.Printf("[WARN] no service records in %s, nothing imported", name)
		return res
	}

	for _, row := range pf.data.ServiceRecords {
		if row == nil {
			log.Printf("[WARN] skipping null record for employee %s", empID)
			res.Skipped++
			continue
		}
		if row.From.String() == "" || row.Designation.String() == "" {
			log.Printf("[WARN] skipping record without from and designation for employee %s", empID)
			res.Skipped++
			continue
		}
		from, to := isoDate(row.From.String(), false), isoDate(row.To.String(), true)
		rec := persistence.ServiceRecord{EmployeeID: empID, ServiceFrom: from, ServiceTo: to,
			Designation: row.Designation.String(), Status: row.Status.String(), Salary: row.Salary.String(),
			Station: row.Station.String(), Absence: row.Absence.String()}
		if !dryRun {
			if err := im.store.CreateServiceRecord(ctx, &rec); err != nil {
				res.Skipped++
				res.errorf("error creating service record for %s: %v", empID, err)
				continue
			}
		}
		res.Created++
		if to == "" {
			to = "present"
		}
		log.Printf("[DEBUG] service record for %s %s: %s (%s to %s)", emp.FirstName, emp.Surname, rec.Designation,
			rec.ServiceFrom, to)
	}
	return res
}

// parseAll reads files in parallel keeping the input order
func (im *Importer) parseAll(files []string) []parsedFile {
	res := make([]parsedFile, len(files))
	gr := syncs.NewSizedGroup(im.concurrency)
	for i, f := range files {
		gr.Go(func(context.Context) {
			res[i] = parseRecordsFile(f)
		})
	}
	gr.Wait()
	return res
}

func parseRecordsFile(path string) parsedFile {
	res := parsedFile{path: path}
	data, err := os.ReadFile(path) //nolint:gosec // path from command line
	if err != nil {
		res.err = err
		return res
	}
	keys := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &keys); err != nil {
		res.err = fmt.Errorf("error parsing json: %w", err)
		return res
	}
	if err := json.Unmarshal(data, &res.data); err != nil {
		res.err = fmt.Errorf("unexpected structure: %w", err)
		return res
	}
	_, res.data.hasRecords = keys["service_records"]
	return res
}

// jsonFiles returns the path itself if it's a file, or sorted json files of the directory
func jsonFiles(path string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path %s does not exist: %w", path, err)
	}
	if !fi.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	res := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			res = append(res, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(res)
	return res, nil
}

// isoDate stores parsable dates as YYYY-MM-DD so records sort by date, other values like
// "PRESENT" are kept as is, upper-cased for the end date
func isoDate(s string, upper bool) string {
	s = strings.TrimSpace(s)
	if iso, err := dates.ISO(s); err == nil {
		return iso
	}
	if upper {
		return strings.ToUpper(s)
	}
	return s
}
