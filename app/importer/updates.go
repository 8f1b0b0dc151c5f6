package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	log "github.com/go-pkgz/lgr"

	"github.com/cabwad/hris/app/web/persistence"
)

// address update row
type addressRow struct {
	EmployeeID flexString `json:"employee_id"`
	Address    flexString `json:"address"`
}

// Address sets address of a single employee
func (im *Importer) Address(ctx context.Context, employeeID, address string) error {
	emp, err := im.store.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("employee with ID %s not found", employeeID)
		}
		return fmt.Errorf("failed to get employee %s: %w", employeeID, err)
	}
	old := emp.Address
	emp.Address = address
	if err := im.store.UpdateEmployee(ctx, &emp); err != nil {
		return fmt.Errorf("failed to update employee %s: %w", employeeID, err)
	}
	log.Printf("[INFO] updated address for employee %s from %q to %q", employeeID, old, address)
	return nil
}

// Addresses updates employee addresses from a JSON list or a CSV file with employee_id and address columns.
// format is "json" or "csv", rows without employee id or address are skipped.
func (im *Importer) Addresses(ctx context.Context, path, format string) (Summary, error) {
	fh, err := os.Open(path) //nolint:gosec // path from command line
	if err != nil {
		return Summary{}, fmt.Errorf("file not found: %w", err)
	}
	defer fh.Close() //nolint:errcheck // read only

	var rows []addressRow
	switch strings.ToLower(format) {
	case "csv":
		rows, err = readAddressCSV(fh)
	case "json", "":
		err = json.NewDecoder(fh).Decode(&rows)
		if err != nil {
			err = fmt.Errorf("json data must be a list of employee records: %w", err)
		}
	default:
		return Summary{}, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	res := Summary{Files: 1}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		id, addr := row.EmployeeID.String(), row.Address.String()
		if id == "" || addr == "" {
			res.Skipped++
			res.errorf("skipping record: missing employee_id or address")
			continue
		}
		if err := im.Address(ctx, id, addr); err != nil {
			res.Skipped++
			res.errorf("%v", err)
			continue
		}
		res.Updated++
	}
	log.Printf("[INFO] updated %d employee addresses with %d errors", res.Updated, res.Skipped)
	return res, nil
}

func readAddressCSV(r io.Reader) ([]addressRow, error) {
	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1
	rdr.TrimLeadingSpace = true
	header, err := rdr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	idCol, addrCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "employee_id":
			idCol = i
		case "address":
			addrCol = i
		}
	}
	if idCol < 0 || addrCol < 0 {
		return nil, errors.New("csv header must have employee_id and address columns")
	}

	res := []addressRow{}
	for {
		rec, err := rdr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		row := addressRow{}
		if idCol < len(rec) {
			row.EmployeeID = flexString(rec[idCol])
		}
		if addrCol < len(rec) {
			row.Address = flexString(rec[addrCol])
		}
		res = append(res, row)
	}
	return res, nil
}

type birthplaceRow struct {
	EmployeeID *flexString `json:"employee_id"`
	BirthPlace *flexString `json:"birth_place"`
}

// Birthplaces updates employee birth places from a JSON file or all JSON files of a directory.
// Missing or empty birth_place clears the value, place names are capitalized with StandardizePlace.
func (im *Importer) Birthplaces(ctx context.Context, path string, dryRun bool) (Summary, error) {
	files, err := jsonFiles(path)
	if err != nil {
		return Summary{}, err
	}
	res := Summary{DryRun: dryRun, Files: len(files)}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r, err := im.birthplacesFile(ctx, f, dryRun)
		if err != nil {
			res.Skipped++
			res.errorf("error processing file %s: %v", f, err)
			continue
		}
		res.add(r)
	}
	return res, nil
}

func (im *Importer) birthplacesFile(ctx context.Context, path string, dryRun bool) (res Summary, err error) {
	name := filepath.Base(path)
	empName := strings.TrimSuffix(name, filepath.Ext(name))
	data, err := os.ReadFile(path) //nolint:gosec // path from command line
	if err != nil {
		return res, err
	}
	if !json.Valid(data) {
		return res, fmt.Errorf("error parsing json file %s", name)
	}
	var info json.RawMessage
	bf := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &bf); err == nil { // non-object files have no employee_info
		info = bf["employee_info"]
	}
	if len(info) == 0 || string(info) == "null" {
		res.Skipped++
		res.errorf("file %s does not contain expected employee_info structure", name)
		return res, nil
	}

	rows := []birthplaceRow{}
	if strings.HasPrefix(strings.TrimSpace(string(info)), "[") {
		err = json.Unmarshal(info, &rows)
	} else {
		row := birthplaceRow{}
		err = json.Unmarshal(info, &row)
		rows = append(rows, row)
	}
	if err != nil {
		return res, fmt.Errorf("invalid employee_info in %s: %w", name, err)
	}

	for _, row := range rows {
		if row.EmployeeID == nil || row.EmployeeID.String() == "" {
			res.Skipped++
			res.errorf("missing employee_id in file %s", name)
			continue
		}
		id := row.EmployeeID.String()
		place := ""
		if row.BirthPlace == nil {
			log.Printf("[WARN] birth place not specified in file %s for employee %s, using empty string", name, id)
		} else {
			place = StandardizePlace(row.BirthPlace.String())
		}

		emp, err := im.store.GetEmployee(ctx, id)
		if err != nil {
			res.Skipped++
			if errors.Is(err, persistence.ErrNotFound) {
				res.errorf("employee with ID %s not found (file: %s, name: %s)", id, name, empName)
				continue
			}
			res.errorf("error processing employee %s (file: %s, name: %s): %v", id, name, empName, err)
			continue
		}
		if !dryRun {
			emp.BirthPlace = place
			if err := im.store.UpdateEmployee(ctx, &emp); err != nil {
				res.Skipped++
				res.errorf("error processing employee %s (file: %s, name: %s): %v", id, name, empName, err)
				continue
			}
		}
		res.Updated++
		if place == "" {
			log.Printf("[INFO] cleared birth place for employee %s (%s %s)", id, emp.FirstName, emp.Surname)
			continue
		}
		log.Printf("[INFO] updated birth place for employee %s (%s %s) to %q", id, emp.FirstName, emp.Surname, place)
	}
	return res, nil
}

// lowercase words unless first in a part
var placeSmallWords = map[string]bool{"of": true, "the": true, "in": true, "on": true, "at": true,
	"and": true, "by": true, "for": true, "with": true}

// StandardizePlace capitalizes place names, e.g. "san jose de buenavista, antique" becomes
// "San Jose De Buenavista, Antique". Comma separated parts are kept, small words like "of" stay lowercase
// unless they start a part.
func StandardizePlace(place string) string {
	parts := []string{}
	for part := range strings.SplitSeq(place, ",") {
		words := strings.Fields(part)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			lw := strings.ToLower(w)
			switch {
			case i == 0:
				words[i] = capitalize(w)
			case placeSmallWords[lw]:
				words[i] = lw
			case strings.HasPrefix(lw, "mac") && len(lw) > 3:
				words[i] = "Mac" + capitalize(w[3:])
			case strings.HasPrefix(lw, "mc") && len(lw) > 2:
				words[i] = "Mc" + capitalize(w[2:])
			default:
				words[i] = capitalize(w)
			}
		}
		parts = append(parts, strings.Join(words, " "))
	}
	return strings.Join(parts, ", ")
}

// capitalize upper-cases the first letter of every hyphen separated segment
func capitalize(s string) string {
	segs := strings.Split(strings.ToLower(s), "-")
	for i, seg := range segs {
		rs := []rune(seg)
		if len(rs) == 0 {
			continue
		}
		rs[0] = unicode.ToUpper(rs[0])
		segs[i] = string(rs)
	}
	return strings.Join(segs, "-")
}
