package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"

	"github.com/cabwad/hris/app/dates"
	"github.com/cabwad/hris/app/web/persistence"
)

// employeeRow is one employee in the import file
type employeeRow struct {
	EmployeeID       flexString `json:"employee_id" yaml:"employee_id"`
	FirstName        flexString `json:"first_name" yaml:"first_name"`
	Surname          flexString `json:"surname" yaml:"surname"`
	MiddleName       flexString `json:"middle_name" yaml:"middle_name"`
	EmploymentStatus flexString `json:"employment_status" yaml:"employment_status"`
	Position         flexString `json:"position" yaml:"position"`
	Department       flexString `json:"department" yaml:"department"`
	CivilStatus      flexString `json:"civil_status" yaml:"civil_status"`
	Address          flexString `json:"address" yaml:"address"`
	BirthDate        flexString `json:"birth_date" yaml:"birth_date"`
	BirthPlace       flexString `json:"birth_place" yaml:"birth_place"`
	FirstDayService  flexString `json:"first_day_service" yaml:"first_day_service"`
	CivilService     flexString `json:"civil_service" yaml:"civil_service"`
	Sex              flexString `json:"sex" yaml:"sex"`
	Phone            flexString `json:"phone" yaml:"phone"`
	Email            flexString `json:"email" yaml:"email"`
}

// Employees creates employees from a JSON or YAML list, the format is picked by file extension.
// Names, position and department are upper-cased, missing employment status means PERMANENT.
func (im *Importer) Employees(ctx context.Context, path string) (Summary, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from command line
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	rows := []employeeRow{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &rows)
	default:
		err = json.Unmarshal(data, &rows)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to parse %s, expected a list of employees: %w", path, err)
	}

	res := Summary{Files: 1}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		emp, err := row.employee()
		if err != nil {
			res.Skipped++
			res.errorf("employee %q: %v", row.EmployeeID, err)
			continue
		}
		if im.folders != nil {
			name := strings.ToUpper(emp.FirstName + " " + emp.Surname)
			if emp.FolderID, err = im.folders.CreateFolder(ctx, name, im.parent); err != nil {
				log.Printf("[WARN] can't create folder for employee %s, %v", emp.EmployeeID, err)
			}
		}
		if err := im.store.CreateEmployee(ctx, &emp); err != nil {
			res.Skipped++
			if errors.Is(err, persistence.ErrAlreadyExists) {
				res.errorf("employee %s already exists", emp.EmployeeID)
				continue
			}
			res.errorf("employee %s: %v", emp.EmployeeID, err)
			continue
		}
		res.Created++
		log.Printf("[INFO] created employee %s, %s", emp.EmployeeID, emp.FullName())
	}
	log.Printf("[INFO] created %d out of %d employees", res.Created, len(rows))
	return res, nil
}

func (r employeeRow) employee() (persistence.Employee, error) {
	if r.EmployeeID.String() == "" {
		return persistence.Employee{}, errors.New("employee_id is required")
	}
	upper := func(f flexString) string { return strings.ToUpper(f.String()) }
	status := upper(r.EmploymentStatus)
	if status == "" {
		status = persistence.StatusPermanent
	}
	res := persistence.Employee{
		EmployeeID:        r.EmployeeID.String(),
		FirstName:         upper(r.FirstName),
		Surname:           upper(r.Surname),
		MiddleName:        upper(r.MiddleName),
		AppointmentStatus: status,
		Position:          upper(r.Position),
		Department:        upper(r.Department),
		CivilStatus:       r.CivilStatus.String(),
		Address:           r.Address.String(),
		BirthPlace:        r.BirthPlace.String(),
		CivilService:      r.CivilService.String(),
		Sex:               r.Sex.String(),
		Phone:             r.Phone.String(),
		Email:             r.Email.String(),
		IsActive:          true,
	}
	var err error
	if res.BirthDate, err = optionalDate(r.BirthDate); err != nil {
		return persistence.Employee{}, fmt.Errorf("birth_date: %w", err)
	}
	if res.FirstDayService, err = optionalDate(r.FirstDayService); err != nil {
		return persistence.Employee{}, fmt.Errorf("first_day_service: %w", err)
	}
	return res, nil
}

// optionalDate converts non-empty date in any accepted layout to YYYY-MM-DD
func optionalDate(f flexString) (string, error) {
	if f.String() == "" {
		return "", nil
	}
	return dates.ISO(f.String())
}
