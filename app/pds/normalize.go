package pds

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sections maps a section name to its stored rows, single-row sections hold one element
type Sections map[string][]map[string]any

// Normalize prepares a submission for storage. Only sections present in the submission are returned,
// so absent sections stay untouched in the store.
//
// Rules: nil, false and "False" become "" except for date fields; m/d/Y dates are stored as Y-m-d;
// table rows without any value are dropped; empty w_salary becomes 0; vw_hours must be an integer (0 otherwise);
// skills without of_skill are dropped; eb_date, w_date and of_date default to today.
func Normalize(s Submission, today time.Time) (Sections, error) {
	res := Sections{}
	todayStr := today.Format(time.DateOnly)

	single := []struct {
		name     string
		data     map[string]any
		defaults []string // date fields defaulting to today
	}{
		{name: SectionPersonal, data: s.PersonalInformation},
		{name: SectionFamily, data: s.FamilyBackground},
		{name: SectionEducation, data: s.EducationalBackground, defaults: []string{"eb_date"}},
	}
	for _, sec := range single {
		if sec.data == nil {
			continue
		}
		row, err := cleanRow(sec.data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sec.name, err)
		}
		for _, k := range sec.defaults {
			if row[k] == nil || row[k] == "" {
				row[k] = todayStr
			}
		}
		res[sec.name] = []map[string]any{row}
	}

	tables := []struct {
		name string
		rows []map[string]any
		fix  func(map[string]any)
	}{
		{name: SectionCivilService, rows: s.CivilServiceEligibility},
		{name: SectionWork, rows: s.WorkExperience, fix: func(r map[string]any) {
			if v, ok := r["w_salary"]; ok && (v == nil || v == "") {
				r["w_salary"] = 0
			}
		}},
		{name: SectionVoluntary, rows: s.VoluntaryWork, fix: func(r map[string]any) {
			if v, ok := r["vw_hours"]; ok {
				r["vw_hours"] = toInt(v)
			}
		}},
		{name: SectionLearning, rows: s.LearningDevelopment},
	}
	for _, tbl := range tables {
		if tbl.rows == nil {
			continue
		}
		rows := make([]map[string]any, 0, len(tbl.rows))
		for i, r := range tbl.rows {
			if !hasData(r) {
				continue
			}
			row, err := cleanRow(r)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", tbl.name, i+1, err)
			}
			if tbl.fix != nil {
				tbl.fix(row)
			}
			rows = append(rows, row)
		}
		res[tbl.name] = rows
	}

	if s.OtherInformation != nil {
		other := map[string]any{}
		for k, v := range s.OtherInformation {
			if k != SectionSkills {
				other[k] = v
			}
		}
		row, err := cleanRow(other)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", SectionOther, err)
		}
		for _, k := range []string{"w_date", "of_date"} {
			if row[k] == nil || row[k] == "" {
				row[k] = todayStr
			}
		}
		res[SectionOther] = []map[string]any{row}

		skills := []map[string]any{}
		for _, sk := range s.Skills() {
			if str, _ := sk["of_skill"].(string); strings.TrimSpace(str) == "" {
				continue
			}
			row, err := cleanRow(sk)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", SectionSkills, err)
			}
			skills = append(skills, row)
		}
		res[SectionSkills] = skills
	}

	return res, nil
}

// Complete is the stored PDS of an employee in the shape returned by the API
type Complete struct {
	PersonalInformation     map[string]any   `json:"personal_information"`
	FamilyBackground        map[string]any   `json:"family_background"`
	EducationBackgrounds    []map[string]any `json:"education_backgrounds"`
	CivilServiceEligibility []map[string]any `json:"civil_service_eligibility"`
	WorkExperiences         []map[string]any `json:"work_experiences"`
	VoluntaryWorks          []map[string]any `json:"voluntary_works"`
	LearningDevelopments    []map[string]any `json:"learning_developments"`
	OtherInformation        map[string]any   `json:"other_information"`
}

// Present converts stored sections to the API shape. Dates are formatted as mm/dd/yyyy,
// unset checkbox flags are returned as "". Skills are nested into other information.
func Present(secs Sections) Complete {
	first := func(name string) map[string]any {
		rows := secs[name]
		if len(rows) == 0 {
			return nil
		}
		return presentRow(rows[0])
	}
	all := func(name string) []map[string]any {
		res := make([]map[string]any, 0, len(secs[name]))
		for _, r := range secs[name] {
			res = append(res, presentRow(r))
		}
		return res
	}

	res := Complete{
		PersonalInformation:     first(SectionPersonal),
		FamilyBackground:        first(SectionFamily),
		EducationBackgrounds:    all(SectionEducation),
		CivilServiceEligibility: all(SectionCivilService),
		WorkExperiences:         all(SectionWork),
		VoluntaryWorks:          all(SectionVoluntary),
		LearningDevelopments:    all(SectionLearning),
		OtherInformation:        first(SectionOther),
	}
	if res.OtherInformation != nil {
		res.OtherInformation[SectionSkills] = all(SectionSkills)
	}
	return res
}

// FromSections rebuilds a submission from stored sections, used to render stored PDS into the PDF template
func FromSections(secs Sections) Submission {
	first := func(name string) map[string]any {
		if len(secs[name]) == 0 {
			return map[string]any{}
		}
		return displayDates(secs[name][0])
	}
	all := func(name string) []map[string]any {
		res := make([]map[string]any, 0, len(secs[name]))
		for _, r := range secs[name] {
			res = append(res, displayDates(r))
		}
		return res
	}

	other := first(SectionOther)
	skills := make([]any, 0, len(secs[SectionSkills]))
	for _, r := range all(SectionSkills) {
		skills = append(skills, r)
	}
	other[SectionSkills] = skills

	return Submission{
		PersonalInformation:     first(SectionPersonal),
		FamilyBackground:        first(SectionFamily),
		EducationalBackground:   first(SectionEducation),
		CivilServiceEligibility: all(SectionCivilService),
		WorkExperience:          all(SectionWork),
		VoluntaryWork:           all(SectionVoluntary),
		LearningDevelopment:     all(SectionLearning),
		OtherInformation:        other,
	}
}

// ISODate converts m/d/Y date to Y-m-d, values without slashes are returned as is
func ISODate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") {
		return s, nil
	}
	t, err := time.Parse("1/2/2006", s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected mm/dd/yyyy", s)
	}
	return t.Format(time.DateOnly), nil
}

// DisplayDate converts Y-m-d date to mm/dd/yyyy, other values are returned as is
func DisplayDate(s string) string {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format("01/02/2006")
}

func cleanRow(src map[string]any) (map[string]any, error) {
	row := make(map[string]any, len(src))
	for k, v := range src {
		if IsDateKey(k) {
			str, _ := v.(string)
			if v == nil || str == "" {
				row[k] = ""
				continue
			}
			iso, err := ISODate(str)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			row[k] = iso
			continue
		}
		switch val := v.(type) {
		case nil:
			row[k] = ""
		case bool:
			if !val {
				row[k] = ""
				continue
			}
			row[k] = val
		case string:
			if val == "False" {
				row[k] = ""
				continue
			}
			row[k] = val
		default:
			row[k] = v
		}
	}
	return row, nil
}

func presentRow(src map[string]any) map[string]any {
	row := make(map[string]any, len(src))
	for k, v := range src {
		switch {
		case IsDateKey(k):
			str, _ := v.(string)
			row[k] = DisplayDate(str)
		case IsFlagKey(k) && !IsChecked(v):
			row[k] = ""
		default:
			row[k] = v
		}
	}
	return row
}

func displayDates(src map[string]any) map[string]any {
	row := make(map[string]any, len(src))
	for k, v := range src {
		if str, ok := v.(string); ok && IsDateKey(k) {
			row[k] = DisplayDate(str)
			continue
		}
		row[k] = v
	}
	return row
}

func hasData(row map[string]any) bool {
	for _, v := range row {
		switch val := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(val) != "" {
				return true
			}
		case bool:
			if val {
				return true
			}
		default:
			return true
		}
	}
	return false
}

func toInt(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
