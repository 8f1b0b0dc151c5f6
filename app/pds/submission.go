// Package pds builds the Personal Data Sheet (CS Form No. 212). It turns a sectioned submission into the flat
// map of PDF form field values, normalizes sections for storage and fills the PDF template.
package pds

import (
	"encoding/json"
	"fmt"
)

// section names, also used as storage keys
const (
	SectionPersonal     = "personal_information"
	SectionFamily       = "family_background"
	SectionEducation    = "educational_background"
	SectionCivilService = "civil_service_eligibility"
	SectionWork         = "work_experience"
	SectionVoluntary    = "voluntary_work"
	SectionLearning     = "learning_development"
	SectionOther        = "other_information"
	SectionSkills       = "skills"
)

// Submission is a PDS as posted by the client. Keys inside sections are PDF form field names
// (p_*, fb_*, eb_*, cs_*, w_*, vw_*, ld_*, of_*), list sections hold one map per table row.
type Submission struct {
	EmployeeID              string           `json:"employee_id,omitempty" jsonschema:"description=business id of the employee"`
	Position                string           `json:"position,omitempty" jsonschema:"description=position title for the created employee"`
	Department              string           `json:"department,omitempty" jsonschema:"description=department for the created employee"`
	AppointmentStatus       string           `json:"appointment_status,omitempty" jsonschema:"example=PERMANENT"`
	PersonalInformation     map[string]any   `json:"personal_information" jsonschema:"required,description=p_* fields"`
	FamilyBackground        map[string]any   `json:"family_background,omitempty" jsonschema:"description=fb_* fields"`
	EducationalBackground   map[string]any   `json:"educational_background,omitempty" jsonschema:"description=eb_* fields"`
	CivilServiceEligibility []map[string]any `json:"civil_service_eligibility,omitempty" jsonschema:"description=rows of cs_* fields"`
	WorkExperience          []map[string]any `json:"work_experience,omitempty" jsonschema:"description=rows of w_* fields"`
	VoluntaryWork           []map[string]any `json:"voluntary_work,omitempty" jsonschema:"description=rows of vw_* fields"`
	LearningDevelopment     []map[string]any `json:"learning_development,omitempty" jsonschema:"description=rows of ld_* fields"`
	OtherInformation        map[string]any   `json:"other_information,omitempty" jsonschema:"description=of_* fields with skills rows"`
}

// UnmarshalJSON accepts "education_background" as an alias of "educational_background"
func (s *Submission) UnmarshalJSON(data []byte) error {
	type plain Submission
	aux := struct {
		plain
		EducationBackground map[string]any `json:"education_background"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("invalid pds submission: %w", err)
	}
	*s = Submission(aux.plain)
	if s.EducationalBackground == nil {
		s.EducationalBackground = aux.EducationBackground
	}
	return nil
}

// Skills returns skill rows stored under other_information.skills
func (s Submission) Skills() []map[string]any {
	if s.OtherInformation == nil {
		return nil
	}
	return rowsOf(s.OtherInformation[SectionSkills])
}

// Text returns string value of a personal information field
func (s Submission) Text(key string) string {
	v, ok := s.PersonalInformation[key].(string)
	if !ok {
		return ""
	}
	return v
}

// rowsOf converts decoded JSON array of objects to rows, non-object items are skipped
func rowsOf(v any) []map[string]any {
	switch rows := v.(type) {
	case []map[string]any:
		return rows
	case []any:
		res := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			if m, ok := r.(map[string]any); ok {
				res = append(res, m)
			}
		}
		return res
	default:
		return nil
	}
}
