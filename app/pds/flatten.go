package pds

import (
	"fmt"
	"maps"
)

// RenumberRows returns copies of rows with every key of row i suffixed by _<i+1>,
// so table rows map to numbered PDF fields (w_position_1, w_position_2, ...)
func RenumberRows(rows []map[string]any) []map[string]any {
	res := make([]map[string]any, 0, len(rows))
	for i, row := range rows {
		renamed := make(map[string]any, len(row))
		for k, v := range row {
			renamed[fmt.Sprintf("%s_%d", k, i+1)] = v
		}
		res = append(res, renamed)
	}
	return res
}

// MergeRows combines rows into a single map, later rows win on key collision
func MergeRows(rows []map[string]any) map[string]any {
	res := map[string]any{}
	for _, row := range rows {
		maps.Copy(res, row)
	}
	return res
}

// Flatten combines all sections of the submission into one map of PDF field values.
// Table sections are renumbered and merged, skills are merged into other information.
// Sections are applied in form order: personal, family, education, civil service, work,
// voluntary work, learning and development, other information. The submission is not modified.
func Flatten(s Submission) map[string]any {
	other := map[string]any{}
	for k, v := range s.OtherInformation {
		if k == SectionSkills {
			continue
		}
		other[k] = v
	}
	maps.Copy(other, MergeRows(RenumberRows(s.Skills())))

	res := map[string]any{}
	for _, section := range []map[string]any{
		s.PersonalInformation,
		s.FamilyBackground,
		s.EducationalBackground,
		MergeRows(RenumberRows(s.CivilServiceEligibility)),
		MergeRows(RenumberRows(s.WorkExperience)),
		MergeRows(RenumberRows(s.VoluntaryWork)),
		MergeRows(RenumberRows(s.LearningDevelopment)),
		other,
	} {
		maps.Copy(res, section)
	}
	return res
}
