package pds

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// EmptyText is written to text fields without value
const EmptyText = "N/A"

// TextValue converts field value to text for a PDF text field, empty values become EmptyText
func TextValue(v any) string {
	switch val := v.(type) {
	case nil:
		return EmptyText
	case string:
		if strings.TrimSpace(val) == "" {
			return EmptyText
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		if !val {
			return EmptyText
		}
		return "Yes"
	default:
		return fmt.Sprint(val)
	}
}

// IsChecked converts field value to checkbox state
func IsChecked(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "", "off", "false", "no", "0", "n/a":
			return false
		}
		return true
	case float64:
		return val != 0
	case int:
		return val != 0
	default:
		return false
	}
}

// IsFlagKey reports whether the key names a checkbox of the form:
// sex, civil status (except the free-text "other"), citizenship and yes/no answers of other information
func IsFlagKey(key string) bool {
	switch {
	case strings.HasPrefix(key, "p_sex_"), strings.HasPrefix(key, "p_citizen_"):
		return true
	case strings.HasPrefix(key, "p_civil_"):
		return key != "p_civil_other"
	case key == "of_id_no":
		return false
	case strings.HasPrefix(key, "of_"):
		return strings.HasSuffix(key, "_yes") || strings.HasSuffix(key, "_no")
	}
	return false
}

// IsDateKey reports whether the key holds a calendar date, i.e. has a "date" segment
func IsDateKey(key string) bool {
	return slices.Contains(strings.Split(key, "_"), "date")
}

// FieldValues converts a flat field map to PDF values: checkbox keys become booleans,
// everything else becomes text with EmptyText for empty values
func FieldValues(flat map[string]any) map[string]any {
	res := make(map[string]any, len(flat))
	for k, v := range flat {
		if IsFlagKey(k) {
			res[k] = IsChecked(v)
			continue
		}
		res[k] = TextValue(v)
	}
	return res
}
