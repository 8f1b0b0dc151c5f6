package dates

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tbl := []struct {
		src string
		res time.Time
		err bool
	}{
		{"2006-01-02", time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"1/2/2006", time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"01/02/2006", time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"January 2, 2006", time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"Jan 2, 2006", time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"06/01/02", time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{" 2010-05-17 ", time.Date(2010, 5, 17, 0, 0, 0, 0, time.UTC), false},
		{"PRESENT", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for i, tt := range tbl {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			res, err := Parse(tt.src)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.res, res)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "May 17, 2010", Format("2010-05-17", LongLayout))
	assert.Equal(t, "05/17/2010", Format("May 17, 2010", ShortLayout))
	assert.Equal(t, "PRESENT", Format("PRESENT", ShortLayout))

	iso, err := ISO("5/17/2010")
	require.NoError(t, err)
	assert.Equal(t, "2010-05-17", iso)
	_, err = ISO("bad")
	require.Error(t, err)
}

func TestExpand(t *testing.T) {
	ts := time.Date(2025, 3, 4, 15, 6, 7, 0, time.UTC)
	tbl := []struct {
		pattern string
		res     string
		err     bool
	}{
		{"{{.DB}}-{{.YYYYMMDD}}_{{.HHMMSS}}", "hr-20250304_150607", false},
		{"{{.YYYYMM}}", "2025-03", false},
		{"{{.YYYY}}/{{.MM}}/{{.DD}}", "2025/03/04", false},
		{"plain", "plain", false},
		{"{{.UNIX}}", "1741100767", false},
		{"{{.DB", "", true},
		{"{{.Missing}}", "", true},
	}
	for i, tt := range tbl {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			res, err := Expand(tt.pattern, "hr", ts)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.res, res)
		})
	}
}
