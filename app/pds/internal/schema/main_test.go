package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		out := bytes.Buffer{}
		require.NoError(t, run(options{Out: "-", Indent: 0}, &out))
		assert.NotContains(t, out.String(), "\n  ")
		res := map[string]any{}
		require.NoError(t, json.Unmarshal(out.Bytes(), &res))
		assert.Equal(t, "CS Form 212 Personal Data Sheet submission", res["title"])
	})

	fname := filepath.Join(t.TempDir(), "pds-schema.json")

	t.Run("check missing file", func(t *testing.T) {
		err := run(options{Out: fname, Indent: 2, Check: true}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read")
	})

	t.Run("write and check", func(t *testing.T) {
		out := bytes.Buffer{}
		require.NoError(t, run(options{Out: fname, Indent: 2}, &out))
		assert.Empty(t, out.String())
		data, err := os.ReadFile(fname) //nolint:gosec // test file
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n  \"")

		require.NoError(t, run(options{Out: fname, Indent: 2, Check: true}, &bytes.Buffer{}))
		err = run(options{Out: fname, Indent: 4, Check: true}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is out of date")
	})
}
