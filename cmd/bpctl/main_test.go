package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/bp-insights/internal/config"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.ConfigFileEnv, "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestClassify(t *testing.T) {
	store := filepath.Join(t.TempDir(), "readings.json")

	out, err := run(t, "--file", store, "classify", "145", "85")

	require.NoError(t, err)
	assert.Contains(t, out, "145/85: Stage 1 Hypertension (moderate)")
	assert.Contains(t, out, "- Consult doctor")
}

func TestClassify_InvalidArgs(t *testing.T) {
	store := filepath.Join(t.TempDir(), "readings.json")

	_, err := run(t, "--file", store, "classify", "high", "85")
	assert.ErrorContains(t, err, "systolic must be an integer")

	_, err = run(t, "--file", store, "classify", "120")
	assert.Error(t, err)
}

func TestAddListSummary(t *testing.T) {
	store := filepath.Join(t.TempDir(), "readings.json")

	out, err := run(t, "--file", store, "add", "--systolic", "150", "--diastolic", "98", "--pulse", "72", "--condition", "resting")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded 150/98")
	assert.Contains(t, out, "Stage 2 Hypertension")

	_, err = run(t, "--file", store, "add", "--systolic", "300", "--diastolic", "98")
	assert.ErrorContains(t, err, "Systolic must be between 50 and 250")

	out, err = run(t, "--file", store, "list", "--json")
	require.NoError(t, err)
	var readings []model.Reading
	require.NoError(t, json.Unmarshal([]byte(out), &readings))
	require.Len(t, readings, 1)
	require.NotNil(t, readings[0].Pulse)
	assert.Equal(t, 72, *readings[0].Pulse)

	out, err = run(t, "--file", store, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "150/98")

	out, err = run(t, "--file", store, "summary", "--days", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Readings: 1 (today 1")
	assert.Contains(t, out, "Average: 150/98, pulse 72")
	assert.Contains(t, out, "hypertension_stage_2")
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "readings.json")
	input := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
		{"systolic":120,"diastolic":80,"timestamp":"2024-03-09T08:00:00Z"},
		{"systolic":135,"diastolic":88,"timestamp":"2024-03-10T19:00:00Z"},
		{"diastolic":88}
	]`), 0o600))

	out, err := run(t, "--file", store, "import", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 readings")

	exported := filepath.Join(dir, "export.json")
	_, err = run(t, "--file", store, "export", "--out", exported)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	var readings []model.Reading
	require.NoError(t, json.Unmarshal(data, &readings))
	assert.Len(t, readings, 2)

	xlsx := filepath.Join(dir, "report.xlsx")
	_, err = run(t, "--file", store, "export", "--format", "xlsx", "--days", "90", "--out", xlsx)
	require.NoError(t, err)
	data, err = os.ReadFile(xlsx)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))

	_, err = run(t, "--file", store, "export", "--format", "csv")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestClear(t *testing.T) {
	store := filepath.Join(t.TempDir(), "readings.json")
	_, err := run(t, "--file", store, "add", "--systolic", "120", "--diastolic", "80")
	require.NoError(t, err)

	_, err = run(t, "--file", store, "clear")
	assert.ErrorContains(t, err, "--yes")

	_, err = run(t, "--file", store, "clear", "--yes")
	require.NoError(t, err)

	out, err := run(t, "--file", store, "list", "--json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "[]"))
}

func TestKeygen(t *testing.T) {
	out, err := run(t, "keygen")

	require.NoError(t, err)
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Len(t, key, 32)
}
