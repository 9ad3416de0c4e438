package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoutineFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reef.yaml")
	content := "" +
		"name: reef-survey\n" +
		"number_limit: 100\n" +
		"integration_time: [0.1, 0.2, 0.3]\n" +
		"gain: 1\n" +
		"all_combinations: false\n" +
		"interval_mode: capture_end\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	params, err := ParseRoutineFile(path)
	require.NoError(t, err)
	require.Equal(t, "reef-survey", params["name"])
	require.Equal(t, 100.0, params["number_limit"])
	require.Equal(t, []interface{}{0.1, 0.2, 0.3}, params["integration_time"])
	require.Equal(t, false, params["all_combinations"])

	r, err := Resolve(params)
	require.NoError(t, err)
	require.Equal(t, "reef-survey", r.EngineParams.Name)
	require.Equal(t, 100, r.EngineParams.NumberLimit)
}

func TestParseRoutineFileYAMLIntegerCoercion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: plain\nnumber_limit: 50\n"), 0o644))

	params, err := ParseRoutineFile(path)
	require.NoError(t, err)
	// YAML decodes a bare integer as int, not float64; normalizeYAMLValue
	// must fold it to float64 so filterAccepted's type assertion matches.
	require.IsType(t, float64(0), params["number_limit"])
}
