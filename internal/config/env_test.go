package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEnvRequiresRoutineAndSession(t *testing.T) {
	_, err := ParseEnv([]string{})
	require.Error(t, err)

	_, err = ParseEnv([]string{"--routine", "r1"})
	require.Error(t, err)
}

func TestParseEnvFlagsAndDefaults(t *testing.T) {
	env, err := ParseEnv([]string{"--routine", "r1", "--session", "s1", "--complete"})
	require.NoError(t, err)
	require.Equal(t, "r1", env.RoutineNameOrPath)
	require.Equal(t, "s1", env.SessionName)
	require.True(t, env.Complete)
	require.Equal(t, "./data", env.DataDirectory)
}

// TestParseEnvAcceptsVerboseAlongsideRoutineFlags pins the single-parser
// contract §6 depends on: -v/--verbose and --routine/--session/--complete
// must all be recognized by the one FlagSet ParseEnv builds, exactly as
// tritond's main() invokes it with a bare os.Args[1:] slice.
func TestParseEnvAcceptsVerboseAlongsideRoutineFlags(t *testing.T) {
	env, err := ParseEnv([]string{"-v", "--routine", "r1", "--session", "s1"})
	require.NoError(t, err)
	require.True(t, env.Verbose)
	require.Equal(t, "r1", env.RoutineNameOrPath)

	env, err = ParseEnv([]string{"--routine", "r1", "--session", "s1", "--verbose"})
	require.NoError(t, err)
	require.True(t, env.Verbose)

	env, err = ParseEnv([]string{"--routine", "r1", "--session", "s1"})
	require.NoError(t, err)
	require.False(t, env.Verbose)
}

func TestParseEnvReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATA_DIRECTORY", "/mnt/survey-data")
	os.Unsetenv("PRODUCER_PATH")

	env, err := ParseEnv([]string{"--routine", "r1", "--session", "s1"})
	require.NoError(t, err)
	require.Equal(t, "/mnt/survey-data", env.DataDirectory)
}
