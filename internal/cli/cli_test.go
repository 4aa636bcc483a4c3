package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_PositionalRootFile(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{"settings.hcl"}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "settings.hcl", cfg.RootFile)
	require.Equal(t, "json", cfg.Format)
}

func TestParse_Flags(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{
		"-f", "settings.hcl",
		"-format", "yaml",
		"-search-paths", "conf,shared/conf",
		"-log-level", "debug",
	}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	require.Equal(t, "settings.hcl", cfg.RootFile)
	require.Equal(t, "yaml", cfg.Format)
	require.Equal(t, []string{"conf", "shared/conf"}, cfg.SearchPaths)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_NoRootFilePrintsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse(nil, out)

	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Nil(t, cfg)
	require.Contains(t, out.String(), "Usage:")
}

func TestParse_InvalidFormat(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"-format", "toml", "settings.hcl"}, out)

	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	require.Equal(t, 2, exitErr.Code)
}

func TestParse_InvalidLogLevel(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"-log-level", "loud", "settings.hcl"}, out)

	require.Error(t, err)
	require.IsType(t, &ExitError{}, err)
}
