package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vk/splithcl/internal/app"
	"github.com/vk/splithcl/internal/testutil"
)

func assemble(t *testing.T, files map[string]string, cfg app.Config) (string, error) {
	t.Helper()

	dir := testutil.WriteTree(t, files)
	cfg.RootFile = dir + "/" + cfg.RootFile
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}

	validated, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	runErr := app.NewApp(out, logs, validated).Run(context.Background())
	return out.String(), runErr
}

func TestRun_AssemblesAndRendersJSON(t *testing.T) {
	t.Parallel()

	out, err := assemble(t, map[string]string{
		"settings.hcl": `
			debug = false
			include "db.hcl" {}
			optional "local.hcl" {}
		`,
		"db.hcl": `
			db_host = "localhost"
			db_port = 5432
		`,
	}, app.Config{RootFile: "settings.hcl"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Equal(t, false, decoded["debug"])
	require.Equal(t, "localhost", decoded["db_host"])
	require.Equal(t, float64(5432), decoded["db_port"])
}

func TestRun_AssemblesAndRendersYAML(t *testing.T) {
	t.Parallel()

	out, err := assemble(t, map[string]string{
		"settings.hcl": `name = "orders"` + "\n",
	}, app.Config{RootFile: "settings.hcl", Format: "yaml"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	require.Equal(t, "orders", decoded["name"])
}

func TestRun_FailsOnMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := assemble(t, map[string]string{}, app.Config{RootFile: "absent.hcl"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to assemble settings")
}

func TestRun_ExampleSettingsTree(t *testing.T) {
	t.Parallel()

	cfg, err := app.NewConfig(app.Config{
		RootFile: "../../examples/settings/settings.hcl",
		LogLevel: "debug",
	})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	require.NoError(t, app.NewApp(out, logs, cfg).Run(context.Background()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Equal(t, "orders-api", decoded["service_name"])
	require.Equal(t, "db.internal", decoded["db_host"])
	require.Equal(t, "orders_api_production", decoded["db_name"])
	require.Equal(t, "redis.eu-west-1.internal:6379", decoded["cache_addr"])
	require.Equal(t, float64(8), decoded["db_pool_size"], "defaults must see earlier bindings")
}

func TestNewConfig_Validation(t *testing.T) {
	t.Parallel()

	_, err := app.NewConfig(app.Config{})
	require.Error(t, err)

	cfg, err := app.NewConfig(app.Config{RootFile: "x.hcl"})
	require.NoError(t, err)
	require.Equal(t, "json", cfg.Format, "format defaults to json")

	_, err = app.NewConfig(app.Config{RootFile: "x.hcl", Format: "toml"})
	require.Error(t, err)
}
