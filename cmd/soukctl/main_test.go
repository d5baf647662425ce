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

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func stats(t *testing.T) map[string]interface{} {
	t.Helper()
	out, err := run(t, "stats")
	require.NoError(t, err)
	var st map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	return st
}

func TestSoukctlLifecycle(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(dir, "souk.db"))
	t.Setenv("SYNC_TRANSPORT", "local")
	t.Setenv("REDIS_URL", "")
	t.Setenv("REMOTE_API_URL", "")

	profile := filepath.Join(dir, "small.toml")
	require.NoError(t, os.WriteFile(profile, []byte(`
user_count = 2
listing_count = 3
order_count = 2
inquiry_count = 2
activity_count = 4
seed = 9
`), 0o644))

	out, err := run(t, "seed", "--profile", profile, "--replace")
	require.NoError(t, err)
	assert.Contains(t, out, "3 listings")
	assert.Equal(t, float64(3), stats(t)["listings"])

	exported := filepath.Join(dir, "state.json")
	out, err = run(t, "export", "--out", exported)
	require.NoError(t, err)
	assert.Contains(t, out, exported)

	out, err = run(t, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "State cleared")
	assert.Equal(t, float64(0), stats(t)["listings"])

	out, err = run(t, "import", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 listings")

	out, err = run(t, "mode", "--mock", "off", "--users", "on")
	require.NoError(t, err)
	assert.Contains(t, out, "mock=off")
	assert.Contains(t, out, "users=on")

	_, err = run(t, "mode", "--listings", "maybe")
	assert.Error(t, err)
	_, err = run(t, "import")
	assert.Error(t, err)
}

func TestSeedMissingProfile(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	_, err := run(t, "seed", "--profile", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
