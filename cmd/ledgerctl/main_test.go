// AngelaMos | 2026
// main_test.go

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestKeygen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")

	out, err := execute(t, "keygen", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "private.pem"))
	assert.Contains(t, out, "ASSETS_SIGNING_KEY=")

	_, err = execute(t, "keygen", "--dir", dir)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "keygen", "--dir", dir, "--force")
	assert.NoError(t, err)
}

func TestMigrateSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	out, err := execute(t, "migrate", "--driver", "sqlite", "--db", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "pending 0001_init.sql")

	out, err = execute(t, "migrate", "--driver", "sqlite", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "applied 0001_init.sql")

	out, err = execute(t, "migrate", "--driver", "sqlite", "--db", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "schema is up to date"))
}
