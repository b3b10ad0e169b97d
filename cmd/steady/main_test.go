package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/steady/internal/database"
	"github.com/dukerupert/steady/internal/model"
	"github.com/dukerupert/steady/internal/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "steady.db")
	t.Setenv("STEADY_DB_PATH", path)
	t.Setenv("STEADY_LOG_LEVEL", "error")
	return path
}

func TestVAPIDKeysCmd(t *testing.T) {
	tempDB(t)
	out, err := run(t, "vapid-keys")
	require.NoError(t, err)
	assert.Contains(t, out, "STEADY_VAPID_PUBLIC_KEY=")
	assert.Contains(t, out, "STEADY_VAPID_PRIVATE_KEY=")
}

func TestMigrateCmd(t *testing.T) {
	tempDB(t)
	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "schema version "), out)
	assert.NotContains(t, out, "schema version 0")
}

func TestServeRequiresSecret(t *testing.T) {
	tempDB(t)
	t.Setenv("STEADY_JWT_SECRET", "")
	_, err := run(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STEADY_JWT_SECRET")
}

func TestBadTimezoneFailsEveryCommand(t *testing.T) {
	tempDB(t)
	t.Setenv("STEADY_TIMEZONE", "Mars/Olympus")
	_, err := run(t, "migrate")
	assert.Error(t, err)
}

func TestAnalyticsProvisionCmd(t *testing.T) {
	path := tempDB(t)

	_, err := run(t, "analytics", "provision")
	assert.EqualError(t, err, "--account is required")

	_, err = run(t, "analytics", "provision", "--account", "99")
	assert.EqualError(t, err, "account 99 not found")

	db, err := database.Open(path)
	require.NoError(t, err)
	a, err := store.NewAccountStore(db).Create(context.Background(), &model.Account{
		Role: model.RolePatient, FullName: "Ana", Username: "ana", Email: "ana@example.com", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := run(t, "analytics", "provision", "--account", strconv.FormatInt(a.ID, 10))
	require.NoError(t, err)

	var rec model.Analytics
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, a.ID, rec.AccountID)
	assert.Zero(t, rec.PuzzlesCompleted)

	// Provisioning twice keeps the existing record.
	_, err = run(t, "analytics", "provision", "--account", strconv.FormatInt(a.ID, 10))
	require.NoError(t, err)
}
