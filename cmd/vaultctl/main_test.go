package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/bootstrap"
	"filevault/internal/shared/config"
)

func run(t *testing.T, cmdArgs ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(cmdArgs)
	err := root.Execute()
	return out.String(), err
}

func TestTokenIssue(t *testing.T) {
	cfg := config.Config{Env: "production", JWTSecret: "cli-secret"}
	cmd := newTokenCmd(func() config.Config { return cfg })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"issue", "--subject", "alice@x.com", "--ttl", "1h"})
	require.NoError(t, cmd.Execute())

	v, err := bootstrap.NewValidator(cfg)
	require.NoError(t, err)
	id, err := v.Validate(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", id.Subject)
}

func TestTokenIssueRequiresSubject(t *testing.T) {
	_, err := run(t, "token", "issue")
	assert.Error(t, err)
}

func TestObjectsLsAndPurge(t *testing.T) {
	cfg := config.Config{
		Env:            "dev",
		JWTSecret:      "cli-secret",
		DatabaseURL:    "sqlite:" + filepath.Join(t.TempDir(), "vault.db"),
		ChunkStoreType: "sql",
	}
	load := func() config.Config { return cfg }

	app, err := bootstrap.Build(cfg)
	require.NoError(t, err)
	obj, err := app.Store.Put(t.Context(), strings.NewReader("hello world"), "hello.txt", "alice@x.com")
	require.NoError(t, err)
	require.NoError(t, app.Close())

	ls := newObjectsCmd(load)
	var out bytes.Buffer
	ls.SetOut(&out)
	ls.SetArgs([]string{"ls", "--owner", "alice@x.com"})
	require.NoError(t, ls.Execute())
	assert.Contains(t, out.String(), obj.ID)
	assert.Contains(t, out.String(), "hello.txt")
	assert.Contains(t, out.String(), obj.CreatedAt.Format(time.RFC3339))

	purge := newObjectsCmd(load)
	out.Reset()
	purge.SetOut(&out)
	purge.SetArgs([]string{"purge", "--owner", "alice@x.com"})
	require.NoError(t, purge.Execute())
	assert.Contains(t, out.String(), "deleted 1 objects of alice@x.com")
}

func TestMigrateCommand(t *testing.T) {
	cfg := config.Config{DatabaseURL: "sqlite:" + filepath.Join(t.TempDir(), "vault.db")}
	cmd := newMigrateCmd(func() config.Config { return cfg })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "migrations applied (sqlite)")
}
