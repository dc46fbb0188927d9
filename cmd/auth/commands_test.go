package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chefstream/auth/internal/auth/app"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestVersion(t *testing.T) {
	require.Equal(t, app.BuildVersion+"\n", run(t, "version"))
}

func TestMigrateUpDown(t *testing.T) {
	t.Setenv("AUTH_SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("DATABASE_URL", "file:"+filepath.Join(t.TempDir(), "auth.db"))
	t.Setenv("LOG_LEVEL", "error")

	run(t, "migrate", "up")
	run(t, "migrate", "up")
	run(t, "migrate", "down")
}

func TestMigrateNeedsConfig(t *testing.T) {
	t.Setenv("AUTH_SECRET_KEY", "short")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "up"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.ErrorContains(t, cmd.ExecuteContext(context.Background()), "AUTH_SECRET_KEY")
}
