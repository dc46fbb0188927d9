//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/store"
	"github.com/chefstream/auth/internal/auth/store/drivers/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "chef",
				"POSTGRES_PASSWORD": "chef",
				"POSTGRES_DB":       "auth",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://chef:chef@%s:%s/auth?sslmode=disable", host, port.Port())
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	s, err := postgres.NewStore(ctx, startPostgres(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	now := time.Now().UTC().Truncate(time.Microsecond)
	u, err := s.Users().CreateUser(ctx, domain.User{Email: "cook@example.com", IsActive: true, CreatedAt: now})
	require.NoError(t, err)
	require.NotZero(t, u.ID)

	_, err = s.Users().CreateUser(ctx, domain.User{Email: "cook@example.com"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	sess := domain.Session{
		ID:          uuid.NewString(),
		UserID:      u.ID,
		TokenJTI:    "jti-1",
		DeviceType:  "Desktop",
		BrowserName: "Chrome",
		OSName:      "Linux",
		IPAddress:   "10.0.0.1",
		CreatedAt:   now,
	}
	require.NoError(t, s.Sessions().CreateSession(ctx, sess))

	ok, err := s.Sessions().RevokeSession(ctx, u.ID, sess.ID, now)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Sessions().RevokeSession(ctx, u.ID, sess.ID, now)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SecurityEvents().AppendEvent(ctx, domain.SecurityEvent{
		ID:        "01HZY0000000000000000000A1",
		UserID:    u.ID,
		Type:      domain.EventLogin,
		Metadata:  map[string]string{"ip": "10.0.0.1"},
		CreatedAt: now,
	}))
	events, err := s.SecurityEvents().ListEvents(ctx, u.ID, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "10.0.0.1", events[0].Metadata["ip"])

	require.NoError(t, s.BackupCodes().CreateBackupCode(ctx, u.ID, "h1"))
	ok, err = s.BackupCodes().ConsumeBackupCode(ctx, u.ID, "h1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.RollbackMigration())
}
