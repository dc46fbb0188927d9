package app

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestApplicationServesAndShutsDown(t *testing.T) {
	dir := t.TempDir()
	mr := miniredis.RunT(t)

	cfg := Config{
		SecretKey:            testSecret,
		Issuer:               "chefstream-test",
		AccessTokenTTL:       time.Minute,
		ChallengeTokenTTL:    time.Minute,
		TOTPIssuer:           "ChefStream",
		PepperFile:           filepath.Join(dir, "pepper"),
		DatabaseDriver:       DriverSQLite,
		DatabaseURL:          "file:" + filepath.Join(dir, "auth.db"),
		RedisURL:             "redis://" + mr.Addr(),
		ChallengeSingleUse:   true,
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		Port:                 freePort(t),
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
	}

	ctx, cancel := context.WithCancel(context.Background())
	app, err := New(ctx, cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	client := authsdk.NewSDKClient("http://127.0.0.1:" + strconv.Itoa(cfg.Port))
	require.Eventually(t, func() bool {
		_, err := client.GetLiveness(context.Background())
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	ready, err := client.GetReadiness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Redis)

	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(cfg.Port) + "/swagger/doc.json")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop")
	}
}
