package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	authhttp "github.com/chefstream/auth/internal/auth/http"
	"github.com/chefstream/auth/internal/auth/service"
	"github.com/chefstream/auth/internal/auth/store"
	"github.com/chefstream/auth/internal/auth/store/drivers/sqlite"
	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/chefstream/auth/pkg/cryptox"
	"github.com/chefstream/auth/pkg/httpx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "cook@example.com"
	testPassword = "correct horse battery staple"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "http-pepper")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	// the suite logs in far more often than a real client would
	relaxed := httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}
	httpx.StrictLimit, httpx.ModerateLimit = relaxed, relaxed

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type testServer struct {
	URL    string
	Client *authsdk.SDKClient
	Store  store.Store
	Auth   *service.AuthService
	Logs   *logBuffer
}

// logBuffer collects JSON log lines written by concurrent handlers.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// count returns how many records have the given message.
func (b *logBuffer) count(t *testing.T, msg string) int {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int
	for _, line := range bytes.Split(b.buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec struct {
			Msg string `json:"msg"`
		}
		require.NoError(t, json.Unmarshal(line, &rec))
		if rec.Msg == msg {
			n++
		}
	}
	return n
}

func newServer(t *testing.T, google service.IdentityProvider) *testServer {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	tokens, err := service.NewTokenService([]byte("0123456789abcdef0123456789abcdef"), "chefstream-test", 0, 0)
	require.NoError(t, err)

	creds := &service.CredentialService{Store: st}
	sessions := &service.SessionService{Store: st, Locator: service.StaticLocator{}}
	mfa := &service.MFAService{Store: st, Tokens: tokens}
	auth := &service.AuthService{
		Store:       st,
		Credentials: creds,
		Tokens:      tokens,
		Sessions:    sessions,
		MFA:         mfa,
		Google:      google,
	}

	logs := &logBuffer{}
	router := authhttp.NewRouter("test", st, slog.New(slog.NewJSONHandler(logs, nil)))
	router.AuthService = auth
	router.MFAService = mfa
	router.FrontendURL = "http://frontend.test"
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: authsdk.NewSDKClient(srv.URL),
		Store:  st,
		Auth:   auth,
		Logs:   logs,
	}
}

// signUp registers the default account and returns a signed-in session.
func (s *testServer) signUp(t *testing.T) *authsdk.Session {
	t.Helper()
	ctx := context.Background()

	_, err := s.Client.Register(ctx, authsdk.RegisterRequest{Email: testEmail, Password: testPassword})
	require.NoError(t, err)

	sess, err := s.Client.AuthenticateWithPassword(ctx, testEmail, testPassword)
	require.NoError(t, err)
	return sess
}

func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)
	return code
}
