package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/chefstream/auth/pkg/idx"
)

// HeaderRequestID is echoed back, or generated when the caller sent none.
const HeaderRequestID = "X-Request-ID"

// HTTPMiddleware gives each request a logger tagged with its request id and
// emits one "http_request" record when the handler returns. 5xx responses log
// at error level.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()

			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = idx.New().String()
			}
			w.Header().Set(HeaderRequestID, id)

			l := base.With("req_id", id, "method", r.Method, "path", r.URL.Path)
			sw := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(WithContext(r.Context(), l)))

			lvl := slog.LevelInfo
			if sw.code() >= http.StatusInternalServerError {
				lvl = slog.LevelError
			}
			l.Log(r.Context(), lvl, "http_request",
				"status", sw.code(),
				"duration_ms", time.Since(began).Milliseconds(),
				"client_ip", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) code() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
