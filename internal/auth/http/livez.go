package http

import (
	"net/http"
	"time"

	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/chefstream/auth/pkg/httpx"
)

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Answers 200 as long as the process can serve HTTP. Dependencies are not checked.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Router			/livez [get].
func LivezHandler(started time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  uptime(started),
			Version: version,
		})
	}
}

func uptime(since time.Time) string {
	return time.Since(since).Truncate(time.Second).String()
}
