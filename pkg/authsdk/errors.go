package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chefstream/auth/pkg/httpx"
)

// Error codes carried in the "error" field of every error body.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeSessionRevoked     = "session_revoked"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeEmailTaken         = "email_taken"
	ErrorCodeMFAAlreadyEnabled  = "mfa_already_enabled"
	ErrorCodeMFANotEnabled      = "mfa_not_enabled"
	ErrorCodeInvalidCode        = "invalid_code"
	ErrorCodeInvalidChallenge   = "invalid_challenge"
	ErrorCodeTooManyAttempts    = "too_many_attempts"
	ErrorCodeOAuthFailed        = "oauth_failed"
	ErrorCodeServerError        = "server_error"
)

// APIError is the error body returned by the auth service. The server writes
// it with WriteError; the client gets it back from every failed call.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on Code so callers can write errors.Is(err, authsdk.ErrInvalidToken)
// against an error decoded from a response.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError renders the error as JSON. 401s carry a bearer challenge.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	if e.StatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

func NewAPIError(status int, code, description string) *APIError {
	return &APIError{StatusCode: status, Code: code, Description: description}
}

var (
	ErrInvalidRequest = NewAPIError(http.StatusBadRequest, ErrorCodeInvalidRequest,
		"the request is malformed or missing required parameters")

	ErrInvalidCredentials = NewAPIError(http.StatusUnauthorized, ErrorCodeInvalidCredentials,
		"Incorrect email or password")

	ErrInvalidToken = NewAPIError(http.StatusUnauthorized, ErrorCodeInvalidToken,
		"Could not validate credentials")

	ErrSessionRevoked = NewAPIError(http.StatusUnauthorized, ErrorCodeSessionRevoked,
		"Session revoked or expired")

	ErrUserNotFound = NewAPIError(http.StatusNotFound, ErrorCodeNotFound, "User not found")

	ErrSessionNotFound = NewAPIError(http.StatusNotFound, ErrorCodeNotFound, "Session not found")

	ErrEmailTaken = NewAPIError(http.StatusBadRequest, ErrorCodeEmailTaken,
		"User with this email already exists")

	ErrMFAAlreadyEnabled = NewAPIError(http.StatusBadRequest, ErrorCodeMFAAlreadyEnabled,
		"2FA is already enabled")

	ErrMFANotEnabled = NewAPIError(http.StatusBadRequest, ErrorCodeMFANotEnabled, "2FA is not enabled")

	ErrInvalidCode = NewAPIError(http.StatusBadRequest, ErrorCodeInvalidCode, "Invalid verification code")

	ErrInvalidChallenge = NewAPIError(http.StatusBadRequest, ErrorCodeInvalidChallenge,
		"Invalid or expired challenge")

	ErrTooManyAttempts = NewAPIError(http.StatusTooManyRequests, ErrorCodeTooManyAttempts,
		"Too many failed attempts. Please try again later.")

	ErrOAuthFailed = NewAPIError(http.StatusBadRequest, ErrorCodeOAuthFailed, "OAuth failure")

	ErrServerError = NewAPIError(http.StatusInternalServerError, ErrorCodeServerError,
		"internal server error")
)

// parseErrorResponse turns a non-2xx response into an *APIError, falling
// back to a generic error when the body isn't ours.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
