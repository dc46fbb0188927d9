package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient talks to the ChefStream auth service. It covers the public
// endpoints and hands out a Session once a login completes.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a local account.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/register", "", req)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login checks a password. For accounts with 2FA the response carries a
// challenge token instead of an access token.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/token", "", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return &tok, nil
}

// VerifyTwoFactor exchanges a challenge token plus TOTP or backup code for
// an access token.
func (c *SDKClient) VerifyTwoFactor(ctx context.Context, challengeToken, code string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/auth/verify-2fa", "", VerifyTwoFactorRequest{
		ChallengeToken: challengeToken,
		Code:           code,
	})
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return &tok, nil
}

// AuthenticateWithPassword logs in and returns a Session. If the account has
// 2FA enabled it returns a *TwoFactorRequiredError holding the challenge.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, email, password string) (*Session, error) {
	tok, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if tok.RequiresTwoFactor {
		return nil, &TwoFactorRequiredError{ChallengeToken: tok.ChallengeToken}
	}
	return c.NewSession(tok.AccessToken), nil
}

// CompleteTwoFactor finishes AuthenticateWithPassword for a 2FA account.
func (c *SDKClient) CompleteTwoFactor(ctx context.Context, challenge *TwoFactorRequiredError, code string) (*Session, error) {
	tok, err := c.VerifyTwoFactor(ctx, challenge.ChallengeToken, code)
	if err != nil {
		return nil, err
	}
	return c.NewSession(tok.AccessToken), nil
}

// TwoFactorRequiredError is returned by AuthenticateWithPassword when the
// password was right but a second factor is still needed.
type TwoFactorRequiredError struct {
	ChallengeToken string
}

func (e *TwoFactorRequiredError) Error() string { return "two-factor authentication required" }
