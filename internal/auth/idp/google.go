// Package idp exchanges external authorization codes for verified
// identities.
package idp

import (
	"context"
	"errors"
	"fmt"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const DefaultGoogleIssuer = "https://accounts.google.com"

var (
	ErrNoIDToken       = errors.New("idp: token response has no id_token")
	ErrEmailUnverified = errors.New("idp: email not verified")
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Issuer       string
}

// Google runs the authorization code flow against an OpenID Connect issuer
// and trusts only the verified id_token.
type Google struct {
	OAuth2   *oauth2.Config
	Verifier *oidc.IDTokenVerifier
}

// NewGoogle discovers the issuer's endpoints and keys.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultGoogleIssuer
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", issuer, err)
	}

	return &Google{
		OAuth2: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		Verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (g *Google) AuthCodeURL(state string) string {
	return g.OAuth2.AuthCodeURL(state)
}

// Exchange trades code for tokens and returns the identity in the id_token.
func (g *Google) Exchange(ctx context.Context, code string) (domain.ExternalIdentity, error) {
	tok, err := g.OAuth2.Exchange(ctx, code)
	if err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("exchange code: %w", err)
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return domain.ExternalIdentity{}, ErrNoIDToken
	}

	idToken, err := g.Verifier.Verify(ctx, raw)
	if err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("verify id_token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("decode id_token claims: %w", err)
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return domain.ExternalIdentity{}, ErrEmailUnverified
	}

	return domain.ExternalIdentity{
		Provider: domain.ProviderGoogle,
		Subject:  idToken.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
	}, nil
}
