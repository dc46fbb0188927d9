/*
Package authsdk is the Go client for the ChefStream auth service, and also
holds the wire types and error values the service itself writes.

# Signing in

	client := authsdk.NewSDKClient("https://auth.example.com")

	session, err := client.AuthenticateWithPassword(ctx, "cook@example.com", "password")
	var tfa *authsdk.TwoFactorRequiredError
	if errors.As(err, &tfa) {
		session, err = client.CompleteTwoFactor(ctx, tfa, totpCode)
	}

A Session holds the access token. It does not refresh; when the server
answers with ErrInvalidToken or ErrSessionRevoked the caller signs in again.

# Security settings

	sessions, err := session.ListSessions(ctx)
	n, err := session.RevokeOtherSessions(ctx)

	setup, err := session.SetupTwoFactor(ctx)
	codes, err := session.EnableTwoFactor(ctx, setup.Secret, code)

# Errors

Failed calls return *APIError. It matches the exported values by code:

	if errors.Is(err, authsdk.ErrSessionRevoked) { ... }
*/
package authsdk
