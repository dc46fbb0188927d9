package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// backupCodeBytes gives 40 bits per code. Codes are single use and
// verify-2fa sits behind a strict rate limit, so that is plenty.
const backupCodeBytes = 5

// GenerateToken returns size random bytes as unpadded base64url.
//
// Common sizes:
//   - TokenSize128: OAuth state values, CSRF tokens
//   - TokenSize256: long lived opaque secrets
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns the base64url SHA-256 of token. Stored in place
// of the token itself so lookups work without keeping plaintext.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateBackupCode returns a human friendly recovery code such as
// "3FA9C-07B1E".
func GenerateBackupCode() (string, error) {
	buf := make([]byte, backupCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate backup code: %w", err)
	}

	raw := strings.ToUpper(hex.EncodeToString(buf))
	return raw[:5] + "-" + raw[5:], nil
}

// NormalizeBackupCode canonicalises user input so "3fa9c07b1e",
// " 3FA9C-07B1E " and "3fa9c 07b1e" all fingerprint the same.
func NormalizeBackupCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.NewReplacer("-", "", " ", "").Replace(code)
	if len(code) != backupCodeBytes*2 {
		return code
	}
	return code[:5] + "-" + code[5:]
}

// LooksLikeBackupCode reports whether code has the backup code shape rather
// than a six digit TOTP.
func LooksLikeBackupCode(code string) bool {
	n := NormalizeBackupCode(code)
	if len(n) != backupCodeBytes*2+1 || n[5] != '-' {
		return false
	}
	_, err := hex.DecodeString(n[:5] + n[6:])
	return err == nil
}
