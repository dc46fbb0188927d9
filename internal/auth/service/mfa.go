package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/store"
	"github.com/chefstream/auth/pkg/cryptox"
	"github.com/chefstream/auth/pkg/idx"
	"github.com/chefstream/auth/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// DefaultTOTPIssuer is the label authenticator apps show for the account.
const DefaultTOTPIssuer = "ChefStream"

const (
	backupCodeCount = 10
	qrCodeSize      = 200
)

var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// ChallengeGuard adds state to the otherwise stateless challenge flow:
// per-principal attempt limits and single use challenge tokens.
type ChallengeGuard interface {
	// Reserve atomically counts one attempt and reports whether it is
	// within the limit.
	Reserve(ctx context.Context, principalID int64) (bool, error)
	Reset(ctx context.Context, principalID int64) error

	// ConsumeChallenge marks a challenge fingerprint as used for ttl and
	// reports whether this was its first use.
	ConsumeChallenge(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error)
	ReleaseChallenge(ctx context.Context, fingerprint string) error
}

// MFAService runs TOTP enrolment and the second factor challenge.
type MFAService struct {
	Store    store.Store
	Tokens   *TokenService
	Notifier *AnomalyNotifier
	Metrics  *Metrics
	Issuer   string

	// Guard is optional. Without it challenges are stateless and replayable
	// until they expire.
	Guard ChallengeGuard
}

func (s *MFAService) issuer() string {
	if s.Issuer == "" {
		return DefaultTOTPIssuer
	}
	return s.Issuer
}

func (s *MFAService) user(ctx context.Context, principalID int64) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, principalID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrPrincipalNotFound
	}
	return u, err
}

// BeginSetup generates a TOTP secret for the principal. Nothing is stored;
// the client holds the secret until ConfirmSetup.
func (s *MFAService) BeginSetup(ctx context.Context, principalID int64) (domain.TOTPSetup, error) {
	u, err := s.user(ctx, principalID)
	if err != nil {
		return domain.TOTPSetup{}, err
	}
	if u.MFAEnabled {
		return domain.TOTPSetup{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer(),
		AccountName: u.Email,
		Period:      totpOpts.Period,
		Digits:      totpOpts.Digits,
		Algorithm:   totpOpts.Algorithm,
	})
	if err != nil {
		return domain.TOTPSetup{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return domain.TOTPSetup{}, fmt.Errorf("failed to render QR code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return domain.TOTPSetup{}, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return domain.TOTPSetup{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCodePNG:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// ConfirmSetup enables MFA once the user proves they can generate codes from
// secret. It returns the plaintext backup codes; they are not retrievable
// afterwards.
func (s *MFAService) ConfirmSetup(ctx context.Context, principalID int64, secret, code string) ([]string, error) {
	u, err := s.user(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if u.MFAEnabled {
		return nil, ErrMFAAlreadyEnabled
	}

	secret = strings.TrimSpace(secret)
	if secret == "" || !validTOTP(secret, code) {
		return nil, ErrInvalidCode
	}

	codes, err := newBackupCodes()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// a concurrent confirm may have won
		cur, err := tx.Users().GetUserByID(ctx, principalID)
		if err != nil {
			return err
		}
		if cur.MFAEnabled {
			return ErrMFAAlreadyEnabled
		}

		if err := tx.Users().EnableMFA(ctx, principalID, secret, now); err != nil {
			return fmt.Errorf("failed to enable MFA: %w", err)
		}
		if err := replaceBackupCodes(ctx, tx, principalID, codes); err != nil {
			return err
		}
		return appendEvent(ctx, tx, principalID, domain.EventMFAEnabled, nil, now)
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("mfa enabled", "user_id", principalID)
	s.Notifier.NotifySecurityChange(ctx, u, NotifyMFAEnabled)
	return codes, nil
}

// Disable turns MFA off and drops the secret and every backup code.
func (s *MFAService) Disable(ctx context.Context, principalID int64) error {
	u, err := s.user(ctx, principalID)
	if err != nil {
		return err
	}
	if !u.MFAEnabled {
		return ErrMFANotEnabled
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, principalID); err != nil {
			return fmt.Errorf("failed to delete backup codes: %w", err)
		}
		if err := tx.Users().DisableMFA(ctx, principalID, now); err != nil {
			return fmt.Errorf("failed to disable MFA: %w", err)
		}
		return appendEvent(ctx, tx, principalID, domain.EventMFADisabled, nil, now)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("mfa disabled", "user_id", principalID)
	s.Notifier.NotifySecurityChange(ctx, u, NotifyMFADisabled)
	return nil
}

// VerifyChallenge completes the second factor. code is either the current
// TOTP or an unused backup code; a backup code is burned on success.
//
// With a Guard, every attempt is counted before the code is looked at, and
// the challenge is claimed before a backup code is consumed, so a replayed
// challenge never costs the user a backup code.
func (s *MFAService) VerifyChallenge(ctx context.Context, challengeToken, code string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Tokens.Parse(challengeToken)
	if err != nil || !claims.IsChallenge() {
		return domain.User{}, ErrInvalidChallenge
	}
	uid, ok := principalID(claims)
	if !ok {
		return domain.User{}, ErrInvalidChallenge
	}

	if s.Guard != nil {
		allowed, err := s.Guard.Reserve(ctx, uid)
		if err != nil {
			return domain.User{}, fmt.Errorf("challenge guard: %w", err)
		}
		if !allowed {
			s.Metrics.challenge(ctx, "throttled")
			return domain.User{}, ErrTooManyAttempts
		}
	}

	u, err := s.Store.Users().GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidChallenge
		}
		return domain.User{}, err
	}
	if !u.IsActive || !u.MFAEnabled || u.TOTPSecret == "" {
		return domain.User{}, ErrInvalidChallenge
	}

	fingerprint := cryptox.FingerprintToken(challengeToken)
	code = strings.TrimSpace(code)

	switch {
	case code != "" && validTOTP(u.TOTPSecret, code):
		if err := s.claimChallenge(ctx, uid, fingerprint, claims.ExpiresAt.Time); err != nil {
			return domain.User{}, err
		}

	case cryptox.LooksLikeBackupCode(code):
		if err := s.claimChallenge(ctx, uid, fingerprint, claims.ExpiresAt.Time); err != nil {
			return domain.User{}, err
		}
		used, err := s.useBackupCode(ctx, u, code)
		if err != nil || !used {
			s.releaseChallenge(ctx, fingerprint)
		}
		if err != nil {
			return domain.User{}, err
		}
		if !used {
			s.Metrics.challenge(ctx, "invalid_code")
			return domain.User{}, ErrInvalidCode
		}

	default:
		s.Metrics.challenge(ctx, "invalid_code")
		return domain.User{}, ErrInvalidCode
	}

	if s.Guard != nil {
		if err := s.Guard.Reset(ctx, uid); err != nil {
			l.Warn("failed to reset challenge attempts", "user_id", uid, slogx.Err(err))
		}
	}

	s.Metrics.challenge(ctx, "ok")
	return u, nil
}

// claimChallenge marks the challenge used. A second claim of the same
// challenge is ErrInvalidChallenge.
func (s *MFAService) claimChallenge(ctx context.Context, uid int64, fingerprint string, expires time.Time) error {
	if s.Guard == nil {
		return nil
	}
	first, err := s.Guard.ConsumeChallenge(ctx, fingerprint, remaining(expires))
	if err != nil {
		return fmt.Errorf("challenge guard: %w", err)
	}
	if !first {
		s.Metrics.challenge(ctx, "replayed")
		slogx.FromContext(ctx).Warn("challenge token replayed", "user_id", uid)
		return ErrInvalidChallenge
	}
	return nil
}

func (s *MFAService) releaseChallenge(ctx context.Context, fingerprint string) {
	if s.Guard == nil {
		return
	}
	if err := s.Guard.ReleaseChallenge(ctx, fingerprint); err != nil {
		slogx.FromContext(ctx).Warn("failed to release challenge", slogx.Err(err))
	}
}

// useBackupCode consumes a matching backup code and records the event.
func (s *MFAService) useBackupCode(ctx context.Context, u domain.User, code string) (bool, error) {
	now := time.Now().UTC()
	var used bool
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		ok, err := tx.BackupCodes().ConsumeBackupCode(ctx, u.ID, cryptox.FingerprintToken(cryptox.NormalizeBackupCode(code)))
		if err != nil || !ok {
			return err
		}
		used = true

		left, err := tx.BackupCodes().CountBackupCodes(ctx, u.ID)
		if err != nil {
			return err
		}
		return appendEvent(ctx, tx, u.ID, domain.EventBackupCodeUsed,
			map[string]string{"remaining": fmt.Sprint(left)}, now)
	})
	if err != nil {
		return false, err
	}
	if used {
		slogx.FromContext(ctx).Info("backup code used", "user_id", u.ID)
	}
	return used, nil
}

// RegenerateBackupCodes replaces every backup code. A current TOTP code is
// required; a backup code is not accepted here.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, principalID int64, code string) ([]string, error) {
	u, err := s.user(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if !u.MFAEnabled || u.TOTPSecret == "" {
		return nil, ErrMFANotEnabled
	}
	if !validTOTP(u.TOTPSecret, code) {
		return nil, ErrInvalidCode
	}

	codes, err := newBackupCodes()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := replaceBackupCodes(ctx, tx, principalID, codes); err != nil {
			return err
		}
		return appendEvent(ctx, tx, principalID, domain.EventBackupCodesRegenerated, nil, now)
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("backup codes regenerated", "user_id", principalID)
	return codes, nil
}

func validTOTP(secret, code string) bool {
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, time.Now().UTC(), totpOpts)
	return err == nil && ok
}

func newBackupCodes() ([]string, error) {
	codes := make([]string, backupCodeCount)
	for i := range codes {
		c, err := cryptox.GenerateBackupCode()
		if err != nil {
			return nil, err
		}
		codes[i] = c
	}
	return codes, nil
}

func replaceBackupCodes(ctx context.Context, tx store.Tx, principalID int64, codes []string) error {
	if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, principalID); err != nil {
		return fmt.Errorf("failed to delete old backup codes: %w", err)
	}
	for _, c := range codes {
		if err := tx.BackupCodes().CreateBackupCode(ctx, principalID, cryptox.FingerprintToken(c)); err != nil {
			return fmt.Errorf("failed to store backup code: %w", err)
		}
	}
	return nil
}

func appendEvent(ctx context.Context, tx store.Tx, principalID int64, kind string, meta map[string]string, at time.Time) error {
	err := tx.SecurityEvents().AppendEvent(ctx, domain.SecurityEvent{
		ID:        string(idx.NewAt(at)),
		UserID:    principalID,
		Type:      kind,
		Metadata:  meta,
		CreatedAt: at,
	})
	if err != nil {
		return fmt.Errorf("append %s event: %w", kind, err)
	}
	return nil
}

func remaining(exp time.Time) time.Duration {
	d := time.Until(exp)
	if d < time.Second {
		return time.Second
	}
	return d
}
