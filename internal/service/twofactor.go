package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vaultpass/securevault-go/internal/model"
	"github.com/vaultpass/securevault-go/internal/repository"
)

var (
	ErrNoPendingSetup = errors.New("no two-factor setup in progress")
	ErrSetupChanged   = errors.New("two-factor setup was restarted, request a new code")
)

// TwoFactorService manages enrolment after signup. A new secret stays
// pending until a code generated from it is confirmed, so a half-finished
// setup never locks the user out.
type TwoFactorService struct {
	users  UserStore
	hasher PasswordHasher
	otp    OTPProvisioner
	codes  OTPVerifier
	qr     QRRenderer
}

// NewTwoFactorService creates a new TwoFactorService.
func NewTwoFactorService(users UserStore, hasher PasswordHasher, provisioner OTPProvisioner, verifier OTPVerifier, qr QRRenderer) *TwoFactorService {
	return &TwoFactorService{
		users:  users,
		hasher: hasher,
		otp:    provisioner,
		codes:  verifier,
		qr:     qr,
	}
}

// RequestSetup provisions a pending secret. The active secret and the
// enabled flag are left alone.
func (s *TwoFactorService) RequestSetup(ctx context.Context, userID int64) (model.TwoFactorSetup, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.TwoFactorSetup{}, err
	}

	secret, err := s.otp.Generate(user.Email)
	if err != nil {
		return model.TwoFactorSetup{}, err
	}
	qr, err := s.qr.Render(secret.URI)
	if err != nil {
		return model.TwoFactorSetup{}, err
	}

	if err := s.users.SetPendingOTPSecret(ctx, userID, secret.Secret); err != nil {
		return model.TwoFactorSetup{}, err
	}

	return model.TwoFactorSetup{
		Secret: secret.Secret,
		URI:    secret.URI,
		QRCode: qr,
	}, nil
}

// ConfirmSetup promotes the pending secret once code verifies against it.
func (s *TwoFactorService) ConfirmSetup(ctx context.Context, userID int64, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.OTPPendingSecret == "" {
		return ErrNoPendingSetup
	}
	if !s.codes.Verify(user.OTPPendingSecret, code) {
		return ErrInvalidOTP
	}

	err = s.users.ConfirmOTPSecret(ctx, userID, user.OTPPendingSecret)
	if errors.Is(err, repository.ErrStaleCredential) {
		return ErrSetupChanged
	}
	return err
}

// Disable turns two-factor off after re-checking the account password.
func (s *TwoFactorService) Disable(ctx context.Context, userID int64, password string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(password, user.AuthHash)
	if err != nil {
		return fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	err = s.users.DisableOTP(ctx, userID, user.AuthHash)
	if errors.Is(err, repository.ErrStaleCredential) {
		return ErrInvalidCredentials
	}
	return err
}

// Status reports whether two-factor is enabled and whether a setup is pending.
func (s *TwoFactorService) Status(ctx context.Context, userID int64) (model.TwoFactorStatus, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.TwoFactorStatus{}, err
	}
	return model.TwoFactorStatus{
		Enabled: user.OTPEnabled,
		Pending: user.OTPPendingSecret != "",
	}, nil
}
