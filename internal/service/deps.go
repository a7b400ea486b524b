package service

import (
	"context"

	"github.com/vaultpass/securevault-go/internal/model"
	"github.com/vaultpass/securevault-go/internal/otp"
)

// UserStore persists credentials. The OTP updates are check-and-set: they
// return repository.ErrStaleCredential when the guarded value has changed.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	SetPendingOTPSecret(ctx context.Context, id int64, secret string) error
	ConfirmOTPSecret(ctx context.Context, id int64, pending string) error
	DisableOTP(ctx context.Context, id int64, authHash string) error
}

// RecordStore persists encrypted vault records, always scoped by owner.
type RecordStore interface {
	Create(ctx context.Context, userID int64, ciphertext, iv string) (*model.VaultRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]model.VaultRecord, error)
	Update(ctx context.Context, id string, userID int64, ciphertext, iv string) (*model.VaultRecord, error)
	Delete(ctx context.Context, id string, userID int64) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type TokenIssuer interface {
	Issue(userID int64, email string) (string, error)
}

type OTPProvisioner interface {
	Generate(label string) (otp.Secret, error)
}

type OTPVerifier interface {
	Verify(secret, code string) bool
}

// QRRenderer turns an otpauth:// URI into an image data URI.
type QRRenderer interface {
	Render(uri string) (string, error)
}
