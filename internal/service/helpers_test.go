package service

import (
	"context"
	"testing"
	"time"

	"github.com/vaultpass/securevault-go/internal/crypto"
	"github.com/vaultpass/securevault-go/internal/model"
	"github.com/vaultpass/securevault-go/internal/otp"
	"github.com/vaultpass/securevault-go/internal/repository"
)

var testClock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	users     *repository.MemoryUserRepository
	hasher    *crypto.Argon2Hasher
	tokens    *crypto.TokenIssuer
	auth      *AuthService
	twoFactor *TwoFactorService
}

// Cheap parameters keep the suite fast; production uses DefaultHashParams.
func testHasher() *crypto.Argon2Hasher {
	return crypto.NewArgon2Hasher(crypto.HashParams{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := repository.NewMemoryUserRepository()
	hasher := testHasher()
	tokens := crypto.NewTokenIssuer("test-secret", time.Hour)
	provisioner := otp.NewProvisioner("SecureVault")
	verifier := &otp.Verifier{Window: otp.DefaultWindow, Now: func() time.Time { return testClock }}
	qr := otp.QRRenderer{}

	return &testEnv{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		auth:      NewAuthService(users, hasher, tokens, provisioner, verifier, qr),
		twoFactor: NewTwoFactorService(users, hasher, provisioner, verifier, qr),
	}
}

// codeFor returns the code an authenticator would show at testClock.
func codeFor(t *testing.T, secret string) string {
	t.Helper()
	code, err := otp.CodeAt(secret, testClock)
	if err != nil {
		t.Fatalf("CodeAt: %v", err)
	}
	return code
}

// wrongCodeFor returns a well-formed code that is not valid at testClock.
func wrongCodeFor(t *testing.T, secret string) string {
	t.Helper()
	for _, candidate := range []string{"000000", "111111", "222222", "333333", "444444", "555555"} {
		if !otp.VerifyAt(secret, candidate, testClock, otp.DefaultWindow) {
			return candidate
		}
	}
	t.Fatal("no invalid candidate code found")
	return ""
}

func (e *testEnv) signup(t *testing.T, email, password string) model.SignupResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), model.SignupRequest{Email: email, Password: password})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return resp
}

// plainUser creates an account with two-factor switched off.
func (e *testEnv) plainUser(t *testing.T, email, password string) *model.User {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	u := &model.User{Email: email, AuthHash: hash}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return u
}
