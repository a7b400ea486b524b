package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/vaultpass/securevault-go/internal/model"
	"github.com/vaultpass/securevault-go/internal/repository"
)

// MinPasswordLength is the shortest account password accepted at signup.
const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid two-factor code")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmail       = errors.New("email is not a valid address")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrEmailTaken         = errors.New("email already taken")
)

// AuthService runs the signup and login flow: password check first, then a
// one-time code when the account has two-factor enabled.
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	otp    OTPProvisioner
	codes  OTPVerifier
	qr     QRRenderer

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, provisioner OTPProvisioner, verifier OTPVerifier, qr QRRenderer) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		otp:    provisioner,
		codes:  verifier,
		qr:     qr,
	}
}

// Register creates an account with two-factor enabled and returns a token
// together with the new shared secret. The secret is only ever returned here.
func (s *AuthService) Register(ctx context.Context, req model.SignupRequest) (model.SignupResponse, error) {
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return model.SignupResponse{}, err
	}
	if req.Password == "" {
		return model.SignupResponse{}, ErrPasswordRequired
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		return model.SignupResponse{}, ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.SignupResponse{}, fmt.Errorf("hashing password: %w", err)
	}

	secret, err := s.otp.Generate(email)
	if err != nil {
		return model.SignupResponse{}, err
	}
	qr, err := s.qr.Render(secret.URI)
	if err != nil {
		return model.SignupResponse{}, err
	}

	user := &model.User{
		Email:      email,
		AuthHash:   hash,
		OTPSecret:  secret.Secret,
		OTPEnabled: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.SignupResponse{}, ErrEmailTaken
		}
		return model.SignupResponse{}, err
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return model.SignupResponse{}, fmt.Errorf("issuing token: %w", err)
	}

	return model.SignupResponse{
		Token: token,
		User:  user.ToResponse(),
		TwoFactor: model.TwoFactorSetup{
			Secret: secret.Secret,
			URI:    secret.URI,
			QRCode: qr,
		},
	}, nil
}

// Login checks the password and, for two-factor accounts, the one-time code.
// A two-factor account without a code gets State otp_required and no token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	user, err := s.checkPassword(ctx, req.Email, req.Password)
	if err != nil {
		return model.LoginResponse{State: model.StateAnonymous}, err
	}

	if user.OTPEnabled {
		code := strings.TrimSpace(req.OTPCode)
		if code == "" {
			return model.LoginResponse{
				State:             model.StateOTPRequired,
				RequiresTwoFactor: true,
				Message:           "two-factor code required",
			}, nil
		}
		if !s.codes.Verify(user.OTPSecret, code) {
			return model.LoginResponse{State: model.StateOTPRequired}, ErrInvalidOTP
		}
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return model.LoginResponse{State: model.StatePasswordChecked}, fmt.Errorf("issuing token: %w", err)
	}

	resp := user.ToResponse()
	return model.LoginResponse{
		State: model.StateAuthorized,
		Token: token,
		User:  &resp,
	}, nil
}

// GetUser retrieves a user by ID and returns safe user data.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return user.ToResponse(), nil
}

// checkPassword returns the user when password matches. Unknown accounts
// still run a full hash verification.
func (s *AuthService) checkPassword(ctx context.Context, email, password string) (*model.User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil || password == "" {
		s.burnVerify(password)
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.burnVerify(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.AuthHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("securevault-timing-dummy")
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

// NormalizeEmail trims and lower-cases a bare address, rejecting display
// names and anything net/mail cannot parse.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
