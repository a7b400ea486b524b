package model

import "time"

// User is a stored credential. Email doubles as the account identifier the
// client salts its master key with.
type User struct {
	ID               int64
	Email            string
	AuthHash         string
	OTPSecret        string
	OTPPendingSecret string
	OTPEnabled       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AuthState is a step of the login state machine.
type AuthState string

const (
	StateAnonymous       AuthState = "anonymous"
	StatePasswordChecked AuthState = "password_checked"
	StateOTPRequired     AuthState = "otp_required"
	StateAuthorized      AuthState = "authorized"
)

// SignupRequest represents a user registration request.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login attempt. OTPCode is empty on the first
// attempt against a two-factor account.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTPCode  string `json:"otp_code,omitempty"`
}

// TwoFactorSetup carries a freshly provisioned secret to the client. QRCode is
// a PNG data URI of URI.
type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qr_code"`
}

// SignupResponse is returned once, on account creation.
type SignupResponse struct {
	Token     string         `json:"token"`
	User      UserResponse   `json:"user"`
	TwoFactor TwoFactorSetup `json:"two_factor"`
}

// LoginResponse is either a token (State authorized) or a request to resubmit
// with a one-time code (State otp_required, RequiresTwoFactor set).
type LoginResponse struct {
	State             AuthState     `json:"state"`
	RequiresTwoFactor bool          `json:"requires_two_factor,omitempty"`
	Message           string        `json:"message,omitempty"`
	Token             string        `json:"token,omitempty"`
	User              *UserResponse `json:"user,omitempty"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	OTPEnabled bool      `json:"otp_enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConfirmTwoFactorRequest confirms a pending secret with a code from it.
type ConfirmTwoFactorRequest struct {
	Code string `json:"code"`
}

// DisableTwoFactorRequest re-proves the account password.
type DisableTwoFactorRequest struct {
	Password string `json:"password"`
}

// TwoFactorStatus reports whether login requires a one-time code.
type TwoFactorStatus struct {
	Enabled bool `json:"enabled"`
	Pending bool `json:"pending"`
}

// ToResponse strips the sensitive fields.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		OTPEnabled: u.OTPEnabled,
		CreatedAt:  u.CreatedAt,
	}
}
