// Package otp provisions and verifies RFC 6238 time-based one-time codes.
package otp

import (
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the length of one TOTP time step in seconds.
	Period = 30

	// Digits is the length of a one-time code.
	Digits = 6

	// SecretSize is the raw shared secret length in bytes, before base32.
	SecretSize = 32

	// DefaultWindow is the number of steps accepted on either side of now.
	DefaultWindow = 2

	DefaultIssuer = "SecureVault"
)

var ErrLabelRequired = errors.New("otp account label is required")

// Secret is a freshly provisioned shared secret and the otpauth:// URI an
// authenticator app enrolls from.
type Secret struct {
	Secret string
	URI    string
}

// Provisioner generates TOTP shared secrets.
type Provisioner struct {
	Issuer string
}

// NewProvisioner returns a Provisioner for issuer, or DefaultIssuer if empty.
func NewProvisioner(issuer string) *Provisioner {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Provisioner{Issuer: issuer}
}

// Generate creates a new random secret bound to label (usually the account
// email). Every call draws fresh randomness.
func (p *Provisioner) Generate(label string) (Secret, error) {
	if label == "" {
		return Secret{}, ErrLabelRequired
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      p.Issuer,
		AccountName: label,
		Period:      Period,
		SecretSize:  SecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Secret{}, fmt.Errorf("generating otp secret: %w", err)
	}

	return Secret{Secret: key.Secret(), URI: key.URL()}, nil
}
