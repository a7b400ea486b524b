package otp

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var codeOpts = totp.ValidateOpts{
	Period:    Period,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Verifier checks codes against the wall clock with a fixed drift window.
type Verifier struct {
	Window int
	Now    func() time.Time
}

// NewVerifier returns a Verifier using time.Now. A negative window falls
// back to DefaultWindow.
func NewVerifier(window int) *Verifier {
	if window < 0 {
		window = DefaultWindow
	}
	return &Verifier{Window: window, Now: time.Now}
}

// Verify reports whether code is valid for secret right now.
func (v *Verifier) Verify(secret, code string) bool {
	return VerifyAt(secret, code, v.Now(), v.Window)
}

// Verify reports whether code matches secret at the current time within
// ±window steps.
func Verify(secret, code string, window int) bool {
	return VerifyAt(secret, code, time.Now(), window)
}

// VerifyAt reports whether code matches secret for any step within ±window
// of at. All candidate steps are computed and compared in constant time.
func VerifyAt(secret, code string, at time.Time, window int) bool {
	code = strings.TrimSpace(code)
	if len(code) != Digits || !isDigits(code) || window < 0 {
		return false
	}

	matched := 0
	for i := -window; i <= window; i++ {
		want, err := CodeAt(secret, at.Add(time.Duration(i)*Period*time.Second))
		if err != nil {
			return false
		}
		matched |= subtle.ConstantTimeCompare([]byte(want), []byte(code))
	}
	return matched == 1
}

// CodeAt returns the code for secret during the step containing at.
func CodeAt(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, codeOpts)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
