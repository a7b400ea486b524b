package crypto

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"unicode"
)

const (
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	numberChars    = "0123456789"
	symbolChars    = "!@#$%^&*()_+-=[]{}|;:,.<>?"

	// similarChars are glyphs that are easy to confuse when read aloud or typed.
	similarChars = "il1Lo0O"

	MinLength = 8
	MaxLength = 128
)

var (
	ErrLengthTooShort     = errors.New("password length must be at least 8")
	ErrLengthTooLong      = errors.New("password length must be at most 128")
	ErrNoCharacterTypes   = errors.New("at least one character type must be selected")
	ErrLengthInsufficient = errors.New("password length must be at least equal to the number of selected character types")
)

// GeneratorOptions configures the password generator.
type GeneratorOptions struct {
	Length         int
	Uppercase      bool
	Lowercase      bool
	Numbers        bool
	Symbols        bool
	ExcludeSimilar bool
}

// DefaultOptions returns 16 characters with all types enabled.
func DefaultOptions() GeneratorOptions {
	return GeneratorOptions{
		Length:    16,
		Uppercase: true,
		Lowercase: true,
		Numbers:   true,
		Symbols:   true,
	}
}

// charsets returns the selected character classes, with look-alike
// characters removed when requested.
func (o GeneratorOptions) charsets() []string {
	var sets []string
	add := func(enabled bool, set string) {
		if !enabled {
			return
		}
		if o.ExcludeSimilar {
			set = strings.Map(func(r rune) rune {
				if strings.ContainsRune(similarChars, r) {
					return -1
				}
				return r
			}, set)
		}
		sets = append(sets, set)
	}
	add(o.Uppercase, uppercaseChars)
	add(o.Lowercase, lowercaseChars)
	add(o.Numbers, numberChars)
	add(o.Symbols, symbolChars)
	return sets
}

// Generate creates a cryptographically secure random password. Every
// selected character class appears at least once.
func Generate(opts GeneratorOptions) (string, error) {
	if opts.Length < MinLength {
		return "", ErrLengthTooShort
	}
	if opts.Length > MaxLength {
		return "", ErrLengthTooLong
	}

	sets := opts.charsets()
	if len(sets) == 0 {
		return "", ErrNoCharacterTypes
	}
	if opts.Length < len(sets) {
		return "", ErrLengthInsufficient
	}

	pool := strings.Join(sets, "")
	out := make([]byte, 0, opts.Length)

	for _, set := range sets {
		ch, err := randChar(set)
		if err != nil {
			return "", err
		}
		out = append(out, ch)
	}
	for len(out) < opts.Length {
		ch, err := randChar(pool)
		if err != nil {
			return "", err
		}
		out = append(out, ch)
	}

	// The guaranteed characters sit at the front until shuffled.
	if err := secureShuffle(out); err != nil {
		return "", err
	}

	return string(out), nil
}

// Strength scores a password from 0 to 100: up to 40 points for length and
// 15 for each character class present.
func Strength(password string) int {
	if password == "" {
		return 0
	}

	score := min(len([]rune(password))*4, 40)

	var lower, upper, digit, other bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			digit = true
		default:
			other = true
		}
	}
	for _, present := range []bool{lower, upper, digit, other} {
		if present {
			score += 15
		}
	}

	return min(score, 100)
}

func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}

// secureShuffle is a Fisher-Yates shuffle driven by crypto/rand.
func secureShuffle(data []byte) error {
	for i := len(data) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		data[i], data[j.Int64()] = data[j.Int64()], data[i]
	}
	return nil
}
