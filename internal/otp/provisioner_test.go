package otp

import (
	"encoding/base32"
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	p := NewProvisioner("")

	s, err := p.Generate("a@x.com")
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}

	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s.Secret)
	if err != nil {
		t.Fatalf("secret is not base32: %v", err)
	}
	if len(raw)*8 < 160 {
		t.Errorf("secret has %d bits of entropy, want at least 160", len(raw)*8)
	}

	u, err := url.Parse(s.URI)
	if err != nil {
		t.Fatalf("URI does not parse: %v", err)
	}
	if u.Scheme != "otpauth" || u.Host != "totp" {
		t.Errorf("URI = %q, want otpauth://totp/...", s.URI)
	}
	if !strings.Contains(u.Path, "SecureVault:a@x.com") {
		t.Errorf("URI path = %q, want issuer:label", u.Path)
	}
	q := u.Query()
	if q.Get("secret") != s.Secret {
		t.Errorf("URI secret = %q, want %q", q.Get("secret"), s.Secret)
	}
	if q.Get("issuer") != "SecureVault" {
		t.Errorf("URI issuer = %q, want %q", q.Get("issuer"), "SecureVault")
	}
	if q.Get("period") != "30" || q.Get("digits") != "6" {
		t.Errorf("URI period/digits = %q/%q, want 30/6", q.Get("period"), q.Get("digits"))
	}
}

func TestGenerateUniqueSecrets(t *testing.T) {
	p := NewProvisioner("SecureVault")
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		s, err := p.Generate("a@x.com")
		if err != nil {
			t.Fatalf("Generate() unexpected error: %v", err)
		}
		if seen[s.Secret] {
			t.Fatalf("Generate() reused secret %q", s.Secret)
		}
		seen[s.Secret] = true
	}
}

func TestGenerateEmptyLabel(t *testing.T) {
	_, err := NewProvisioner("SecureVault").Generate("")
	if !errors.Is(err, ErrLabelRequired) {
		t.Errorf("Generate() error = %v, want %v", err, ErrLabelRequired)
	}
}
