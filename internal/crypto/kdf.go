package crypto

import (
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// MasterKeySize is the AES-256 key length in bytes.
	MasterKeySize = 32

	// KDFIterations is the PBKDF2-SHA256 work factor for master keys. Changing
	// it changes every derived key and makes existing records unreadable.
	KDFIterations = 600_000
)

var (
	ErrEmptyPassword  = errors.New("master password must not be empty")
	ErrEmptyAccountID = errors.New("account identifier must not be empty")
)

// MasterKey is the symmetric key that seals vault records. It only ever
// exists in client memory.
type MasterKey [MasterKeySize]byte

// String keeps key material out of logs and fmt output.
func (k MasterKey) String() string { return "MasterKey(redacted)" }

// GoString keeps key material out of %#v output.
func (k MasterKey) GoString() string { return k.String() }

// Zero overwrites the key in place.
func (k *MasterKey) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// DeriveMasterKey stretches password into a MasterKey using PBKDF2-SHA256
// with accountID as the salt. The same pair always yields the same key, so
// records sealed in one session open in the next without storing the key.
func DeriveMasterKey(password, accountID string) (MasterKey, error) {
	if password == "" {
		return MasterKey{}, ErrEmptyPassword
	}
	if accountID == "" {
		return MasterKey{}, ErrEmptyAccountID
	}

	derived := pbkdf2.Key([]byte(password), []byte(accountID), KDFIterations, MasterKeySize, sha256.New)
	defer wipe(derived)

	var key MasterKey
	copy(key[:], derived)
	return key, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
