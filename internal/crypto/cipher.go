package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vaultpass/securevault-go/internal/model"
)

// IVSize is the per-record initialization vector length in bytes.
const IVSize = 16

// ErrDecryptionFailure covers every reason a record cannot be opened: wrong
// key, tampered ciphertext or IV, and malformed plaintext all look the same.
var ErrDecryptionFailure = errors.New("vault record could not be decrypted")

// Replaceable for testing error paths.
var randRead = func(b []byte) (int, error) { return rand.Read(b) }

// SealPayload serializes p and encrypts it with AES-256-GCM under key using a
// fresh random IV. Both results are text-safe: ciphertext is base64 and iv is hex.
func SealPayload(p model.VaultItemPayload, key MasterKey) (ciphertext, iv string, err error) {
	plaintext, err := json.Marshal(p.Normalize())
	if err != nil {
		return "", "", fmt.Errorf("vault seal: marshal payload: %w", err)
	}
	defer wipe(plaintext)

	aead, err := newRecordAEAD(key)
	if err != nil {
		return "", "", fmt.Errorf("vault seal: %w", err)
	}

	nonce := make([]byte, IVSize)
	if _, err := randRead(nonce); err != nil {
		return "", "", fmt.Errorf("vault seal: generate iv: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), hex.EncodeToString(nonce), nil
}

// OpenPayload reverses SealPayload. Any failure is reported as
// ErrDecryptionFailure without further detail.
func OpenPayload(ciphertext, iv string, key MasterKey) (model.VaultItemPayload, error) {
	nonce, err := hex.DecodeString(iv)
	if err != nil || len(nonce) != IVSize {
		return model.VaultItemPayload{}, ErrDecryptionFailure
	}
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return model.VaultItemPayload{}, ErrDecryptionFailure
	}

	aead, err := newRecordAEAD(key)
	if err != nil {
		return model.VaultItemPayload{}, ErrDecryptionFailure
	}
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return model.VaultItemPayload{}, ErrDecryptionFailure
	}
	defer wipe(plaintext)

	p, err := decodePayload(plaintext)
	if err != nil {
		return model.VaultItemPayload{}, ErrDecryptionFailure
	}
	return p, nil
}

func newRecordAEAD(key MasterKey) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return aead, nil
}

// decodePayload accepts exactly one JSON object with the payload's fields.
func decodePayload(data []byte) (model.VaultItemPayload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.VaultItemPayload{}, errors.New("payload is not a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var p model.VaultItemPayload
	if err := dec.Decode(&p); err != nil {
		return model.VaultItemPayload{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.VaultItemPayload{}, errors.New("trailing data after payload")
	}

	return p.Normalize(), nil
}
