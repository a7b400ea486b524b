// Package client is the SecureVault client side: the unlocked vault session
// that holds the master key, and the HTTP API client that moves ciphertext.
package client

import (
	"errors"
	"sync"

	"github.com/vaultpass/securevault-go/internal/crypto"
	"github.com/vaultpass/securevault-go/internal/model"
)

// ErrLocked means the session holds no key and the user has to
// re-authenticate. It is distinct from crypto.ErrDecryptionFailure, which
// means the stored data itself is unusable.
var ErrLocked = errors.New("vault is locked, re-authenticate to unlock")

// Item is a decrypted record, or the reason it could not be decrypted.
type Item struct {
	ID      string
	Record  model.VaultRecordResponse
	Payload model.VaultItemPayload
	Err     error
}

// Session holds the master key between Unlock and Lock. It is safe for
// concurrent use.
type Session struct {
	mu       sync.RWMutex
	key      crypto.MasterKey
	unlocked bool

	derive func(password, accountID string) (crypto.MasterKey, error)
}

func NewSession() *Session {
	return &Session{derive: crypto.DeriveMasterKey}
}

// Unlock derives the master key from password and accountID and keeps it
// in memory. Any previously held key is wiped first.
func (s *Session) Unlock(password, accountID string) error {
	key, err := s.derive(password, accountID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.key.Zero()
	s.key = key
	s.unlocked = true
	key.Zero()
	return nil
}

// Lock wipes the key. It is safe to call on a locked session.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key.Zero()
	s.unlocked = false
}

func (s *Session) Unlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unlocked
}

// EncryptForStorage seals p for upload.
func (s *Session) EncryptForStorage(p model.VaultItemPayload) (ciphertext, iv string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.unlocked {
		return "", "", ErrLocked
	}
	return crypto.SealPayload(p, s.key)
}

// DecryptFromStorage opens a downloaded record.
func (s *Session) DecryptFromStorage(ciphertext, iv string) (model.VaultItemPayload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.unlocked {
		return model.VaultItemPayload{}, ErrLocked
	}
	return crypto.OpenPayload(ciphertext, iv, s.key)
}

// DecryptRecords opens every record independently. A record that fails
// carries its error in Item.Err and does not stop the rest. The only
// whole-call error is ErrLocked.
func (s *Session) DecryptRecords(records []model.VaultRecordResponse) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.unlocked {
		return nil, ErrLocked
	}

	items := make([]Item, len(records))
	for i, rec := range records {
		items[i] = Item{ID: rec.ID, Record: rec}
		items[i].Payload, items[i].Err = crypto.OpenPayload(rec.Ciphertext, rec.IV, s.key)
	}
	return items, nil
}

// Search returns the decrypted items matching query. Failed items never match.
func Search(items []Item, query string) []Item {
	var out []Item
	for _, it := range items {
		if it.Err == nil && it.Payload.Matches(query) {
			out = append(out, it)
		}
	}
	return out
}
