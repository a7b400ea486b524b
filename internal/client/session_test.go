package client

import (
	"crypto/sha256"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaultpass/securevault-go/internal/crypto"
	"github.com/vaultpass/securevault-go/internal/model"
)

// fastSession swaps the PBKDF2 derivation for a single hash so tests stay quick.
func fastSession() *Session {
	s := NewSession()
	s.derive = func(password, accountID string) (crypto.MasterKey, error) {
		if password == "" {
			return crypto.MasterKey{}, crypto.ErrEmptyPassword
		}
		if accountID == "" {
			return crypto.MasterKey{}, crypto.ErrEmptyAccountID
		}
		return crypto.MasterKey(sha256.Sum256([]byte(accountID + "\x00" + password))), nil
	}
	return s
}

func TestSessionLocked(t *testing.T) {
	s := fastSession()
	require.False(t, s.Unlocked())

	_, _, err := s.EncryptForStorage(model.VaultItemPayload{Title: "t"})
	require.ErrorIs(t, err, ErrLocked)

	_, err = s.DecryptFromStorage("Y3Q=", "00112233445566778899aabbccddeeff")
	require.ErrorIs(t, err, ErrLocked)
	require.False(t, errors.Is(err, crypto.ErrDecryptionFailure))

	_, err = s.DecryptRecords(nil)
	require.ErrorIs(t, err, ErrLocked)
}

func TestSessionRoundTripAndLock(t *testing.T) {
	s := fastSession()
	require.NoError(t, s.Unlock("pw123456", "a@x.com"))
	require.True(t, s.Unlocked())

	in := model.VaultItemPayload{Title: "mail", Username: "alice", Password: "s3cret", Tags: []string{"work"}}
	ct, iv, err := s.EncryptForStorage(in)
	require.NoError(t, err)

	out, err := s.DecryptFromStorage(ct, iv)
	require.NoError(t, err)
	require.Equal(t, in, out)

	s.Lock()
	require.False(t, s.Unlocked())
	_, err = s.DecryptFromStorage(ct, iv)
	require.ErrorIs(t, err, ErrLocked)

	// Same password, same account: the key comes back.
	require.NoError(t, s.Unlock("pw123456", "a@x.com"))
	out, err = s.DecryptFromStorage(ct, iv)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestSessionWrongPassword(t *testing.T) {
	s := fastSession()
	require.NoError(t, s.Unlock("pw123456", "a@x.com"))
	ct, iv, err := s.EncryptForStorage(model.VaultItemPayload{Title: "t"})
	require.NoError(t, err)

	require.NoError(t, s.Unlock("other-password", "a@x.com"))
	_, err = s.DecryptFromStorage(ct, iv)
	require.ErrorIs(t, err, crypto.ErrDecryptionFailure)
}

func TestSessionUnlockValidation(t *testing.T) {
	s := fastSession()
	require.ErrorIs(t, s.Unlock("", "a@x.com"), crypto.ErrEmptyPassword)
	require.ErrorIs(t, s.Unlock("pw", ""), crypto.ErrEmptyAccountID)
	require.False(t, s.Unlocked())
}

func TestDecryptRecordsIsolatesFailures(t *testing.T) {
	s := fastSession()
	require.NoError(t, s.Unlock("pw123456", "a@x.com"))

	good, goodIV, err := s.EncryptForStorage(model.VaultItemPayload{Title: "good"})
	require.NoError(t, err)

	records := []model.VaultRecordResponse{
		{ID: "1", Ciphertext: good, IV: goodIV},
		{ID: "2", Ciphertext: "bm90IGEgcmVjb3Jk", IV: goodIV},
		{ID: "3", Ciphertext: good, IV: "zz"},
	}

	items, err := s.DecryptRecords(records)
	require.NoError(t, err)
	require.Len(t, items, 3)

	require.NoError(t, items[0].Err)
	require.Equal(t, "good", items[0].Payload.Title)
	require.ErrorIs(t, items[1].Err, crypto.ErrDecryptionFailure)
	require.ErrorIs(t, items[2].Err, crypto.ErrDecryptionFailure)
	require.Equal(t, "3", items[2].ID)
}

func TestSearch(t *testing.T) {
	items := []Item{
		{ID: "1", Payload: model.VaultItemPayload{Title: "GitHub", URL: "https://github.com", Tags: []string{"dev"}}},
		{ID: "2", Payload: model.VaultItemPayload{Title: "Bank", Username: "alice", Tags: []string{"finance"}}},
		{ID: "3", Err: crypto.ErrDecryptionFailure},
	}

	ids := func(in []Item) []string {
		var out []string
		for _, it := range in {
			out = append(out, it.ID)
		}
		return out
	}

	require.Equal(t, []string{"1", "2"}, ids(Search(items, "")))
	require.Equal(t, []string{"1"}, ids(Search(items, "git")))
	require.Equal(t, []string{"2"}, ids(Search(items, "ALICE")))
	require.Equal(t, []string{"2"}, ids(Search(items, "finance")))
	require.Empty(t, Search(items, "fin"))
}

func TestSessionConcurrentUse(t *testing.T) {
	s := fastSession()
	require.NoError(t, s.Unlock("pw123456", "a@x.com"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ct, iv, err := s.EncryptForStorage(model.VaultItemPayload{Title: "t"})
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := s.DecryptFromStorage(ct, iv); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}
