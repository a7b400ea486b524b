package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vaultpass/securevault-go/internal/model"
)

// MemoryUserRepository keeps users in process memory. It has the same
// semantics as UserRepository, including the guarded updates, and is meant
// for development and tests.
type MemoryUserRepository struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*model.User
	byEmail map[string]int64
	now     func() time.Time
}

// NewMemoryUserRepository creates an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[int64]*model.User),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}

	r.nextID++
	now := r.now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = stored.ID
	return nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) SetPendingOTPSecret(_ context.Context, id int64, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.OTPPendingSecret = secret
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryUserRepository) ConfirmOTPSecret(_ context.Context, id int64, pending string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok || pending == "" || u.OTPPendingSecret != pending {
		return ErrStaleCredential
	}
	u.OTPSecret = u.OTPPendingSecret
	u.OTPPendingSecret = ""
	u.OTPEnabled = true
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryUserRepository) DisableOTP(_ context.Context, id int64, authHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok || u.AuthHash != authHash {
		return ErrStaleCredential
	}
	u.OTPSecret = ""
	u.OTPPendingSecret = ""
	u.OTPEnabled = false
	u.UpdatedAt = r.now().UTC()
	return nil
}

// MemoryVaultRepository keeps vault records in process memory.
type MemoryVaultRepository struct {
	mu      sync.Mutex
	records map[string]*model.VaultRecord
	now     func() time.Time
}

// NewMemoryVaultRepository creates an empty MemoryVaultRepository.
func NewMemoryVaultRepository() *MemoryVaultRepository {
	return &MemoryVaultRepository{
		records: make(map[string]*model.VaultRecord),
		now:     time.Now,
	}
}

func (r *MemoryVaultRepository) Create(_ context.Context, userID int64, ciphertext, iv string) (*model.VaultRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	rec := &model.VaultRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		Ciphertext: ciphertext,
		IV:         iv,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.records[rec.ID] = rec

	cp := *rec
	return &cp, nil
}

func (r *MemoryVaultRepository) ListByUser(_ context.Context, userID int64) ([]model.VaultRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.VaultRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *MemoryVaultRepository) Update(_ context.Context, id string, userID int64, ciphertext, iv string) (*model.VaultRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.UserID != userID {
		return nil, ErrRecordNotFound
	}
	rec.Ciphertext = ciphertext
	rec.IV = iv
	rec.UpdatedAt = r.now().UTC()

	cp := *rec
	return &cp, nil
}

func (r *MemoryVaultRepository) Delete(_ context.Context, id string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.UserID != userID {
		return ErrRecordNotFound
	}
	delete(r.records, id)
	return nil
}
