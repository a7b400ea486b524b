package model

import "time"

// VaultRecord is an encrypted vault item as the server stores it. Ciphertext
// and IV are opaque outside the client.
type VaultRecord struct {
	ID         string
	UserID     int64
	Ciphertext string
	IV         string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// VaultRecordRequest is the body of a create or update.
type VaultRecordRequest struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
}

// VaultRecordResponse is a record as returned to its owner.
type VaultRecordResponse struct {
	ID         string    `json:"id"`
	Ciphertext string    `json:"ciphertext"`
	IV         string    `json:"iv"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ToResponse drops the owner id.
func (r *VaultRecord) ToResponse() VaultRecordResponse {
	return VaultRecordResponse{
		ID:         r.ID,
		Ciphertext: r.Ciphertext,
		IV:         r.IV,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
