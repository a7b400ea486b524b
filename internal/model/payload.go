package model

import "strings"

// VaultItemPayload is the plaintext inside a VaultRecord. It only exists in
// client memory.
type VaultItemPayload struct {
	Title    string   `json:"title"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	URL      string   `json:"url"`
	Notes    string   `json:"notes"`
	Tags     []string `json:"tags"`
}

// Normalize returns a copy whose Tags is never nil, so the payload always
// serializes to the same shape.
func (p VaultItemPayload) Normalize() VaultItemPayload {
	tags := make([]string, len(p.Tags))
	copy(tags, p.Tags)
	p.Tags = tags
	return p
}

// Matches reports whether query appears in the title, username or URL, or
// equals one of the tags. Matching is case-insensitive; an empty query
// matches everything.
func (p VaultItemPayload) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{p.Title, p.Username, p.URL} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, tag := range p.Tags {
		if strings.ToLower(tag) == q {
			return true
		}
	}
	return false
}
