package refreshtoken

import "time"

// RefreshToken is one link of a rotation chain. Only the SHA-256 of the
// opaque value is stored; ReplacedByHash points at the successor's hash.
type RefreshToken struct {
	ID             int64      `json:"id"`
	TokenHash      string     `json:"-"`
	Subject        string     `json:"subject"`
	ClientID       string     `json:"client_id"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	Revoked        bool       `json:"revoked"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
	ReplacedByHash string     `json:"-"`
	IPAddress      string     `json:"ip_address,omitempty"`
	DeviceID       string     `json:"device_id,omitempty"`
}

// IsExpired reports whether the token's lifetime has ended at now
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsActive reports whether the token may still be rotated at now
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.Revoked && !t.IsExpired(now)
}

// HasSuccessor reports whether the token was rotated, as opposed to revoked outright
func (t *RefreshToken) HasSuccessor() bool {
	return t.ReplacedByHash != ""
}

// CreateRefreshTokenRequest describes a token to persist
type CreateRefreshTokenRequest struct {
	TokenHash string
	Subject   string
	ClientID  string
	IPAddress string
	DeviceID  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RotateResult is the outcome of Repository.Rotate.
// When Rotated is false the presented token was inactive and nothing changed;
// Previous then holds its current state so the caller can tell reuse from expiry.
type RotateResult struct {
	Previous *RefreshToken
	Current  *RefreshToken
	Rotated  bool
}
