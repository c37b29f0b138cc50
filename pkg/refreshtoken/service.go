package refreshtoken

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultExpiry is the lifetime of a refresh token when none is configured
const DefaultExpiry = 30 * 24 * time.Hour

// tokenBytes is the amount of randomness in an opaque refresh token
const tokenBytes = 32

// ErrInvalidGrant is returned for every refresh token that cannot be used:
// unknown, expired, revoked, reused or presented by the wrong client.
var ErrInvalidGrant = errors.New("refresh token is invalid or expired")

// Metadata describes the request a refresh token is issued or presented from
type Metadata struct {
	IPAddress string
	DeviceID  string
}

// Rotation is the result of a successful refresh
type Rotation struct {
	// Token is the opaque successor value handed to the client
	Token    string
	Current  *RefreshToken
	Previous *RefreshToken
}

// Service issues, rotates and revokes refresh tokens
type Service struct {
	repo   Repository
	expiry time.Duration
	now    func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithExpiry sets the refresh token lifetime
func WithExpiry(expiry time.Duration) Option {
	return func(s *Service) {
		if expiry > 0 {
			s.expiry = expiry
		}
	}
}

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a refresh token service on top of a repository
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		expiry: DefaultExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Expiry returns the configured refresh token lifetime
func (s *Service) Expiry() time.Duration {
	return s.expiry
}

// HashToken returns the storage key of an opaque refresh token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue starts a new chain for subject and client and returns the opaque token
func (s *Service) Issue(ctx context.Context, subject, clientID string, meta Metadata) (string, *RefreshToken, error) {
	raw, err := generateToken()
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	token, err := s.repo.Create(ctx, CreateRefreshTokenRequest{
		TokenHash: HashToken(raw),
		Subject:   subject,
		ClientID:  clientID,
		IPAddress: meta.IPAddress,
		DeviceID:  meta.DeviceID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.expiry),
	})
	if err != nil {
		return "", nil, err
	}

	slog.Debug("Refresh token issued", "subject", subject, "client_id", clientID, "token_id", token.ID)
	return raw, token, nil
}

// Rotate exchanges a presented refresh token for its successor.
//
// A token that was already rotated is treated as stolen: the whole chain is
// revoked, including the successor held by whoever used it first. The caller
// sees the same ErrInvalidGrant as for an expired token.
func (s *Service) Rotate(ctx context.Context, presented, clientID string, meta Metadata) (*Rotation, error) {
	if presented == "" {
		return nil, ErrInvalidGrant
	}
	hash := HashToken(presented)

	existing, err := s.repo.GetByHash(ctx, hash)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidGrant
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if existing.ClientID != clientID {
		slog.Warn("Refresh token presented by a different client",
			"token_client_id", existing.ClientID, "client_id", clientID, "token_id", existing.ID)
		return nil, ErrInvalidGrant
	}

	raw, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	result, err := s.repo.Rotate(ctx, hash, CreateRefreshTokenRequest{
		TokenHash: HashToken(raw),
		Subject:   existing.Subject,
		ClientID:  existing.ClientID,
		IPAddress: meta.IPAddress,
		DeviceID:  meta.DeviceID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.expiry),
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidGrant
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	if !result.Rotated {
		prev := result.Previous
		if prev.Revoked && prev.HasSuccessor() {
			s.revokeReusedChain(ctx, prev, now)
		}
		return nil, ErrInvalidGrant
	}

	checkBinding(result.Previous, meta)
	return &Rotation{
		Token:    raw,
		Current:  result.Current,
		Previous: result.Previous,
	}, nil
}

// revokeReusedChain runs detached from ctx so a client disconnect cannot
// leave part of a compromised chain usable
func (s *Service) revokeReusedChain(ctx context.Context, reused *RefreshToken, now time.Time) {
	slog.Warn("Refresh token reuse detected, revoking token chain",
		"subject", reused.Subject, "client_id", reused.ClientID, "token_id", reused.ID)

	count, err := s.repo.RevokeChain(context.WithoutCancel(ctx), reused.TokenHash, now)
	if err != nil {
		slog.Error("Failed to revoke refresh token chain", "subject", reused.Subject, "token_id", reused.ID, "err", err)
		return
	}
	slog.Warn("Refresh token chain revoked", "subject", reused.Subject, "client_id", reused.ClientID, "revoked", count)
}

func checkBinding(prev *RefreshToken, meta Metadata) {
	if prev.IPAddress != "" && meta.IPAddress != "" && prev.IPAddress != meta.IPAddress {
		slog.Warn("Refresh token used from a different IP address",
			"subject", prev.Subject, "token_id", prev.ID, "issued_ip", prev.IPAddress, "ip", meta.IPAddress)
	}
	if prev.DeviceID != "" && meta.DeviceID != "" && prev.DeviceID != meta.DeviceID {
		slog.Warn("Refresh token used from a different device",
			"subject", prev.Subject, "token_id", prev.ID, "issued_device", prev.DeviceID, "device", meta.DeviceID)
	}
}

// Revoke revokes the chain containing the presented token. Unknown tokens and
// tokens belonging to another client are ignored, as RFC 7009 requires.
func (s *Service) Revoke(ctx context.Context, presented, clientID string) error {
	if presented == "" {
		return nil
	}
	hash := HashToken(presented)

	existing, err := s.repo.GetByHash(ctx, hash)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if existing.ClientID != clientID {
		slog.Warn("Revocation requested by a different client", "token_client_id", existing.ClientID, "client_id", clientID)
		return nil
	}

	count, err := s.repo.RevokeChain(ctx, hash, s.now())
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	slog.Info("Refresh token revoked", "subject", existing.Subject, "client_id", clientID, "revoked", count)
	return nil
}

// PurgeExpired deletes tokens whose lifetime ended before now
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
