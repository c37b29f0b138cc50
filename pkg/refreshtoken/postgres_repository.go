package refreshtoken

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const refreshTokenColumns = `
	id, token_hash, subject, client_id, created_at, expires_at,
	revoked, revoked_at, replaced_by_hash, ip_address, device_id`

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL refresh token repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertToken(ctx context.Context, q queryRower, req CreateRefreshTokenRequest) (*RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (
			token_hash, subject, client_id, created_at, expires_at, ip_address, device_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING ` + refreshTokenColumns

	return scanRefreshToken(q.QueryRow(ctx, query,
		req.TokenHash,
		req.Subject,
		req.ClientID,
		req.CreatedAt,
		req.ExpiresAt,
		req.IPAddress,
		req.DeviceID,
	))
}

// Create persists the first token of a new chain
func (r *PostgresRepository) Create(ctx context.Context, req CreateRefreshTokenRequest) (*RefreshToken, error) {
	token, err := insertToken(ctx, r.pool, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}
	return token, nil
}

// GetByHash retrieves a refresh token by the hash of its value
func (r *PostgresRepository) GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token_hash = $1`

	token, err := scanRefreshToken(r.pool.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return token, nil
}

// Rotate locks the presented row, and if it is still active revokes it,
// inserts its successor and links the two in one transaction. A concurrent
// rotation of the same row blocks on the lock and then sees it revoked.
func (r *PostgresRepository) Rotate(ctx context.Context, tokenHash string, next CreateRefreshTokenRequest) (*RotateResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE`
	previous, err := scanRefreshToken(tx.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock refresh token: %w", err)
	}

	if !previous.IsActive(next.CreatedAt) {
		return &RotateResult{Previous: previous}, nil
	}

	current, err := insertToken(ctx, tx, next)
	if err != nil {
		return nil, fmt.Errorf("failed to create successor refresh token: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = $2, replaced_by_hash = $3
		WHERE id = $1
	`, previous.ID, next.CreatedAt, current.TokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke rotated refresh token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rotation: %w", err)
	}

	return &RotateResult{
		Previous: previous,
		Current:  current,
		Rotated:  true,
	}, nil
}

// RevokeChain finds the root of the chain containing tokenHash and revokes
// every token from the root to the tip
func (r *PostgresRepository) RevokeChain(ctx context.Context, tokenHash string, revokedAt time.Time) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE token_hash = $1)`, tokenHash).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if !exists {
		return 0, ErrNotFound
	}

	root := tokenHash
	for i := 0; i < maxChainLength; i++ {
		var prev string
		err := tx.QueryRow(ctx, `SELECT token_hash FROM refresh_tokens WHERE replaced_by_hash = $1`, root).Scan(&prev)
		if errors.Is(err, pgx.ErrNoRows) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to walk refresh token chain: %w", err)
		}
		root = prev
	}

	revoked := 0
	visited := make(map[string]bool)
	for current := root; current != "" && !visited[current]; {
		visited[current] = true

		var wasRevoked bool
		var next sql.NullString
		err := tx.QueryRow(ctx, `
			SELECT revoked, replaced_by_hash FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE
		`, current).Scan(&wasRevoked, &next)
		if errors.Is(err, pgx.ErrNoRows) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to lock refresh token: %w", err)
		}

		if !wasRevoked {
			_, err = tx.Exec(ctx, `
				UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE token_hash = $1
			`, current, revokedAt)
			if err != nil {
				return 0, fmt.Errorf("failed to revoke refresh token: %w", err)
			}
			revoked++
		}
		current = next.String
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit chain revocation: %w", err)
	}
	return revoked, nil
}

// DeleteExpired removes tokens that expired before the cutoff
func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanRefreshToken(row pgx.Row) (*RefreshToken, error) {
	token := &RefreshToken{}
	var revokedAt sql.NullTime
	var replacedBy sql.NullString

	err := row.Scan(
		&token.ID,
		&token.TokenHash,
		&token.Subject,
		&token.ClientID,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.Revoked,
		&revokedAt,
		&replacedBy,
		&token.IPAddress,
		&token.DeviceID,
	)
	if err != nil {
		return nil, err
	}

	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Time
	}
	token.ReplacedByHash = replacedBy.String
	return token, nil
}
