package oauth2

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/conduit/packages/auth"
)

// ErrTokenNotFound is returned when no token is stored under a name.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore persists access tokens in SQLite, keyed by an arbitrary name
// (typically one per connector). Expiry is stored as a unix timestamp so the
// absolute-instant semantics of auth.AccessToken survive a round-trip.
type TokenStore struct {
	db *sql.DB
}

// OpenTokenStore opens (and if needed creates) a token store at path.
func OpenTokenStore(path string) (*TokenStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect token store: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	name          TEXT PRIMARY KEY,
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	expires_at    INTEGER NOT NULL DEFAULT 0
)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create token table: %w", err)
	}

	return &TokenStore{db: db}, nil
}

// Save upserts the token under name.
func (s *TokenStore) Save(ctx context.Context, name string, tok *auth.AccessToken) error {
	var expiresAt int64
	if !tok.ExpiresAt.IsZero() {
		expiresAt = tok.ExpiresAt.Unix()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO tokens (name, access_token, refresh_token, expires_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	access_token = excluded.access_token,
	refresh_token = excluded.refresh_token,
	expires_at = excluded.expires_at`,
		name, tok.Token, tok.RefreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("save token %q: %w", name, err)
	}
	return nil
}

// Load returns the token stored under name, or ErrTokenNotFound.
func (s *TokenStore) Load(ctx context.Context, name string) (*auth.AccessToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, expires_at FROM tokens WHERE name = ?`, name)

	var accessToken, refreshToken string
	var expiresAt int64
	if err := row.Scan(&accessToken, &refreshToken, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, name)
		}
		return nil, fmt.Errorf("load token %q: %w", name, err)
	}

	tok := &auth.AccessToken{
		Token:        accessToken,
		RefreshToken: refreshToken,
	}
	if expiresAt > 0 {
		tok.ExpiresAt = time.Unix(expiresAt, 0)
	}
	return tok, nil
}

// Delete removes the token stored under name, if any.
func (s *TokenStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete token %q: %w", name, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *TokenStore) Close() error {
	return s.db.Close()
}
