package services

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// SessionStore persists the single active refresh token per user. Only
// a sha256 of the token is stored, never the signed token itself.
type SessionStore interface {
	ActiveRefreshHash(userID string) (string, error)
	SetRefreshHash(userID, hash string) error
	// SwapRefreshHash replaces the stored hash only when it still equals
	// oldHash, and reports whether the swap happened. This is the
	// compare-and-swap that makes rotation safe under concurrent
	// refresh calls.
	SwapRefreshHash(userID, oldHash, newHash string) (bool, error)
	ClearRefreshHash(userID string) error
}

type SessionManager struct {
	Tokens TokenService
	Store  SessionStore
}

// Login issues a fresh token pair and installs its refresh token as the
// user's only active one. Any previously issued refresh token becomes
// invalid (single active session).
func (m SessionManager) Login(userID, email, name, role string) (TokenPair, error) {
	access, exp, err := m.Tokens.CreateAccessToken(userID, email, name, role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.Tokens.CreateRefreshToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := m.Store.SetRefreshHash(userID, HashToken(refresh)); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

// Refresh validates a presented refresh token and rotates it. A token
// that verifies but no longer matches the stored hash means the token
// was already rotated away: that is treated as reuse, the active token
// is revoked and the caller must log in again.
func (m SessionManager) Refresh(presented string, lookupUser func(userID string) (email, name, role string, err error)) (string, TokenPair, error) {
	token, claims, err := m.Tokens.ParseToken(presented)
	if err != nil || !token.Valid || claims["typ"] != "refresh" {
		return "", TokenPair{}, ErrUnauthorized("Invalid refresh token")
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return "", TokenPair{}, ErrUnauthorized("Invalid refresh token")
	}
	email, name, role, err := lookupUser(userID)
	if err != nil {
		return "", TokenPair{}, ErrUnauthorized("Invalid refresh token")
	}
	access, exp, err := m.Tokens.CreateAccessToken(userID, email, name, role)
	if err != nil {
		return "", TokenPair{}, err
	}
	refresh, err := m.Tokens.CreateRefreshToken(userID)
	if err != nil {
		return "", TokenPair{}, err
	}
	swapped, err := m.Store.SwapRefreshHash(userID, HashToken(presented), HashToken(refresh))
	if err != nil {
		return "", TokenPair{}, err
	}
	if !swapped {
		_ = m.Store.ClearRefreshHash(userID)
		return "", TokenPair{}, ErrUnauthorized("Refresh token expired or reused")
	}
	return userID, TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

func (m SessionManager) Logout(userID string) error {
	return m.Store.ClearRefreshHash(userID)
}

type dbSessionStore struct {
	db *sqlx.DB
}

func NewSessionStore(db *sqlx.DB) SessionStore {
	return dbSessionStore{db: db}
}

func (s dbSessionStore) ActiveRefreshHash(userID string) (string, error) {
	var hash sql.NullString
	err := s.db.Get(&hash, `SELECT refresh_token_hash FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if hash.Valid {
		return hash.String, nil
	}
	return "", nil
}

func (s dbSessionStore) SetRefreshHash(userID, hash string) error {
	_, err := s.db.Exec(`UPDATE users SET refresh_token_hash = $1 WHERE id = $2`, hash, userID)
	return err
}

func (s dbSessionStore) SwapRefreshHash(userID, oldHash, newHash string) (bool, error) {
	result, err := s.db.Exec(`
UPDATE users SET refresh_token_hash = $1
WHERE id = $2 AND refresh_token_hash = $3
`, newHash, userID, oldHash)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s dbSessionStore) ClearRefreshHash(userID string) error {
	_, err := s.db.Exec(`UPDATE users SET refresh_token_hash = NULL WHERE id = $1`, userID)
	return err
}
