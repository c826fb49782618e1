package services

import (
	"errors"
	"testing"
)

type fakeSessionStore struct {
	hashes map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{hashes: map[string]string{}}
}

func (s *fakeSessionStore) ActiveRefreshHash(userID string) (string, error) {
	return s.hashes[userID], nil
}

func (s *fakeSessionStore) SetRefreshHash(userID, hash string) error {
	s.hashes[userID] = hash
	return nil
}

func (s *fakeSessionStore) SwapRefreshHash(userID, oldHash, newHash string) (bool, error) {
	if s.hashes[userID] != oldHash {
		return false, nil
	}
	s.hashes[userID] = newHash
	return true, nil
}

func (s *fakeSessionStore) ClearRefreshHash(userID string) error {
	delete(s.hashes, userID)
	return nil
}

func staticLookup(email, name, role string) func(string) (string, string, string, error) {
	return func(string) (string, string, string, error) {
		return email, name, role, nil
	}
}

func TestSessionManager_LoginStoresRefreshHash(t *testing.T) {
	store := newFakeSessionStore()
	manager := SessionManager{Tokens: testTokenService(), Store: store}

	pair, err := manager.Login("user-1", "a@b.c", "Ada", "learner")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("login must return both tokens")
	}
	if store.hashes["user-1"] != HashToken(pair.RefreshToken) {
		t.Fatal("stored hash must match the issued refresh token")
	}
}

func TestSessionManager_RefreshRotates(t *testing.T) {
	store := newFakeSessionStore()
	manager := SessionManager{Tokens: testTokenService(), Store: store}

	pair, err := manager.Login("user-1", "a@b.c", "Ada", "learner")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	userID, next, err := manager.Refresh(pair.RefreshToken, staticLookup("a@b.c", "Ada", "learner"))
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("userID = %s, want user-1", userID)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}
	if store.hashes["user-1"] != HashToken(next.RefreshToken) {
		t.Fatal("store must hold the rotated token's hash")
	}
}

func TestSessionManager_ReuseRevokesSession(t *testing.T) {
	store := newFakeSessionStore()
	manager := SessionManager{Tokens: testTokenService(), Store: store}

	pair, err := manager.Login("user-1", "a@b.c", "Ada", "learner")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	_, next, err := manager.Refresh(pair.RefreshToken, staticLookup("a@b.c", "Ada", "learner"))
	if err != nil {
		t.Fatalf("first Refresh: %v", err)
	}

	// Presenting the already-rotated token is reuse: it must fail and
	// revoke the active session.
	if _, _, err := manager.Refresh(pair.RefreshToken, staticLookup("a@b.c", "Ada", "learner")); err == nil {
		t.Fatal("reused refresh token must be rejected")
	}
	if _, ok := store.hashes["user-1"]; ok {
		t.Fatal("reuse must clear the active refresh hash")
	}

	// The rotated token was revoked along with the session.
	if _, _, err := manager.Refresh(next.RefreshToken, staticLookup("a@b.c", "Ada", "learner")); err == nil {
		t.Fatal("revoked token must be rejected after reuse detection")
	}
}

func TestSessionManager_RefreshRejectsAccessToken(t *testing.T) {
	store := newFakeSessionStore()
	manager := SessionManager{Tokens: testTokenService(), Store: store}

	access, _, err := manager.Tokens.CreateAccessToken("user-1", "a@b.c", "Ada", "learner")
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	_, _, err = manager.Refresh(access, staticLookup("a@b.c", "Ada", "learner"))
	var svcErr ServiceError
	if !errors.As(err, &svcErr) || svcErr.Status != 401 {
		t.Fatalf("access token presented as refresh must yield 401, got %v", err)
	}
}

func TestSessionManager_RefreshRejectsGarbage(t *testing.T) {
	manager := SessionManager{Tokens: testTokenService(), Store: newFakeSessionStore()}
	if _, _, err := manager.Refresh("not-a-jwt", staticLookup("a@b.c", "Ada", "learner")); err == nil {
		t.Fatal("garbage token must be rejected")
	}
}

func TestSessionManager_LoginReplacesOldSession(t *testing.T) {
	store := newFakeSessionStore()
	manager := SessionManager{Tokens: testTokenService(), Store: store}

	first, err := manager.Login("user-1", "a@b.c", "Ada", "learner")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := manager.Login("user-1", "a@b.c", "Ada", "learner"); err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if _, _, err := manager.Refresh(first.RefreshToken, staticLookup("a@b.c", "Ada", "learner")); err == nil {
		t.Fatal("refresh token from the replaced session must be rejected")
	}
}

func TestSessionManager_Logout(t *testing.T) {
	store := newFakeSessionStore()
	manager := SessionManager{Tokens: testTokenService(), Store: store}

	pair, err := manager.Login("user-1", "a@b.c", "Ada", "learner")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := manager.Logout("user-1"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, _, err := manager.Refresh(pair.RefreshToken, staticLookup("a@b.c", "Ada", "learner")); err == nil {
		t.Fatal("refresh after logout must be rejected")
	}
}
