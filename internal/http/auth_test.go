package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studyhive-backend-go/internal/services"
)

func testTokens() services.TokenService {
	return services.TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "studyhive",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 14 * 24 * time.Hour,
	}
}

func identityEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteData(w, http.StatusOK, "ok", map[string]string{
			"userId": CurrentUserID(r),
			"email":  CurrentEmail(r),
			"name":   CurrentName(r),
			"role":   CurrentRole(r),
		})
	})
}

func TestWithAuth_BearerToken(t *testing.T) {
	tokens := testTokens()
	access, _, err := tokens.CreateAccessToken("user-1", "a@b.c", "Ada", "mentor")
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	handler := WithAuth(tokens)(identityEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestWithAuth_CookieToken(t *testing.T) {
	tokens := testTokens()
	access, _, err := tokens.CreateAccessToken("user-1", "a@b.c", "Ada", "learner")
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	handler := WithAuth(tokens)(identityEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: accessCookieName, Value: access})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestWithAuth_MissingToken(t *testing.T) {
	handler := WithAuth(testTokens())(identityEcho(t))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestWithAuth_GarbageToken(t *testing.T) {
	handler := WithAuth(testTokens())(identityEcho(t))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestWithAuth_RejectsRefreshToken(t *testing.T) {
	tokens := testTokens()
	refresh, err := tokens.CreateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}
	handler := WithAuth(tokens)(identityEcho(t))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token on an API route must yield 401, got %d", rec.Code)
	}
}

func TestWithAuth_RejectsExpiredToken(t *testing.T) {
	expired := testTokens()
	expired.AccessTTL = -time.Minute
	access, _, err := expired.CreateAccessToken("user-1", "a@b.c", "Ada", "learner")
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	handler := WithAuth(testTokens())(identityEcho(t))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token must yield 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tokens := testTokens()
	handler := WithAuth(tokens)(RequireRole("admin")(identityEcho(t)))

	adminToken, _, err := tokens.CreateAccessToken("user-1", "a@b.c", "Ada", "admin")
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin should pass, got %d", rec.Code)
	}

	learnerToken, _, err := tokens.CreateAccessToken("user-2", "b@b.c", "Bob", "learner")
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+learnerToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("learner should be forbidden, got %d", rec.Code)
	}
}

func TestRequireAnyRole(t *testing.T) {
	tokens := testTokens()
	handler := WithAuth(tokens)(RequireAnyRole("mentor", "admin")(identityEcho(t)))

	mentorToken, _, err := tokens.CreateAccessToken("user-1", "a@b.c", "Ada", "mentor")
	if err != nil {
		t.Fatalf("CreateAccessToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mentorToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mentor should pass, got %d", rec.Code)
	}
}
