package services

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
)

// execRecorder captures the statement handed to Exec so the token
// consumption updates can be checked without a database.
type execRecorder struct {
	query string
	args  []interface{}
	rows  int64
}

func (r *execRecorder) Exec(query string, args ...interface{}) (sql.Result, error) {
	r.query = query
	r.args = args
	return driver.RowsAffected(r.rows), nil
}

func TestValidateRegistration(t *testing.T) {
	if fields := ValidateRegistration("Ada", "ada@example.com", "long enough pw", "learner"); len(fields) != 0 {
		t.Fatalf("valid registration rejected: %v", fields)
	}
	if fields := ValidateRegistration("Ada", "ada@example.com", "long enough pw", "mentor"); len(fields) != 0 {
		t.Fatalf("mentor registration rejected: %v", fields)
	}

	cases := []struct {
		name     string
		userName string
		email    string
		password string
		role     string
		field    string
	}{
		{"blank name", "   ", "a@b.c", "password123", "learner", "name"},
		{"bad email", "Ada", "not-an-email", "password123", "learner", "email"},
		{"short password", "Ada", "a@b.c", "short", "learner", "password"},
		{"admin not self-assignable", "Ada", "a@b.c", "password123", "admin", "role"},
		{"unknown role", "Ada", "a@b.c", "password123", "wizard", "role"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := ValidateRegistration(tc.userName, tc.email, tc.password, tc.role)
			if len(fields) == 0 {
				t.Fatal("expected a field error")
			}
			found := false
			for _, f := range fields {
				if f.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected error on field %q, got %v", tc.field, fields)
			}
		})
	}
}

func TestValidateRegistration_CollectsAllErrors(t *testing.T) {
	fields := ValidateRegistration("", "bad", "x", "wizard")
	if len(fields) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(fields), fields)
	}
}

func TestVerifyEmail_ConsumesTokenAndRevokesSession(t *testing.T) {
	rec := &execRecorder{rows: 1}
	if err := VerifyEmail(rec, "tok123"); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if len(rec.args) == 0 || rec.args[0] != HashToken("tok123") {
		t.Fatalf("lookup must use the token hash, got args %v", rec.args)
	}
	for _, clause := range []string{
		"email_verification_token = NULL",
		"email_verification_expiry = NULL",
		"refresh_token_hash = NULL",
	} {
		if !strings.Contains(rec.query, clause) {
			t.Fatalf("verify update must set %q", clause)
		}
	}
}

func TestVerifyEmail_RejectsUnknownToken(t *testing.T) {
	rec := &execRecorder{rows: 0}
	err := VerifyEmail(rec, "tok123")
	var svcErr ServiceError
	if !errors.As(err, &svcErr) || svcErr.Status != 400 {
		t.Fatalf("unmatched token must yield 400, got %v", err)
	}
}

func TestResetPassword_RevokesSession(t *testing.T) {
	rec := &execRecorder{rows: 1}
	if err := ResetPassword(rec, testTokenService(), "tok456", "a new password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if len(rec.args) == 0 || rec.args[0] != HashToken("tok456") {
		t.Fatalf("lookup must use the token hash, got args %v", rec.args)
	}
	stored, _ := rec.args[1].(string)
	if !strings.HasPrefix(stored, "$argon2id$") {
		t.Fatalf("stored password must be hashed, got %q", stored)
	}
	for _, clause := range []string{"forgot_password_token = NULL", "refresh_token_hash = NULL"} {
		if !strings.Contains(rec.query, clause) {
			t.Fatalf("reset update must set %q", clause)
		}
	}
}
