package services

import (
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"time"

	"studyhive-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func validRegistrationRole(role string) bool {
	return role == models.RoleMentor || role == models.RoleLearner
}

// ValidateRegistration gathers field errors instead of failing on the
// first one, so the response can name every bad field at once.
func ValidateRegistration(name, email, password, role string) []FieldError {
	var fields []FieldError
	if strings.TrimSpace(name) == "" {
		fields = append(fields, FieldError{Field: "name", Message: "Name is required"})
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fields = append(fields, FieldError{Field: "email", Message: "A valid email is required"})
	}
	if len(password) < 8 {
		fields = append(fields, FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if !validRegistrationRole(role) {
		fields = append(fields, FieldError{Field: "role", Message: "Role must be mentor or learner"})
	}
	return fields
}

// RegisterUser creates an account and returns the plaintext email
// verification token for delivery. Only its hash is stored.
func RegisterUser(db *sqlx.DB, tokens TokenService, name, email, password, role string) (models.User, string, error) {
	if fields := ValidateRegistration(name, email, password, role); len(fields) > 0 {
		return models.User{}, "", ErrValidation("Invalid registration data", fields...)
	}
	passwordHash, err := tokens.HashPassword(password)
	if err != nil {
		return models.User{}, "", err
	}
	verifyToken, verifyHash, verifyExpiry, err := NewTemporaryToken()
	if err != nil {
		return models.User{}, "", err
	}
	now := time.Now().UTC()
	user := models.User{
		ID:                      uuid.NewString(),
		Name:                    strings.TrimSpace(name),
		Email:                   strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:            passwordHash,
		Role:                    role,
		EmailVerificationToken:  &verifyHash,
		EmailVerificationExpiry: &verifyExpiry,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	_, err = db.Exec(`
INSERT INTO users (id, name, email, password_hash, role, is_email_verified, email_verification_token, email_verification_expiry, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,FALSE,$6,$7,$8,$8)
`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, verifyHash, verifyExpiry, now)
	if IsUniqueViolation(err) {
		return models.User{}, "", ErrConflict("Email or username already in use")
	}
	if err != nil {
		return models.User{}, "", err
	}
	return user, verifyToken, nil
}

func UserByID(db *sqlx.DB, userID string) (models.User, error) {
	var user models.User
	err := db.Get(&user, `SELECT * FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("User not found")
	}
	return user, err
}

func UserByEmail(db *sqlx.DB, email string) (models.User, error) {
	var user models.User
	err := db.Get(&user, `SELECT * FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("User not found")
	}
	return user, err
}

// Authenticate checks credentials. The same message covers an unknown
// email and a wrong password.
func Authenticate(db *sqlx.DB, tokens TokenService, email, password string) (models.User, error) {
	user, err := UserByEmail(db, email)
	if err != nil {
		var svcErr ServiceError
		if errors.As(err, &svcErr) && svcErr.Status == 404 {
			return models.User{}, ErrUnauthorized("Invalid email or password")
		}
		return models.User{}, err
	}
	if !tokens.VerifyPassword(password, user.PasswordHash) {
		return models.User{}, ErrUnauthorized("Invalid email or password")
	}
	return user, nil
}

// VerifyEmail consumes a verification token. Tokens are single use:
// the stored hash is cleared in the same statement that matches it. The
// active refresh token is revoked too, so sessions opened before
// verification do not carry over.
func VerifyEmail(db sqlx.Execer, token string) error {
	result, err := db.Exec(`
UPDATE users
SET is_email_verified = TRUE,
    email_verification_token = NULL,
    email_verification_expiry = NULL,
    refresh_token_hash = NULL,
    updated_at = $2
WHERE email_verification_token = $1 AND email_verification_expiry > $2
`, HashToken(token), time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBadRequest("Invalid or expired verification token")
	}
	return nil
}

// IssueEmailVerification rotates the verification token for an
// unverified account and returns the plaintext for delivery.
func IssueEmailVerification(db *sqlx.DB, user models.User) (string, error) {
	if user.IsEmailVerified {
		return "", ErrBadRequest("Email is already verified")
	}
	token, hash, expiry, err := NewTemporaryToken()
	if err != nil {
		return "", err
	}
	_, err = db.Exec(`
UPDATE users
SET email_verification_token = $2, email_verification_expiry = $3, updated_at = $4
WHERE id = $1
`, user.ID, hash, expiry, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return token, nil
}

// IssuePasswordReset rotates the password reset token and returns the
// plaintext for delivery.
func IssuePasswordReset(db *sqlx.DB, user models.User) (string, error) {
	token, hash, expiry, err := NewTemporaryToken()
	if err != nil {
		return "", err
	}
	_, err = db.Exec(`
UPDATE users
SET forgot_password_token = $2, forgot_password_expiry = $3, updated_at = $4
WHERE id = $1
`, user.ID, hash, expiry, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a reset token and replaces the password. The
// active refresh token is revoked so old sessions cannot continue.
func ResetPassword(db sqlx.Execer, tokens TokenService, token, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrBadRequest("Password must be at least 8 characters")
	}
	passwordHash, err := tokens.HashPassword(newPassword)
	if err != nil {
		return err
	}
	result, err := db.Exec(`
UPDATE users
SET password_hash = $2,
    forgot_password_token = NULL,
    forgot_password_expiry = NULL,
    refresh_token_hash = NULL,
    updated_at = $3
WHERE forgot_password_token = $1 AND forgot_password_expiry > $3
`, HashToken(token), passwordHash, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBadRequest("Invalid or expired reset token")
	}
	return nil
}

// ChangePassword verifies the current password before replacing it, and
// revokes the active refresh token.
func ChangePassword(db *sqlx.DB, tokens TokenService, user models.User, oldPassword, newPassword string) error {
	if !tokens.VerifyPassword(oldPassword, user.PasswordHash) {
		return ErrUnauthorized("Invalid old password")
	}
	if len(newPassword) < 8 {
		return ErrBadRequest("Password must be at least 8 characters")
	}
	passwordHash, err := tokens.HashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
UPDATE users
SET password_hash = $2, refresh_token_hash = NULL, updated_at = $3
WHERE id = $1
`, user.ID, passwordHash, time.Now().UTC())
	return err
}
