package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"studyhive-backend-go/internal/models"
	"studyhive-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const refreshCookieName = "refreshToken"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserDTO struct {
	UserID          string    `json:"userId"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

func userDTO(user models.User) UserDTO {
	return UserDTO{
		UserID:          user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		IsEmailVerified: user.IsEmailVerified,
		CreatedAt:       user.CreatedAt,
	}
}

type TokenResponse struct {
	User         *UserDTO `json:"user,omitempty"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresAt    int64    `json:"expiresAt"`
}

func (s *Server) secureCookies() bool {
	return strings.HasPrefix(s.Config.PublicBaseURL, "https://")
}

func (s *Server) setAuthCookies(w http.ResponseWriter, pair services.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(s.Config.AccessTTLSeconds),
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(s.Config.RefreshTTLSeconds),
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secureCookies(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// sendMail delivers best effort in the background; a failed send is
// logged and never fails the request that triggered it.
func (s *Server) sendMail(msg services.EmailMessage) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.Mail.Send(ctx, msg); err != nil {
			s.Log.Error("mail delivery failed",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err))
		}
	}()
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleLearner
	}
	user, verifyToken, err := services.RegisterUser(s.DB, s.Tokens, req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	s.sendMail(services.VerificationEmail(s.Config.PublicBaseURL, user.Email, user.Name, verifyToken))
	WriteData(w, http.StatusCreated, "User registered successfully. Please verify your email.", map[string]string{
		"userId": user.ID,
		"email":  user.Email,
	})
}

func (s *Server) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := services.VerifyEmail(s.DB, token); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteMessage(w, http.StatusOK, "Email verified successfully")
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	user, err := services.Authenticate(s.DB, s.Tokens, req.Email, req.Password)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	pair, err := s.Sessions.Login(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	s.setAuthCookies(w, pair)
	dto := userDTO(user)
	WriteData(w, http.StatusOK, "Login successful", TokenResponse{
		User:         &dto,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

// RefreshToken rotates the refresh token. The presented token comes
// from the httpOnly cookie or, failing that, the request body.
func (s *Server) RefreshToken(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		presented = req.RefreshToken
	}
	if presented == "" {
		WriteError(w, http.StatusUnauthorized, "Refresh token is required")
		return
	}
	_, pair, err := s.Sessions.Refresh(presented, func(userID string) (string, string, string, error) {
		user, err := services.UserByID(s.DB, userID)
		if err != nil {
			return "", "", "", err
		}
		return user.Email, user.Name, user.Role, nil
	})
	if err != nil {
		s.clearAuthCookies(w)
		WriteServiceError(w, err)
		return
	}
	s.setAuthCookies(w, pair)
	WriteData(w, http.StatusOK, "Token refreshed", TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

// ResendEmailVerification answers identically whether or not the email
// maps to an account, to avoid confirming registered addresses.
func (s *Server) ResendEmailVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}
	generic := "If an account exists for this email, a verification link has been sent"
	user, err := services.UserByEmail(s.DB, req.Email)
	if err != nil {
		WriteMessage(w, http.StatusOK, generic)
		return
	}
	token, err := services.IssueEmailVerification(s.DB, user)
	if err != nil {
		WriteMessage(w, http.StatusOK, generic)
		return
	}
	s.sendMail(services.VerificationEmail(s.Config.PublicBaseURL, user.Email, user.Name, token))
	WriteMessage(w, http.StatusOK, generic)
}

// ForgotPassword mirrors ResendEmailVerification's anti-enumeration
// behavior.
func (s *Server) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}
	generic := "If an account exists for this email, a password reset link has been sent"
	user, err := services.UserByEmail(s.DB, req.Email)
	if err != nil {
		WriteMessage(w, http.StatusOK, generic)
		return
	}
	token, err := services.IssuePasswordReset(s.DB, user)
	if err != nil {
		WriteMessage(w, http.StatusOK, generic)
		return
	}
	s.sendMail(services.PasswordResetEmail(s.Config.ForgotPasswordURL, user.Email, user.Name, token))
	WriteMessage(w, http.StatusOK, generic)
}

func (s *Server) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := services.ResetPassword(s.DB, s.Tokens, token, req.NewPassword); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteMessage(w, http.StatusOK, "Password reset successfully. Please log in again.")
}

func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	user, err := services.UserByID(s.DB, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if err := services.ChangePassword(s.DB, s.Tokens, user, req.OldPassword, req.NewPassword); err != nil {
		WriteServiceError(w, err)
		return
	}
	s.clearAuthCookies(w)
	WriteMessage(w, http.StatusOK, "Password changed successfully. Please log in again.")
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Logout(CurrentUserID(r)); err != nil {
		WriteServiceError(w, err)
		return
	}
	s.clearAuthCookies(w)
	WriteMessage(w, http.StatusOK, "Logged out successfully")
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	user, err := services.UserByID(s.DB, CurrentUserID(r))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteData(w, http.StatusOK, "Current user", userDTO(user))
}
