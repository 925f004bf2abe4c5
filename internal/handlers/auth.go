package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aryan-vats/tubescribe-backend/internal/auth"
	"github.com/aryan-vats/tubescribe-backend/internal/middleware"
	"github.com/aryan-vats/tubescribe-backend/internal/models"
	"github.com/aryan-vats/tubescribe-backend/internal/storage"
	"github.com/aryan-vats/tubescribe-backend/pkg/utils"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateUsername(req.Username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	// Stored lowercase, like the email, so login lookups match regardless of
	// the case the user typed.
	user := &models.User{
		Username:     utils.NormalizeIdentifier(req.Username),
		Email:        utils.NormalizeIdentifier(req.Email),
		PasswordHash: hashed,
		IsActive:     true,
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "User with this email or username already exists")
			return
		}
		h.logger.Error("create user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "User created successfully",
		User:    user.Public(),
	})
}

// Login verifies credentials, issues a JWT, and opens a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.users.FindByLogin(r.Context(), utils.NormalizeIdentifier(identifier))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.logger.Error("find user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusForbidden, "Account is deactivated")
		return
	}

	userID := user.ID.Hex()
	token, err := auth.GenerateToken(userID, []byte(h.cfg.JWTSecret), auth.TokenDuration)
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	sessionToken, err := h.sessions.Create(r.Context(), userID)
	if err != nil {
		h.logger.Error("create session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	h.setSessionCookie(w, sessionToken, 7*24*time.Hour)

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Login successful",
		User:    user.Public(),
		Token:   token,
	})
}

// Logout invalidates the caller's session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Invalidate(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("invalidate session", zap.Error(err))
		}
	} else if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		// JWT-only callers still get their server-side session revoked. The
		// route is unauthenticated, so the token is resolved here.
		if userID, err := auth.UserIDFromToken(token, []byte(h.cfg.JWTSecret)); err == nil {
			if err := h.sessions.InvalidateUser(r.Context(), userID); err != nil {
				h.logger.Warn("invalidate user session", zap.Error(err))
			}
		}
	}
	h.setSessionCookie(w, "", -time.Hour)

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Logged out"})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("find user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, User: user.Public()})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}
