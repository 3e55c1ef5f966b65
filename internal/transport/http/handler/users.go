package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/classifieds-api/internal/application/account"
	"github.com/classifieds-api/internal/application/session"
	"github.com/classifieds-api/internal/domain"
	"github.com/classifieds-api/internal/pkg/validate"
	"github.com/classifieds-api/internal/transport/http/middleware"
)

const maxAvatarBytes = 5 << 20

// UserHandler handles the local signup/verify/login surface and the gated
// profile endpoints.
type UserHandler struct {
	accounts     account.Service
	sessions     session.Service
	cookieName   string
	cookieMaxAge time.Duration
}

func NewUserHandler(accounts account.Service, sessions session.Service, cookieName string, cookieMaxAge time.Duration) *UserHandler {
	return &UserHandler{
		accounts:     accounts,
		sessions:     sessions,
		cookieName:   cookieName,
		cookieMaxAge: cookieMaxAge,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, false, "invalid request body")
		return
	}
	if errs := validate.Struct(req); errs != nil {
		writeValidation(w, errs)
		return
	}
	err := h.accounts.Signup(r.Context(), req)
	switch {
	case err == nil:
		writeStatus(w, http.StatusOK, true, msgCheckEmail)
	case errors.Is(err, domain.ErrConflict):
		// Recoverable outcome, not an HTTP failure.
		writeStatus(w, http.StatusOK, false, msgUserExists)
	default:
		writeInternal(w)
	}
}

func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, false, "invalid request body")
		return
	}
	if req.Email == "" {
		writeStatus(w, http.StatusBadRequest, false, msgProvideEmail)
		return
	}
	if req.Code == "" {
		writeStatus(w, http.StatusBadRequest, false, msgProvideCode)
		return
	}
	alreadyVerified, err := h.accounts.Verify(r.Context(), req.Email, req.Code)
	switch {
	case err == nil && alreadyVerified:
		writeStatus(w, http.StatusOK, true, msgAlreadyVerified)
	case err == nil:
		writeStatus(w, http.StatusOK, true, msgVerified)
	case errors.Is(err, domain.ErrNotFound):
		writeStatus(w, http.StatusOK, false, msgUserNotFound)
	case errors.Is(err, domain.ErrUnauthorized):
		writeStatus(w, http.StatusBadRequest, false, msgInvalidCode)
	default:
		writeInternal(w)
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, false, "invalid request body")
		return
	}
	if errs := validate.Struct(req); errs != nil {
		writeValidation(w, errs)
		return
	}
	token, _, err := h.sessions.Login(r.Context(), req)
	switch {
	case err == nil:
		// Explicit supersede: at most one session artifact per browser context.
		h.clearSessionCookie(w)
		h.setSessionCookie(w, token)
		writeStatus(w, http.StatusOK, true, msgLoginSuccess)
	case errors.Is(err, domain.ErrNotFound):
		writeStatus(w, http.StatusOK, false, msgUserNotExists)
	case errors.Is(err, domain.ErrForbidden):
		writeStatus(w, http.StatusOK, false, msgNotVerified)
	case errors.Is(err, domain.ErrUnauthorized):
		writeStatus(w, http.StatusOK, false, msgWrongPassword)
	default:
		writeInternal(w)
	}
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeStatus(w, http.StatusOK, true, msgLoggedOut)
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized, false, "unauthorized")
		return
	}
	a, err := h.accounts.Profile(r.Context(), claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeStatus(w, http.StatusNotFound, false, msgUserNotFound)
			return
		}
		writeInternal(w)
		return
	}
	// Secret fields are excluded by the Account JSON tags.
	writeJSON(w, http.StatusOK, a)
}

func (h *UserHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized, false, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeStatus(w, http.StatusBadRequest, false, "avatar file is required")
		return
	}
	defer file.Close()

	a, err := h.accounts.UpdateAvatar(r.Context(), claims.AccountID, header.Filename, file)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeStatus(w, http.StatusNotFound, false, msgUserNotFound)
			return
		}
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *UserHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *UserHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   h.cookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
