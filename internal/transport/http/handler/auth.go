package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-auth-api/internal/application/auth"
	"github.com/go-auth-api/internal/application/otp"
	"github.com/go-auth-api/internal/domain"
	"github.com/go-auth-api/internal/pkg/validate"
	"github.com/go-auth-api/internal/transport/http/middleware"
)

const refreshCookieName = "refreshToken"

type revoker interface {
	Revoke(token string)
}

// AuthHandler handles registration, login, verification, password flows and
// token lifecycle endpoints.
type AuthHandler struct {
	svc           auth.Service
	revocations   revoker
	refreshTTL    time.Duration
	secureCookies bool
}

type AuthHandlerDeps struct {
	Service       auth.Service
	Revocations   revoker
	RefreshTTL    time.Duration
	SecureCookies bool
}

func NewAuthHandler(deps AuthHandlerDeps) *AuthHandler {
	return &AuthHandler{
		svc:           deps.Service,
		revocations:   deps.Revocations,
		refreshTTL:    deps.RefreshTTL,
		secureCookies: deps.SecureCookies,
	}
}

type authData struct {
	User         *domain.User `json:"user,omitempty"`
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setRefreshCookie(w, res.RefreshToken)
	writeData(w, http.StatusCreated, "account created", authData{
		User:         res.User,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.RequiresVerification {
		writeData(w, http.StatusOK, "verification code sent", map[string]interface{}{
			"id":                    res.User.UserID,
			"requires_verification": true,
		})
		return
	}
	h.setRefreshCookie(w, res.RefreshToken)
	writeData(w, http.StatusOK, "logged in", authData{
		User:         res.User,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}
	res, err := h.svc.AdminLogin(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "logged in", authData{
		User:        res.User,
		AccessToken: res.AccessToken,
	})
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"id_token" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}
	res, err := h.svc.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setRefreshCookie(w, res.RefreshToken)
	writeData(w, http.StatusOK, "logged in", authData{
		User:         res.User,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID  string `json:"id" validate:"required"`
		OTP string `json:"otp" validate:"required,len=4,numeric"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}
	res, err := h.svc.VerifyEmail(r.Context(), req.ID, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setRefreshCookie(w, res.RefreshToken)
	writeData(w, http.StatusOK, "email verified", authData{
		User:         res.User,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string `json:"id" validate:"required"`
		Channel string `json:"channel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}
	channel := otp.ChannelEmail
	if req.Channel == string(otp.ChannelSMS) {
		channel = otp.ChannelSMS
	}
	if err := h.svc.ResendOTP(r.Context(), req.ID, channel); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "verification code sent", nil)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}
	userID, err := h.svc.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "recovery code sent", map[string]string{"id": userID})
}

func (h *AuthHandler) VerifyResetOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID  string `json:"id" validate:"required"`
		OTP string `json:"otp" validate:"required,len=4,numeric"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}
	resetToken, err := h.svc.VerifyResetOTP(r.Context(), req.ID, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "code verified", map[string]string{"reset_token": resetToken})
}

// ResetPassword completes the recovery flow. The subject comes from the
// reset-class token the gate verified, never from the body.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	var req struct {
		NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.svc.ResetPassword(r.Context(), ac.Claims.UserID, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "password reset", nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.svc.ChangePassword(r.Context(), ac.Claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "password changed", nil)
}

// Refresh rotates the token pair. The refresh token is read from the body
// first, falling back to the http-only cookie set at login.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	token := req.RefreshToken
	if token == "" {
		if c, err := r.Cookie(refreshCookieName); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		writeError(w, fmt.Errorf("missing refresh token: %w", domain.ErrUnauthorized))
		return
	}
	pair, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setRefreshCookie(w, pair.RefreshToken)
	writeData(w, http.StatusOK, "tokens refreshed", authData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the presented access token until its natural expiry and
// clears the refresh cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := middleware.FromContext(r.Context()); ok && ac != nil {
		// The gate already validated the header shape.
		token := r.Header.Get("Authorization")
		if len(token) > len("Bearer ") {
			h.revocations.Revoke(token[len("Bearer "):])
		}
	}
	h.clearRefreshCookie(w)
	writeData(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, fmt.Errorf("missing credentials: %w", domain.ErrUnauthorized))
		return
	}
	if err := h.svc.DeleteAccount(r.Context(), ac.User.Email); err != nil {
		writeError(w, err)
		return
	}
	token := r.Header.Get("Authorization")
	if len(token) > len("Bearer ") {
		h.revocations.Revoke(token[len("Bearer "):])
	}
	h.clearRefreshCookie(w)
	writeData(w, http.StatusOK, "account deleted", nil)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	if token == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
