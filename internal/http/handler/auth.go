package handler

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"coursesynth.app/api/core/config"
	"coursesynth.app/api/internal/http/dto"
	"coursesynth.app/api/internal/http/middleware"
	"coursesynth.app/api/internal/service"
	"github.com/gin-gonic/gin"
)

const refreshCookiePath = "/api/auth/refresh"

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	auth     *service.AuthService
	cookies  config.CookieConfig
	jwtCfg   config.JWTConfig
	frontend string
}

func NewAuthHandler(auth *service.AuthService, cookies config.CookieConfig, jwtCfg config.JWTConfig, frontendURL string) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies, jwtCfg: jwtCfg, frontend: frontendURL}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := h.auth.SignUp(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	_, tokens, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.setAuthCookies(c, tokens)
	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, tokens, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	h.setAuthCookies(c, tokens)
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if userID, ok := middleware.UserID(c); ok {
		if refresh, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
			if err := h.auth.Logout(ctx, userID, refresh); err != nil {
				slog.WarnContext(ctx, "logout: failed to revoke session", "error", err, "user_id", userID)
			}
		}
	}

	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || refresh == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
		return
	}

	_, tokens, err := h.auth.Refresh(c.Request.Context(), refresh)
	if err != nil {
		h.clearAuthCookies(c)
		writeServiceError(c, err)
		return
	}

	h.setAuthCookies(c, tokens)
	c.JSON(http.StatusOK, gin.H{"message": "refreshed"})
}

func (h *AuthHandler) OAuthLogin(c *gin.Context) {
	provider := c.Param("provider")
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate login"})
		return
	}

	authURL, err := h.auth.GetAuthorizationURL(provider, state)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.SetCookie(oauthStateCookie, state, 600, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	ctx := c.Request.Context()
	provider := c.Param("provider")

	state := c.Query("state")
	storedState, err := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
	if err != nil || state == "" || state != storedState {
		c.Redirect(http.StatusTemporaryRedirect, h.frontend+"?auth_error=invalid_state")
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, h.frontend+"?auth_error=no_code")
		return
	}

	_, tokens, err := h.auth.HandleCallback(ctx, provider, code)
	if err != nil {
		slog.WarnContext(ctx, "oauth callback failed", "provider", provider, "error", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontend+"?auth_error=callback_failed")
		return
	}

	h.setAuthCookies(c, tokens)
	c.Redirect(http.StatusFound, h.frontend)
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, tokens *service.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokens.AccessToken, int(h.jwtCfg.AccessTTL.Seconds()), "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, tokens.RefreshToken, int(h.jwtCfg.RefreshTTL.Seconds()), refreshCookiePath, h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, refreshCookiePath, h.cookies.Domain, h.cookies.Secure, true)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
