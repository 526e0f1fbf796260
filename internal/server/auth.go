package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"taskdo/internal/auth"
)

const unavailableMessage = "The authentication service is temporarily unavailable because the project is paused for inactivity. Please contact the developer so they can resolve this"

// Sessions outlive the access token server-side; the cookie falls back to a
// week when the backend reports no expiry.
const fallbackSessionSeconds = 7 * 24 * 60 * 60

type loginRequest struct {
	Email string `json:"email"`
}

// handleLogin asks the auth backend to email a magic link.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("Email is required"))
		return
	}

	if err := s.auth.SignInWithOTP(c.Request.Context(), req.Email); err != nil {
		if auth.IsUnavailable(err) {
			s.respondError(c, http.StatusServiceUnavailable, fmt.Errorf("%s", unavailableMessage))
			return
		}
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// handleConfirm verifies the emailed one-time token and establishes the
// session cookie.
func (s *Server) handleConfirm(c *gin.Context) {
	tokenHash := c.Query("token_hash")
	otpType := c.Query("type")
	next := c.Query("next")

	if tokenHash == "" || otpType == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("Missing token_hash or type"))
		return
	}

	session, err := s.auth.VerifyOTP(c.Request.Context(), tokenHash, otpType)
	if err != nil {
		c.Redirect(http.StatusFound, s.baseURL+"/login?error="+url.QueryEscape(err.Error()))
		return
	}

	maxAge := session.ExpiresIn
	if maxAge <= 0 {
		maxAge = fallbackSessionSeconds
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, session.AccessToken, maxAge, "/", "", false, true)

	target := next
	if target == "" {
		target = s.baseURL
	}
	c.Redirect(http.StatusFound, target)
}

// handleLogout revokes the session on the backend, clears the cookie, and
// sends the user back to the login page.
func (s *Server) handleLogout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		if err := s.auth.SignOut(c.Request.Context(), token); err != nil {
			s.logger.Warn("sign out failed", "error", err.Error())
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/login")
}
