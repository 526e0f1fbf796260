package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskdo/internal/models"
)

// ErrUnauthorized is returned when the backend rejects the session token.
var ErrUnauthorized = errors.New("unauthorized")

const defaultTimeout = 30 * time.Second

// Client talks to a GoTrue-style auth backend over JSON. It issues magic
// links, verifies the one-time token, and resolves a session token to a
// user identity.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Session is the cookie-worthy result of a verified one-time token.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
}

// NewClient constructs an auth client for the given backend.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SignInWithOTP asks the backend to email a magic link to the address.
func (c *Client) SignInWithOTP(ctx context.Context, email string) error {
	body := map[string]any{"email": email, "create_user": true}
	return c.do(ctx, http.MethodPost, "/otp", "", body, nil)
}

// VerifyOTP exchanges the emailed token hash for a session.
func (c *Client) VerifyOTP(ctx context.Context, tokenHash, otpType string) (Session, error) {
	body := map[string]any{"token_hash": tokenHash, "type": otpType}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/verify", "", body, &session); err != nil {
		return Session{}, err
	}
	if session.AccessToken == "" {
		return Session{}, fmt.Errorf("verify: backend returned no access token")
	}
	return session, nil
}

// GetUser resolves an access token to the signed-in user.
func (c *Client) GetUser(ctx context.Context, accessToken string) (models.User, error) {
	if accessToken == "" {
		return models.User{}, ErrUnauthorized
	}
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SignOut revokes the session on the backend. Best effort; the cookie is
// cleared regardless.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("auth backend status %d", resp.StatusCode)
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, msg := range []string{body.Msg, body.Message, body.ErrorDescription} {
			if msg != "" {
				return errors.New(msg)
			}
		}
	}
	return fmt.Errorf("auth backend status %d", resp.StatusCode)
}

// IsUnavailable reports whether the error looks like the auth backend being
// paused or unreachable. Matching message substrings is fragile but the
// backend exposes no structured code for this state.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"paused",
		"project is inactive",
		"project is paused",
		"connection refused",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
