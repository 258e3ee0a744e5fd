package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Login exchanges an email and password for a credential pair.
//
// A response counts as successful only if it is 2xx, carries success=true
// and includes an access token. Failures are returned as *APIError with the
// server's message, or DefaultLoginMessage when it sent none.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	body, err := jsonBody(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/login", body, map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	})
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	if err := parseErrorResponse(resp, env, DefaultLoginMessage); err != nil {
		return nil, err
	}
	if strings.TrimSpace(env.AccessToken) == "" {
		return nil, ErrMissingAccessToken
	}

	return env, nil
}

// Refresh exchanges the current credential pair for a new access token.
// The response may omit refresh_token; callers keep their existing one then.
func (c *SDKClient) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenResponse, error) {
	if strings.TrimSpace(accessToken) == "" || strings.TrimSpace(refreshToken) == "" {
		return nil, ErrMissingCredentials
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/refresh", nil, map[string]string{
		"Content-Type":    "application/json",
		"Accept":          "application/json",
		"Authorization":   "Bearer " + accessToken,
		c.refreshHeader(): refreshToken,
	})
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	if err := parseErrorResponse(resp, env, fmt.Sprintf("refresh failed (HTTP %d)", resp.StatusCode)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(env.AccessToken) == "" {
		return nil, ErrMissingAccessToken
	}

	return env, nil
}
