package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rodja/ChatGPT/internal/constants"
)

// Credentials is the login material from the configuration.
type Credentials struct {
	Email        string
	Password     string
	SessionToken string
	Proxy        string
}

// Token is the result of a successful login: the bearer token presented
// to the API, plus an optional renewed session token for the next login.
type Token struct {
	AccessToken  string
	SessionToken string
}

// TokenSource is the opaque "obtain bearer token" capability the client
// depends on. The conversation client never inspects how a token is
// produced.
type TokenSource interface {
	Obtain(ctx context.Context) (*Token, error)
}

// SessionAuthenticator obtains an access token by presenting a renewable
// session token to the session endpoint.
type SessionAuthenticator struct {
	httpClient   *http.Client
	sessionToken string
	url          string
}

// NewSessionAuthenticator builds a TokenSource from the configured
// credentials. A session token is required: the full email+password
// browser login protocol is out of scope, so password-only credentials
// get a directive error pointing at the supported paths.
func NewSessionAuthenticator(creds Credentials) (*SessionAuthenticator, error) {
	if creds.SessionToken == "" {
		if creds.Email != "" && creds.Password != "" {
			return nil, fmt.Errorf("%w: password login is not supported, supply session_token or access_token", ErrInsufficientCredentials)
		}
		return nil, ErrInsufficientCredentials
	}

	transport := http.DefaultTransport
	if creds.Proxy != "" {
		proxyURL, err := url.Parse(creds.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", creds.Proxy, err)
		}
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	return &SessionAuthenticator{
		httpClient: &http.Client{
			Timeout:   constants.DefaultAuthTimeout,
			Transport: transport,
		},
		sessionToken: creds.SessionToken,
		url:          constants.SessionURL,
	}, nil
}

// sessionResponse is the subset of the session endpoint payload we need
type sessionResponse struct {
	AccessToken string `json:"accessToken"`
}

// Obtain exchanges the session token for an access token. When the
// server rotates the session cookie, the renewed token is returned
// alongside the access token.
func (a *SessionAuthenticator) Obtain(ctx context.Context) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: a.sessionToken})
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach session endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read session response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("session token rejected: no access token in response")
	}

	token := &Token{AccessToken: session.AccessToken, SessionToken: a.sessionToken}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == constants.SessionCookieName && cookie.Value != "" {
			token.SessionToken = cookie.Value
		}
	}

	return token, nil
}
