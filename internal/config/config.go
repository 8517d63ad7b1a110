// Package config loads and validates the client configuration from the
// well-known config file locations, environment, and CLI flags.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rodja/ChatGPT/internal/constants"
)

// Errors
var (
	ErrInsufficientLogin = errors.New("insufficient login details provided: set access_token, session_token, or email and password")
	ErrNoConfigFile      = errors.New("no config file found")
)

// Config holds the application configuration. The JSON/YAML tags are the
// recognized config-file keys.
type Config struct {
	Email        string `json:"email,omitempty" yaml:"email,omitempty"`
	Password     string `json:"password,omitempty" yaml:"password,omitempty"`
	SessionToken string `json:"session_token,omitempty" yaml:"session_token,omitempty"`
	AccessToken  string `json:"access_token,omitempty" yaml:"access_token,omitempty"`

	// Paid selects the paid-tier model identifier on outgoing requests
	Paid bool `json:"paid,omitempty" yaml:"paid,omitempty"`

	// Proxy is applied to every outgoing HTTP request when set
	Proxy string `json:"proxy,omitempty" yaml:"proxy,omitempty"`

	// ConversationID and ParentID seed the conversation tracker so an
	// existing thread can be continued across process restarts
	ConversationID string `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	ParentID       string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`

	// BaseURL overrides the default endpoint; the CHATGPT_BASE_URL
	// environment variable takes precedence over both
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// TimeoutSeconds bounds a single streamed ask
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// NewConfig creates an empty Config
func NewConfig() *Config {
	return &Config{}
}

// Validate checks that at least one usable credential is configured.
func (c *Config) Validate() error {
	if c.AccessToken != "" || c.SessionToken != "" {
		return nil
	}
	if c.Email != "" && c.Password != "" {
		return nil
	}
	return ErrInsufficientLogin
}

// ResolvedBaseURL returns the effective API base URL, always with a
// trailing slash so paths can be appended directly.
func (c *Config) ResolvedBaseURL() string {
	base := os.Getenv(constants.EnvBaseURL)
	if base == "" {
		base = c.BaseURL
	}
	if base == "" {
		base = constants.DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// AskTimeout returns the per-request timeout for streamed asks.
func (c *Config) AskTimeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return constants.DefaultAskTimeout
}

// Redacted returns a copy safe for display: credential values are masked
// but presence is still visible.
func (c *Config) Redacted() *Config {
	out := *c
	out.Password = mask(c.Password)
	out.SessionToken = mask(c.SessionToken)
	out.AccessToken = mask(c.AccessToken)
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
