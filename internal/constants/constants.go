// Package constants provides shared constants used across the application
// to avoid circular dependencies between packages.
package constants

import "time"

// Remote endpoint settings
const (
	// EnvBaseURL overrides the default API base URL
	EnvBaseURL = "CHATGPT_BASE_URL"
	// DefaultBaseURL is the reverse-proxied ChatGPT web API endpoint
	DefaultBaseURL = "https://chatgpt.duti.tech/"
	// SessionURL is the endpoint that exchanges a session token for an access token
	SessionURL = "https://chat.openai.com/api/auth/session"
	// SessionCookieName carries the renewable session token
	SessionCookieName = "__Secure-next-auth.session-token"
)

// Model identifiers requested from the remote service
const (
	ModelFree  = "text-davinci-002-render-sha"
	ModelPaid  = "text-davinci-002-render-paid"
	ModelTitle = "text-davinci-002-render"
)

// Timeout constants used across the application
const (
	// DefaultAskTimeout bounds a single streamed ask, generation included
	DefaultAskTimeout = 360 * time.Second
	// DefaultAuthTimeout is the timeout for token-exchange HTTP requests
	DefaultAuthTimeout = 30 * time.Second
)

// On-disk layout
const (
	// AppDirName is the directory under the user config dir holding our files
	AppDirName = "chatgpt"
	// CacheFileName holds the cached access tokens
	CacheFileName = "cache.json"
	// DefaultCacheKey is used when no email is configured
	DefaultCacheKey = "default"
)

// Conversation listing defaults, matching the remote API's pagination
const (
	DefaultConversationOffset = 0
	DefaultConversationLimit  = 20
)
