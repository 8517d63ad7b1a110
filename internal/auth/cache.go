package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rodja/ChatGPT/internal/constants"
)

// cacheFile is the on-disk layout: a single JSON object mapping the
// configured email (or "default") to its bearer token.
type cacheFile struct {
	AccessTokens map[string]string `json:"access_tokens"`
}

// Cache is the on-disk access token cache. Reads tolerate a missing or
// corrupt file; writes replace the whole file.
type Cache struct {
	path string
}

// DefaultCachePath returns the per-user cache location.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", constants.AppDirName, constants.CacheFileName), nil
}

// OpenCache returns a Cache backed by the given path.
func OpenCache(path string) *Cache {
	return &Cache{path: path}
}

// Path returns the backing file path.
func (c *Cache) Path() string {
	return c.path
}

// read loads the cache file. A missing or undecodable file is treated as
// an empty cache, never an error.
func (c *Cache) read() cacheFile {
	var cached cacheFile
	data, err := os.ReadFile(c.path)
	if err == nil {
		_ = json.Unmarshal(data, &cached)
	}
	if cached.AccessTokens == nil {
		cached.AccessTokens = make(map[string]string)
	}
	return cached
}

func (c *Cache) write(cached cacheFile) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.MarshalIndent(cached, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// AccessToken returns the cached token for the given email ("" selects
// the default entry) after validity-checking its expiry claim. A missing
// entry returns ("", nil); an expired or undecodable token returns the
// corresponding sentinel error.
func (c *Cache) AccessToken(email string) (string, error) {
	key := cacheKey(email)
	token := c.read().AccessTokens[key]
	if token == "" {
		return "", nil
	}
	if err := ValidateAccessToken(token); err != nil {
		return "", err
	}
	return token, nil
}

// SaveAccessToken stores the token under the given email key, creating
// the cache directory as needed. The write is a full-file overwrite;
// concurrent processes sharing the path race last-write-wins.
func (c *Cache) SaveAccessToken(email, token string) error {
	cached := c.read()
	cached.AccessTokens[cacheKey(email)] = token
	return c.write(cached)
}

// DeleteAccessToken removes the entry for the given email key. Deleting
// a missing entry is not an error.
func (c *Cache) DeleteAccessToken(email string) error {
	cached := c.read()
	key := cacheKey(email)
	if _, ok := cached.AccessTokens[key]; !ok {
		return nil
	}
	delete(cached.AccessTokens, key)
	return c.write(cached)
}

func cacheKey(email string) string {
	if email == "" {
		return constants.DefaultCacheKey
	}
	return email
}
