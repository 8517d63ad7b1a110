package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestValidateAccessTokenValid(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
		"sub": "user",
	})
	if err := ValidateAccessToken(token); err != nil {
		t.Errorf("ValidateAccessToken() error = %v, want nil", err)
	}
}

func TestValidateAccessTokenExpired(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	err := ValidateAccessToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateAccessToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestValidateAccessTokenNoExpiry(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "user"})
	if err := ValidateAccessToken(token); err != nil {
		t.Errorf("ValidateAccessToken() error = %v, want nil without exp claim", err)
	}
}

func TestValidateAccessTokenGarbage(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		err := ValidateAccessToken(token)
		if !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("ValidateAccessToken(%q) error = %v, want ErrTokenInvalid", token, err)
		}
	}
}
