// Package apikey gates routes behind a shared X-API-Key header.
package apikey

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Header carries the client key.
const Header = "X-API-Key"

// Verifier checks a presented key against the configured secret.
// Exactly one of Key (plaintext) or Hash (bcrypt) is normally set; Hash wins when both are.
type Verifier struct {
	Key  string
	Hash string
}

// Configured reports whether any secret is set. An unconfigured Verifier rejects every key.
func (v Verifier) Configured() bool {
	return v.Key != "" || v.Hash != ""
}

// Verify reports whether presented matches the configured secret.
func (v Verifier) Verify(presented string) bool {
	if presented == "" {
		return false
	}
	if v.Hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(v.Hash), []byte(presented)) == nil
	}
	if v.Key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(v.Key), []byte(presented)) == 1
}

// Required returns a Gin middleware that admits requests whose X-API-Key
// header matches. OPTIONS requests pass untouched so CORS preflights work.
func Required(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if !v.Verify(strings.TrimSpace(c.GetHeader(Header))) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// HashKey returns the bcrypt hash to store in API_KEY_HASH.
func HashKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("api key is empty")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
