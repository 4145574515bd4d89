// leaderboard/auth/tokens.go
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// algorithm, expired, or malformed claims. Callers get no finer detail.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified identity carried by a login token.
type Claims struct {
	UserID   string
	Username string
}

// TokenManager issues and verifies HS256-signed, time-limited login tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager signing with the given secret and
// issuing tokens valid for ttl.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a token for the given user.
func (tm *TokenManager) Issue(userID, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId":   userID,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(tm.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Verify parses and validates a token, returning its claims.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		// Pin the algorithm family; a token claiming any other method is
		// rejected before signature checking.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, ok1 := claims["userId"].(string)
	username, ok2 := claims["username"].(string)
	if !ok1 || !ok2 {
		return nil, ErrInvalidToken
	}
	return &Claims{UserID: userID, Username: username}, nil
}

// ExtractBearer pulls the token out of an Authorization header value,
// tolerating a missing "Bearer" prefix and surrounding whitespace.
func ExtractBearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		header = strings.TrimSpace(header[7:])
	}
	return header
}
