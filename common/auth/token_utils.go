package auth

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

const TokenTypeAccess = "access"

var (
	mu        sync.RWMutex
	secretKey []byte
)

func init() {
	_ = godotenv.Load()
	Configure(os.Getenv("JWT_SECRET"))
}

// Configure replaces the HMAC secret used to sign and verify tokens.
func Configure(secret string) {
	mu.Lock()
	defer mu.Unlock()
	secret = strings.TrimSpace(secret)
	if secret == "" {
		secretKey = nil
		return
	}
	secretKey = []byte(secret)
}

func currentSecret() []byte {
	mu.RLock()
	defer mu.RUnlock()
	return secretKey
}

// GenerateAccessToken issues a signed HS256 access token.
func GenerateAccessToken(userID, email, role string, ttl time.Duration) (string, error) {
	key := currentSecret()
	if key == nil {
		return "", fmt.Errorf("JWT secret not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"typ":   TokenTypeAccess,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParseAndValidateToken parses a JWT token string and returns its claims.
// If expectedType is non-empty, the claim "typ" must match it.
func ParseAndValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error) {
	key := currentSecret()
	if key == nil {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if expectedType != "" {
		if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}
	return claims, nil
}
