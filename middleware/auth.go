package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-service/common/auth"
	apperrors "storefront-service/common/errors"
	"storefront-service/models"
)

const IdentityContextKey = "identity"

// identityFromRequest resolves the bearer token, if any. The second return
// reports whether a token was presented at all.
func identityFromRequest(c *gin.Context) (*models.Identity, bool, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false, nil
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" || token == header {
		return nil, true, apperrors.ErrInvalidToken
	}

	claims, err := auth.ParseAndValidateToken(token, auth.TokenTypeAccess)
	if err != nil {
		return nil, true, apperrors.ErrInvalidToken.Wrap(err)
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, true, apperrors.ErrInvalidToken.Wrap(err)
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return &models.Identity{UserID: userID, Email: email, Role: role}, true, nil
}

// OptionalAuth attaches the caller's identity when a valid token is sent.
// Missing or invalid tokens leave the request anonymous.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, _, err := identityFromRequest(c); err == nil && id != nil {
			c.Set(IdentityContextKey, id)
		}
		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, presented, err := identityFromRequest(c)
		if !presented {
			apperrors.Abort(c, apperrors.ErrMissingToken)
			return
		}
		if err != nil {
			apperrors.Abort(c, err)
			return
		}
		c.Set(IdentityContextKey, id)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).IsAdmin() {
			apperrors.Abort(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// GetIdentity returns the authenticated caller or nil.
func GetIdentity(c *gin.Context) *models.Identity {
	if val, ok := c.Get(IdentityContextKey); ok {
		if id, ok := val.(*models.Identity); ok {
			return id
		}
	}
	return nil
}
