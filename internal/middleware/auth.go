package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := parseBearer(c, secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

// OptionalAuth attaches the user identity when a valid token is present
// and lets the request through anonymously otherwise. Checkout uses it so
// guests and signed-in shoppers share one endpoint.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, role, ok := parseBearer(c, secret); ok {
			c.Set("userID", userID)
			c.Set("userRole", role)
		}
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, secret string) (uuid.UUID, string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return uuid.Nil, "", false
	}

	token, err := jwt.Parse(header[7:], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", false
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", false
	}

	role, _ := claims["role"].(string)
	return userID, role, true
}

func GetUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get("userID")
	uid, _ := id.(uuid.UUID)
	return uid
}

// GetUserIDPtr returns nil when the request is anonymous.
func GetUserIDPtr(c *gin.Context) *uuid.UUID {
	id, ok := c.Get("userID")
	if !ok {
		return nil
	}
	uid, ok := id.(uuid.UUID)
	if !ok || uid == uuid.Nil {
		return nil
	}
	return &uid
}

func GetUserRole(c *gin.Context) string {
	role, _ := c.Get("userRole")
	r, _ := role.(string)
	return r
}
