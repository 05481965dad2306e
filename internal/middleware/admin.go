package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AdminScope is the token scope that grants access to weight mutation.
const AdminScope = "weights:admin"

// OperatorClaims are carried by short-lived operator tokens signed with the
// admin API key.
type OperatorClaims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// AdminMiddleware guards endpoints that change shared state.
type AdminMiddleware struct {
	apiKey []byte
}

// NewAdminMiddleware with an empty key leaves the guarded routes open,
// which is only accepted outside production.
func NewAdminMiddleware(apiKey string) *AdminMiddleware {
	return &AdminMiddleware{apiKey: []byte(apiKey)}
}

func (am *AdminMiddleware) Enabled() bool {
	return len(am.apiKey) > 0
}

// RequireAdminAuth accepts the raw key in X-API-Key or as a bearer token, or
// a bearer operator token that carries AdminScope.
func (am *AdminMiddleware) RequireAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !am.Enabled() {
			c.Next()
			return
		}

		if key := c.GetHeader("X-API-Key"); key != "" && am.ValidateAdminKey(key) {
			c.Next()
			return
		}

		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if am.ValidateAdminKey(token) {
				c.Next()
				return
			}
			claims, err := am.ValidateToken(token)
			if err == nil && slices.Contains(claims.Scopes, AdminScope) {
				c.Set("operator", claims.Subject)
				c.Next()
				return
			}
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "Unauthorized",
			"message": "Valid admin API key required for this endpoint",
		})
	}
}

// ValidateAdminKey compares in constant time.
func (am *AdminMiddleware) ValidateAdminKey(key string) bool {
	return am.Enabled() && subtle.ConstantTimeCompare([]byte(key), am.apiKey) == 1
}

// GenerateToken issues an HS256 operator token for subject.
func (am *AdminMiddleware) GenerateToken(subject string, scopes []string, duration time.Duration) (string, error) {
	if !am.Enabled() {
		return "", errors.New("admin API key is not configured")
	}
	now := time.Now()
	claims := &OperatorClaims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(am.apiKey)
}

func (am *AdminMiddleware) ValidateToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return am.apiKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*OperatorClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// bearerToken matches the scheme case-insensitively, as RFC 6750 allows.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}
