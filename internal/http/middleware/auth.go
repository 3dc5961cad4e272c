package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	driverIDKey = "driverID"
	roleKey     = "userRole"

	RoleDriver = "driver"
)

// DriverClaims is the token issued by POST /api/auth/login.
type DriverClaims struct {
	DriverID int64  `json:"driver_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a driver token valid for ttl from now.
func IssueToken(secret []byte, driverID int64, role string, now time.Time, ttl time.Duration) (string, error) {
	claims := DriverClaims{
		DriverID: driverID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", driverID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates signature, algorithm and expiry.
func ParseToken(secret []byte, raw string) (DriverClaims, error) {
	var claims DriverClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return DriverClaims{}, err
	}
	if claims.DriverID <= 0 {
		return DriverClaims{}, errors.New("token has no driver_id")
	}
	return claims, nil
}

// DriverAuth requires a valid bearer token and stores the driver id and role
// on the context.
func DriverAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "missing bearer token",
				"code":       "unauthorized",
				"request_id": GetRequestID(c),
			})
			return
		}

		claims, err := ParseToken(secret, strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "invalid token",
				"code":       "unauthorized",
				"request_id": GetRequestID(c),
			})
			return
		}

		c.Set(driverIDKey, claims.DriverID)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// RequireRoles allows only requests whose authenticated role is listed.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(roleKey)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized: no role on context",
				"code":  "unauthorized",
			})
			return
		}
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(role))]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "forbidden: role not allowed",
				"code":  "forbidden",
			})
			return
		}
		c.Next()
	}
}

// GetDriverID returns the authenticated driver id set by DriverAuth.
func GetDriverID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(driverIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}
