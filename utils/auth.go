// utils/auth.go
package utils

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"leadflow-backend/apperr"
	"leadflow-backend/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWTSecret returns a random secret suitable for JWT_SECRET.
func GenerateJWTSecret() string {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("failed to generate JWT secret")
	}
	return base64.StdEncoding.EncodeToString(key)
}

// GenerateToken mints an API bearer token for subject (a CRM service or
// operator name).
func GenerateToken(subject, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT_SECRET not set")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	})

	return token.SignedString([]byte(secret))
}

// AuthMiddleware rejects requests without a valid HS256 bearer token.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			RespondWithAppError(c, apperr.Unauthorized("Authorization header required"))
			return
		}

		if len(tokenString) > 7 && strings.ToUpper(tokenString[0:6]) == "BEARER" {
			tokenString = tokenString[7:]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			RespondWithAppError(c, apperr.Unauthorized("Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			RespondWithAppError(c, apperr.Unauthorized("Invalid token claims"))
			return
		}

		subject, _ := claims["sub"].(string)
		c.Set("subject", subject)
		c.Request = c.Request.WithContext(
			contextWithSubject(c, subject),
		)

		c.Next()
	}
}

func contextWithSubject(c *gin.Context, subject string) context.Context {
	return context.WithValue(c.Request.Context(), logger.SubjectKey, subject)
}
