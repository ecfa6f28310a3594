package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/knowledgevault-api/internal/models"
	appErrors "github.com/noah-isme/knowledgevault-api/pkg/errors"
	"github.com/noah-isme/knowledgevault-api/pkg/response"
)

// ContextCallerKey is the gin context key storing the request caller.
const ContextCallerKey = "caller"

const tokenCookie = "token"

// TokenConfig controls how forwarded client tokens are read.
type TokenConfig struct {
	// JWTSecret enables HS256 parsing of the token to recover its subject.
	// Tokens that fail to parse are still forwarded, just without a subject.
	JWTSecret string
}

// Token attaches the caller to both the gin context and the request context.
// It never rejects a request; see RequireToken.
func Token(cfg TokenConfig) gin.HandlerFunc {
	var parser *jwt.Parser
	if cfg.JWTSecret != "" {
		parser = jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	}
	secret := []byte(cfg.JWTSecret)

	return func(c *gin.Context) {
		caller := &models.Caller{
			Token:     extractToken(c),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if parser != nil && caller.Token != "" {
			claims := &models.TokenClaims{}
			_, err := parser.ParseWithClaims(caller.Token, claims, func(*jwt.Token) (interface{}, error) {
				return secret, nil
			})
			if err == nil {
				caller.Subject = claims.Subject
			}
		}

		c.Set(ContextCallerKey, caller)
		c.Request = c.Request.WithContext(models.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

// RequireToken rejects requests that arrive without a client token.
func RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerFromGin(c).Authenticated() {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing client token"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CallerFromGin returns the caller set by Token, or nil.
func CallerFromGin(c *gin.Context) *models.Caller {
	value, exists := c.Get(ContextCallerKey)
	if !exists {
		return nil
	}
	caller, _ := value.(*models.Caller)
	return caller
}

func extractToken(c *gin.Context) string {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return header
	}
	if cookie, err := c.Cookie(tokenCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}
