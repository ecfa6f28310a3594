package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/knowledgevault-api/internal/models"
)

func callerRouter(cfg TokenConfig, captured **models.Caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Token(cfg))
	r.GET("/", func(c *gin.Context) {
		*captured = models.CallerFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})
	r.POST("/", RequireToken(), func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func signed(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestTokenReadsHeaderVariants(t *testing.T) {
	var caller *models.Caller
	r := callerRouter(TokenConfig{}, &caller)

	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer  xyz": "xyz",
		"opaque-123":  "opaque-123",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		req.Header.Set("User-Agent", "vault-test")
		r.ServeHTTP(httptest.NewRecorder(), req)
		require.NotNil(t, caller)
		assert.Equal(t, want, caller.Token, header)
		assert.Equal(t, "vault-test", caller.UserAgent)
		assert.Empty(t, caller.Subject)
	}
}

func TestTokenFallsBackToCookie(t *testing.T) {
	var caller *models.Caller
	r := callerRouter(TokenConfig{}, &caller)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, caller)
	assert.Equal(t, "from-cookie", caller.Token)
	assert.True(t, caller.Authenticated())
}

func TestTokenExtractsSubjectWhenSecretConfigured(t *testing.T) {
	var caller *models.Caller
	r := callerRouter(TokenConfig{JWTSecret: "s3cret"}, &caller)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "s3cret", "librarian"))
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, caller)
	assert.Equal(t, "librarian", caller.Subject)
	require.NotNil(t, caller.Actor())
	assert.Equal(t, "librarian", *caller.Actor())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "other", "intruder"))
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, caller)
	assert.Empty(t, caller.Subject)
	assert.True(t, caller.Authenticated())
}

func TestRequireTokenRejectsAnonymous(t *testing.T) {
	var caller *models.Caller
	r := callerRouter(TokenConfig{}, &caller)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
