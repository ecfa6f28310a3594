package models

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Caller describes who issued a request. Token is the opaque client credential;
// Subject is only populated when the token could be read as a signed JWT.
type Caller struct {
	Token     string
	Subject   string
	IPAddress string
	UserAgent string
}

// Actor returns the identity used for audit attribution.
func (c *Caller) Actor() *string {
	if c == nil || c.Subject == "" {
		return nil
	}
	subject := c.Subject
	return &subject
}

// Authenticated reports whether a client token was forwarded.
func (c *Caller) Authenticated() bool {
	return c != nil && c.Token != ""
}

// TokenClaims is the subset of JWT claims read from forwarded tokens.
type TokenClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type callerKey struct{}

// WithCaller stores the caller on ctx.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller stored on ctx, or nil.
func CallerFrom(ctx context.Context) *Caller {
	caller, _ := ctx.Value(callerKey{}).(*Caller)
	return caller
}
