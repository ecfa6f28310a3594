package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken covers malformed, tampered or foreign tokens.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrTokenExpired is returned for well-signed tokens past their expiry.
	ErrTokenExpired = errors.New("download token expired")
)

// SignedFile is the content of a verified download token.
type SignedFile struct {
	FileID    string
	Name      string
	ExpiresAt time.Time
}

// SignedURLSigner issues and verifies expiring attachment download tokens.
// Tokens have the form fileID.expiry.base64(name).base64(hmac).
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign binds fileID to the stored file name until the TTL elapses.
func (s *SignedURLSigner) Sign(fileID, name string) (string, time.Time, error) {
	switch {
	case fileID == "" || name == "":
		return "", time.Time{}, errors.New("file id and name required")
	case strings.Contains(fileID, "."):
		return "", time.Time{}, errors.New("file id must not contain dots")
	case len(s.secret) == 0:
		return "", time.Time{}, errors.New("signing secret missing")
	}

	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	unsigned := strings.Join([]string{
		fileID,
		strconv.FormatInt(expiresAt.Unix(), 10),
		base64.RawURLEncoding.EncodeToString([]byte(name)),
	}, ".")
	return unsigned + "." + base64.RawURLEncoding.EncodeToString(s.mac(unsigned)), expiresAt, nil
}

// Verify checks the signature first, then the expiry.
func (s *SignedURLSigner) Verify(token string) (*SignedFile, error) {
	cut := strings.LastIndexByte(token, '.')
	if cut < 0 || len(s.secret) == 0 {
		return nil, ErrInvalidToken
	}
	unsigned := token[:cut]
	signature, err := base64.RawURLEncoding.DecodeString(token[cut+1:])
	if err != nil || !hmac.Equal(signature, s.mac(unsigned)) {
		return nil, ErrInvalidToken
	}

	parts := strings.Split(unsigned, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	name, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, ErrInvalidToken
	}

	signed := &SignedFile{FileID: parts[0], Name: string(name), ExpiresAt: time.Unix(expiry, 0)}
	if s.now().After(signed.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return signed, nil
}

func (s *SignedURLSigner) mac(payload string) []byte {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(payload))
	return h.Sum(nil)
}
