package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

const tokenBytes = 32

var (
	// ErrTokenExpired indicates the token's validity window has passed.
	ErrTokenExpired = errors.New("csrf: token expired")
	// ErrTokenInvalid indicates the token does not match its cookie hash.
	ErrTokenInvalid = errors.New("csrf: token invalid")
)

// Token pairs a client-visible value with the server-side hash that proves it
// was issued here. The hash travels in an httpOnly cookie, the token in the
// response body, so a successful submit requires both halves.
type Token struct {
	Value   string
	Hash    string
	Expires time.Time
}

// Service issues and validates stateless CSRF tokens. The hash binds the
// token to the signing secret and the expiry instant, so neither can be
// altered without invalidating the pair.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a token service. An empty secret gets a random
// per-process one, acceptable for development only; callers must supply a
// stable secret in production.
func NewService(secret string, ttl time.Duration) *Service {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 64)
		if _, err := rand.Read(key); err != nil {
			panic("csrf: cannot generate fallback secret: " + err.Error())
		}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{secret: key, ttl: ttl, now: time.Now}
}

// Issue generates a fresh token with its validation hash.
func (s *Service) Issue() (Token, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return Token{}, err
	}

	value := hex.EncodeToString(raw)
	expires := s.now().Add(s.ttl)
	return Token{
		Value:   value,
		Hash:    s.sign(value, expires),
		Expires: expires,
	}, nil
}

// Validate checks a submitted token against the hash and expiry recovered
// from the client's cookies. expiresMillis is Unix milliseconds as stored in
// the expiry cookie.
func (s *Service) Validate(token, hash string, expiresMillis int64) error {
	expires := time.UnixMilli(expiresMillis)
	if s.now().After(expires) {
		return ErrTokenExpired
	}

	expected := s.sign(token, expires)
	if !hmac.Equal([]byte(hash), []byte(expected)) {
		return ErrTokenInvalid
	}
	return nil
}

// TTL reports the validity window for issued tokens.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) sign(token string, expires time.Time) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	mac.Write([]byte(strconv.FormatInt(expires.UnixMilli(), 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
