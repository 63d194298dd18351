package tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/task_manager/internal/domain"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

type Claims struct {
	Kind     Kind   `json:"typ"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject %q", domain.ErrMalformedToken, c.Subject)
	}
	return uint(id), nil
}

func ForUser(kind Kind, u *domain.User) Claims {
	return Claims{
		Kind:     kind,
		Username: u.Username,
		Email:    u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: strconv.FormatUint(uint64(u.ID), 10),
		},
	}
}

var methods = map[string]jwt.SigningMethod{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

func SupportedAlgorithm(alg string) bool {
	_, ok := methods[alg]
	return ok
}

// Codec signs and verifies tokens with one secret and one algorithm.
// It is immutable after construction and safe for concurrent use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

type Option func(*Codec)

func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(secret []byte, algorithm string, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("tokens: empty secret")
	}
	method, ok := methods[algorithm]
	if !ok {
		return nil, fmt.Errorf("tokens: unsupported algorithm %q", algorithm)
	}
	c := &Codec{
		secret: append([]byte(nil), secret...),
		method: method,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) Algorithm() string { return c.method.Alg() }

// Issue stamps iat, exp and jti onto claims and signs them.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("tokens: non-positive ttl %s", ttl)
	}
	if claims.Kind != KindAccess && claims.Kind != KindRefresh {
		return "", time.Time{}, fmt.Errorf("tokens: unknown kind %q", claims.Kind)
	}

	now := c.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("tokens: sign: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify returns domain.ErrExpiredToken once now >= exp and
// domain.ErrMalformedToken for everything else that fails.
func (c *Codec) Verify(raw string, kind Kind) (*Claims, error) {
	if raw == "" {
		return nil, domain.ErrMissingToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", domain.ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedToken, err)
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", domain.ErrMalformedToken, kind, claims.Kind)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrMalformedToken)
	}
	return &claims, nil
}
