package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"resume-analyzer/domain"
	"resume-analyzer/utils"
)

const defaultSessionTTL = 24 * time.Hour

type SessionConfig struct {
	Secret   string
	Issuer   string
	Token    string
	Username string
	TTL      time.Duration
}

// SessionClaims carries the username next to the registered claims.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// JWTSession keeps one HS256 session token. An absent or expired token
// means nobody is signed in.
type JWTSession struct {
	secret   []byte
	issuer   string
	username string
	ttl      time.Duration

	mu    sync.RWMutex
	token string
}

func NewJWTSession(cfg SessionConfig) *JWTSession {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = "guest"
	}
	return &JWTSession{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		username: username,
		ttl:      ttl,
		token:    strings.TrimSpace(cfg.Token),
	}
}

func (s *JWTSession) Ping(ctx context.Context) error {
	if len(s.secret) == 0 {
		return errors.New("session secret is not configured")
	}
	return ctx.Err()
}

// Token returns the current signed token, empty when signed out.
func (s *JWTSession) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *JWTSession) Status(_ context.Context) (*domain.User, error) {
	token := s.Token()
	if token == "" {
		return nil, nil
	}
	user, err := s.parse(token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, nil
	}
	return user, err
}

// SignIn keeps a valid existing session or issues a new one.
func (s *JWTSession) SignIn(ctx context.Context) (*domain.User, error) {
	if user, err := s.Status(ctx); err == nil && user != nil {
		return user, nil
	}

	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   utils.NewID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Username: s.username,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}

	s.mu.Lock()
	s.token = signed
	s.mu.Unlock()
	return &domain.User{UUID: claims.Subject, Username: claims.Username}, nil
}

func (s *JWTSession) SignOut(_ context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

func (s *JWTSession) parse(token string) (*domain.User, error) {
	var claims SessionClaims
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}
	return &domain.User{UUID: claims.Subject, Username: claims.Username}, nil
}
