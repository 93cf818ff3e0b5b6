package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrTokenExpired = errors.New("Token has expired")
	ErrTokenInvalid = errors.New("Invalid token")
	ErrMissingKey   = errors.New("jwt secret not configured")
)

// Claims is the signed payload of an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type JWTService interface {
	GenerateAccessToken(userID, email, role string) (string, error)
	ValidateToken(token string) (*Claims, error)
}

type Option func(*jwtService)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *jwtService) {
		s.now = now
	}
}

// WithTTL overrides DefaultTokenTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *jwtService) {
		s.ttl = ttl
	}
}

type jwtService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService returns an HS256 token service.
func NewJWTService(secret string, opts ...Option) (JWTService, error) {
	if secret == "" {
		return nil, ErrMissingKey
	}
	s := &jwtService{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *jwtService) GenerateAccessToken(userID, email, role string) (string, error) {
	issuedAt := s.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *jwtService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
