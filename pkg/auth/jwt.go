package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the verified identity extracted from a bearer token.
type Claims struct {
	Subject string
	Raw     jwt.MapClaims
}

// JWTService verifies legacy bearer tokens issued by the platform.
type JWTService struct {
	secret    []byte
	algorithm string
	expiry    time.Duration
}

func NewJWTService(secret, algorithm string, expiry time.Duration) *JWTService {
	if algorithm == "" {
		algorithm = "HS256"
	}
	return &JWTService{secret: []byte(secret), algorithm: algorithm, expiry: expiry}
}

// ValidateToken parses and verifies a token and requires a non-empty subject.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.algorithm}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("token missing subject")
	}

	return &Claims{Subject: sub, Raw: claims}, nil
}

// GenerateToken issues a token for the given subject. Kept for tooling and
// tests; production tokens come from the identity platform.
func (s *JWTService) GenerateToken(subject string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(s.expiry).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
