package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated runner identity passed explicitly to every
// core operation. Core packages never read it from ambient state.
type Session struct {
	RunnerID int64
	Name     string
}

type claims struct {
	RunnerID int64  `json:"runner_id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// IssueToken signs a runner JWT valid for 24 hours.
func IssueToken(secret string, runnerID int64, name string) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	c := claims{
		RunnerID: runnerID,
		Name:     name,
		Kind:     "runner",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString([]byte(secret))
}

// ParseBearer validates an "Authorization: Bearer <token>" header value and
// returns the runner session it carries.
func ParseBearer(header, secret string) (*Session, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("invalid authorization header")
	}
	return parseJWT(strings.TrimSpace(parts[1]), secret)
}

// parseJWT validates and extracts claims from a JWT token.
func parseJWT(tokenStr, secret string) (*Session, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	c, _ := tok.Claims.(*claims)
	if c == nil || c.RunnerID == 0 || c.Kind != "runner" {
		return nil, errors.New("invalid claims")
	}
	return &Session{RunnerID: c.RunnerID, Name: c.Name}, nil
}
