package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const SessionTTL = 7 * 24 * time.Hour

type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueSession signs the session cookie value for a user.
func IssueSession(secret string, userID uint, role string, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("session secret is empty")
	}
	claims := SessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
			Issuer:    "temankosan",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSession validates the cookie value and returns the user id it carries.
func ParseSession(secret, raw string) (uint, *SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, nil, err
	}
	if !token.Valid {
		return 0, nil, errors.New("invalid session")
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, nil, errors.New("invalid session subject")
	}
	return uint(id), claims, nil
}
