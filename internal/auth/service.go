package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
)

const MaxUsernameLength = 20

var (
	ErrEmptyUsername    = errors.New("please enter a username")
	ErrUsernameTooLong  = fmt.Errorf("username must be at most %d characters long", MaxUsernameLength)
	ErrInvalidToken     = errors.New("invalid session token")
	ErrTokenWithoutUser = errors.New("session token carries no username")
)

// ValidateUsername trims the login name and checks it locally before the
// login command is sent.
func ValidateUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", ErrEmptyUsername
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", ErrUsernameTooLong
	}
	return username, nil
}

// Session is what the client knows about the token handed out at login. The
// client cannot verify the signature; it only reads the claims to decide
// whether the token is still worth presenting on reconnect.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// Valid reports whether the session has a token that has not expired at now.
// Tokens without an expiry never expire client-side.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

func ParseSessionToken(tokenString string) (*Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	username, _ := claims["username"].(string)
	if username == "" {
		sub, err := claims.GetSubject()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		username = sub
	}
	if username == "" {
		return nil, ErrTokenWithoutUser
	}

	session := &Session{Token: tokenString, Username: username}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session, nil
}
