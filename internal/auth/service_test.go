package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain", input: "alice", want: "alice"},
		{name: "trimmed", input: "  bob \t", want: "bob"},
		{name: "blank", input: "   ", wantErr: ErrEmptyUsername},
		{name: "empty", input: "", wantErr: ErrEmptyUsername},
		{name: "at limit", input: strings.Repeat("x", MaxUsernameLength), want: strings.Repeat("x", MaxUsernameLength)},
		{name: "too long", input: strings.Repeat("x", MaxUsernameLength+1), wantErr: ErrUsernameTooLong},
		{name: "multibyte counts runes", input: strings.Repeat("é", MaxUsernameLength), want: strings.Repeat("é", MaxUsernameLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateUsername(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func TestParseSessionToken(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := sign(t, jwt.MapClaims{
		"user_id":  1,
		"username": "alice",
		"exp":      exp.Unix(),
		"iat":      exp.Add(-24 * time.Hour).Unix(),
	})

	session, err := ParseSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, token, session.Token)
	assert.True(t, session.ExpiresAt.Equal(exp))

	assert.True(t, session.Valid(exp.Add(-time.Minute)))
	assert.False(t, session.Valid(exp))
}

func TestParseSessionToken_SubjectFallbackAndNoExpiry(t *testing.T) {
	session, err := ParseSessionToken(sign(t, jwt.MapClaims{"sub": "bob"}))
	require.NoError(t, err)
	assert.Equal(t, "bob", session.Username)
	assert.True(t, session.ExpiresAt.IsZero())
	assert.True(t, session.Valid(time.Now()))
}

func TestParseSessionToken_Rejects(t *testing.T) {
	_, err := ParseSessionToken("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseSessionToken(sign(t, jwt.MapClaims{"exp": time.Now().Unix()}))
	require.ErrorIs(t, err, ErrTokenWithoutUser)
}

func TestSession_ValidNil(t *testing.T) {
	var s *Session
	assert.False(t, s.Valid(time.Now()))
	assert.False(t, (&Session{}).Valid(time.Now()))
}
