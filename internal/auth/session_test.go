package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestParseToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		token   string
		wantErr error
		wantSub string
	}{
		{name: "empty", token: "  ", wantErr: ErrNoSession},
		{name: "valid", token: sign(t, jwt.MapClaims{"sub": "u-1", "exp": now.Add(time.Hour).Unix()}), wantSub: "u-1"},
		{name: "bearer prefix", token: "Bearer " + sign(t, jwt.MapClaims{"sub": "u-2"}), wantSub: "u-2"},
		{name: "legacy user_id claim", token: sign(t, jwt.MapClaims{"user_id": "u-3"}), wantSub: "u-3"},
		{name: "expired", token: sign(t, jwt.MapClaims{"sub": "u-1", "exp": now.Add(-time.Minute).Unix()}), wantErr: ErrSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseToken(tt.token, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, s.UserId)
		})
	}
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not-a-jwt", time.Now())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestTokenProvider(t *testing.T) {
	p := NewTokenProvider("")

	_, err := p.Session()
	assert.ErrorIs(t, err, ErrNoSession)

	p.SetToken(sign(t, jwt.MapClaims{"sub": "u-9"}))
	s, err := p.Session()
	require.NoError(t, err)
	assert.Equal(t, "u-9", s.UserId)

	p.Clear()
	_, err = p.Session()
	assert.ErrorIs(t, err, ErrNoSession)
}
