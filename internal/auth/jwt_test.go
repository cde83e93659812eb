package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "pingup", time.Minute)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "pingup", claims.Issuer)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", "pingup", time.Minute)
	userID := uuid.New()

	sign := func(claims *Claims, method jwt.SigningMethod, key interface{}) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	claimsFor := func(id uuid.UUID, tokenType, issuer string) *Claims {
		return &Claims{
			UserID:    id,
			TokenType: tokenType,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				Issuer:    issuer,
			},
		}
	}

	otherSecret, err := NewJWTManager("other", "pingup", time.Minute).GenerateAccessToken(userID)
	require.NoError(t, err)
	expired, err := NewJWTManager("secret", "pingup", -time.Minute).GenerateAccessToken(userID)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-token", ErrInvalidToken},
		{"wrong secret", otherSecret, ErrInvalidToken},
		{"expired", expired, ErrExpiredToken},
		{"wrong issuer", sign(claimsFor(userID, "access", "someone-else"), jwt.SigningMethodHS256, []byte("secret")), ErrInvalidToken},
		{"refresh token", sign(claimsFor(userID, "refresh", "pingup"), jwt.SigningMethodHS256, []byte("secret")), ErrInvalidToken},
		{"nil user", sign(claimsFor(uuid.Nil, "access", "pingup"), jwt.SigningMethodHS256, []byte("secret")), ErrInvalidToken},
		{"wrong algorithm", sign(claimsFor(userID, "access", "pingup"), jwt.SigningMethodHS512, []byte("secret")), ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestJWTManager_NoIssuerAcceptsAny(t *testing.T) {
	issuing := NewJWTManager("secret", "anyone", time.Minute)
	checking := NewJWTManager("secret", "", time.Minute)

	token, err := issuing.GenerateAccessToken(uuid.New())
	require.NoError(t, err)

	_, err = checking.ValidateAccessToken(token)
	assert.NoError(t, err)
}
