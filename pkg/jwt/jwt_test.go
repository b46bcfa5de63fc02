package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	id := uuid.New()
	token, err := GenerateToken(id, "secret", time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, "secret")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestParseToken_Invalid(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "secret", time.Hour)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"wrong secret": token,
		"garbage":      "not-a-token",
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(raw, "other")
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
