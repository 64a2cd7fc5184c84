package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"ana@example.com", "ana@example.com", false},
		{"  Ana@Example.COM  ", "ana@example.com", false},
		{"first.last+tag@sub.example.org", "first.last+tag@sub.example.org", false},
		{"", "", true},
		{"not-an-email", "", true},
		{"missing@tld", "", true},
		{"@example.com", "", true},
		{"spaces in@example.com", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeUsername(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidEmail, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("longenough1"))
	assert.NoError(t, ValidatePassword("12345678"))
	assert.ErrorIs(t, ValidatePassword("short1"), ErrInvalidPassword)
	assert.ErrorIs(t, ValidatePassword("nodigitshere"), ErrInvalidPassword)
	assert.ErrorIs(t, ValidatePassword(""), ErrInvalidPassword)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("sekret123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "sekret123", hash)
	assert.True(t, VerifyPassword(hash, "sekret123"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("", "sekret123"))
}

func TestNewAccessToken_RoundTrip(t *testing.T) {
	tok, err := NewAccessToken("topsecret", "ana@example.com", "ADMIN", 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	parsed, err := jwt.Parse(tok.Token, func(tkn *jwt.Token) (interface{}, error) {
		return []byte("topsecret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", claims["sub"])
	assert.Equal(t, "ADMIN", claims["role"])

	// A different secret must not validate the token.
	_, err = jwt.Parse(tok.Token, func(tkn *jwt.Token) (interface{}, error) {
		return []byte("other"), nil
	})
	assert.Error(t, err)
}
