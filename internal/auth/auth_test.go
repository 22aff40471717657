package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testSecret, "parafort", time.Hour)

	token, err := m.GenerateAccessToken("user-001", "jane@example.com", "customer")
	require.NoError(t, err)

	claims, err := m.Validator()(token)
	require.NoError(t, err)
	assert.Equal(t, "user-001", claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	m := NewJWTManager(testSecret, "parafort", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.GenerateAccessToken("user-001", "jane@example.com", "customer")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsOtherSecretAndIssuer(t *testing.T) {
	m := NewJWTManager(testSecret, "parafort", time.Hour)

	other := NewJWTManager("another-secret-that-is-long-enough-too", "parafort", time.Hour)
	token, err := other.GenerateAccessToken("user-001", "jane@example.com", "admin")
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)

	foreign := NewJWTManager(testSecret, "someone-else", time.Hour)
	token, err = foreign.GenerateAccessToken("user-001", "jane@example.com", "admin")
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Secret123", false},
		{"too short", "Se1", true},
		{"no upper", "secret123", true},
		{"no lower", "SECRET123", true},
		{"no digit", "SecretPass", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "Secret123"))
	assert.False(t, CheckPassword(hash, "Secret124"))
}
