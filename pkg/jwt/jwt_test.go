package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("s3cr3t", time.Hour)
	id := uuid.New()

	token, err := m.GenerateToken(id, "ana@mercadinho.com.br", "Ana", "Gerente", "v1")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "Gerente", claims.Role)
	assert.Equal(t, "v1", claims.TokenVersion)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("s3cr3t", time.Hour)
	token, err := m.GenerateToken(uuid.New(), "ana@mercadinho.com.br", "Ana", "Gerente", "v1")
	require.NoError(t, err)

	_, err = m.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = m.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewManager("other-secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewManager("s3cr3t", time.Nanosecond).GenerateToken(uuid.New(), "a@b.c", "A", "Vendedor", "v1")
	require.NoError(t, err)
	time.Sleep(time.Second)
	_, err = m.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
