package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewSecretVerifier(t *testing.T) {
	v, err := NewSecretVerifier("")
	require.NoError(t, err)
	assert.IsType(t, PlainSecrets{}, v)

	v, err = NewSecretVerifier(SchemeBcrypt)
	require.NoError(t, err)
	assert.IsType(t, BcryptSecrets{}, v)

	_, err = NewSecretVerifier("rot13")
	assert.Error(t, err)
}

func TestPlainSecrets(t *testing.T) {
	var v PlainSecrets
	stored, err := v.Prepare("pw")
	require.NoError(t, err)
	assert.Equal(t, "pw", stored)
	assert.True(t, v.Matches(stored, "pw"))
	assert.False(t, v.Matches(stored, "PW"))
	assert.False(t, v.Matches(stored, ""))
}

func TestBcryptSecrets(t *testing.T) {
	v := BcryptSecrets{Cost: bcrypt.MinCost}
	stored, err := v.Prepare("pw")
	require.NoError(t, err)
	assert.NotEqual(t, "pw", stored)
	assert.True(t, v.Matches(stored, "pw"))
	assert.False(t, v.Matches(stored, "nope"))
	assert.False(t, v.Matches("not-a-hash", "pw"))
}
