package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveMasterKey(password, salt)
	key2 := DeriveMasterKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	if len(key1) != 32 {
		t.Errorf("expected 32-byte key, got %d", len(key1))
	}
}

func TestDeriveMasterKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveMasterKey(password, []byte("salt-1"))
	key2 := DeriveMasterKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestMakeVerifier_IsSHA256Sized(t *testing.T) {
	v := MakeVerifier([]byte("key"))
	assert.Len(t, v, 32)
	assert.Equal(t, v, MakeVerifier([]byte("key")))
}

func TestNewSalt(t *testing.T) {
	a, b := NewSalt(), NewSalt()
	assert.Len(t, a, SaltSize)
	assert.NotEqual(t, a, b)
}

func TestCheckPassword(t *testing.T) {
	salt := NewSalt()
	verifier := HashPassword([]byte("testpass"), salt)

	assert.True(t, CheckPassword([]byte("testpass"), salt, verifier))
	assert.False(t, CheckPassword([]byte("testpass2"), salt, verifier))
	assert.False(t, CheckPassword([]byte("testpass"), NewSalt(), verifier))
	assert.False(t, CheckPassword([]byte("testpass"), salt, nil))
}
