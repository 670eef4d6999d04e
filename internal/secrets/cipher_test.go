package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("ya29.a0AfH6SMBx")
	require.NoError(t, err)
	assert.NotEqual(t, "ya29.a0AfH6SMBx", sealed)

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.a0AfH6SMBx", plain)
}

func TestCipherEmptyPassthrough(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", sealed)

	plain, err := c.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", plain)
}

func TestCipherRejectsBadKey(t *testing.T) {
	_, err := NewCipher("not hex")
	assert.Error(t, err)

	_, err = NewCipher("abcd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestCipherRejectsTamperedCiphertext(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("refresh-token")
	require.NoError(t, err)

	tampered := strings.Replace(sealed, sealed[:2], "ff", 1)
	if tampered == sealed {
		tampered = "00" + sealed[2:]
	}
	_, err = c.Decrypt(tampered)
	assert.Error(t, err)

	_, err = c.Decrypt("deadbeef")
	assert.Error(t, err)
}
