package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTokenCipher("correct horse battery staple")
	require.NoError(t, err)

	binary := make([]byte, 257)
	_, _ = rand.Read(binary)

	cases := map[string]string{
		"empty":   "",
		"ascii":   "EAAGm0PX4ZCpsBA-access-token",
		"unicode": "トークン🔑-ñandú-токен",
		"binary":  string(binary),
		"long":    string(make([]byte, 64*1024)),
	}
	for name, plain := range cases {
		t.Run(name, func(t *testing.T) {
			sealed, err := c.Encrypt(plain)
			require.NoError(t, err)
			assert.NotEqual(t, plain, sealed)

			opened, err := c.Decrypt(sealed)
			require.NoError(t, err)
			assert.Equal(t, plain, opened)
		})
	}
}

func TestTokenCipher_NonceIsRandom(t *testing.T) {
	c, err := NewTokenCipher("secret")
	require.NoError(t, err)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenCipher_RawKey(t *testing.T) {
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	c, err := NewTokenCipher(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)

	sealed, err := c.Encrypt("token")
	require.NoError(t, err)
	opened, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "token", opened)
}

func TestTokenCipher_WrongKeyOrTamper(t *testing.T) {
	a, err := NewTokenCipher("key-a")
	require.NoError(t, err)
	b, err := NewTokenCipher("key-b")
	require.NoError(t, err)

	sealed, err := a.Encrypt("token")
	require.NoError(t, err)

	_, err = b.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailure)

	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff
	_, err = a.Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrDecryptionFailure)

	_, err = a.Decrypt("not base64!")
	assert.ErrorIs(t, err, ErrMalformedCipher)

	_, err = a.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrMalformedCipher)
}

func TestNewTokenCipher_EmptyKey(t *testing.T) {
	_, err := NewTokenCipher("")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestTokenCipher_Concurrent(t *testing.T) {
	c, err := NewTokenCipher("shared")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plain := string(rune('a' + i%26))
			sealed, err := c.Encrypt(plain)
			assert.NoError(t, err)
			opened, err := c.Decrypt(sealed)
			assert.NoError(t, err)
			assert.Equal(t, plain, opened)
		}(i)
	}
	wg.Wait()
}
