package password

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_Format(t *testing.T) {
	h, err := Hash("s3cret")
	require.NoError(t, err)

	parts := strings.Split(h, "$")
	require.Len(t, parts, 5)
	assert.Equal(t, "pbkdf2-sha256", parts[1])
	assert.Equal(t, "40000", parts[2])
	assert.NotContains(t, h, "+")
	assert.NotContains(t, h, "=")
	assert.LessOrEqual(t, len(h), 128, "must fit the password column")
}

func TestHash_RandomSalt(t *testing.T) {
	a, err := Hash("same")
	require.NoError(t, err)
	b, err := Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHash_RejectsEmpty(t *testing.T) {
	_, err := Hash("")
	assert.Error(t, err)
}

func TestHashWith_KnownVector(t *testing.T) {
	// PBKDF2-HMAC-SHA256("passwd", "salt", 1), first 32 bytes.
	h := HashWith("passwd", 1, []byte("salt"))
	parts := strings.Split(h, "$")
	require.Len(t, parts, 5)
	digest, err := ab64.DecodeString(parts[4])
	require.NoError(t, err)
	assert.Equal(t, "55ac046e56e3089fec1691c22544b605f94185216dde0465e68b9d57c20dacbc", hex.EncodeToString(digest))
	assert.Equal(t, "c2FsdA", parts[3])
}

func TestVerify(t *testing.T) {
	h, err := Hash("correct horse")
	require.NoError(t, err)

	ok, err := Verify("correct horse", h)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("battery staple", h)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_Malformed(t *testing.T) {
	for _, h := range []string{
		"",
		"plaintext",
		"$pbkdf2-sha1$1000$c2FsdA$ZGlnZXN0",
		"$pbkdf2-sha256$abc$c2FsdA$ZGlnZXN0",
		"$pbkdf2-sha256$1000$c2FsdA$",
		"$pbkdf2-sha256$1000$!!$ZGlnZXN0",
	} {
		_, err := Verify("x", h)
		assert.ErrorIs(t, err, ErrMalformedHash, "hash %q", h)
	}
}

func TestNeedsRehash(t *testing.T) {
	assert.True(t, NeedsRehash(HashWith("x", 1000, []byte("salt"))))
	assert.False(t, NeedsRehash(HashWith("x", DefaultRounds, []byte("salt"))))
	assert.True(t, NeedsRehash("garbage"))
}
