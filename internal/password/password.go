// Package password produces and checks passlib-compatible pbkdf2-sha256
// hashes, the format the user table's password column has always held.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Scheme is the modular-crypt identifier written in front of every hash.
	Scheme = "pbkdf2-sha256"
	// DefaultRounds matches the passlib default the column was sized for.
	DefaultRounds = 40000
	SaltSize      = 16
	KeySize       = 32
)

// ErrMalformedHash is returned when a stored hash cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

// ab64 is passlib's "adapted base64": standard alphabet with '.' for '+',
// and no padding.
var ab64 = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789./").
	WithPadding(base64.NoPadding)

// Hash derives a new hash of plain with a random salt and DefaultRounds.
func Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password must not be empty")
	}
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return HashWith(plain, DefaultRounds, salt), nil
}

// HashWith derives a hash with explicit parameters.
func HashWith(plain string, rounds int, salt []byte) string {
	key := pbkdf2.Key([]byte(plain), salt, rounds, KeySize, sha256.New)
	return fmt.Sprintf("$%s$%d$%s$%s", Scheme, rounds, ab64.EncodeToString(salt), ab64.EncodeToString(key))
}

// Verify reports whether plain matches hash.
func Verify(plain, hash string) (bool, error) {
	rounds, salt, want, err := parse(hash)
	if err != nil {
		return false, err
	}
	got := pbkdf2.Key([]byte(plain), salt, rounds, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// NeedsRehash reports whether hash was made with fewer rounds than DefaultRounds.
func NeedsRehash(hash string) bool {
	rounds, _, _, err := parse(hash)
	return err != nil || rounds < DefaultRounds
}

func parse(hash string) (int, []byte, []byte, error) {
	// "$pbkdf2-sha256$40000$salt$digest" splits into 5 fields, the first empty.
	parts := strings.Split(hash, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != Scheme {
		return 0, nil, nil, fmt.Errorf("%w: expected $%s$rounds$salt$digest", ErrMalformedHash, Scheme)
	}
	rounds, err := strconv.Atoi(parts[2])
	if err != nil || rounds < 1 {
		return 0, nil, nil, fmt.Errorf("%w: bad rounds %q", ErrMalformedHash, parts[2])
	}
	salt, err := ab64.DecodeString(parts[3])
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	digest, err := ab64.DecodeString(parts[4])
	if err != nil || len(digest) == 0 {
		return 0, nil, nil, fmt.Errorf("%w: digest", ErrMalformedHash)
	}
	return rounds, salt, digest, nil
}
