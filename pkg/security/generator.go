package security

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"

	"github.com/pkg/errors"
)

// Ambiguous glyphs (0/O, 1/l/I, 5/S, 8/B) are left out so temporary
// passwords can be read out over the phone.
var charClasses = []string{
	"ACDEFGHJKMPQRTWXYZ",
	"acdefghjkpqrtwxyz",
	"23479",
	"!@#%^&*_+-=.?",
}

const (
	MinPasswordLength = 8
	MinSecretBytes    = 32
)

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, errors.Wrap(err, "read random")
	}
	return int(v.Int64()), nil
}

func pick(chars string) (byte, error) {
	i, err := randomIndex(len(chars))
	if err != nil {
		return 0, err
	}
	return chars[i], nil
}

// TemporaryPassword returns a random password of the given length with at
// least one character of every class.
func TemporaryPassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", errors.Errorf("length has to be at least %d", MinPasswordLength)
	}

	var all string
	for _, class := range charClasses {
		all += class
	}

	out := make([]byte, 0, length)
	for _, class := range charClasses {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates, so the guaranteed characters are not always in front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

// Secret returns n random bytes encoded as unpadded URL-safe base64,
// suitable for JWT_SECRET.
func Secret(n int) (string, error) {
	if n < MinSecretBytes {
		return "", errors.Errorf("secret has to be at least %d bytes", MinSecretBytes)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
