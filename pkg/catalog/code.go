package catalog

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newCode returns a redemption code of the form XXXX-XXXX-XXXX-XXXX.
func newCode() (string, error) {
	var b strings.Builder
	b.Grow(19)
	for group := 0; group < 4; group++ {
		if group > 0 {
			b.WriteByte('-')
		}
		for i := 0; i < 4; i++ {
			c, err := randIndex(len(codeAlphabet))
			if err != nil {
				return "", err
			}
			b.WriteByte(codeAlphabet[c])
		}
	}
	return b.String(), nil
}

// newPIN returns a 4 digit PIN, zero padded.
func newPIN() (string, error) {
	var b strings.Builder
	for i := 0; i < 4; i++ {
		d, err := randIndex(10)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d))
	}
	return b.String(), nil
}

func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
