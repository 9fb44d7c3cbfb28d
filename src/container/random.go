package container

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// randomBytes fills a fresh buffer from the system CSPRNG.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	return b, nil
}

// randomIndex draws a uniform index in [0, n) without modulo bias;
// crypto/rand.Int rejection-samples internally.
func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCryptoFailure, err)
	}
	return int(v.Int64()), nil
}

// shuffleSalts performs a Fisher-Yates shuffle of the 16-byte salt slots in
// place, driven by the CSPRNG.
func shuffleSalts(table []byte) error {
	count := len(table) / SaltSize
	var tmp [SaltSize]byte
	for i := count - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return err
		}
		a := table[i*SaltSize : (i+1)*SaltSize]
		b := table[j*SaltSize : (j+1)*SaltSize]
		copy(tmp[:], a)
		copy(a, b)
		copy(b, tmp[:])
	}
	Wipe(tmp[:])
	return nil
}
