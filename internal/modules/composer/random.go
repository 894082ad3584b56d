package composer

import (
	"crypto/rand"
	"math/big"
)

// RandomSource yields uniform integers in [0, n)
type RandomSource interface {
	Intn(n int) int
}

// CryptoSource draws from crypto/rand
type CryptoSource struct{}

// Intn returns a uniform integer in [0, n). It panics if n <= 0.
func (CryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("composer: Intn called with non-positive n")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is unavailable
		panic("composer: crypto/rand unavailable: " + err.Error())
	}
	return int(v.Int64())
}
