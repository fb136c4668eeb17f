package random

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// Source picks uniformly distributed integers in [0, n).
type Source interface {
	IntN(n int) int
}

// New returns a PCG source seeded from crypto/rand. Each call owns its own state.
func New() Source {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		now := uint64(time.Now().UnixNano())
		return rand.New(rand.NewPCG(now, now>>1|1))
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:])))
}

func NewSeeded(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
