package game

import (
	"hash/fnv"
	"math/rand"
)

// DeterministicSeedValue derives a subsystem seed from a root seed string
// and a label, so independent generation passes draw from independent
// streams without consuming each other's values.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG builds a generation RNG for the given root seed and
// label. Generation randomness never crosses the wire; the replay path
// uses ReplaySeed instead.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

// ReplaySeed is the 32-bit word shipped inside FleetLaunch events. It is
// advanced only by the replay engine, through a fixed LCG, so every
// participant that starts from the same word reproduces the same draws.
type ReplaySeed uint32

func (s *ReplaySeed) next() uint32 {
	*s = ReplaySeed(uint32(*s)*1664525 + 1013904223)
	return uint32(*s)
}

// Float returns the next draw in [0, 1) and advances the seed. The draw
// order consumed per spawned ship is part of the wire protocol: changing
// it desynchronizes every peer silently.
func (s *ReplaySeed) Float() float32 {
	return float32(s.next()>>8) / float32(1<<24)
}
