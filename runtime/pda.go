package runtime

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
)

const (
	// MaxSeedLen is the longest single seed the derivation accepts.
	// Longer keys must be content-hashed by the caller first.
	MaxSeedLen = 32

	// MaxSeeds is the maximum number of seeds in one derivation.
	MaxSeeds = 16
)

// pdaMarker domain-separates derived addresses from everything else the
// host hashes. A candidate address is only accepted if it is not a valid
// curve point, so no private key can ever exist for it.
var pdaMarker = []byte("ProgramDerivedAddress")

var (
	// ErrSeedTooLong is returned when a single seed exceeds MaxSeedLen.
	ErrSeedTooLong = errors.New("derivation seed exceeds maximum length")

	// ErrTooManySeeds is returned when more than MaxSeeds seeds are
	// supplied.
	ErrTooManySeeds = errors.New("too many derivation seeds")

	// ErrOnCurve is returned by CreateProgramAddress when the candidate
	// address is a valid curve point and therefore unusable.
	ErrOnCurve = errors.New("derived address is a valid curve point")

	// ErrNoViableBump is returned when no bump yields an off-curve
	// address. With 256 candidates this is cryptographically
	// unreachable for honest inputs.
	ErrNoViableBump = errors.New("unable to find a viable bump seed")
)

// isOnCurve reports whether b decompresses to a valid ed25519 point.
func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// CreateProgramAddress derives the address for the given seeds and bump
// under programID. The result is rejected with ErrOnCurve if it collides
// with the externally-owned key space.
func CreateProgramAddress(seeds [][]byte, bump uint8,
	programID Pubkey) (Pubkey, error) {

	if len(seeds) >= MaxSeeds {
		return Pubkey{}, ErrTooManySeeds
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Pubkey{}, ErrSeedTooLong
		}
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(programID[:])
	h.Write(pdaMarker)

	var addr Pubkey
	copy(addr[:], h.Sum(nil))
	if isOnCurve(addr[:]) {
		return Pubkey{}, ErrOnCurve
	}
	return addr, nil
}

// FindProgramAddress searches bumps from 255 downwards for the first
// off-curve address derivable from the seeds under programID. The mapping
// is a pure function of its inputs: the same seeds and program always
// yield the same address and bump.
func FindProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, uint8,
	error) {

	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateProgramAddress(seeds, uint8(bump), programID)
		switch {
		case err == nil:
			return addr, uint8(bump), nil
		case errors.Is(err, ErrOnCurve):
			continue
		default:
			return Pubkey{}, 0, err
		}
	}
	return Pubkey{}, 0, ErrNoViableBump
}
