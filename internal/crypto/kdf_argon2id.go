package crypto

import "golang.org/x/crypto/argon2"

type KDFParams struct {
	M    uint32
	T    uint32
	P    uint8
	Salt []byte
}

// Server-side cost: 64 MiB, 3 iterations. Derivation happens once per
// process start, not per request, so the memory-hard cost is acceptable.
var defaultKDF = KDFParams{M: 64 * 1024, T: 3, P: 4}

// DeriveKey stretches the master secret into a 32-byte key with Argon2id.
func DeriveKey(master []byte, p KDFParams) []byte {
	return argon2.IDKey(master, p.Salt, p.T, p.M, p.P, 32)
}
