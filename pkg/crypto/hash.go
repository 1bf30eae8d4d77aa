package crypto

import (
	"encoding/hex"

	sha256 "github.com/minio/sha256-simd"
	"github.com/zeebo/blake3"
)

// Sum256 computes the SHA-256 digest of the concatenation of all inputs.
// Callers must pass fields in declaration order to keep digests
// deterministic.
func Sum256(inputs ...[]byte) []byte {
	hasher := sha256.New()
	for _, input := range inputs {
		hasher.Write(input)
	}
	return hasher.Sum(nil)
}

// Sum256Hex is Sum256 with the digest rendered as lowercase hex.
func Sum256Hex(inputs ...[]byte) string {
	return hex.EncodeToString(Sum256(inputs...))
}

// Blake3 computes the BLAKE3 hash of the input data.
func Blake3(data []byte) []byte {
	hasher := blake3.New()
	hasher.Write(data)
	return hasher.Sum(nil)
}
