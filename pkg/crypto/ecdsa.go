package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	// AddressLength is the length of an account address in bytes.
	AddressLength = 20

	// SignatureLength is the length of a recoverable signature: 64 bytes
	// of R||S plus one recovery id byte.
	SignatureLength = 65
)

var (
	// ErrMissingKey is returned when a signing operation is attempted
	// without a private key.
	ErrMissingKey = errors.New("missing private key")

	// ErrInvalidKey is returned when a private key has the wrong length
	// or is not a valid scalar for the curve.
	ErrInvalidKey = errors.New("invalid private key")
)

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ethcrypto.GenerateKey()
}

// ParsePrivateKeyHex parses a hex-encoded secp256k1 private key. It
// rejects keys with the wrong byte length and scalars outside the curve
// order.
func ParsePrivateKeyHex(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	privateKey, err := ethcrypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return privateKey, nil
}

// PrivateKeyToHex encodes a private key as lowercase hex.
func PrivateKeyToHex(privateKey *ecdsa.PrivateKey) string {
	return hex.EncodeToString(ethcrypto.FromECDSA(privateKey))
}

// PubkeyToAddress derives the account address from a public key: the
// last 20 bytes of the BLAKE3 hash of the uncompressed public key,
// hex-encoded.
func PubkeyToAddress(publicKey *ecdsa.PublicKey) string {
	pubBytes := ethcrypto.FromECDSAPub(publicKey)
	hash := Blake3(pubBytes)
	return hex.EncodeToString(hash[len(hash)-AddressLength:])
}

// SignRecoverable signs a 32-byte digest and returns a 65-byte
// signature in R||S||V form, where V is the recovery id.
func SignRecoverable(privateKey *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, ErrMissingKey
	}
	return ethcrypto.Sign(digest, privateKey)
}

// RecoverPubkey recovers the public key that produced a recoverable
// signature over the given 32-byte digest.
func RecoverPubkey(digest, signature []byte) (*ecdsa.PublicKey, error) {
	if len(signature) != SignatureLength {
		return nil, fmt.Errorf("invalid signature length: %d", len(signature))
	}
	return ethcrypto.SigToPub(digest, signature)
}

// VerifySignature checks a recoverable signature against a public key
// and digest. The recovery id byte is ignored here; only R||S is
// verified.
func VerifySignature(publicKey *ecdsa.PublicKey, digest, signature []byte) bool {
	if len(signature) < SignatureLength-1 {
		return false
	}
	return ethcrypto.VerifySignature(ethcrypto.FromECDSAPub(publicKey), digest, signature[:64])
}

// IsValidAddress checks that an address is 20 bytes of hex.
func IsValidAddress(address string) bool {
	if len(address) != AddressLength*2 {
		return false
	}
	_, err := hex.DecodeString(address)
	return err == nil
}
