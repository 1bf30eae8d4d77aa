package account

import (
	"crypto/ecdsa"

	"github.com/harlanhai/blockchain-server/pkg/crypto"
)

// Account represents a user key pair. The address is the sole account
// identifier: the hex-encoded BLAKE3 hash of the public key. The
// ledger never sees the keys; keeping the private key secret is the
// caller's responsibility.
type Account struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  *ecdsa.PublicKey
	Address    string
}

// NewAccount generates a fresh secp256k1 key pair and derives its
// address.
func NewAccount() (*Account, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewAccountFromKey(privateKey)
}

// NewAccountFromKey derives an account from an existing private key.
func NewAccountFromKey(privateKey *ecdsa.PrivateKey) (*Account, error) {
	if privateKey == nil {
		return nil, crypto.ErrMissingKey
	}
	publicKey := &privateKey.PublicKey
	return &Account{
		PrivateKey: privateKey,
		PublicKey:  publicKey,
		Address:    crypto.PubkeyToAddress(publicKey),
	}, nil
}

// FromPrivateKeyHex imports an account from a hex-encoded private key.
// It fails with crypto.ErrInvalidKey when the byte length is wrong or
// the scalar is not valid for the curve; otherwise it derives the same
// public key and address NewAccount would have.
func FromPrivateKeyHex(hexKey string) (*Account, error) {
	privateKey, err := crypto.ParsePrivateKeyHex(hexKey)
	if err != nil {
		return nil, err
	}
	return NewAccountFromKey(privateKey)
}

// ExportPrivateKeyHex exports the private key as lowercase hex.
func (a *Account) ExportPrivateKeyHex() string {
	return crypto.PrivateKeyToHex(a.PrivateKey)
}
