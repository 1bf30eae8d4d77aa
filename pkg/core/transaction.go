package core

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/harlanhai/blockchain-server/pkg/crypto"
)

// Transaction represents a value transfer between two accounts. A
// transaction is immutable once signed: the signature is bound to the
// digest of (From, To, Amount, Timestamp) at signing time, and any later
// mutation of those fields makes Verify return false.
//
// A reward (coinbase) transaction has no sender and carries no
// signature. It can only be built through NewRewardTransaction and is
// minted by the mining routine, never submitted by users.
type Transaction struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"`
	Hash      string `json:"hash"`
	Signature string `json:"signature,omitempty"`
}

// NewTransaction creates a new unsigned transfer from one address to
// another. The hash is computed once at construction.
func NewTransaction(from, to string, amount int64) *Transaction {
	tx := &Transaction{
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: time.Now().UnixNano(),
	}
	tx.Hash = tx.CalculateHash()
	return tx
}

// NewRewardTransaction creates a coinbase transaction crediting the
// mining reward to the given address.
func NewRewardTransaction(to string, amount int64) *Transaction {
	tx := &Transaction{
		To:        to,
		Amount:    amount,
		Timestamp: time.Now().UnixNano(),
	}
	tx.Hash = tx.CalculateHash()
	return tx
}

// IsCoinbase reports whether the transaction is a mining reward.
func (tx *Transaction) IsCoinbase() bool {
	return tx.From == ""
}

// CalculateHash computes the SHA-256 digest of (From, To, Amount,
// Timestamp) as lowercase hex. Field order is fixed by this function,
// not by any encoding of the struct.
func (tx *Transaction) CalculateHash() string {
	return crypto.Sum256Hex(
		[]byte(tx.From),
		[]byte(tx.To),
		int64ToBytes(tx.Amount),
		int64ToBytes(tx.Timestamp),
	)
}

// Sign signs the transaction digest with a hex-encoded private key and
// stores the recoverable signature. The key must control the sender
// address.
func (tx *Transaction) Sign(privateKeyHex string) error {
	if tx.IsCoinbase() {
		return fmt.Errorf("reward transactions are not signed")
	}
	if privateKeyHex == "" {
		return crypto.ErrMissingKey
	}

	privateKey, err := crypto.ParsePrivateKeyHex(privateKeyHex)
	if err != nil {
		return err
	}
	if crypto.PubkeyToAddress(&privateKey.PublicKey) != tx.From {
		return fmt.Errorf("%w: key does not control sender address", crypto.ErrInvalidKey)
	}

	digest, err := hex.DecodeString(tx.Hash)
	if err != nil {
		return fmt.Errorf("decode transaction hash: %w", err)
	}

	signature, err := crypto.SignRecoverable(privateKey, digest)
	if err != nil {
		return err
	}

	tx.Signature = hex.EncodeToString(signature)
	return nil
}

// Verify checks the transaction signature. Coinbase transactions are
// trusted unconditionally. For transfers, the public key is recovered
// from the signature, the address derived from it must match the
// claimed sender, and the signature must verify against the digest of
// the transaction's current fields. Every internal failure is treated
// as an invalid signature; Verify never panics or returns an error.
func (tx *Transaction) Verify() bool {
	if tx.IsCoinbase() {
		return true
	}
	if tx.Signature == "" {
		return false
	}

	digest, err := hex.DecodeString(tx.CalculateHash())
	if err != nil {
		return false
	}
	signature, err := hex.DecodeString(tx.Signature)
	if err != nil {
		return false
	}

	publicKey, err := crypto.RecoverPubkey(digest, signature)
	if err != nil {
		return false
	}
	if crypto.PubkeyToAddress(publicKey) != tx.From {
		return false
	}

	return crypto.VerifySignature(publicKey, digest, signature)
}

func int64ToBytes(n int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n))
	return b
}

func uint64ToBytes(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
