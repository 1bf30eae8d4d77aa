package core

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/harlanhai/blockchain-server/pkg/crypto"
)

// Block is an ordered batch of transactions linked to its predecessor
// by hash. The block hash is a pure function of (Index, Timestamp,
// transaction digests, PrevHash, Nonce).
type Block struct {
	Index        int64          `json:"index"`
	Timestamp    int64          `json:"timestamp"`
	Transactions []*Transaction `json:"transactions"`
	PrevHash     string         `json:"prev_hash"`
	Hash         string         `json:"hash"`
	Nonce        uint64         `json:"nonce"`
}

// NewBlock creates a block and computes its hash immediately at nonce 0.
func NewBlock(index, timestamp int64, transactions []*Transaction, prevHash string) *Block {
	block := &Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: transactions,
		PrevHash:     prevHash,
	}
	block.Hash = block.CalculateHash()
	return block
}

// CalculateHash computes the block hash from its current content.
// Transaction digests are recomputed from the transaction fields, so a
// mutated transaction changes the block hash even when its stored hash
// field is stale.
func (b *Block) CalculateHash() string {
	return b.hashWithNonce(b.Nonce)
}

func (b *Block) hashWithNonce(nonce uint64) string {
	parts := make([][]byte, 0, len(b.Transactions)+4)
	parts = append(parts, int64ToBytes(b.Index), int64ToBytes(b.Timestamp))
	for _, tx := range b.Transactions {
		parts = append(parts, []byte(tx.CalculateHash()))
	}
	parts = append(parts, []byte(b.PrevHash), uint64ToBytes(nonce))
	return crypto.Sum256Hex(parts...)
}

// Mine searches for a nonce whose hash carries the required number of
// leading hex zero characters. The full hash is recomputed from scratch
// on every attempt. The search is synchronous and unbounded: it blocks
// the caller until a solution is found.
func (b *Block) Mine(difficulty int) {
	prefix := strings.Repeat("0", difficulty)
	for !strings.HasPrefix(b.Hash, prefix) {
		b.Nonce++
		b.Hash = b.CalculateHash()
	}
}

// MineParallel races the given number of workers over disjoint striped
// nonce ranges. Exactly one winner commits its (nonce, hash) pair to
// the block. A receive on stop abandons the search and leaves the block
// unmined; MineParallel reports whether a solution was committed.
func (b *Block) MineParallel(difficulty, workers int, stop <-chan struct{}) bool {
	if workers <= 1 {
		b.Mine(difficulty)
		return true
	}

	prefix := strings.Repeat("0", difficulty)
	if strings.HasPrefix(b.Hash, prefix) {
		return true
	}

	var (
		found   atomic.Bool
		stopped atomic.Bool
		mu      sync.Mutex
		wg      sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(start uint64) {
			defer wg.Done()
			for nonce := start; ; nonce += uint64(workers) {
				if found.Load() || stopped.Load() {
					return
				}
				if stop != nil {
					select {
					case <-stop:
						stopped.Store(true)
						return
					default:
					}
				}
				hash := b.hashWithNonce(nonce)
				if strings.HasPrefix(hash, prefix) {
					if found.CompareAndSwap(false, true) {
						mu.Lock()
						b.Nonce = nonce
						b.Hash = hash
						mu.Unlock()
					}
					return
				}
			}
		}(uint64(w) + 1)
	}

	wg.Wait()
	return found.Load()
}
