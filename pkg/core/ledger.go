package core

import (
	"sync"
	"time"
)

// Ledger holds the block sequence and the pending-transaction queue and
// orchestrates admission, mining, balance queries and integrity checks.
//
// Admission and mining take the write lock for their full duration, so
// concurrent calls are serialized and the mining commit (append block +
// clear queue) is atomic with respect to admissions. Balance and
// validity scans take the read lock and may run concurrently with each
// other.
type Ledger struct {
	mu         sync.RWMutex
	blocks     []*Block
	pending    []*Transaction
	difficulty int
	reward     int64
	workers    int
}

// NewLedger creates a ledger containing only the fixed genesis block.
func NewLedger(difficulty int, reward int64) *Ledger {
	return &Ledger{
		blocks:     []*Block{newGenesisBlock()},
		pending:    make([]*Transaction, 0),
		difficulty: difficulty,
		reward:     reward,
		workers:    1,
	}
}

// SetMiningWorkers sets the number of goroutines racing over nonce
// ranges during proof-of-work. Values below one fall back to the
// single-threaded reference search.
func (l *Ledger) SetMiningWorkers(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < 1 {
		n = 1
	}
	l.workers = n
}

// AddTransaction validates a user-submitted transfer and appends it to
// the pending queue. On any failure the queue is unchanged. Reward
// transactions never pass through here; they are minted by
// MinePendingTransactions.
func (l *Ledger) AddTransaction(tx *Transaction) error {
	if tx == nil || tx.From == "" || tx.To == "" {
		return ErrMissingAddress
	}
	if tx.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !tx.Verify() {
		return ErrInvalidSignature
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balanceLocked(tx.From) < tx.Amount {
		return ErrInsufficientBalance
	}

	l.pending = append(l.pending, tx)
	return nil
}

// MinePendingTransactions drains the pending queue plus one reward
// transaction into a new block, runs the proof-of-work search, appends
// the block and clears the queue. The write lock is held for the whole
// search, so readers never observe a half-committed chain. The search
// itself is unbounded; a block that never meets the difficulty target
// blocks the caller forever.
func (l *Ledger) MinePendingTransactions(rewardAddress string) (*Block, error) {
	if rewardAddress == "" {
		return nil, ErrMissingAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	transactions := append(l.pending, NewRewardTransaction(rewardAddress, l.reward))

	tip := l.blocks[len(l.blocks)-1]
	block := NewBlock(int64(len(l.blocks)), time.Now().UnixNano(), transactions, tip.Hash)
	block.MineParallel(l.difficulty, l.workers, nil)

	l.blocks = append(l.blocks, block)
	l.pending = make([]*Transaction, 0)
	return block, nil
}

// GetBalance derives an address balance by scanning every transaction
// in every block: credits to the recipient, debits from the sender,
// rewards only credit. A never-seen address has balance 0. There is no
// materialized balance cache; correctness over performance.
func (l *Ledger) GetBalance(address string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceLocked(address)
}

func (l *Ledger) balanceLocked(address string) int64 {
	var balance int64
	for _, block := range l.blocks {
		for _, tx := range block.Transactions {
			if tx.To == address {
				balance += tx.Amount
			}
			if !tx.IsCoinbase() && tx.From == address {
				balance -= tx.Amount
			}
		}
	}
	return balance
}

// IsValid walks the chain from index 1 and checks, in order, that each
// block's stored hash matches its recomputed hash, that its prev-hash
// link matches the predecessor, and that every contained transfer
// carries a valid signature (rewards are exempt). It returns false on
// the first mismatch.
func (l *Ledger) IsValid() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := 1; i < len(l.blocks); i++ {
		block := l.blocks[i]
		if block.Hash != block.CalculateHash() {
			return false
		}
		if block.PrevHash != l.blocks[i-1].Hash {
			return false
		}
		for _, tx := range block.Transactions {
			if tx.IsCoinbase() {
				continue
			}
			if !tx.Verify() {
				return false
			}
		}
	}
	return true
}

// Blocks returns a snapshot of the chain.
func (l *Ledger) Blocks() []*Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	blocks := make([]*Block, len(l.blocks))
	copy(blocks, l.blocks)
	return blocks
}

// Pending returns a snapshot of the pending-transaction queue.
func (l *Ledger) Pending() []*Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pending := make([]*Transaction, len(l.pending))
	copy(pending, l.pending)
	return pending
}

// PendingCount returns the length of the pending queue.
func (l *Ledger) PendingCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.pending)
}

// Height returns the number of blocks in the chain.
func (l *Ledger) Height() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blocks)
}

// Tip returns the latest block.
func (l *Ledger) Tip() *Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blocks[len(l.blocks)-1]
}

// Difficulty returns the proof-of-work difficulty.
func (l *Ledger) Difficulty() int {
	return l.difficulty
}

// Reward returns the mining reward amount.
func (l *Ledger) Reward() int64 {
	return l.reward
}

// GetBlockByHash returns the block with the given hash, or nil.
func (l *Ledger) GetBlockByHash(hash string) *Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, block := range l.blocks {
		if block.Hash == hash {
			return block
		}
	}
	return nil
}

// GetTransactionByHash searches all blocks and the pending queue for a
// transaction with the given hash, or returns nil.
func (l *Ledger) GetTransactionByHash(hash string) *Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, block := range l.blocks {
		for _, tx := range block.Transactions {
			if tx.Hash == hash {
				return tx
			}
		}
	}
	for _, tx := range l.pending {
		if tx.Hash == hash {
			return tx
		}
	}
	return nil
}
