package core

import (
	"strings"
	"testing"
	"time"
)

func TestNewBlockHashesImmediately(t *testing.T) {
	block := NewBlock(1, time.Now().UnixNano(), nil, "0")
	if block.Hash == "" {
		t.Fatal("block hash must be computed at construction")
	}
	if block.Nonce != 0 {
		t.Fatalf("fresh block nonce = %d, want 0", block.Nonce)
	}
	if block.Hash != block.CalculateHash() {
		t.Fatal("stored hash must match recomputed hash")
	}
}

func TestMineLeadingZeros(t *testing.T) {
	for _, difficulty := range []int{1, 2} {
		block := NewBlock(1, time.Now().UnixNano(), nil, "0")
		block.Mine(difficulty)

		if !strings.HasPrefix(block.Hash, strings.Repeat("0", difficulty)) {
			t.Fatalf("difficulty %d: hash %s lacks leading zeros", difficulty, block.Hash)
		}
		if block.Hash != block.CalculateHash() {
			t.Fatal("mined hash must match recomputed hash")
		}
	}
}

func TestMineZeroDifficulty(t *testing.T) {
	block := NewBlock(1, time.Now().UnixNano(), nil, "0")
	before := block.Hash
	block.Mine(0)

	if block.Nonce != 0 {
		t.Fatalf("difficulty 0 must not search, nonce = %d", block.Nonce)
	}
	if block.Hash != before {
		t.Fatal("difficulty 0 must leave the hash unchanged")
	}
}

func TestMineParallel(t *testing.T) {
	block := NewBlock(1, time.Now().UnixNano(), nil, "0")
	if !block.MineParallel(2, 4, nil) {
		t.Fatal("MineParallel() reported no solution")
	}
	if !strings.HasPrefix(block.Hash, "00") {
		t.Fatalf("parallel-mined hash %s lacks leading zeros", block.Hash)
	}
	if block.Hash != block.CalculateHash() {
		t.Fatal("committed nonce does not reproduce the committed hash")
	}
}

func TestMineParallelStop(t *testing.T) {
	block := NewBlock(1, time.Now().UnixNano(), nil, "0")
	stop := make(chan struct{})
	close(stop)

	// 64 leading zeros is unreachable; only the stop channel ends the search.
	if block.MineParallel(64, 2, stop) {
		t.Fatal("stopped search must not report a solution")
	}
	if block.Nonce != 0 {
		t.Fatalf("abandoned search must not commit a nonce, got %d", block.Nonce)
	}
}

func TestBlockHashCoversTransactionContent(t *testing.T) {
	reward := NewRewardTransaction("a2fb8c7d6e5a4b3c2d1e0f9a8b7c6d5e4f3a2b1c", 100)
	block := NewBlock(1, time.Now().UnixNano(), []*Transaction{reward}, "0")

	before := block.CalculateHash()
	reward.Amount = 1000000
	if block.CalculateHash() == before {
		t.Fatal("block hash must change when a contained transaction changes")
	}
}
