package miner

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harlanhai/blockchain-server/pkg/core"
)

// Miner periodically drains the ledger's pending queue into new blocks.
// Each tick mines at most one block; a block is only attempted when the
// queue is non-empty, so the chain does not fill with reward-only
// blocks. The proof-of-work search itself is unbounded: Stop prevents
// further blocks but does not interrupt a search in flight.
type Miner struct {
	ledger        *core.Ledger
	rewardAddress string
	interval      time.Duration
	stopChan      chan struct{}
	notify        func(*core.Block)
}

// NewMiner creates a miner crediting rewards to rewardAddress.
func NewMiner(ledger *core.Ledger, rewardAddress string, interval time.Duration) *Miner {
	return &Miner{
		ledger:        ledger,
		rewardAddress: rewardAddress,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// SetNotify registers a callback invoked with every mined block, e.g.
// the RPC server's websocket broadcast.
func (m *Miner) SetNotify(notify func(*core.Block)) {
	m.notify = notify
}

// Start launches the mining loop.
func (m *Miner) Start() error {
	if m.rewardAddress == "" {
		return errors.New("miner requires a reward address")
	}

	logrus.WithFields(logrus.Fields{
		"reward_address": m.rewardAddress,
		"interval":       m.interval,
	}).Info("starting miner")

	go m.loop()
	return nil
}

// Stop stops the mining loop after any in-flight block completes.
func (m *Miner) Stop() {
	close(m.stopChan)
}

func (m *Miner) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mineOnce()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Miner) mineOnce() {
	if m.ledger.PendingCount() == 0 {
		return
	}

	start := time.Now()
	block, err := m.ledger.MinePendingTransactions(m.rewardAddress)
	if err != nil {
		logrus.WithError(err).Error("mining failed")
		return
	}

	logrus.WithFields(logrus.Fields{
		"index":   block.Index,
		"hash":    block.Hash,
		"nonce":   block.Nonce,
		"txs":     len(block.Transactions),
		"elapsed": time.Since(start),
	}).Info("block mined")

	if m.notify != nil {
		m.notify(block)
	}
}
