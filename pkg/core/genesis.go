package core

import (
	"encoding/json"
	"os"
)

// genesisTimestamp pins the genesis block to a fixed instant so every
// ledger starts from the identical block.
const genesisTimestamp = int64(1483228800)

// genesisPrevHash is the sentinel previous-hash of the genesis block.
const genesisPrevHash = "0"

// newGenesisBlock builds the fixed genesis block: index 0, no
// transactions, sentinel previous hash. It is never mined.
func newGenesisBlock() *Block {
	return NewBlock(0, genesisTimestamp, nil, genesisPrevHash)
}

// Genesis is the chain bootstrap configuration written by `init` and
// read back by `start`.
type Genesis struct {
	ChainID    string `json:"chain_id"`
	Difficulty int    `json:"difficulty"`
	Reward     int64  `json:"reward"`
}

// DefaultGenesis returns the default chain configuration.
func DefaultGenesis() *Genesis {
	return &Genesis{
		ChainID:    "mainchain-1",
		Difficulty: 2,
		Reward:     100,
	}
}

// GenesisFromJSON loads a genesis configuration from a JSON file.
func GenesisFromJSON(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var genesis Genesis
	if err := json.Unmarshal(data, &genesis); err != nil {
		return nil, err
	}
	return &genesis, nil
}

// ToJSON writes the genesis configuration to a JSON file.
func (g *Genesis) ToJSON(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Ledger constructs a fresh ledger from the genesis configuration.
func (g *Genesis) Ledger() *Ledger {
	return NewLedger(g.Difficulty, g.Reward)
}
