package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harlanhai/blockchain-server/pkg/core"
)

var (
	initChainID    string
	initDifficulty int
	initReward     int64
)

// initCmd writes the genesis configuration and creates the node's
// wallet with a first account that receives mining rewards.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the data directory",
	Long:  `Initialize the data directory with a genesis configuration and a node wallet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}

		genesis := core.DefaultGenesis()
		genesis.ChainID = initChainID
		genesis.Difficulty = initDifficulty
		genesis.Reward = initReward

		if err := genesis.ToJSON(genesisPath()); err != nil {
			return fmt.Errorf("write genesis: %w", err)
		}

		wallet, err := openWallet()
		if err != nil {
			return err
		}
		if _, err := wallet.GetDefaultAccount(); err == nil {
			cmd.Println("wallet already initialized")
			return nil
		}

		acct, err := wallet.CreateAccount()
		if err != nil {
			return err
		}

		cmd.Printf("genesis written to %s\n", genesisPath())
		cmd.Printf("node account: %s\n", acct.Address)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initChainID, "chain-id", "mainchain-1", "Chain ID")
	initCmd.Flags().IntVar(&initDifficulty, "difficulty", 2, "Leading hex zeros required of block hashes")
	initCmd.Flags().Int64Var(&initReward, "reward", 100, "Mining reward amount")
}
