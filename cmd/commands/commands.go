package commands

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harlanhai/blockchain-server/pkg/account"
	"github.com/harlanhai/blockchain-server/pkg/core"
	"github.com/harlanhai/blockchain-server/pkg/miner"
	"github.com/harlanhai/blockchain-server/pkg/rpc"
)

var (
	// Global flags
	dataDir        string
	rpcAddress     string
	nodeURL        string
	walletPassword string
	miningWorkers  int
	mineInterval   time.Duration
)

// RootCmd carries the persistent flags shared by every subcommand.
var RootCmd = &cobra.Command{
	Use:   "chaind",
	Short: "chaind - single-node proof-of-work account ledger",
	Long: `chaind runs a single-node account-balance ledger: a chain of
content-addressed blocks holding signed value transfers, secured by
proof-of-work linkage and recoverable secp256k1 signatures.`,
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "Data directory")
	RootCmd.PersistentFlags().StringVar(&rpcAddress, "rpc", "127.0.0.1:8545", "RPC listen address")
	RootCmd.PersistentFlags().StringVar(&nodeURL, "node", "http://127.0.0.1:8545", "Node URL for client commands")
	RootCmd.PersistentFlags().StringVar(&walletPassword, "password", "", "Wallet password")
	RootCmd.PersistentFlags().IntVar(&miningWorkers, "workers", 1, "Proof-of-work worker count")
	RootCmd.PersistentFlags().DurationVar(&mineInterval, "mine-interval", 10*time.Second, "Background mining interval")

	viper.BindPFlag("data-dir", RootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("rpc", RootCmd.PersistentFlags().Lookup("rpc"))
	viper.BindPFlag("node", RootCmd.PersistentFlags().Lookup("node"))
	viper.BindPFlag("workers", RootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("mine-interval", RootCmd.PersistentFlags().Lookup("mine-interval"))

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(startCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(walletCmd)
	RootCmd.AddCommand(sendCmd)
	RootCmd.AddCommand(balanceCmd)
	RootCmd.AddCommand(mineCmd)
	RootCmd.AddCommand(validateCmd)
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.chaind"
	}
	return filepath.Join(homeDir, ".chaind")
}

// initConfig reads in the config file and environment variables if set.
func initConfig() {
	viper.SetDefault("rpc", "127.0.0.1:8545")
	viper.SetDefault("node", "http://127.0.0.1:8545")
	viper.SetDefault("workers", 1)
	viper.SetDefault("mine-interval", "10s")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.chaind")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Info("using config file")
	}
}

func genesisPath() string {
	return filepath.Join(dataDir, "genesis.json")
}

func walletPath() string {
	return filepath.Join(dataDir, "wallet", "wallet.dat")
}

func openWallet() (*account.Wallet, error) {
	return account.NewWallet(walletPath(), walletPassword)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("chaind v0.1.0")
	},
}

// startCmd runs the node: ledger, background miner and RPC server.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ledger node",
	RunE: func(cmd *cobra.Command, args []string) error {
		genesis, err := core.GenesisFromJSON(genesisPath())
		if err != nil {
			return err
		}

		ledger := genesis.Ledger()
		ledger.SetMiningWorkers(viper.GetInt("workers"))

		wallet, err := openWallet()
		if err != nil {
			return err
		}
		rewardAccount, err := wallet.GetDefaultAccount()
		if err != nil {
			return err
		}

		server := rpc.NewServer(viper.GetString("rpc"), ledger)
		if err := server.Start(); err != nil {
			return err
		}

		m := miner.NewMiner(ledger, rewardAccount.Address, viper.GetDuration("mine-interval"))
		m.SetNotify(server.BroadcastBlock)
		if err := m.Start(); err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"chain_id":   genesis.ChainID,
			"difficulty": genesis.Difficulty,
			"reward":     genesis.Reward,
			"miner":      rewardAccount.Address,
		}).Info("node started")

		termChan := make(chan os.Signal, 1)
		signal.Notify(termChan, syscall.SIGINT, syscall.SIGTERM)
		<-termChan

		m.Stop()
		logrus.Info("node stopped")
		return nil
	},
}
