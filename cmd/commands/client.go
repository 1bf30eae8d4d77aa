package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harlanhai/blockchain-server/pkg/core"
)

var (
	sendFrom   string
	sendAmount int64
)

func nodeClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Minute}
}

func getJSON(path string, out interface{}) error {
	resp, err := nodeClient().Get(viper.GetString("node") + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeNodeResponse(resp, out)
}

func postJSON(path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := nodeClient().Post(viper.GetString("node")+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeNodeResponse(resp, out)
}

func decodeNodeResponse(resp *http.Response, out interface{}) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var nodeErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &nodeErr) == nil && nodeErr.Error != "" {
			return fmt.Errorf("node: %s", nodeErr.Error)
		}
		return fmt.Errorf("node: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// sendCmd builds and signs a transfer locally, then submits it to the
// node. The private key never leaves the wallet.
var sendCmd = &cobra.Command{
	Use:   "send <to-address>",
	Short: "Send coins to an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wallet, err := openWallet()
		if err != nil {
			return err
		}

		acct, err := wallet.GetDefaultAccount()
		if sendFrom != "" {
			acct, err = wallet.GetAccount(sendFrom)
		}
		if err != nil {
			return err
		}

		tx := core.NewTransaction(acct.Address, args[0], sendAmount)
		if err := tx.Sign(acct.ExportPrivateKeyHex()); err != nil {
			return err
		}

		var admitted core.Transaction
		if err := postJSON("/transactions", tx, &admitted); err != nil {
			return err
		}
		cmd.Printf("transaction %s admitted\n", admitted.Hash)
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Show the balance of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Address string `json:"address"`
			Balance int64  `json:"balance"`
		}
		if err := getJSON("/accounts/"+args[0]+"/balance", &result); err != nil {
			return err
		}
		cmd.Printf("%d\n", result.Balance)
		return nil
	},
}

// mineCmd forces a single synchronous mining round on the node.
var mineCmd = &cobra.Command{
	Use:   "mine [reward-address]",
	Short: "Mine the pending transactions into a block",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rewardAddress := ""
		if len(args) == 1 {
			rewardAddress = args[0]
		} else {
			wallet, err := openWallet()
			if err != nil {
				return err
			}
			acct, err := wallet.GetDefaultAccount()
			if err != nil {
				return err
			}
			rewardAddress = acct.Address
		}

		var block core.Block
		body := map[string]string{"reward_address": rewardAddress}
		if err := postJSON("/mine", body, &block); err != nil {
			return err
		}
		cmd.Printf("block %d mined: %s (nonce %d, %d txs)\n",
			block.Index, block.Hash, block.Nonce, len(block.Transactions))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the integrity of the node's chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Valid bool `json:"valid"`
		}
		if err := getJSON("/chain/valid", &result); err != nil {
			return err
		}
		cmd.Printf("valid: %v\n", result.Valid)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendFrom, "from", "", "Sender address (default: wallet default account)")
	sendCmd.Flags().Int64Var(&sendAmount, "amount", 0, "Amount to send")
}
