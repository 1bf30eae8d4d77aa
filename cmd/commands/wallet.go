package commands

import (
	"github.com/spf13/cobra"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallet accounts",
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		wallet, err := openWallet()
		if err != nil {
			return err
		}
		acct, err := wallet.CreateAccount()
		if err != nil {
			return err
		}
		cmd.Printf("address: %s\n", acct.Address)
		return nil
	},
}

var walletImportCmd = &cobra.Command{
	Use:   "import <private-key-hex>",
	Short: "Import an account from a hex-encoded private key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wallet, err := openWallet()
		if err != nil {
			return err
		}
		acct, err := wallet.ImportAccount(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("address: %s\n", acct.Address)
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallet accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		wallet, err := openWallet()
		if err != nil {
			return err
		}
		for _, address := range wallet.ListAccounts() {
			marker := " "
			if address == wallet.DefaultAccount {
				marker = "*"
			}
			cmd.Printf("%s %s\n", marker, address)
		}
		return nil
	},
}

func init() {
	walletCmd.AddCommand(walletNewCmd)
	walletCmd.AddCommand(walletImportCmd)
	walletCmd.AddCommand(walletListCmd)
}
