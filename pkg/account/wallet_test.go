package account

import (
	"path/filepath"
	"testing"
)

func TestWalletCreateAndReload(t *testing.T) {
	walletPath := filepath.Join(t.TempDir(), "wallet.dat")

	wallet, err := NewWallet(walletPath, "hunter2")
	if err != nil {
		t.Fatalf("NewWallet() error = %v", err)
	}

	acct, err := wallet.CreateAccount()
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if wallet.DefaultAccount != acct.Address {
		t.Fatalf("first account should become default, got %q", wallet.DefaultAccount)
	}

	reloaded, err := NewWallet(walletPath, "hunter2")
	if err != nil {
		t.Fatalf("reopen wallet error = %v", err)
	}

	got, err := reloaded.GetAccount(acct.Address)
	if err != nil {
		t.Fatalf("GetAccount() after reload error = %v", err)
	}
	if got.ExportPrivateKeyHex() != acct.ExportPrivateKeyHex() {
		t.Fatal("reloaded account has different key material")
	}
	if reloaded.DefaultAccount != acct.Address {
		t.Fatalf("default account lost on reload, got %q", reloaded.DefaultAccount)
	}
}

func TestWalletWrongPassword(t *testing.T) {
	walletPath := filepath.Join(t.TempDir(), "wallet.dat")

	wallet, err := NewWallet(walletPath, "correct")
	if err != nil {
		t.Fatalf("NewWallet() error = %v", err)
	}
	if _, err := wallet.CreateAccount(); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	if _, err := NewWallet(walletPath, "wrong"); err == nil {
		t.Fatal("opening wallet with wrong password should fail")
	}
}

func TestWalletImportDuplicate(t *testing.T) {
	walletPath := filepath.Join(t.TempDir(), "wallet.dat")

	wallet, err := NewWallet(walletPath, "")
	if err != nil {
		t.Fatalf("NewWallet() error = %v", err)
	}
	acct, err := wallet.CreateAccount()
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	if _, err := wallet.ImportAccount(acct.ExportPrivateKeyHex()); err == nil {
		t.Fatal("importing an existing account should fail")
	}

	other, err := NewAccount()
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}
	imported, err := wallet.ImportAccount(other.ExportPrivateKeyHex())
	if err != nil {
		t.Fatalf("ImportAccount() error = %v", err)
	}
	if imported.Address != other.Address {
		t.Fatalf("imported address = %s, want %s", imported.Address, other.Address)
	}

	if got := len(wallet.ListAccounts()); got != 2 {
		t.Fatalf("ListAccounts() length = %d, want 2", got)
	}
}
