package account

import (
	"errors"
	"testing"

	"github.com/harlanhai/blockchain-server/pkg/crypto"
)

func TestNewAccount(t *testing.T) {
	acct, err := NewAccount()
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}
	if acct.PrivateKey == nil || acct.PublicKey == nil {
		t.Fatal("account is missing key material")
	}
	if !crypto.IsValidAddress(acct.Address) {
		t.Fatalf("account address %q is not valid", acct.Address)
	}
}

func TestImportRoundTrip(t *testing.T) {
	acct, err := NewAccount()
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}

	imported, err := FromPrivateKeyHex(acct.ExportPrivateKeyHex())
	if err != nil {
		t.Fatalf("FromPrivateKeyHex() error = %v", err)
	}

	if imported.Address != acct.Address {
		t.Fatalf("imported address = %s, want %s", imported.Address, acct.Address)
	}
	if imported.PublicKey.X.Cmp(acct.PublicKey.X) != 0 || imported.PublicKey.Y.Cmp(acct.PublicKey.Y) != 0 {
		t.Fatal("imported public key differs from original")
	}
}

func TestFromPrivateKeyHexInvalid(t *testing.T) {
	tests := []struct {
		name   string
		hexKey string
	}{
		{name: "not hex", hexKey: "not-a-key"},
		{name: "wrong length", hexKey: "abcdef"},
		{name: "empty", hexKey: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromPrivateKeyHex(tt.hexKey); !errors.Is(err, crypto.ErrInvalidKey) {
				t.Fatalf("FromPrivateKeyHex(%q) error = %v, want ErrInvalidKey", tt.hexKey, err)
			}
		})
	}
}

func TestDistinctAccountsDistinctAddresses(t *testing.T) {
	a, err := NewAccount()
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}
	b, err := NewAccount()
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}
	if a.Address == b.Address {
		t.Fatal("two generated accounts share an address")
	}
}
