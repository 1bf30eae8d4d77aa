package keystore

import (
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

func TestStoreAndLoadKey(t *testing.T) {
	ks := NewKeyStore(t.TempDir())

	privateKey, err := ethcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	keyPath, err := ks.StoreKey(privateKey, "hunter2")
	if err != nil {
		t.Fatalf("StoreKey() error = %v", err)
	}

	loaded, err := ks.LoadKey(keyPath, "hunter2")
	if err != nil {
		t.Fatalf("LoadKey() error = %v", err)
	}
	if loaded.D.Cmp(privateKey.D) != 0 {
		t.Fatal("loaded key differs from stored key")
	}
}

func TestLoadKeyWrongPassword(t *testing.T) {
	ks := NewKeyStore(t.TempDir())

	privateKey, err := ethcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	keyPath, err := ks.StoreKey(privateKey, "correct")
	if err != nil {
		t.Fatalf("StoreKey() error = %v", err)
	}

	if _, err := ks.LoadKey(keyPath, "wrong"); err == nil {
		t.Fatal("LoadKey() with wrong password must fail")
	}
}

func TestListKeys(t *testing.T) {
	ks := NewKeyStore(t.TempDir())

	keys, err := ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys() on empty dir error = %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("empty keystore listed %d keys", len(keys))
	}

	for i := 0; i < 2; i++ {
		privateKey, err := ethcrypto.GenerateKey()
		if err != nil {
			t.Fatalf("GenerateKey() error = %v", err)
		}
		if _, err := ks.StoreKey(privateKey, ""); err != nil {
			t.Fatalf("StoreKey() error = %v", err)
		}
	}

	keys, err = ks.ListKeys()
	if err != nil {
		t.Fatalf("ListKeys() error = %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("ListKeys() length = %d, want 2", len(keys))
	}
}
