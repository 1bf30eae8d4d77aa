package account

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/harlanhai/blockchain-server/pkg/keystore"
)

// Wallet is a caller-side cache of accounts keyed by address. The
// wallet file holds only addresses and key-file references; private
// keys live encrypted in the keystore. The ledger core never consults
// the wallet.
type Wallet struct {
	Accounts       map[string]*Account
	DefaultAccount string

	mu         sync.RWMutex
	walletPath string
	keyStore   *keystore.KeyStore
	password   string
}

type walletData struct {
	Accounts       []accountRef `msgpack:"accounts"`
	DefaultAccount string       `msgpack:"default_account"`
	UpdatedAt      int64        `msgpack:"updated_at"`
}

type accountRef struct {
	Address   string `msgpack:"address"`
	KeyFile   string `msgpack:"key_file"`
	CreatedAt int64  `msgpack:"created_at"`
}

// NewWallet opens (or creates) a wallet at walletPath. Key files are
// kept in a keystore directory next to the wallet file.
func NewWallet(walletPath, password string) (*Wallet, error) {
	wallet := &Wallet{
		Accounts:   make(map[string]*Account),
		walletPath: walletPath,
		keyStore:   keystore.NewKeyStore(filepath.Join(filepath.Dir(walletPath), "keystore")),
		password:   password,
	}

	if err := os.MkdirAll(filepath.Dir(walletPath), 0700); err != nil {
		return nil, err
	}

	if _, err := os.Stat(walletPath); err == nil {
		if err := wallet.load(); err != nil {
			return nil, err
		}
	}

	return wallet, nil
}

// CreateAccount generates a new account, stores its encrypted key and
// adds it to the wallet. The first account becomes the default.
func (w *Wallet) CreateAccount() (*Account, error) {
	account, err := NewAccount()
	if err != nil {
		return nil, err
	}
	return w.add(account)
}

// ImportAccount imports an account from a hex-encoded private key.
func (w *Wallet) ImportAccount(privateKeyHex string) (*Account, error) {
	account, err := FromPrivateKeyHex(privateKeyHex)
	if err != nil {
		return nil, err
	}

	w.mu.RLock()
	_, exists := w.Accounts[account.Address]
	w.mu.RUnlock()
	if exists {
		return nil, errors.New("account already exists in wallet")
	}

	return w.add(account)
}

func (w *Wallet) add(account *Account) (*Account, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	keyPath, err := w.keyStore.StoreKey(account.PrivateKey, w.password)
	if err != nil {
		return nil, fmt.Errorf("store key: %w", err)
	}

	w.Accounts[account.Address] = account
	if len(w.Accounts) == 1 {
		w.DefaultAccount = account.Address
	}

	if err := w.saveLocked(account.Address, keyPath); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount returns the account with the given address.
func (w *Wallet) GetAccount(address string) (*Account, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	account, exists := w.Accounts[address]
	if !exists {
		return nil, errors.New("account not found")
	}
	return account, nil
}

// GetDefaultAccount returns the wallet's default account.
func (w *Wallet) GetDefaultAccount() (*Account, error) {
	w.mu.RLock()
	address := w.DefaultAccount
	w.mu.RUnlock()

	if address == "" {
		return nil, errors.New("no default account set")
	}
	return w.GetAccount(address)
}

// SetDefaultAccount sets the default account by address.
func (w *Wallet) SetDefaultAccount(address string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.Accounts[address]; !exists {
		return errors.New("account not found")
	}
	w.DefaultAccount = address
	return w.saveLocked("", "")
}

// ListAccounts returns the addresses of all accounts in the wallet.
func (w *Wallet) ListAccounts() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	addresses := make([]string, 0, len(w.Accounts))
	for address := range w.Accounts {
		addresses = append(addresses, address)
	}
	return addresses
}

// saveLocked persists the wallet file. When address is non-empty, its
// key-file reference is updated or added first. Callers hold w.mu.
func (w *Wallet) saveLocked(address, keyPath string) error {
	data := &walletData{DefaultAccount: w.DefaultAccount}
	if raw, err := os.ReadFile(w.walletPath); err == nil {
		if err := msgpack.Unmarshal(raw, data); err != nil {
			data = &walletData{DefaultAccount: w.DefaultAccount}
		}
	}

	if address != "" {
		found := false
		for i := range data.Accounts {
			if data.Accounts[i].Address == address {
				data.Accounts[i].KeyFile = keyPath
				found = true
				break
			}
		}
		if !found {
			data.Accounts = append(data.Accounts, accountRef{
				Address:   address,
				KeyFile:   keyPath,
				CreatedAt: time.Now().Unix(),
			})
		}
	}

	data.DefaultAccount = w.DefaultAccount
	data.UpdatedAt = time.Now().Unix()

	raw, err := msgpack.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(w.walletPath, raw, 0600)
}

// load reads the wallet file and decrypts every referenced key.
func (w *Wallet) load() error {
	raw, err := os.ReadFile(w.walletPath)
	if err != nil {
		return err
	}

	var data walletData
	if err := msgpack.Unmarshal(raw, &data); err != nil {
		return err
	}

	w.Accounts = make(map[string]*Account)
	for _, ref := range data.Accounts {
		privateKey, err := w.keyStore.LoadKey(ref.KeyFile, w.password)
		if err != nil {
			return fmt.Errorf("load key %s: %w", ref.KeyFile, err)
		}
		account, err := NewAccountFromKey(privateKey)
		if err != nil {
			return err
		}
		if account.Address != ref.Address {
			return fmt.Errorf("address mismatch for account %s", ref.Address)
		}
		w.Accounts[account.Address] = account
	}

	w.DefaultAccount = data.DefaultAccount
	return nil
}
