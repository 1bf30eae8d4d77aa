package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/pbkdf2"

	"github.com/harlanhai/blockchain-server/pkg/crypto"
)

const kdfIterations = 4096

// KeyStore manages password-encrypted key files on disk. Key material
// is encrypted with AES-128-CTR under a PBKDF2-derived key and
// authenticated with a SHA-256 MAC.
type KeyStore struct {
	keyDir string
}

// EncryptedKey is the on-disk envelope of an encrypted private key.
type EncryptedKey struct {
	Address   string    `msgpack:"address"`
	Crypto    CryptoKey `msgpack:"crypto"`
	ID        string    `msgpack:"id"`
	Version   int       `msgpack:"version"`
	Timestamp int64     `msgpack:"timestamp"`
}

// CryptoKey holds the cipher and KDF parameters of an encrypted key.
type CryptoKey struct {
	Cipher       string       `msgpack:"cipher"`
	CipherText   string       `msgpack:"ciphertext"`
	CipherParams CipherParams `msgpack:"cipherparams"`
	KDF          string       `msgpack:"kdf"`
	KDFParams    KDFParams    `msgpack:"kdfparams"`
	MAC          string       `msgpack:"mac"`
}

// CipherParams holds the cipher IV.
type CipherParams struct {
	IV string `msgpack:"iv"`
}

// KDFParams holds the PBKDF2 parameters.
type KDFParams struct {
	DKLen int    `msgpack:"dklen"`
	N     int    `msgpack:"n"`
	Salt  string `msgpack:"salt"`
}

// NewKeyStore creates a keystore rooted at keyDir.
func NewKeyStore(keyDir string) *KeyStore {
	return &KeyStore{keyDir: keyDir}
}

// StoreKey encrypts a private key under the given password and writes
// it to a new key file, returning the file path.
func (ks *KeyStore) StoreKey(privateKey *ecdsa.PrivateKey, password string) (string, error) {
	if err := os.MkdirAll(ks.keyDir, 0700); err != nil {
		return "", err
	}

	address := crypto.PubkeyToAddress(&privateKey.PublicKey)

	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	iv := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	derivedKey := pbkdf2.Key([]byte(password), salt, kdfIterations, 32, sha256.New)

	privateKeyBytes := ethcrypto.FromECDSA(privateKey)
	block, err := aes.NewCipher(derivedKey[:16])
	if err != nil {
		return "", err
	}
	cipherText := make([]byte, len(privateKeyBytes))
	cipher.NewCTR(block, iv).XORKeyStream(cipherText, privateKeyBytes)

	mac := sha256.Sum256(append(derivedKey[16:32], cipherText...))

	encryptedKey := &EncryptedKey{
		Address: address,
		Crypto: CryptoKey{
			Cipher:     "aes-128-ctr",
			CipherText: hex.EncodeToString(cipherText),
			CipherParams: CipherParams{
				IV: hex.EncodeToString(iv),
			},
			KDF: "pbkdf2",
			KDFParams: KDFParams{
				DKLen: 32,
				N:     kdfIterations,
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(mac[:]),
		},
		ID:        generateUUID(),
		Version:   1,
		Timestamp: time.Now().Unix(),
	}

	data, err := msgpack.Marshal(encryptedKey)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("UTC--%s--%s",
		time.Now().UTC().Format("2006-01-02T15-04-05.000000000Z"),
		address)
	keyPath := filepath.Join(ks.keyDir, filename)

	if err := os.WriteFile(keyPath, data, 0600); err != nil {
		return "", err
	}
	return keyPath, nil
}

// LoadKey reads a key file and decrypts the private key with the given
// password.
func (ks *KeyStore) LoadKey(keyPath, password string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	var encryptedKey EncryptedKey
	if err := msgpack.Unmarshal(data, &encryptedKey); err != nil {
		return nil, err
	}

	salt, err := hex.DecodeString(encryptedKey.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, err
	}
	iv, err := hex.DecodeString(encryptedKey.Crypto.CipherParams.IV)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(encryptedKey.Crypto.CipherText)
	if err != nil {
		return nil, err
	}
	mac, err := hex.DecodeString(encryptedKey.Crypto.MAC)
	if err != nil {
		return nil, err
	}

	derivedKey := pbkdf2.Key([]byte(password), salt, encryptedKey.Crypto.KDFParams.N, 32, sha256.New)

	expectedMAC := sha256.Sum256(append(derivedKey[16:32], cipherText...))
	if !hmac.Equal(expectedMAC[:], mac) {
		return nil, errors.New("invalid password or corrupted key file")
	}

	block, err := aes.NewCipher(derivedKey[:16])
	if err != nil {
		return nil, err
	}
	privateKeyBytes := make([]byte, len(cipherText))
	cipher.NewCTR(block, iv).XORKeyStream(privateKeyBytes, cipherText)

	return ethcrypto.ToECDSA(privateKeyBytes)
}

// ListKeys returns the paths of all key files in the keystore.
func (ks *KeyStore) ListKeys() ([]string, error) {
	entries, err := os.ReadDir(ks.keyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var keyFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), "UTC--") {
			keyFiles = append(keyFiles, filepath.Join(ks.keyDir, entry.Name()))
		}
	}
	return keyFiles, nil
}

func generateUUID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
