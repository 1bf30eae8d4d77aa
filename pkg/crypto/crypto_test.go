package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestSum256HexDeterministic(t *testing.T) {
	a := Sum256Hex([]byte("alpha"), []byte("beta"))
	b := Sum256Hex([]byte("alpha"), []byte("beta"))
	if a != b {
		t.Fatalf("identical input produced different digests: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(a))
	}
	if a != strings.ToLower(a) {
		t.Fatalf("digest is not lowercase: %s", a)
	}
}

func TestSum256HexFieldOrder(t *testing.T) {
	a := Sum256Hex([]byte("alpha"), []byte("beta"))
	b := Sum256Hex([]byte("beta"), []byte("alpha"))
	if a == b {
		t.Fatal("digest must depend on field order")
	}
}

func TestSum256HexEmpty(t *testing.T) {
	// SHA-256 of the empty string.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum256Hex(); got != want {
		t.Fatalf("empty digest = %s, want %s", got, want)
	}
}

func TestPubkeyToAddress(t *testing.T) {
	privateKey, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	address := PubkeyToAddress(&privateKey.PublicKey)
	if !IsValidAddress(address) {
		t.Fatalf("derived address %q is not a valid address", address)
	}
	if again := PubkeyToAddress(&privateKey.PublicKey); again != address {
		t.Fatalf("address derivation is not deterministic: %s vs %s", address, again)
	}
}

func TestParsePrivateKeyHex(t *testing.T) {
	privateKey, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	hexKey := PrivateKeyToHex(privateKey)

	tests := []struct {
		name    string
		hexKey  string
		wantErr bool
	}{
		{name: "valid key", hexKey: hexKey},
		{name: "valid key with 0x prefix", hexKey: "0x" + hexKey},
		{name: "not hex", hexKey: "zz" + hexKey[2:], wantErr: true},
		{name: "wrong length", hexKey: hexKey[:32], wantErr: true},
		{name: "empty", hexKey: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrivateKeyHex(tt.hexKey)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKey) {
					t.Fatalf("ParsePrivateKeyHex() error = %v, want ErrInvalidKey", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrivateKeyHex() unexpected error = %v", err)
			}
		})
	}
}

func TestSignRecoverableRoundTrip(t *testing.T) {
	privateKey, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	digest := Sum256([]byte("payload"))

	signature, err := SignRecoverable(privateKey, digest)
	if err != nil {
		t.Fatalf("SignRecoverable() error = %v", err)
	}
	if len(signature) != SignatureLength {
		t.Fatalf("signature length = %d, want %d", len(signature), SignatureLength)
	}

	recovered, err := RecoverPubkey(digest, signature)
	if err != nil {
		t.Fatalf("RecoverPubkey() error = %v", err)
	}
	if PubkeyToAddress(recovered) != PubkeyToAddress(&privateKey.PublicKey) {
		t.Fatal("recovered public key does not match signer")
	}
	if !VerifySignature(recovered, digest, signature) {
		t.Fatal("signature does not verify against recovered key")
	}

	otherDigest := Sum256([]byte("other payload"))
	if VerifySignature(&privateKey.PublicKey, otherDigest, signature) {
		t.Fatal("signature verified against the wrong digest")
	}
}

func TestSignRecoverableMissingKey(t *testing.T) {
	digest := Sum256([]byte("payload"))
	if _, err := SignRecoverable(nil, digest); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("SignRecoverable(nil) error = %v, want ErrMissingKey", err)
	}
}
