package solana

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/blocto/solana-go-sdk/types"
)

// KeyStoreEntry is the on-disk form of an operator key
type KeyStoreEntry struct {
	Address      string `json:"address"`
	EncryptedKey string `json:"encrypted_key"`
	Version      int    `json:"version"`
}

// Keystore keeps AES-256-GCM encrypted operator keys, one JSON file per address.
// The launch keeper signs launches as the operator it loads from here.
type Keystore struct {
	dir string
}

// NewKeystore creates a keystore rooted at dir.
func NewKeystore(dir string) *Keystore {
	return &Keystore{dir: dir}
}

// Generate creates a fresh operator account.
func (ks *Keystore) Generate() types.Account {
	return types.NewAccount()
}

// Encrypt seals a private key with a password-derived key.
func (ks *Keystore) Encrypt(privateKey []byte, password string) (string, error) {
	gcm, err := newGCM(password)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, privateKey, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a key sealed by Encrypt.
func (ks *Keystore) Decrypt(encryptedKey string, password string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(encryptedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	gcm, err := newGCM(password)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// Save encrypts account and writes it as <address>.json.
func (ks *Keystore) Save(account types.Account, password string) (string, error) {
	encrypted, err := ks.Encrypt(account.PrivateKey, password)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt private key: %w", err)
	}

	address := account.PublicKey.ToBase58()
	data, err := json.MarshalIndent(KeyStoreEntry{
		Address:      address,
		EncryptedKey: encrypted,
		Version:      1,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal keystore entry: %w", err)
	}

	if err := os.MkdirAll(ks.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create keystore directory: %w", err)
	}
	if err := os.WriteFile(ks.path(address), data, 0600); err != nil {
		return "", fmt.Errorf("failed to write keystore entry: %w", err)
	}
	return address, nil
}

// Load reads and decrypts the operator stored under address.
func (ks *Keystore) Load(address string, password string) (types.Account, error) {
	data, err := os.ReadFile(ks.path(address))
	if err != nil {
		return types.Account{}, fmt.Errorf("failed to read keystore entry: %w", err)
	}

	var entry KeyStoreEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return types.Account{}, fmt.Errorf("failed to unmarshal keystore entry: %w", err)
	}
	if entry.Address != address {
		return types.Account{}, fmt.Errorf("address mismatch: expected %s, got %s", address, entry.Address)
	}

	privateKey, err := ks.Decrypt(entry.EncryptedKey, password)
	if err != nil {
		return types.Account{}, err
	}
	account, err := types.AccountFromBytes(privateKey)
	if err != nil {
		return types.Account{}, fmt.Errorf("failed to create account from private key: %w", err)
	}
	return account, nil
}

// AddressFromPrivateKey returns the base58 address of a raw private key.
func AddressFromPrivateKey(privateKey []byte) (string, error) {
	account, err := types.AccountFromBytes(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to create account from private key: %w", err)
	}
	return account.PublicKey.ToBase58(), nil
}

func (ks *Keystore) path(address string) string {
	return filepath.Join(ks.dir, address+".json")
}

func newGCM(password string) (cipher.AEAD, error) {
	key := sha256.Sum256([]byte(password))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
