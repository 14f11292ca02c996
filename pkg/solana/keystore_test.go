package solana

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeystore(t *testing.T) {
	ks := NewKeystore(t.TempDir())

	t.Run("Generate", func(t *testing.T) {
		account := ks.Generate()
		assert.NotEmpty(t, account.PublicKey.ToBase58())
		assert.Equal(t, 64, len(account.PrivateKey), "Private key should be 64 bytes")
	})

	t.Run("Encrypt and Decrypt", func(t *testing.T) {
		account := ks.Generate()

		encrypted, err := ks.Encrypt(account.PrivateKey, "operator-password")
		require.NoError(t, err)
		assert.NotEmpty(t, encrypted)

		decrypted, err := ks.Decrypt(encrypted, "operator-password")
		require.NoError(t, err)
		assert.Equal(t, []byte(account.PrivateKey), decrypted)
	})

	t.Run("Save and Load", func(t *testing.T) {
		account := ks.Generate()

		address, err := ks.Save(account, "operator-password")
		require.NoError(t, err)
		assert.Equal(t, account.PublicKey.ToBase58(), address)

		loaded, err := ks.Load(address, "operator-password")
		require.NoError(t, err)
		assert.Equal(t, account.PublicKey, loaded.PublicKey)
	})

	t.Run("Address From Private Key", func(t *testing.T) {
		account := ks.Generate()
		address, err := AddressFromPrivateKey(account.PrivateKey)
		require.NoError(t, err)
		assert.Equal(t, account.PublicKey.ToBase58(), address)
	})

	t.Run("Error Cases", func(t *testing.T) {
		account := ks.Generate()
		encrypted, err := ks.Encrypt(account.PrivateKey, "password1")
		require.NoError(t, err)

		_, err = ks.Decrypt(encrypted, "password2")
		assert.Error(t, err)

		_, err = ks.Load("missing", "password1")
		assert.Error(t, err)

		_, err = AddressFromPrivateKey([]byte("invalid-key"))
		assert.Error(t, err)
	})
}
