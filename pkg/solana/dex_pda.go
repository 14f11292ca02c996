package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DEX_PROGRAM is the bonding-curve program the pool accounts are keyed under.
var DEX_PROGRAM = solana.MustPublicKeyFromBase58("8454oEni7sVVVjS4be7V7d92ShgcjtiRcyDb82vcRmDQ")

// Seeds for PDA derivation
var (
	DEX_AUTHORITY_SEED = []byte("dex_authority")
	DEX_STATE_SEED     = []byte("dex_state")
	DEX_VAULT_SEED     = []byte("dex_vault")
	DEX_CONFIG_SEED    = []byte("dex_config")
)

// DexAddresses are the accounts of one bonding-curve pool.
type DexAddresses struct {
	Authority  solana.PublicKey
	State      solana.PublicKey
	Token0Mint solana.PublicKey
	Token1Mint solana.PublicKey
	Vault0     solana.PublicKey
	Vault1     solana.PublicKey
}

// GetDexConfigId derives the config account for a config index.
func GetDexConfigId(programId solana.PublicKey, index uint16) (PdaResult, error) {
	return findPda(programId, "dex config", DEX_CONFIG_SEED, u16ToBytes(index))
}

// DeriveDexAddresses orders the mints and derives the pool state, authority
// and both vaults.
func DeriveDexAddresses(programId, mintA, mintB solana.PublicKey) (*DexAddresses, error) {
	if mintA.Equals(mintB) {
		return nil, fmt.Errorf("mint addresses must differ")
	}
	mint0, mint1 := OrderMints(mintA, mintB)

	authority, err := findPda(programId, "dex authority", DEX_AUTHORITY_SEED)
	if err != nil {
		return nil, err
	}
	state, err := findPda(programId, "dex state", DEX_STATE_SEED, mint0.Bytes(), mint1.Bytes())
	if err != nil {
		return nil, err
	}
	vault0, err := findPda(programId, "dex vault", DEX_VAULT_SEED, state.PublicKey.Bytes(), mint0.Bytes())
	if err != nil {
		return nil, err
	}
	vault1, err := findPda(programId, "dex vault", DEX_VAULT_SEED, state.PublicKey.Bytes(), mint1.Bytes())
	if err != nil {
		return nil, err
	}

	return &DexAddresses{
		Authority:  authority.PublicKey,
		State:      state.PublicKey,
		Token0Mint: mint0,
		Token1Mint: mint1,
		Vault0:     vault0.PublicKey,
		Vault1:     vault1.PublicKey,
	}, nil
}

// ParsePublicKey validates a base58 address.
func ParsePublicKey(address string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid address %q: %w", address, err)
	}
	return key, nil
}
