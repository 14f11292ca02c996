package solana

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Program IDs
var (
	CREATE_CPMM_POOL_PROGRAM = solana.MustPublicKeyFromBase58("CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C")
)

// CPMM seeds
var (
	AUTH_SEED         = []byte("vault_and_lp_mint_auth_seed")
	AMM_CONFIG_SEED   = []byte("amm_config")
	POOL_SEED         = []byte("pool")
	POOL_LP_MINT_SEED = []byte("pool_lp_mint")
	POOL_VAULT_SEED   = []byte("pool_vault")
	OBSERVATION_SEED  = []byte("observation")
)

// PdaResult represents the result of PDA derivation
type PdaResult struct {
	PublicKey solana.PublicKey
	Nonce     uint8
}

// CpmmPoolAddresses holds every account a new CPMM pool is created with.
type CpmmPoolAddresses struct {
	ProgramID   solana.PublicKey `json:"program_id"`
	AmmConfig   solana.PublicKey `json:"amm_config"`
	Authority   solana.PublicKey `json:"authority"`
	PoolID      solana.PublicKey `json:"pool_id"`
	LpMint      solana.PublicKey `json:"lp_mint"`
	Token0Vault solana.PublicKey `json:"token_0_vault"`
	Token1Vault solana.PublicKey `json:"token_1_vault"`
	Observation solana.PublicKey `json:"observation"`
	Token0Mint  solana.PublicKey `json:"token_0_mint"`
	Token1Mint  solana.PublicKey `json:"token_1_mint"`
}

// u16ToBytes converts a uint16 to little-endian bytes
func u16ToBytes(num uint16) []byte {
	bytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(bytes, num)
	return bytes
}

func findPda(programId solana.PublicKey, what string, seeds ...[]byte) (PdaResult, error) {
	pda, nonce, err := solana.FindProgramAddress(seeds, programId)
	if err != nil {
		return PdaResult{}, fmt.Errorf("failed to find program address for %s PDA: %w", what, err)
	}
	return PdaResult{PublicKey: pda, Nonce: nonce}, nil
}

// GetCpmmPdaAmmConfigId derives the AMM config PDA for the given fee tier index.
func GetCpmmPdaAmmConfigId(programId solana.PublicKey, index uint16) (PdaResult, error) {
	return findPda(programId, "AMM config", AMM_CONFIG_SEED, u16ToBytes(index))
}

// GetCpmmPdaPoolId derives the pool PDA for an ordered mint pair.
func GetCpmmPdaPoolId(programId, ammConfigId, mint0, mint1 solana.PublicKey) (PdaResult, error) {
	return findPda(programId, "pool", POOL_SEED, ammConfigId.Bytes(), mint0.Bytes(), mint1.Bytes())
}

// GetPdaLpMint derives the LP mint of a pool.
func GetPdaLpMint(programId, poolId solana.PublicKey) (PdaResult, error) {
	return findPda(programId, "LP mint", POOL_LP_MINT_SEED, poolId.Bytes())
}

// GetPdaVault derives the vault of a pool for one mint.
func GetPdaVault(programId, poolId, mint solana.PublicKey) (PdaResult, error) {
	return findPda(programId, "vault", POOL_VAULT_SEED, poolId.Bytes(), mint.Bytes())
}

// OrderMints returns the pair sorted the way both programs key their pools.
func OrderMints(mintA, mintB solana.PublicKey) (solana.PublicKey, solana.PublicKey) {
	if bytes.Compare(mintA.Bytes(), mintB.Bytes()) > 0 {
		return mintB, mintA
	}
	return mintA, mintB
}

// DeriveCpmmPoolAddresses computes the destination pool accounts a launch
// creates. Mints are ordered before derivation.
func DeriveCpmmPoolAddresses(programId solana.PublicKey, configIndex uint16, mintA, mintB solana.PublicKey) (*CpmmPoolAddresses, error) {
	if mintA.IsZero() || mintB.IsZero() {
		return nil, fmt.Errorf("mint addresses cannot be zero")
	}
	if mintA.Equals(mintB) {
		return nil, fmt.Errorf("mint addresses must differ")
	}
	mint0, mint1 := OrderMints(mintA, mintB)

	ammConfig, err := GetCpmmPdaAmmConfigId(programId, configIndex)
	if err != nil {
		return nil, err
	}
	authority, err := findPda(programId, "authority", AUTH_SEED)
	if err != nil {
		return nil, err
	}
	pool, err := GetCpmmPdaPoolId(programId, ammConfig.PublicKey, mint0, mint1)
	if err != nil {
		return nil, err
	}
	lpMint, err := GetPdaLpMint(programId, pool.PublicKey)
	if err != nil {
		return nil, err
	}
	vault0, err := GetPdaVault(programId, pool.PublicKey, mint0)
	if err != nil {
		return nil, err
	}
	vault1, err := GetPdaVault(programId, pool.PublicKey, mint1)
	if err != nil {
		return nil, err
	}
	observation, err := findPda(programId, "observation", OBSERVATION_SEED, pool.PublicKey.Bytes())
	if err != nil {
		return nil, err
	}

	return &CpmmPoolAddresses{
		ProgramID:   programId,
		AmmConfig:   ammConfig.PublicKey,
		Authority:   authority.PublicKey,
		PoolID:      pool.PublicKey,
		LpMint:      lpMint.PublicKey,
		Token0Vault: vault0.PublicKey,
		Token1Vault: vault1.PublicKey,
		Observation: observation.PublicKey,
		Token0Mint:  mint0,
		Token1Mint:  mint1,
	}, nil
}
