package engine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"

	"curvedex/internal/dex"
	"curvedex/internal/ledger"
	solanautil "curvedex/pkg/solana"
)

// MintSource loads mint metadata from the chain.
type MintSource interface {
	FetchMint(ctx context.Context, mint solana.PublicKey) (*solanautil.MintInfo, uint64, error)
}

// RPCMintSource reads mints through a Solana RPC endpoint.
type RPCMintSource struct {
	client *rpc.Client
}

func NewRPCMintSource(endpoint string) *RPCMintSource {
	return &RPCMintSource{client: rpc.New(endpoint)}
}

func (r *RPCMintSource) FetchMint(ctx context.Context, mint solana.PublicKey) (*solanautil.MintInfo, uint64, error) {
	return solanautil.FetchMint(ctx, r.client, mint)
}

// SyncMint fetches a mint from src and registers it with its on-chain
// decimals, program and transfer-fee schedule.
func (s *Service) SyncMint(ctx context.Context, src MintSource, address string) (ledger.MintSpec, error) {
	key, err := solanautil.ParsePublicKey(address)
	if err != nil {
		return ledger.MintSpec{}, fmt.Errorf("%w: %v", dex.ErrInvalidInput, err)
	}
	info, epoch, err := src.FetchMint(ctx, key)
	if err != nil {
		return ledger.MintSpec{}, err
	}
	spec := ledger.FromMintInfo(info)
	if err := s.RegisterMint(ctx, spec); err != nil {
		return ledger.MintSpec{}, err
	}
	log.WithFields(log.Fields{
		"mint":      spec.Address,
		"program":   spec.Program,
		"decimals":  spec.Decimals,
		"supported": spec.Supported,
		"epoch":     epoch,
	}).Info("Mint synced")
	return spec, nil
}
