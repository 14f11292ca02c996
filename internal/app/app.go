// Package app wires settings into a running engine for the binaries.
package app

import (
	"context"
	"os"

	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"

	"curvedex/internal/dex"
	"curvedex/internal/engine"
	"curvedex/internal/ledger"
	"curvedex/internal/metrics"
	"curvedex/internal/notify"
	"curvedex/internal/store"
	"curvedex/pkg/config"
)

type App struct {
	Settings *config.Settings
	Engine   *engine.Service
	Hub      *notify.Hub
	Metrics  *metrics.Metrics
	Mints    engine.MintSource

	publisher *config.Publisher
}

// currentEpoch asks the RPC node for the epoch transfer-fee schedules are
// evaluated at. Without an endpoint the ledger runs at epoch 0.
func currentEpoch(ctx context.Context, endpoint string) uint64 {
	if endpoint == "" {
		return 0
	}
	info, err := rpc.New(endpoint).GetEpochInfo(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		log.WithError(err).Warn("Failed to read epoch, using 0")
		return 0
	}
	return info.Epoch
}

// New opens the configured store and assembles the engine with its
// notifiers. RabbitMQ is used when RABBITMQ_HOST is set; events listed in
// queued are then published to their queues.
func New(ctx context.Context, s *config.Settings, queued ...string) (*App, error) {
	opts, err := s.EngineOptions()
	if err != nil {
		return nil, err
	}

	var st store.Store
	switch s.Store {
	case "memory":
		st = store.NewMemory(ledger.NewMemory())
		log.Warn("Using in-memory store, state is lost on exit")
	default:
		config.InitDB()
		st = store.NewGorm(config.DB, ledger.NewGorm(config.DB, currentEpoch(ctx, s.SolanaRPC)))
	}

	a := &App{Settings: s, Hub: notify.NewHub()}
	a.Metrics, err = metrics.New(a.Hub.Subscribers)
	if err != nil {
		return nil, err
	}

	notifiers := notify.Fanout{notify.Log{}, a.Hub}
	if os.Getenv("RABBITMQ_HOST") != "" {
		config.InitRabbitMQ()
		a.publisher, err = config.NewPublisher()
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, notify.NewQueue(a.publisher, queued...))
	} else {
		log.Info("RabbitMQ not configured, events are not queued")
	}

	if s.SolanaRPC != "" {
		a.Mints = engine.NewRPCMintSource(s.SolanaRPC)
	}
	a.Engine = engine.New(st, notifiers, a.Metrics, opts)
	return a, nil
}

// DefaultQueued are the events the api publishes to RabbitMQ.
var DefaultQueued = []string{dex.EventReadyToLaunch, dex.EventLaunched}

func (a *App) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if config.RabbitMQ != nil {
		config.RabbitMQ.Close()
	}
}
