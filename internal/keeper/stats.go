package keeper

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"curvedex/internal/dex"
	"curvedex/internal/engine"
	"curvedex/internal/store"
)

// DefaultStatsSchedule refreshes pool gauges every 10 seconds.
const DefaultStatsSchedule = "*/10 * * * * *"

const statsMaxConcurrent = 4

type PoolReader interface {
	Pools(ctx context.Context, filter store.PoolFilter) ([]dex.State, error)
	Pool(ctx context.Context, id string) (*engine.PoolView, error)
}

// StatsSink receives the balances of pools that are still trading.
type StatsSink interface {
	SetPool(id string, balances [2]uint64, remaining uint64)
	DropPool(id string)
}

// PoolStats mirrors live pool balances into a sink.
type PoolStats struct {
	pools PoolReader
	sink  StatsSink

	mu   sync.Mutex
	seen map[string]bool
}

func NewPoolStats(pools PoolReader, sink StatsSink) *PoolStats {
	return &PoolStats{pools: pools, sink: sink, seen: make(map[string]bool)}
}

// Update refreshes every trading pool and drops pools seen on an earlier
// run that are no longer trading.
func (p *PoolStats) Update(ctx context.Context) error {
	trading := dex.PhaseTrading
	pools, err := p.pools.Pools(ctx, store.PoolFilter{Phase: &trading})
	if err != nil {
		return err
	}

	current := make(map[string]bool, len(pools))
	var mu sync.Mutex
	sem := make(chan struct{}, statsMaxConcurrent)
	var wg sync.WaitGroup
	for _, pool := range pools {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()

			v, err := p.pools.Pool(ctx, id)
			if err != nil {
				log.WithError(err).WithField("pool", id).Warn("> Failed to read pool")
				return
			}
			if v.Phase != dex.PhaseTrading {
				return
			}
			p.sink.SetPool(id, v.Balances, v.Remaining)
			mu.Lock()
			current[id] = true
			mu.Unlock()
		}(pool.ID)
	}
	wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.seen {
		if !current[id] {
			p.sink.DropPool(id)
		}
	}
	p.seen = current
	log.WithField("pools", len(current)).Debug("> Pool stats updated")
	return nil
}

func (p *PoolStats) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	if spec == "" {
		spec = DefaultStatsSchedule
	}
	return c.AddFunc(spec, func() {
		if err := p.Update(context.Background()); err != nil {
			log.WithError(err).Error("> Pool stats update failed")
		}
	})
}
