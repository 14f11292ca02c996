// Package keeper launches pools once they become ready, either on a cron
// sweep or when a ready_to_launch message arrives.
package keeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"curvedex/internal/dex"
	"curvedex/internal/migration"
	"curvedex/internal/notify"
)

// DefaultSchedule sweeps every 30 seconds.
const DefaultSchedule = "*/30 * * * * *"

type Launcher interface {
	ReadyPools(ctx context.Context, limit int) ([]dex.State, error)
	Launch(ctx context.Context, poolID string, req migration.LaunchRequest) (*dex.LaunchedEvent, error)
}

type Keeper struct {
	launcher   Launcher
	operator   string
	recipients [2]string
	batch      int
	timeout    time.Duration

	mu       sync.Mutex
	inflight map[string]bool
}

// New returns a keeper that launches as operator and pays protocol fees to
// recipients.
func New(launcher Launcher, operator string, recipients [2]string) *Keeper {
	return &Keeper{
		launcher:   launcher,
		operator:   operator,
		recipients: recipients,
		batch:      50,
		timeout:    time.Minute,
		inflight:   make(map[string]bool),
	}
}

func (k *Keeper) claim(poolID string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.inflight[poolID] {
		return false
	}
	k.inflight[poolID] = true
	return true
}

func (k *Keeper) release(poolID string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.inflight, poolID)
}

// LaunchOne launches poolID. A pool that is already launched, or being
// launched by this keeper, is not an error.
func (k *Keeper) LaunchOne(ctx context.Context, poolID string) error {
	if !k.claim(poolID) {
		return nil
	}
	defer k.release(poolID)

	ev, err := k.launcher.Launch(ctx, poolID, migration.LaunchRequest{
		Admin:         k.operator,
		FeeRecipients: k.recipients,
	})
	if errors.Is(err, dex.ErrLaunched) {
		log.WithField("dex_id", poolID).Info("> Pool already launched")
		return nil
	}
	if err != nil {
		return fmt.Errorf("launch %s: %w", poolID, err)
	}
	log.WithFields(log.Fields{
		"dex_id":    poolID,
		"amm_pool":  ev.AmmPoolID,
		"lp_burned": ev.LpBurned,
	}).Info("> Pool launched")
	return nil
}

// Sweep launches every ready pool. Failures are logged and counted, the
// sweep goes on with the next pool.
func (k *Keeper) Sweep(ctx context.Context) (launched, failed int, err error) {
	pools, err := k.launcher.ReadyPools(ctx, k.batch)
	if err != nil {
		return 0, 0, err
	}
	for _, pool := range pools {
		if err := k.LaunchOne(ctx, pool.ID); err != nil {
			log.WithError(err).WithField("dex_id", pool.ID).Error("> Launch failed")
			failed++
			continue
		}
		launched++
	}
	return launched, failed, nil
}

// Schedule registers the sweep on c.
func (k *Keeper) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
		defer cancel()
		launched, failed, err := k.Sweep(ctx)
		if err != nil {
			log.WithError(err).Error("> Sweep failed")
			return
		}
		if launched+failed > 0 {
			log.WithFields(log.Fields{"launched": launched, "failed": failed}).Info("> Sweep done")
		}
	})
}

// HandleMessage consumes an event envelope from the ready_to_launch queue.
// Other events are acknowledged and ignored.
func (k *Keeper) HandleMessage(ctx context.Context) func([]byte) error {
	return func(body []byte) error {
		var env notify.Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			log.WithError(err).Error("> Dropping malformed message")
			return nil
		}
		if env.Event != dex.EventReadyToLaunch {
			return nil
		}
		var ev dex.ReadyToLaunchEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			log.WithError(err).Error("> Dropping malformed ready_to_launch event")
			return nil
		}
		ctx, cancel := context.WithTimeout(ctx, k.timeout)
		defer cancel()
		return k.LaunchOne(ctx, ev.PoolID)
	}
}
