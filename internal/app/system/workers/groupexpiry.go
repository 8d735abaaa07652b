// internal/app/system/workers/groupexpiry.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/guildtools/partyhub/internal/app/system/party"
	"go.uber.org/zap"
)

// GroupExpiry is a background worker that deletes groups older than the TTL
// and broadcasts their removal. It backs up the Mongo TTL index, which
// reclaims documents but cannot notify connected clients.
type GroupExpiry struct {
	life     *party.Lifecycle
	log      *zap.Logger
	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewGroupExpiry creates a new expiry worker.
//
// Parameters:
//   - life: the group lifecycle service
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 1 minute)
//   - ttl: how old a group must be before it expires (e.g., 1 hour)
func NewGroupExpiry(life *party.Lifecycle, logger *zap.Logger, interval, ttl time.Duration) *GroupExpiry {
	return &GroupExpiry{
		life:     life,
		log:      logger,
		interval: interval,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *GroupExpiry) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("group expiry worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("ttl", w.ttl))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *GroupExpiry) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("group expiry worker stopped")
}

func (w *GroupExpiry) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *GroupExpiry) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.life.SweepExpired(ctx, w.ttl)
	if err != nil {
		w.log.Error("failed to sweep expired groups", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("expired groups removed", zap.Int("count", count))
	}
}
