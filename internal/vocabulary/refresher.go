package vocabulary

import (
	"context"
	"time"

	"intent-engine/internal/common/logger"
)

// Refresher reloads the store from a Loader on a fixed cadence. A failed load
// keeps the previous snapshot.
type Refresher struct {
	loader   Loader
	store    *Store
	interval time.Duration
	logger   logger.Logger
}

func NewRefresher(loader Loader, store *Store, interval time.Duration, log logger.Logger) *Refresher {
	return &Refresher{
		loader:   loader,
		store:    store,
		interval: interval,
		logger:   logger.ForComponent(log, "vocabulary-refresher"),
	}
}

func (r *Refresher) RefreshOnce(ctx context.Context) error {
	snap, err := r.loader.Load(ctx)
	if err != nil {
		r.logger.Warn("vocabulary refresh failed, keeping previous snapshot", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	r.store.Set(snap)
	r.logger.Info("vocabulary refreshed", map[string]interface{}{
		"source":   snap.Source,
		"brands":   len(snap.Brands),
		"branches": len(snap.Branches),
		"buyers":   len(snap.Buyers),
	})
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	_ = r.RefreshOnce(ctx)
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.RefreshOnce(ctx)
		}
	}
}
