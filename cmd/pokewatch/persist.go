package main

import (
	"context"
	"time"

	"pokewatch/internal/cache"
	"pokewatch/internal/types"
)

// flushLoop saves the cache every interval and once more when ctx is done.
// saved is the generation already on disk; the caller reads it before any
// update can be published so none is mistaken for saved.
func flushLoop(ctx context.Context, store *cache.FileStore, mem *cache.Memory, saved uint64, every time.Duration, logger types.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flush(store, mem, saved, logger)
			return
		case <-ticker.C:
			saved = flush(store, mem, saved, logger)
		}
	}
}

// flush returns the generation now on disk.
func flush(store *cache.FileStore, mem *cache.Memory, saved uint64, logger types.Logger) uint64 {
	snap := mem.Snapshot()
	if snap.Generation() == saved {
		return saved
	}
	if err := store.Save(snap); err != nil {
		logger.Error("cache flush failed", "path", store.Path(), "error", err)
		return saved
	}
	logger.Debug("cache flushed", "path", store.Path(), "generation", snap.Generation())
	return snap.Generation()
}
