package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pokewatch/internal/config"
	"pokewatch/internal/engine"
	"pokewatch/internal/filters"
	"pokewatch/internal/gamedata"
	"pokewatch/internal/geofence"
	"pokewatch/internal/types"
)

// ruleLoader builds rule generations from the configured files. Game data is
// loaded once at startup and shared by every generation.
type ruleLoader struct {
	cfg    config.RulesConfig
	tables *gamedata.Tables
	clock  types.Clock
	loc    *time.Location
}

// load reads geofences then filters. Nothing is returned unless both parse.
func (l *ruleLoader) load() (*engine.Generation, error) {
	fences, err := geofence.NewRegistry()
	if err != nil {
		return nil, err
	}
	if l.cfg.GeofencesPath != "" {
		if fences, err = geofence.LoadFile(l.cfg.GeofencesPath); err != nil {
			return nil, fmt.Errorf("geofences: %w", err)
		}
	}

	b := filters.NewBuilder(fences, l.tables, l.clock, l.loc)
	sets, err := b.LoadFile(l.cfg.FiltersPath)
	if err != nil {
		return nil, err
	}
	return engine.NewGeneration(sets, fences, l.clock.Now()), nil
}

// watchReload swaps in a fresh generation on every SIGHUP. A generation that
// fails to load is logged and the active one stays in place.
func watchReload(ctx context.Context, eng *engine.Engine, rules *ruleLoader, logger types.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			reload(eng, rules, logger)
		}
	}
}

func reload(eng *engine.Engine, rules *ruleLoader, logger types.Logger) bool {
	gen, err := rules.load()
	if err != nil {
		logger.Error("rule reload failed, keeping active generation",
			"error", err,
			"active", eng.Active().ID.String(),
		)
		return false
	}
	eng.Swap(gen)
	return true
}
