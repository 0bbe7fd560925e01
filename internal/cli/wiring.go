package cli

import (
	"fmt"

	"github.com/MJE43/roulette-spin-go/internal/config"
	"github.com/MJE43/roulette-spin-go/internal/events"
	"github.com/MJE43/roulette-spin-go/internal/logger"
	"github.com/MJE43/roulette-spin-go/internal/session"
	"github.com/MJE43/roulette-spin-go/internal/store"
)

// newManager opens the journal and publisher named by cfg and builds the
// session manager around them. Closing the manager closes both.
func newManager(cfg *config.Config) (*session.Manager, error) {
	journal, err := store.Open(cfg.Storage.Type, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.NATS.Enabled {
		queue, err := events.ConnectNATS(cfg.NATS.URL)
		if err != nil {
			if journal != nil {
				_ = journal.Close()
			}
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		publisher = events.NewPublisher(queue, cfg.NATS.Subject)
		logger.Info("publishing rounds", "subject", cfg.NATS.Subject)
	}

	if journal != nil {
		logger.Info("journal opened", "type", cfg.Storage.Type, "path", cfg.Storage.Path)
	}

	return session.NewManager(session.ManagerConfig{
		Defaults: session.Options{
			Ledger:             cfg.Game.Config,
			FPS:                cfg.Game.FPS,
			ReshuffleEachRound: cfg.Game.ReshuffleEachRound,
		},
		IdleTTL:         cfg.Session.IdleTTL,
		CleanupInterval: cfg.Session.CleanupInterval,
		MaxSessions:     cfg.Session.MaxSessions,
	}, journal, publisher), nil
}
