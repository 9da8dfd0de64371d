package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Makepad-fr/todolist/internal/config"
	"github.com/Makepad-fr/todolist/internal/loop"
	"github.com/Makepad-fr/todolist/internal/store/jsonstore"
	"github.com/Makepad-fr/todolist/internal/store/liststore"
	"github.com/Makepad-fr/todolist/internal/store/memstore"
	"github.com/Makepad-fr/todolist/internal/store/persist"
	"github.com/Makepad-fr/todolist/internal/store/sqlitestore"
)

// app is one session: the slot picked by the config, the write queue, and
// the store rehydrated from the slot.
type app struct {
	queue *loop.Queue
	store *liststore.Store
	close func() error
}

func openSlot(cfg config.Config) (persist.Slot, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.BackendFile:
		return jsonstore.New(cfg.DataDir), noop, nil
	case config.BackendSQLite:
		db, err := sqlitestore.OpenDir(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case config.BackendMemory:
		return memstore.New(), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func openApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	slot, closeSlot, err := openSlot(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}
	log = log.With(zap.String("backend", cfg.Backend))
	adapter := persist.NewAdapter(slot, persist.WithLogger(log))

	q := &loop.Queue{}
	store := liststore.Open(ctx, adapter,
		liststore.WithScheduler(q),
		liststore.WithLogger(log),
	)
	log.Debug("session opened", zap.String("data_dir", cfg.DataDir), zap.Int("items", len(store.Snapshot())))
	return &app{queue: q, store: store, close: closeSlot}, nil
}
