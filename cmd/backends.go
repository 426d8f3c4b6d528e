package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
	"github.com/kozaktomas/attendance-kiosk/internal/classifier"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
	"github.com/kozaktomas/attendance-kiosk/internal/database/mariadb"
	"github.com/kozaktomas/attendance-kiosk/internal/database/postgres"
	"github.com/kozaktomas/attendance-kiosk/internal/database/sqlite"
	"github.com/kozaktomas/attendance-kiosk/internal/events"
)

// openStore connects the backend selected by STORE_BACKEND and registers it
// as the active attendance store. The returned function closes it.
func openStore(cfg *config.Config) (func(), error) {
	switch cfg.Store.Backend {
	case "", postgres.BackendName:
		if err := postgres.Initialize(&cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		return func() { postgres.GetGlobalPool().Close() }, nil

	case mariadb.BackendName:
		pool, err := mariadb.Initialize(&cfg.MariaDB)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		return func() { pool.Close() }, nil

	case sqlite.BackendName:
		db, err := sqlite.Initialize(&cfg.SQLite)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		return func() { db.Close() }, nil
	}

	return nil, fmt.Errorf("unknown STORE_BACKEND %q (expected postgres, mariadb or sqlite)", cfg.Store.Backend)
}

// kioskRuntime holds everything an attendance attempt needs.
type kioskRuntime struct {
	service    *attendance.Service
	loader     *classifier.Loader
	classifier classifier.Classifier
	close      func()
}

// newKioskRuntime wires the classifier, manifest loader, store and event
// publisher. withStore is false for dry-run commands.
func newKioskRuntime(ctx context.Context, cfg *config.Config, withStore bool) (*kioskRuntime, error) {
	c, err := classifier.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}
	loader := classifier.NewLoader(cfg.Model.URL, cfg.Defaults.Model)

	opts := attendance.Options{
		Loader:     loader,
		Classifier: c,
		Threshold:  cfg.Classifier.Threshold,
	}
	closers := []func(){}

	if withStore {
		closeStore, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		closers = append(closers, closeStore)

		writer, err := database.GetAttendanceWriter(ctx)
		if err != nil {
			closeStore()
			return nil, err
		}
		opts.Store = writer

		publisher, err := events.NewPublisher(&cfg.Kafka)
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		closers = append(closers, func() { publisher.Close() })
		opts.Publisher = publisher
	}

	return &kioskRuntime{
		service:    attendance.NewService(attendance.NewKiosk(), opts),
		loader:     loader,
		classifier: c,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

// printUsage reports token usage for LLM-backed classifiers.
func printUsage(c classifier.Classifier) {
	pc, ok := c.(*classifier.ProviderClassifier)
	if !ok {
		return
	}
	usage := pc.Provider().GetUsage()
	fmt.Printf("Tokens: %d input, %d output (cost $%.4f)\n", usage.InputTokens, usage.OutputTokens, usage.TotalCost)
}
