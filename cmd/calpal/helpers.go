package calpal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkeshri04/CalPal/internal/app"
	"github.com/rkeshri04/CalPal/internal/db"
	"github.com/rkeshri04/CalPal/internal/logging"
	"github.com/rkeshri04/CalPal/internal/persist"
	"github.com/rkeshri04/CalPal/internal/service"
	"github.com/rkeshri04/CalPal/internal/store"
)

const flushTimeout = 30 * time.Second

// appState wires the in-memory record store to its on-disk adapter for
// the lifetime of one command.
type appState struct {
	DB      *sql.DB
	Store   *store.RecordStore
	Adapter *persist.Adapter
	Saver   *persist.Saver
	Log     logging.Logger
}

func withDB(run func(*sql.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	return run(sqldb)
}

// withApp hydrates the store from disk, hooks the saver to mutations,
// runs the command, and flushes pending saves before returning.
func withApp(run func(*appState) error) error {
	return withDB(func(sqldb *sql.DB) error {
		log := newLogger()
		adapter := persist.NewAdapter(sqldb)
		records := store.New()

		// Read failures mean "no data yet": start empty rather than
		// refuse to run. The next save reconciles durable state.
		ctx := context.Background()
		entries, err := adapter.LoadLogs(ctx)
		if err != nil {
			log.Warn(ctx, "load logs failed, starting with an empty collection", "error", err)
			entries = nil
		}
		profile, err := adapter.LoadProfile(ctx)
		if err != nil {
			log.Warn(ctx, "load profile failed, starting without a profile", "error", err)
			profile = nil
		}
		records.ReplaceAll(entries)
		if profile != nil {
			records.SetProfile(*profile)
		}

		saver := persist.NewSaver(adapter, records.Snapshot, log)
		records.Subscribe(saver.Notify)

		runErr := run(&appState{DB: sqldb, Store: records, Adapter: adapter, Saver: saver, Log: log})

		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := saver.Flush(flushCtx); err != nil {
			if runErr == nil {
				return fmt.Errorf("persist changes: %w", err)
			}
			log.Error(context.Background(), "persist changes", "error", err)
		}
		return runErr
	})
}

func newLogger() logging.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return logging.NewTextLogger(os.Stderr, level)
}

// optFloat returns the flag's value only when the user set it.
func optFloat(cmd *cobra.Command, name string, value float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v := value
	return &v
}

func optString(cmd *cobra.Command, name string, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v := value
	return &v
}

func fmtOpt(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

// lookupCandidates resolves which nutrition providers to try, in
// order. Flags beat stored config; config beats the defaults.
func lookupCandidates(sqldb *sql.DB, providerFlag, apiKeyFlag string, fallback bool) ([]service.LookupCandidate, error) {
	primary := strings.TrimSpace(providerFlag)
	if primary == "" {
		stored, _, err := service.GetConfig(sqldb, service.ConfigLookupProvider)
		if err != nil {
			return nil, err
		}
		primary = stored
	}
	if primary == "" {
		primary = service.ProviderOpenFoodFacts
	}

	names := []string{primary}
	if fallback {
		order, _, err := service.GetConfig(sqldb, service.ConfigLookupFallbackOrder)
		if err != nil {
			return nil, err
		}
		if order == "" {
			order = strings.Join([]string{service.ProviderOpenFoodFacts, service.ProviderUSDA, service.ProviderSpoonacular}, ",")
		}
		for _, name := range strings.Split(order, ",") {
			name = strings.TrimSpace(name)
			if name != "" && name != primary {
				names = append(names, name)
			}
		}
	}

	candidates := make([]service.LookupCandidate, 0, len(names))
	for _, name := range names {
		key, err := apiKeyFor(sqldb, name, apiKeyFlag)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, service.LookupCandidate{Provider: name, Options: service.LookupOptions{APIKey: key}})
	}
	return candidates, nil
}

func apiKeyFor(sqldb *sql.DB, providerName, apiKeyFlag string) (string, error) {
	if apiKeyFlag != "" {
		return apiKeyFlag, nil
	}
	var configKey string
	switch providerName {
	case service.ProviderUSDA:
		configKey = service.ConfigUSDAAPIKey
	case service.ProviderSpoonacular:
		configKey = service.ConfigSpoonacularAPIKey
	default:
		return "", nil
	}
	key, _, err := service.GetConfig(sqldb, configKey)
	if err != nil {
		return "", err
	}
	return key, nil
}
