package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/attendee-enrich/internal/directory"
	"github.com/sells-group/attendee-enrich/internal/resolve"
	"github.com/sells-group/attendee-enrich/internal/store"
	"github.com/sells-group/attendee-enrich/pkg/definitive"
)

// openStore connects to Postgres and ensures the schema exists.
func openStore(ctx context.Context) (*store.PostgresStore, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("database URL is required (ENRICH_STORE_DATABASE_URL)")
	}
	s, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// newDefinitiveClient builds the directory API client from config.
func newDefinitiveClient() (definitive.Client, error) {
	if cfg.Definitive.Key == "" {
		return nil, eris.New("directory API key is required (ENRICH_DEFINITIVE_KEY)")
	}
	return definitive.NewClient(cfg.Definitive.Key,
		definitive.WithBaseURL(cfg.Definitive.BaseURL)), nil
}

// snapshotFetcher serves directory pages from the persisted snapshot instead
// of the remote API, for offline runs.
type snapshotFetcher struct {
	store *store.PostgresStore
}

func (f *snapshotFetcher) GetAllPaged(ctx context.Context, limit int) ([]definitive.Record, error) {
	records, err := f.store.LoadDirectorySnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// newDirectoryCache builds the TTL cache over the given fetcher.
func newDirectoryCache(fetcher directory.Fetcher) *directory.Cache {
	return directory.NewCache(fetcher,
		directory.WithTTL(time.Duration(cfg.Directory.TTLHours)*time.Hour),
		directory.WithPageLimit(cfg.Directory.PageLimit),
	)
}

// matchConfig maps the loaded configuration onto resolver scoring constants.
func matchConfig() resolve.Config {
	return resolve.Config{
		AcceptThreshold: cfg.Match.AcceptThreshold,
		ContainsBoost:   cfg.Match.ContainsBoost,
		ContainedBoost:  cfg.Match.ContainedBoost,
		SearchLimit:     cfg.Match.SearchLimit,
	}
}
