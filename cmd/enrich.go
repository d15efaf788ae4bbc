package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/attendee-enrich/internal/directory"
	"github.com/sells-group/attendee-enrich/internal/enrich"
	"github.com/sells-group/attendee-enrich/internal/resolve"
	"github.com/sells-group/attendee-enrich/pkg/definitive"
)

var (
	enrichWorkers int
	enrichDryRun  bool
	enrichOffline bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Resolve health-system records against the directory and persist matched attributes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		runID := uuid.NewString()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		systems, err := s.ListHealthSystems(ctx)
		if err != nil {
			return err
		}

		var fetcher directory.Fetcher
		var searcher resolve.Searcher
		if enrichOffline {
			snap := &snapshotFetcher{store: s}
			fetcher = snap
			searcher = noSearch{}
		} else {
			client, err := newDefinitiveClient()
			if err != nil {
				return err
			}
			fetcher = client
			searcher = client
		}

		cache := newDirectoryCache(fetcher)
		resolver := resolve.NewResolver(cache, searcher, matchConfig())

		workers := enrichWorkers
		if workers <= 0 {
			workers = cfg.Enrich.Workers
		}
		orch := enrich.NewOrchestrator(resolver, searcher, enrich.Config{
			Workers:     workers,
			SearchLimit: cfg.Match.SearchLimit,
		})

		zap.L().Info("enrich: starting batch",
			zap.String("run_id", runID),
			zap.Int("records", len(systems)),
			zap.Int("workers", workers),
			zap.Bool("offline", enrichOffline),
		)

		results := orch.EnrichAll(ctx, systems)

		succeeded := 0
		for _, r := range results {
			if r.Success {
				succeeded++
			}
		}
		zap.L().Info("enrich: batch complete",
			zap.String("run_id", runID),
			zap.Int("succeeded", succeeded),
			zap.Int("failed", len(results)-succeeded),
		)

		if !enrichDryRun {
			if err := orch.PersistAll(ctx, s, results); err != nil {
				return eris.Wrap(err, "enrich: persist results")
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

// noSearch disables live search for offline runs.
type noSearch struct{}

func (noSearch) SearchByNameContains(context.Context, string, int) ([]definitive.Record, error) {
	return nil, nil
}

func init() {
	enrichCmd.Flags().IntVar(&enrichWorkers, "workers", 0, "concurrent record resolutions (default from config)")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "resolve and report without persisting")
	enrichCmd.Flags().BoolVar(&enrichOffline, "offline", false, "resolve against the persisted directory snapshot only")
	rootCmd.AddCommand(enrichCmd)
}
