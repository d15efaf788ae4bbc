package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Manage the persisted directory snapshot",
}

var directoryRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the directory from the remote API and upsert the local snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		client, err := newDefinitiveClient()
		if err != nil {
			return err
		}

		records, err := client.GetAllPaged(ctx, cfg.Directory.PageLimit)
		if err != nil {
			return eris.Wrap(err, "directory: fetch")
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.SaveDirectorySnapshot(ctx, records)
		if err != nil {
			return err
		}

		zap.L().Info("directory: snapshot refreshed",
			zap.Int("fetched", len(records)),
			zap.Int64("upserted", n),
		)
		return nil
	},
}

var directoryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the size of the persisted directory snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		records, err := s.LoadDirectorySnapshot(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("directory: snapshot status", zap.Int("records", len(records)))
		return nil
	},
}

func init() {
	directoryCmd.AddCommand(directoryRefreshCmd)
	directoryCmd.AddCommand(directoryStatusCmd)
	rootCmd.AddCommand(directoryCmd)
}
