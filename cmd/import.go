package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCSVPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import local records from CSV",
}

var importAttendeesCmd = &cobra.Command{
	Use:   "attendees",
	Short: "Import a conference attendee roster from CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		attendees, err := readAttendeesCSV(importCSVPath)
		if err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.ImportAttendees(ctx, attendees)
		if err != nil {
			return eris.Wrap(err, "import attendees")
		}

		zap.L().Info("import complete",
			zap.Int64("imported", n),
			zap.String("csv", importCSVPath),
		)
		return nil
	},
}

var importSystemsCmd = &cobra.Command{
	Use:   "systems",
	Short: "Import local health-system records from CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		systems, err := readHealthSystemsCSV(importCSVPath)
		if err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.ImportHealthSystems(ctx, systems)
		if err != nil {
			return eris.Wrap(err, "import health systems")
		}

		zap.L().Info("import complete",
			zap.Int64("imported", n),
			zap.String("csv", importCSVPath),
		)
		return nil
	},
}

func init() {
	importCmd.PersistentFlags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	_ = importCmd.MarkPersistentFlagRequired("csv")
	importCmd.AddCommand(importAttendeesCmd)
	importCmd.AddCommand(importSystemsCmd)
	rootCmd.AddCommand(importCmd)
}
