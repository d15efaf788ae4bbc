package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/attendee-enrich/internal/contacts"
	"github.com/sells-group/attendee-enrich/pkg/apollo"
)

var contactsDryRun bool

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Attendee contact enrichment",
}

// discardContacts swallows patches for dry runs.
type discardContacts struct{}

func (discardContacts) UpdateAttendeeContact(context.Context, int64, contacts.ContactPatch) error {
	return nil
}

var contactsMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Enrich attendees via people search and merge matched contact fields",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		runID := uuid.NewString()

		if cfg.Apollo.Key == "" {
			return eris.New("people-enrichment API key is required (ENRICH_APOLLO_KEY)")
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		attendees, err := s.ListAttendees(ctx)
		if err != nil {
			return err
		}

		people := make([]apollo.Person, len(attendees))
		for i, a := range attendees {
			people[i] = apollo.Person{
				FirstName:    a.FirstName,
				LastName:     a.LastName,
				Organization: a.Company,
			}
		}

		client := apollo.NewClient(cfg.Apollo.Key, apollo.WithBaseURL(cfg.Apollo.BaseURL))
		resp, err := client.Enrich(ctx, people)
		if err != nil {
			return eris.Wrap(err, "contacts: enrich people")
		}

		zap.L().Info("contacts: enrichment fetched",
			zap.String("run_id", runID),
			zap.Int("attendees", len(attendees)),
			zap.Int("matches", len(resp.Matches)),
		)

		var patchStore contacts.Store = s
		if contactsDryRun {
			patchStore = discardContacts{}
		}

		merger := contacts.NewMerger(patchStore, contacts.Config{
			LastNameThreshold:  cfg.Contacts.LastNameThreshold,
			FirstNameThreshold: cfg.Contacts.FirstNameThreshold,
		})
		merged, err := merger.MergeEnrichment(ctx, resp.Matches, attendees)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(merged)
	},
}

func init() {
	contactsMergeCmd.Flags().BoolVar(&contactsDryRun, "dry-run", false, "merge in memory without persisting")
	contactsCmd.AddCommand(contactsMergeCmd)
	rootCmd.AddCommand(contactsCmd)
}
