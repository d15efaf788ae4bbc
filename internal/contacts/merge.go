// Package contacts merges people-enrichment results back into local attendee
// records.
package contacts

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/attendee-enrich/internal/model"
	"github.com/sells-group/attendee-enrich/internal/similarity"
	"github.com/sells-group/attendee-enrich/pkg/apollo"
)

// ContactPatch is the partial-field update persisted for a matched attendee.
type ContactPatch struct {
	Email       string
	Phone       string
	Title       string
	Company     string
	LinkedInURL string
}

// Store persists contact patches keyed by attendee identity.
type Store interface {
	UpdateAttendeeContact(ctx context.Context, id int64, patch ContactPatch) error
}

// Config holds the name-similarity thresholds for matching.
type Config struct {
	// LastNameThreshold is the minimum last-name similarity (unless the
	// last names are exactly equal, case-folded). Default 0.9.
	LastNameThreshold float64
	// FirstNameThreshold is the minimum first-name similarity. Default 0.6.
	FirstNameThreshold float64
}

// DefaultConfig returns the matching thresholds.
func DefaultConfig() Config {
	return Config{
		LastNameThreshold:  0.9,
		FirstNameThreshold: 0.6,
	}
}

// Merger applies people-enrichment results to attendees.
type Merger struct {
	store Store
	cfg   Config
}

// NewMerger creates a contact merger.
func NewMerger(store Store, cfg Config) *Merger {
	if cfg.LastNameThreshold == 0 {
		cfg.LastNameThreshold = DefaultConfig().LastNameThreshold
	}
	if cfg.FirstNameThreshold == 0 {
		cfg.FirstNameThreshold = DefaultConfig().FirstNameThreshold
	}
	return &Merger{store: store, cfg: cfg}
}

// MergeEnrichment matches each attendee against the enrichment results and
// merges the first satisfying match's fields, preferring external values but
// keeping local ones where the source supplied nothing. Persistence for all
// matched attendees runs concurrently and is all-or-nothing: any failure
// aborts the in-memory commit and returns the attendees unchanged along with
// the error. Unmatched attendees pass through untouched.
func (m *Merger) MergeEnrichment(ctx context.Context, matches []apollo.PersonMatch, attendees []model.Attendee) ([]model.Attendee, error) {
	merged := make([]model.Attendee, len(attendees))
	copy(merged, attendees)

	type update struct {
		index int
		patch ContactPatch
	}
	var updates []update

	for i, a := range merged {
		match, ok := m.findMatch(a, matches)
		if !ok {
			continue
		}

		patch := buildPatch(a, match)
		merged[i].Email = patch.Email
		merged[i].Phone = patch.Phone
		merged[i].Title = patch.Title
		merged[i].Company = patch.Company
		merged[i].LinkedInURL = patch.LinkedInURL

		updates = append(updates, update{index: i, patch: patch})
	}

	if len(updates) == 0 {
		return merged, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range updates {
		id := attendees[u.index].ID
		patch := u.patch
		g.Go(func() error {
			return m.store.UpdateAttendeeContact(gctx, id, patch)
		})
	}
	if err := g.Wait(); err != nil {
		// Fail closed: no in-memory commit on partial persistence.
		return attendees, eris.Wrap(err, "contacts: persist merge batch")
	}

	zap.L().Info("contacts: merged enrichment",
		zap.Int("attendees", len(attendees)),
		zap.Int("matched", len(updates)),
	)

	return merged, nil
}

// findMatch returns the first enrichment result satisfying the name
// predicate, in the order the results were given.
func (m *Merger) findMatch(a model.Attendee, matches []apollo.PersonMatch) (apollo.PersonMatch, bool) {
	for _, pm := range matches {
		lastOK := similarity.Score(pm.LastName, a.LastName) > m.cfg.LastNameThreshold ||
			strings.EqualFold(strings.TrimSpace(pm.LastName), strings.TrimSpace(a.LastName))
		if !lastOK {
			continue
		}
		if similarity.Score(pm.FirstName, a.FirstName) > m.cfg.FirstNameThreshold {
			return pm, true
		}
	}
	return apollo.PersonMatch{}, false
}

// buildPatch prefers the external value for each field and falls back to the
// attendee's current value when the source supplied nothing.
func buildPatch(a model.Attendee, pm apollo.PersonMatch) ContactPatch {
	return ContactPatch{
		Email:       firstNonEmpty(pm.Email, a.Email),
		Phone:       firstNonEmpty(pm.Phone, a.Phone),
		Title:       firstNonEmpty(pm.Headline, a.Title),
		Company:     firstNonEmpty(pm.OrganizationName, a.Company),
		LinkedInURL: firstNonEmpty(pm.LinkedInURL, a.LinkedInURL),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
