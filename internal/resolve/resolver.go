// Package resolve matches free-text organization names against the
// health-system directory.
package resolve

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/attendee-enrich/internal/similarity"
	"github.com/sells-group/attendee-enrich/pkg/definitive"
)

// Candidate pairs a directory record with a match confidence in [0, 1].
type Candidate struct {
	Record     definitive.Record `json:"record"`
	Confidence float64           `json:"confidence"`
}

// Match is the outcome of a resolution call: the best candidate (nil when
// nothing was found) and up to maxAlternatives runners-up in descending
// confidence order.
type Match struct {
	Best         *Candidate
	Alternatives []Candidate
}

// maxAlternatives caps the runner-up candidates carried on a match.
const maxAlternatives = 3

// Searcher is the live-search subset of the directory client, used when the
// cached directory is empty.
type Searcher interface {
	SearchByNameContains(ctx context.Context, term string, limit int) ([]definitive.Record, error)
}

// Directory serves the cached directory snapshot.
type Directory interface {
	GetAll(ctx context.Context) []definitive.Record
}

// Config holds the empirically chosen scoring constants. They have no
// derivation; treat them as tunables, not law.
type Config struct {
	// AcceptThreshold is the minimum confidence the orchestrator treats as
	// a good-enough match. Default 0.4.
	AcceptThreshold float64
	// ContainsBoost is added when the record name contains the query.
	// Default 0.10.
	ContainsBoost float64
	// ContainedBoost is added when the query contains the record name.
	// Default 0.05.
	ContainedBoost float64
	// SearchLimit caps live remote search results. Default 20.
	SearchLimit int
}

// DefaultConfig returns the scoring defaults.
func DefaultConfig() Config {
	return Config{
		AcceptThreshold: 0.4,
		ContainsBoost:   0.10,
		ContainedBoost:  0.05,
		SearchLimit:     20,
	}
}

// Fixed confidences assigned to live-search results, which carry no
// similarity score of their own.
const (
	searchBestConfidence = 0.8
	searchAltConfidence  = 0.7
)

// Resolver finds the best directory candidates for a free-text name.
type Resolver struct {
	dir    Directory
	search Searcher
	cfg    Config
}

// NewResolver creates a resolver over the given directory cache and searcher.
func NewResolver(dir Directory, search Searcher, cfg Config) *Resolver {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultConfig().SearchLimit
	}
	return &Resolver{dir: dir, search: search, cfg: cfg}
}

// AcceptThreshold exposes the configured acceptance cutoff.
func (r *Resolver) AcceptThreshold() float64 {
	return r.cfg.AcceptThreshold
}

// FindBestMatch scores the query against every cached directory record,
// applying substring boosts on top of edit-distance similarity. When the
// cache is empty it falls back to a live name search with fixed confidences.
// It never returns an error: remote-search failures degrade to "no results".
func (r *Resolver) FindBestMatch(ctx context.Context, queryName string) Match {
	records := r.dir.GetAll(ctx)
	if len(records) == 0 {
		return r.searchFallback(ctx, queryName)
	}

	queryLower := strings.ToLower(strings.TrimSpace(queryName))
	candidates := make([]Candidate, 0, len(records))
	for _, rec := range records {
		score := similarity.Score(queryName, rec.Name)
		nameLower := strings.ToLower(rec.Name)
		if queryLower != "" {
			if strings.Contains(nameLower, queryLower) {
				score += r.cfg.ContainsBoost
			}
			if strings.Contains(queryLower, nameLower) {
				score += r.cfg.ContainedBoost
			}
		}
		if score > 1.0 {
			score = 1.0
		}
		candidates = append(candidates, Candidate{Record: rec, Confidence: score})
	}

	// Stable sort keeps the directory's name ordering as the tiebreak.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	best := candidates[0]
	alts := candidates[1:]
	if len(alts) > maxAlternatives {
		alts = alts[:maxAlternatives]
	}

	return Match{Best: &best, Alternatives: append([]Candidate(nil), alts...)}
}

// searchFallback issues a live "contains" search when no cached directory is
// available. The first result is treated as best at a fixed confidence with
// up to three runners-up.
func (r *Resolver) searchFallback(ctx context.Context, queryName string) Match {
	results, err := r.search.SearchByNameContains(ctx, queryName, r.cfg.SearchLimit)
	if err != nil {
		zap.L().Warn("resolve: live search failed, treating as no results",
			zap.String("query", queryName),
			zap.Error(err),
		)
		return Match{}
	}
	if len(results) == 0 {
		return Match{}
	}

	best := Candidate{Record: results[0], Confidence: searchBestConfidence}
	var alts []Candidate
	for _, rec := range results[1:] {
		if len(alts) == maxAlternatives {
			break
		}
		alts = append(alts, Candidate{Record: rec, Confidence: searchAltConfidence})
	}

	return Match{Best: &best, Alternatives: alts}
}
