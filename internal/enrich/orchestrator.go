// Package enrich batch-drives entity resolution over local health-system
// records and merges matched directory attributes back into them.
package enrich

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/attendee-enrich/internal/model"
	"github.com/sells-group/attendee-enrich/internal/resolve"
	"github.com/sells-group/attendee-enrich/pkg/definitive"
)

// noMatchError is the per-record failure description when every resolution
// strategy came up empty.
const noMatchError = "No matching data found"

// Fixed confidences for the direct-search last resort, which bypasses
// similarity scoring entirely.
const (
	directSearchConfidence    = 0.6
	directSearchAltConfidence = 0.5
)

// Attributes are the external directory fields merged into a matched record.
type Attributes struct {
	Website               string `json:"website,omitempty"`
	Address               string `json:"address,omitempty"`
	City                  string `json:"city,omitempty"`
	State                 string `json:"state,omitempty"`
	Zip                   string `json:"zip,omitempty"`
	AmbulatoryEHRVendor   string `json:"ambulatory_ehr_vendor,omitempty"`
	NetPatientRevenue     int64  `json:"net_patient_revenue,omitempty"`
	NumBeds               int    `json:"num_beds,omitempty"`
	NumHospitalsInNetwork int    `json:"num_hospitals_in_network,omitempty"`
}

// Result is the per-record outcome of an enrichment batch. Attributes is nil
// unless Success is true.
type Result struct {
	RecordID     int64               `json:"record_id"`
	Name         string              `json:"name"`
	Success      bool                `json:"success"`
	Attributes   *Attributes         `json:"attributes,omitempty"`
	Confidence   float64             `json:"confidence,omitempty"`
	Alternatives []resolve.Candidate `json:"alternatives,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// Matcher resolves a free-text name to directory candidates.
type Matcher interface {
	FindBestMatch(ctx context.Context, queryName string) resolve.Match
	AcceptThreshold() float64
}

// Store persists enrichment patches for matched records.
type Store interface {
	UpdateEnrichment(ctx context.Context, id int64, attrs Attributes) error
}

// Config tunes the orchestrator.
type Config struct {
	// Workers bounds concurrent record resolutions. Default 1 (sequential).
	Workers int
	// SearchLimit caps the direct-search last resort. Default 20.
	SearchLimit int
}

// Orchestrator runs enrichment batches.
type Orchestrator struct {
	matcher Matcher
	search  resolve.Searcher
	cfg     Config
}

// NewOrchestrator creates an enrichment orchestrator.
func NewOrchestrator(matcher Matcher, search resolve.Searcher, cfg Config) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 20
	}
	return &Orchestrator{matcher: matcher, search: search, cfg: cfg}
}

// EnrichAll produces exactly one Result per input record, in input order.
// Records are processed by a bounded worker pool; one record's failure (or
// panic) never aborts the batch. An empty input returns an empty batch
// without touching any external service.
func (o *Orchestrator) EnrichAll(ctx context.Context, records []model.HealthSystem) []Result {
	if len(records) == 0 {
		return []Result{}
	}

	results := make([]Result, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i, rec := range records {
		g.Go(func() error {
			results[i] = o.enrichOne(gctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// enrichOne resolves a single record, falling through resolver → direct
// search → failure. Panics are converted to a failed result.
func (o *Orchestrator) enrichOne(ctx context.Context, rec model.HealthSystem) (res Result) {
	res = Result{RecordID: rec.ID, Name: rec.Name}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("enrich: record panicked",
				zap.Int64("record_id", rec.ID),
				zap.String("name", rec.Name),
				zap.Any("panic", r),
			)
			res = Result{
				RecordID: rec.ID,
				Name:     rec.Name,
				Error:    fmt.Sprintf("internal error: %v", r),
			}
		}
	}()

	match := o.matcher.FindBestMatch(ctx, rec.Name)

	if match.Best != nil && match.Best.Confidence > o.matcher.AcceptThreshold() {
		attrs := mapAttributes(match.Best.Record)
		res.Success = true
		res.Attributes = &attrs
		res.Confidence = match.Best.Confidence
		res.Alternatives = match.Alternatives
		return res
	}

	// Last resort: a direct live search on the raw name.
	found, err := o.search.SearchByNameContains(ctx, rec.Name, o.cfg.SearchLimit)
	if err != nil {
		zap.L().Warn("enrich: direct search failed",
			zap.Int64("record_id", rec.ID),
			zap.String("name", rec.Name),
			zap.Error(err),
		)
	}
	if len(found) > 0 {
		attrs := mapAttributes(found[0])
		res.Success = true
		res.Attributes = &attrs
		res.Confidence = directSearchConfidence
		for _, alt := range found[1:] {
			if len(res.Alternatives) == 3 {
				break
			}
			res.Alternatives = append(res.Alternatives,
				resolve.Candidate{Record: alt, Confidence: directSearchAltConfidence})
		}
		return res
	}

	// Below-threshold alternatives are still worth surfacing to the caller.
	res.Error = noMatchError
	res.Alternatives = match.Alternatives
	return res
}

// mapAttributes projects a directory record onto the local merge shape. A
// directory entry with no hospital count is a standalone facility, counted
// as a network of one.
func mapAttributes(rec definitive.Record) Attributes {
	hospitals := rec.NumHospitals
	if hospitals == 0 {
		hospitals = 1
	}
	return Attributes{
		Website:               rec.Website,
		Address:               rec.Address,
		City:                  rec.City,
		State:                 rec.State,
		Zip:                   rec.Zip,
		AmbulatoryEHRVendor:   rec.EMRVendorAmbulatory,
		NetPatientRevenue:     rec.NetPatientRevenue,
		NumBeds:               rec.NumBeds,
		NumHospitalsInNetwork: hospitals,
	}
}

// PersistAll writes every successful result's attributes to the store as a
// partial-field patch. Failed results are skipped. The first persistence
// error aborts the walk and is returned.
func (o *Orchestrator) PersistAll(ctx context.Context, store Store, results []Result) error {
	for _, res := range results {
		if !res.Success || res.Attributes == nil {
			continue
		}
		if err := store.UpdateEnrichment(ctx, res.RecordID, *res.Attributes); err != nil {
			return err
		}
		zap.L().Info("enrich: persisted",
			zap.Int64("record_id", res.RecordID),
			zap.String("name", res.Name),
			zap.Float64("confidence", res.Confidence),
		)
	}
	return nil
}
