package enrich

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/attendee-enrich/internal/model"
	"github.com/sells-group/attendee-enrich/internal/resolve"
	"github.com/sells-group/attendee-enrich/pkg/definitive"
)

// fakeMatcher scripts a match per query name.
type fakeMatcher struct {
	mu      sync.Mutex
	matches map[string]resolve.Match
	panicOn string
	calls   int
}

func (m *fakeMatcher) FindBestMatch(_ context.Context, name string) resolve.Match {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if name == m.panicOn {
		panic("resolver blew up on " + name)
	}
	return m.matches[name]
}

func (m *fakeMatcher) AcceptThreshold() float64 { return 0.4 }

type fakeSearcher struct {
	mu      sync.Mutex
	results []definitive.Record
	err     error
	calls   int
}

func (s *fakeSearcher) SearchByNameContains(context.Context, string, int) ([]definitive.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.results, s.err
}

func matchFor(rec definitive.Record, conf float64, alts ...resolve.Candidate) resolve.Match {
	return resolve.Match{
		Best:         &resolve.Candidate{Record: rec, Confidence: conf},
		Alternatives: alts,
	}
}

func TestEnrichAll_EmptyInputNoExternalCalls(t *testing.T) {
	matcher := &fakeMatcher{}
	search := &fakeSearcher{}
	o := NewOrchestrator(matcher, search, Config{})

	results := o.EnrichAll(context.Background(), nil)
	assert.Empty(t, results)
	assert.Equal(t, 0, matcher.calls)
	assert.Equal(t, 0, search.calls)
}

func TestEnrichAll_AcceptedMatchMapsAttributes(t *testing.T) {
	rec := definitive.Record{
		ID: 9, Name: "Mercy Health", Website: "mercy.example",
		Address: "1 Main St", City: "Cincinnati", State: "OH", Zip: "45202",
		EMRVendorAmbulatory: "Epic", NetPatientRevenue: 1_000_000, NumBeds: 500,
		NumHospitals: 4,
	}
	matcher := &fakeMatcher{matches: map[string]resolve.Match{
		"Mercy Health": matchFor(rec, 0.95,
			resolve.Candidate{Record: definitive.Record{ID: 10}, Confidence: 0.5}),
	}}
	o := NewOrchestrator(matcher, &fakeSearcher{}, Config{})

	results := o.EnrichAll(context.Background(), []model.HealthSystem{
		model.NewHealthSystem(1, "Mercy Health"),
	})
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.Success)
	assert.Equal(t, int64(1), r.RecordID)
	assert.Equal(t, 0.95, r.Confidence)
	require.NotNil(t, r.Attributes)
	assert.Equal(t, "Epic", r.Attributes.AmbulatoryEHRVendor)
	assert.Equal(t, 4, r.Attributes.NumHospitalsInNetwork)
	require.Len(t, r.Alternatives, 1)
}

func TestEnrichAll_HospitalCountDefaultsToOne(t *testing.T) {
	rec := definitive.Record{ID: 9, Name: "Solo Hospital"}
	matcher := &fakeMatcher{matches: map[string]resolve.Match{
		"Solo Hospital": matchFor(rec, 0.9),
	}}
	o := NewOrchestrator(matcher, &fakeSearcher{}, Config{})

	results := o.EnrichAll(context.Background(), []model.HealthSystem{
		model.NewHealthSystem(1, "Solo Hospital"),
	})
	require.NotNil(t, results[0].Attributes)
	assert.Equal(t, 1, results[0].Attributes.NumHospitalsInNetwork)
}

func TestEnrichAll_BelowThresholdFallsBackToDirectSearch(t *testing.T) {
	matcher := &fakeMatcher{matches: map[string]resolve.Match{
		"Obscure Clinic": matchFor(definitive.Record{ID: 2}, 0.3),
	}}
	search := &fakeSearcher{results: []definitive.Record{
		{ID: 20, Name: "Obscure Clinic LLC"},
		{ID: 21, Name: "Obscure Clinic West"},
	}}
	o := NewOrchestrator(matcher, search, Config{})

	results := o.EnrichAll(context.Background(), []model.HealthSystem{
		model.NewHealthSystem(5, "Obscure Clinic"),
	})
	require.Len(t, results, 1)

	r := results[0]
	assert.True(t, r.Success)
	assert.Equal(t, 0.6, r.Confidence)
	require.Len(t, r.Alternatives, 1)
	assert.Equal(t, 0.5, r.Alternatives[0].Confidence)
	assert.Equal(t, 1, search.calls)
}

func TestEnrichAll_NoMatchAnywhere(t *testing.T) {
	alt := resolve.Candidate{Record: definitive.Record{ID: 3}, Confidence: 0.2}
	matcher := &fakeMatcher{matches: map[string]resolve.Match{
		"Ghost Org": {Best: &resolve.Candidate{Record: definitive.Record{ID: 2}, Confidence: 0.1}, Alternatives: []resolve.Candidate{alt}},
	}}
	o := NewOrchestrator(matcher, &fakeSearcher{}, Config{})

	results := o.EnrichAll(context.Background(), []model.HealthSystem{
		model.NewHealthSystem(7, "Ghost Org"),
	})
	require.Len(t, results, 1)

	r := results[0]
	assert.False(t, r.Success)
	assert.Equal(t, "No matching data found", r.Error)
	assert.Equal(t, 0.0, r.Confidence)
	assert.Nil(t, r.Attributes)
	// Alternatives below the threshold still ride along on the failure.
	require.Len(t, r.Alternatives, 1)
	assert.Equal(t, int64(3), r.Alternatives[0].Record.ID)
}

func TestEnrichAll_OneRecordPanicDoesNotAbortBatch(t *testing.T) {
	good := matchFor(definitive.Record{ID: 1, Name: "A"}, 0.9)
	matcher := &fakeMatcher{
		matches: map[string]resolve.Match{"Org A": good, "Org C": good},
		panicOn: "Org B",
	}
	o := NewOrchestrator(matcher, &fakeSearcher{}, Config{Workers: 1})

	results := o.EnrichAll(context.Background(), []model.HealthSystem{
		model.NewHealthSystem(1, "Org A"),
		model.NewHealthSystem(2, "Org B"),
		model.NewHealthSystem(3, "Org C"),
	})
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "internal error")
	assert.True(t, results[2].Success)
}

func TestEnrichAll_OrderPreservedWithWorkers(t *testing.T) {
	matches := make(map[string]resolve.Match)
	var records []model.HealthSystem
	names := []string{"One", "Two", "Three", "Four", "Five", "Six"}
	for i, n := range names {
		matches[n] = matchFor(definitive.Record{ID: int64(100 + i), Name: n}, 0.9)
		records = append(records, model.NewHealthSystem(int64(i+1), n))
	}
	o := NewOrchestrator(&fakeMatcher{matches: matches}, &fakeSearcher{}, Config{Workers: 4})

	results := o.EnrichAll(context.Background(), records)
	require.Len(t, results, len(names))
	for i, n := range names {
		assert.Equal(t, int64(i+1), results[i].RecordID)
		assert.Equal(t, n, results[i].Name)
	}
}

// patchStore records enrichment updates.
type patchStore struct {
	updates map[int64]Attributes
	failOn  int64
}

func (s *patchStore) UpdateEnrichment(_ context.Context, id int64, attrs Attributes) error {
	if id == s.failOn {
		return errors.New("db write failed")
	}
	if s.updates == nil {
		s.updates = make(map[int64]Attributes)
	}
	s.updates[id] = attrs
	return nil
}

func TestPersistAll_SkipsFailures(t *testing.T) {
	o := NewOrchestrator(&fakeMatcher{}, &fakeSearcher{}, Config{})
	store := &patchStore{}

	attrs := Attributes{Website: "x.example"}
	err := o.PersistAll(context.Background(), store, []Result{
		{RecordID: 1, Success: true, Attributes: &attrs},
		{RecordID: 2, Success: false, Error: "No matching data found"},
	})
	require.NoError(t, err)
	assert.Len(t, store.updates, 1)
	assert.Equal(t, "x.example", store.updates[1].Website)
}

func TestPersistAll_PropagatesStoreError(t *testing.T) {
	o := NewOrchestrator(&fakeMatcher{}, &fakeSearcher{}, Config{})
	store := &patchStore{failOn: 1}

	attrs := Attributes{}
	err := o.PersistAll(context.Background(), store, []Result{
		{RecordID: 1, Success: true, Attributes: &attrs},
	})
	assert.Error(t, err)
}
