package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/attendee-enrich/pkg/definitive"
)

type staticDirectory struct {
	records []definitive.Record
}

func (d *staticDirectory) GetAll(context.Context) []definitive.Record {
	return d.records
}

type fakeSearcher struct {
	results []definitive.Record
	err     error
	calls   int
}

func (s *fakeSearcher) SearchByNameContains(_ context.Context, term string, limit int) ([]definitive.Record, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.results) {
		return s.results[:limit], nil
	}
	return s.results, nil
}

func newResolver(records []definitive.Record, search *fakeSearcher) *Resolver {
	return NewResolver(&staticDirectory{records: records}, search, DefaultConfig())
}

func TestFindBestMatch_ExactNormalizedMatch(t *testing.T) {
	r := newResolver([]definitive.Record{
		{ID: 1, Name: "Mercy Health"},
		{ID: 2, Name: "Banner Health"},
	}, &fakeSearcher{})

	m := r.FindBestMatch(context.Background(), "mercy health")
	require.NotNil(t, m.Best)
	assert.Equal(t, int64(1), m.Best.Record.ID)
	// Equal after normalization → similarity 1.0; boosts cannot push past the cap.
	assert.Equal(t, 1.0, m.Best.Confidence)
}

func TestFindBestMatch_SubstringBoost(t *testing.T) {
	r := newResolver([]definitive.Record{
		{ID: 1, Name: "Greater Mercy Health System"},
	}, &fakeSearcher{})

	m := r.FindBestMatch(context.Background(), "Mercy Health")
	require.NotNil(t, m.Best)

	// Record contains the query (case-insensitive) → base similarity + 0.10.
	base := 1.0 - 15.0/27.0 // lev("mercy health", "greater mercy health system") = 15
	assert.InDelta(t, base+0.10, m.Best.Confidence, 1e-9)
	assert.Less(t, m.Best.Confidence, 1.0)
}

func TestFindBestMatch_ScoreCappedAtOne(t *testing.T) {
	r := newResolver([]definitive.Record{
		{ID: 1, Name: "Mercy"},
	}, &fakeSearcher{})

	// Query contains record name and is nearly identical: boost would push
	// the score past 1.0 without the cap.
	m := r.FindBestMatch(context.Background(), "Mercy ")
	require.NotNil(t, m.Best)
	assert.Equal(t, 1.0, m.Best.Confidence)
}

func TestFindBestMatch_AlternativesOrderedAndCapped(t *testing.T) {
	r := newResolver([]definitive.Record{
		{ID: 1, Name: "Ascension"},
		{ID: 2, Name: "Mercy Health"},
		{ID: 3, Name: "Mercy Health Partners"},
		{ID: 4, Name: "Mercy Hospital"},
		{ID: 5, Name: "Mercy Health System"},
		{ID: 6, Name: "Trinity Health"},
	}, &fakeSearcher{})

	m := r.FindBestMatch(context.Background(), "Mercy Health")
	require.NotNil(t, m.Best)
	assert.Equal(t, int64(2), m.Best.Record.ID)
	require.Len(t, m.Alternatives, 3)
	for i := 1; i < len(m.Alternatives); i++ {
		assert.GreaterOrEqual(t,
			m.Alternatives[i-1].Confidence, m.Alternatives[i].Confidence,
			"alternatives must be in descending confidence order")
	}
}

func TestFindBestMatch_TiesKeepDirectoryOrder(t *testing.T) {
	// Two records equidistant from the query: the one earlier in the
	// (name-ordered) directory wins the tie.
	r := newResolver([]definitive.Record{
		{ID: 1, Name: "abd"},
		{ID: 2, Name: "abe"},
	}, &fakeSearcher{})

	m := r.FindBestMatch(context.Background(), "abc")
	require.NotNil(t, m.Best)
	assert.Equal(t, int64(1), m.Best.Record.ID)
}

func TestFindBestMatch_EmptyDirectoryFallsBackToSearch(t *testing.T) {
	search := &fakeSearcher{results: []definitive.Record{
		{ID: 10, Name: "Mercy Health"},
		{ID: 11, Name: "Mercy Health Partners"},
		{ID: 12, Name: "Mercy Hospital"},
		{ID: 13, Name: "Mercy Medical"},
		{ID: 14, Name: "Mercy West"},
	}}
	r := newResolver(nil, search)

	m := r.FindBestMatch(context.Background(), "Mercy Health")
	require.NotNil(t, m.Best)
	assert.Equal(t, int64(10), m.Best.Record.ID)
	assert.Equal(t, 0.8, m.Best.Confidence)
	require.Len(t, m.Alternatives, 3)
	for _, alt := range m.Alternatives {
		assert.Equal(t, 0.7, alt.Confidence)
	}
	assert.Equal(t, 1, search.calls)
}

func TestFindBestMatch_SearchFailureIsNoResults(t *testing.T) {
	search := &fakeSearcher{err: errors.New("service down")}
	r := newResolver(nil, search)

	m := r.FindBestMatch(context.Background(), "Mercy Health")
	assert.Nil(t, m.Best)
	assert.Empty(t, m.Alternatives)
}

func TestFindBestMatch_EmptyEverywhere(t *testing.T) {
	r := newResolver(nil, &fakeSearcher{})
	m := r.FindBestMatch(context.Background(), "Anything")
	assert.Nil(t, m.Best)
	assert.Empty(t, m.Alternatives)
}
