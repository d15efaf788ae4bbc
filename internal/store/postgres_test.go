package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/attendee-enrich/internal/contacts"
	"github.com/sells-group/attendee-enrich/internal/enrich"
	"github.com/sells-group/attendee-enrich/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestListHealthSystems(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, website, address, city, state, zip, ambulatory_ehr_vendor`).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "website", "address", "city", "state", "zip",
			"ambulatory_ehr_vendor", "net_patient_revenue", "num_beds", "num_hospitals_in_network",
		}).
			AddRow(int64(1), "Mercy Health", "mercy.example", "1 Main St", "Cincinnati", "OH", "45202", "Epic", int64(5_000_000), 500, 4).
			AddRow(int64(2), "Banner Health", "", "", "", "", "", "", int64(0), 0, 0))

	systems, err := s.ListHealthSystems(context.Background())
	require.NoError(t, err)
	require.Len(t, systems, 2)
	assert.Equal(t, model.KindHealthSystem, systems[0].Kind)
	assert.Equal(t, "Mercy Health", systems[0].Name)
	assert.Equal(t, "Epic", systems[0].AmbulatoryEHRVendor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHealthSystem_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, website, .+ FROM health_systems WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetHealthSystem(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get health system 99")
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEnrichment(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	attrs := enrich.Attributes{
		Website: "mercy.example", Address: "1 Main St", City: "Cincinnati",
		State: "OH", Zip: "45202", AmbulatoryEHRVendor: "Epic",
		NetPatientRevenue: 5_000_000, NumBeds: 500, NumHospitalsInNetwork: 4,
	}
	mock.ExpectExec(`UPDATE health_systems SET website = \$1`).
		WithArgs("mercy.example", "1 Main St", "Cincinnati", "OH", "45202", "Epic", int64(5_000_000), 500, 4, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.UpdateEnrichment(context.Background(), 1, attrs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEnrichment_MissingRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE health_systems SET website = \$1`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateEnrichment(context.Background(), 42, enrich.Attributes{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such record")
}

func TestUpdateAttendeeContact(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	patch := contacts.ContactPatch{
		Email: "jane@mercy.example", Phone: "555-0100", Title: "CIO",
		Company: "Mercy Health", LinkedInURL: "https://linkedin.example/jane",
	}
	mock.ExpectExec(`UPDATE attendees SET email = \$1`).
		WithArgs(patch.Email, patch.Phone, patch.Title, patch.Company, patch.LinkedInURL, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.UpdateAttendeeContact(context.Background(), 7, patch))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportAttendees(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"attendees"},
		[]string{"id", "first_name", "last_name", "email", "phone", "title", "company", "linkedin_url"}).
		WillReturnResult(2)

	n, err := s.ImportAttendees(context.Background(), []model.Attendee{
		model.NewAttendee(1, "Jane", "Doe"),
		model.NewAttendee(2, "John", "Roe"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAttendees(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, first_name, last_name, email, phone, title, company, linkedin_url FROM attendees`).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "phone", "title", "company", "linkedin_url",
		}).AddRow(int64(1), "Jane", "Doe", "jane@example.com", "", "Director", "", ""))

	attendees, err := s.ListAttendees(context.Background())
	require.NoError(t, err)
	require.Len(t, attendees, 1)
	assert.Equal(t, model.KindAttendee, attendees[0].Kind)
	assert.Equal(t, "jane@example.com", attendees[0].Email)
}

func TestEnsureSchema(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	for range schemaStatements {
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS`).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
