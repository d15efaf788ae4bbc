// Package store persists local health-system and attendee records, plus the
// directory snapshot, in PostgreSQL.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/attendee-enrich/internal/contacts"
	"github.com/sells-group/attendee-enrich/internal/db"
	"github.com/sells-group/attendee-enrich/internal/enrich"
	"github.com/sells-group/attendee-enrich/internal/model"
)

// PostgresStore implements the enrichment and contact stores using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_health_system":       `SELECT id, name, website, address, city, state, zip, ambulatory_ehr_vendor, net_patient_revenue, num_beds, num_hospitals_in_network FROM health_systems WHERE id = $1`,
	"update_enrichment":       `UPDATE health_systems SET website = $1, address = $2, city = $3, state = $4, zip = $5, ambulatory_ehr_vendor = $6, net_patient_revenue = $7, num_beds = $8, num_hospitals_in_network = $9, enriched_at = now() WHERE id = $10`,
	"update_attendee_contact": `UPDATE attendees SET email = $1, phone = $2, title = $3, company = $4, linkedin_url = $5, updated_at = now() WHERE id = $6`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// ListHealthSystems returns all local health-system records ordered by id.
func (s *PostgresStore) ListHealthSystems(ctx context.Context) ([]model.HealthSystem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, website, address, city, state, zip, ambulatory_ehr_vendor, net_patient_revenue, num_beds, num_hospitals_in_network FROM health_systems ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list health systems")
	}
	defer rows.Close()

	var out []model.HealthSystem
	for rows.Next() {
		hs := model.HealthSystem{Kind: model.KindHealthSystem}
		if err := rows.Scan(&hs.ID, &hs.Name, &hs.Website, &hs.Address, &hs.City, &hs.State, &hs.Zip,
			&hs.AmbulatoryEHRVendor, &hs.NetPatientRevenue, &hs.NumBeds, &hs.NumHospitalsInNetwork); err != nil {
			return nil, eris.Wrap(err, "postgres: scan health system")
		}
		out = append(out, hs)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list health systems")
	}
	return out, nil
}

// GetHealthSystem returns a single health-system record by id, or a wrapped
// pgx.ErrNoRows when it does not exist.
func (s *PostgresStore) GetHealthSystem(ctx context.Context, id int64) (model.HealthSystem, error) {
	hs := model.HealthSystem{Kind: model.KindHealthSystem}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, website, address, city, state, zip, ambulatory_ehr_vendor, net_patient_revenue, num_beds, num_hospitals_in_network FROM health_systems WHERE id = $1`, id).
		Scan(&hs.ID, &hs.Name, &hs.Website, &hs.Address, &hs.City, &hs.State, &hs.Zip,
			&hs.AmbulatoryEHRVendor, &hs.NetPatientRevenue, &hs.NumBeds, &hs.NumHospitalsInNetwork)
	if err != nil {
		return model.HealthSystem{}, eris.Wrapf(err, "postgres: get health system %d", id)
	}
	return hs, nil
}

// UpdateEnrichment patches the enrichment columns of a health-system record.
func (s *PostgresStore) UpdateEnrichment(ctx context.Context, id int64, attrs enrich.Attributes) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE health_systems SET website = $1, address = $2, city = $3, state = $4, zip = $5, ambulatory_ehr_vendor = $6, net_patient_revenue = $7, num_beds = $8, num_hospitals_in_network = $9, enriched_at = now() WHERE id = $10`,
		attrs.Website, attrs.Address, attrs.City, attrs.State, attrs.Zip,
		attrs.AmbulatoryEHRVendor, attrs.NetPatientRevenue, attrs.NumBeds, attrs.NumHospitalsInNetwork, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: update enrichment %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: update enrichment %d: no such record", id)
	}
	return nil
}

// ImportHealthSystems bulk-loads health-system records via COPY.
func (s *PostgresStore) ImportHealthSystems(ctx context.Context, systems []model.HealthSystem) (int64, error) {
	rows := make([][]any, len(systems))
	for i, hs := range systems {
		rows[i] = []any{hs.ID, hs.Name, hs.Website, hs.Address, hs.City, hs.State, hs.Zip,
			hs.AmbulatoryEHRVendor, hs.NetPatientRevenue, hs.NumBeds, hs.NumHospitalsInNetwork}
	}
	return db.CopyFrom(ctx, s.pool, "health_systems",
		[]string{"id", "name", "website", "address", "city", "state", "zip",
			"ambulatory_ehr_vendor", "net_patient_revenue", "num_beds", "num_hospitals_in_network"},
		rows)
}

// ListAttendees returns all local attendee records ordered by id.
func (s *PostgresStore) ListAttendees(ctx context.Context) ([]model.Attendee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, first_name, last_name, email, phone, title, company, linkedin_url FROM attendees ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list attendees")
	}
	defer rows.Close()

	var out []model.Attendee
	for rows.Next() {
		a := model.Attendee{Kind: model.KindAttendee}
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.Title, &a.Company, &a.LinkedInURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan attendee")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list attendees")
	}
	return out, nil
}

// UpdateAttendeeContact patches the contact columns of an attendee record.
func (s *PostgresStore) UpdateAttendeeContact(ctx context.Context, id int64, patch contacts.ContactPatch) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE attendees SET email = $1, phone = $2, title = $3, company = $4, linkedin_url = $5, updated_at = now() WHERE id = $6`,
		patch.Email, patch.Phone, patch.Title, patch.Company, patch.LinkedInURL, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: update attendee contact %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: update attendee contact %d: no such record", id)
	}
	return nil
}

// ImportAttendees bulk-loads attendee records via COPY.
func (s *PostgresStore) ImportAttendees(ctx context.Context, attendees []model.Attendee) (int64, error) {
	rows := make([][]any, len(attendees))
	for i, a := range attendees {
		rows[i] = []any{a.ID, a.FirstName, a.LastName, a.Email, a.Phone, a.Title, a.Company, a.LinkedInURL}
	}
	return db.CopyFrom(ctx, s.pool, "attendees",
		[]string{"id", "first_name", "last_name", "email", "phone", "title", "company", "linkedin_url"},
		rows)
}
