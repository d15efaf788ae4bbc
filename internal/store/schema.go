package store

import (
	"context"

	"github.com/rotisserie/eris"
)

// schemaStatements creates the tables the store depends on. Text columns
// default to empty strings so scans never need nullable wrappers.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS health_systems (
		id                       BIGINT PRIMARY KEY,
		name                     TEXT NOT NULL,
		website                  TEXT NOT NULL DEFAULT '',
		address                  TEXT NOT NULL DEFAULT '',
		city                     TEXT NOT NULL DEFAULT '',
		state                    TEXT NOT NULL DEFAULT '',
		zip                      TEXT NOT NULL DEFAULT '',
		ambulatory_ehr_vendor    TEXT NOT NULL DEFAULT '',
		net_patient_revenue      BIGINT NOT NULL DEFAULT 0,
		num_beds                 INTEGER NOT NULL DEFAULT 0,
		num_hospitals_in_network INTEGER NOT NULL DEFAULT 0,
		enriched_at              TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS attendees (
		id           BIGINT PRIMARY KEY,
		first_name   TEXT NOT NULL,
		last_name    TEXT NOT NULL,
		email        TEXT NOT NULL DEFAULT '',
		phone        TEXT NOT NULL DEFAULT '',
		title        TEXT NOT NULL DEFAULT '',
		company      TEXT NOT NULL DEFAULT '',
		linkedin_url TEXT NOT NULL DEFAULT '',
		updated_at   TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS directory_records (
		id                    BIGINT PRIMARY KEY,
		name                  TEXT NOT NULL,
		address               TEXT NOT NULL DEFAULT '',
		city                  TEXT NOT NULL DEFAULT '',
		state                 TEXT NOT NULL DEFAULT '',
		zip                   TEXT NOT NULL DEFAULT '',
		firm_type             TEXT NOT NULL DEFAULT '',
		emr_vendor_ambulatory TEXT NOT NULL DEFAULT '',
		emr_vendor_inpatient  TEXT NOT NULL DEFAULT '',
		net_patient_revenue   BIGINT NOT NULL DEFAULT 0,
		num_beds              INTEGER NOT NULL DEFAULT 0,
		num_hospitals         INTEGER NOT NULL DEFAULT 0,
		website               TEXT NOT NULL DEFAULT '',
		fetched_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates any missing tables. Safe to run on every startup.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "postgres: ensure schema")
		}
	}
	return nil
}
