package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/attendee-enrich/internal/db"
	"github.com/sells-group/attendee-enrich/pkg/definitive"
)

var snapshotColumns = []string{
	"id", "name", "address", "city", "state", "zip", "firm_type",
	"emr_vendor_ambulatory", "emr_vendor_inpatient", "net_patient_revenue",
	"num_beds", "num_hospitals", "website",
}

// SaveDirectorySnapshot upserts a fetched directory page set so later runs
// can resolve against it without hitting the remote API.
func (s *PostgresStore) SaveDirectorySnapshot(ctx context.Context, records []definitive.Record) (int64, error) {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.ID, r.Name, r.Address, r.City, r.State, r.Zip, r.FirmType,
			r.EMRVendorAmbulatory, r.EMRVendorInpatient, r.NetPatientRevenue,
			r.NumBeds, r.NumHospitals, r.Website}
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "directory_records",
		Columns:      snapshotColumns,
		ConflictKeys: []string{"id"},
	}, rows)
}

// LoadDirectorySnapshot returns the persisted directory records ordered by
// name, mirroring the remote API's paging order.
func (s *PostgresStore) LoadDirectorySnapshot(ctx context.Context) ([]definitive.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, address, city, state, zip, firm_type, emr_vendor_ambulatory, emr_vendor_inpatient, net_patient_revenue, num_beds, num_hospitals, website FROM directory_records ORDER BY name ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load directory snapshot")
	}
	defer rows.Close()

	var out []definitive.Record
	for rows.Next() {
		var r definitive.Record
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &r.City, &r.State, &r.Zip, &r.FirmType,
			&r.EMRVendorAmbulatory, &r.EMRVendorInpatient, &r.NetPatientRevenue,
			&r.NumBeds, &r.NumHospitals, &r.Website); err != nil {
			return nil, eris.Wrap(err, "postgres: scan directory record")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: load directory snapshot")
	}
	return out, nil
}
