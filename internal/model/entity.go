// Package model defines the local record types the enrichment pipeline reads
// and patches.
package model

// EntityKind discriminates local record types. It is set at construction and
// never inferred from field shape.
type EntityKind string

// Known entity kinds.
const (
	KindHealthSystem EntityKind = "health_system"
	KindAttendee     EntityKind = "attendee"
	KindConference   EntityKind = "conference"
)

// HealthSystem is a locally owned health-system record. The pipeline reads
// Name for resolution and proposes enrichment patches for the remaining
// fields; it never writes them directly outside the orchestrator's
// merge-and-persist step.
type HealthSystem struct {
	ID                    int64      `json:"id"`
	Kind                  EntityKind `json:"kind"`
	Name                  string     `json:"name"`
	Website               string     `json:"website,omitempty"`
	Address               string     `json:"address,omitempty"`
	City                  string     `json:"city,omitempty"`
	State                 string     `json:"state,omitempty"`
	Zip                   string     `json:"zip,omitempty"`
	AmbulatoryEHRVendor   string     `json:"ambulatory_ehr_vendor,omitempty"`
	NetPatientRevenue     int64      `json:"net_patient_revenue,omitempty"`
	NumBeds               int        `json:"num_beds,omitempty"`
	NumHospitalsInNetwork int        `json:"num_hospitals_in_network,omitempty"`
}

// NewHealthSystem constructs a HealthSystem with its kind set.
func NewHealthSystem(id int64, name string) HealthSystem {
	return HealthSystem{ID: id, Kind: KindHealthSystem, Name: name}
}

// Attendee is a locally owned conference-attendee record. Contact merge reads
// FirstName/LastName for matching and patches the contact fields.
type Attendee struct {
	ID          int64      `json:"id"`
	Kind        EntityKind `json:"kind"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Title       string     `json:"title,omitempty"`
	Company     string     `json:"company,omitempty"`
	LinkedInURL string     `json:"linkedin_url,omitempty"`
}

// NewAttendee constructs an Attendee with its kind set.
func NewAttendee(id int64, first, last string) Attendee {
	return Attendee{ID: id, Kind: KindAttendee, FirstName: first, LastName: last}
}
