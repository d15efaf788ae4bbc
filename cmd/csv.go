package main

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/attendee-enrich/internal/model"
)

// headerIndex maps lowercased column names to their positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func cell(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// readAttendeesCSV parses an attendee roster. Required columns: id,
// first_name, last_name. Contact columns are optional.
func readAttendeesCSV(path string) ([]model.Attendee, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open attendees")
	}
	defer f.Close()
	return parseAttendees(f)
}

func parseAttendees(r io.Reader) ([]model.Attendee, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	idx := headerIndex(header)
	for _, required := range []string{"id", "first_name", "last_name"} {
		if _, ok := idx[required]; !ok {
			return nil, eris.Errorf("csv: missing required column %q", required)
		}
	}

	var out []model.Attendee
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		id, err := strconv.ParseInt(cell(row, idx, "id"), 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "csv: bad id %q", cell(row, idx, "id"))
		}

		a := model.NewAttendee(id, cell(row, idx, "first_name"), cell(row, idx, "last_name"))
		a.Email = cell(row, idx, "email")
		a.Phone = cell(row, idx, "phone")
		a.Title = cell(row, idx, "title")
		a.Company = cell(row, idx, "company")
		a.LinkedInURL = cell(row, idx, "linkedin_url")
		out = append(out, a)
	}
	return out, nil
}

// readHealthSystemsCSV parses a health-system list. Required columns: id, name.
func readHealthSystemsCSV(path string) ([]model.HealthSystem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open health systems")
	}
	defer f.Close()
	return parseHealthSystems(f)
}

func parseHealthSystems(r io.Reader) ([]model.HealthSystem, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	idx := headerIndex(header)
	for _, required := range []string{"id", "name"} {
		if _, ok := idx[required]; !ok {
			return nil, eris.Errorf("csv: missing required column %q", required)
		}
	}

	var out []model.HealthSystem
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		id, err := strconv.ParseInt(cell(row, idx, "id"), 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "csv: bad id %q", cell(row, idx, "id"))
		}

		out = append(out, model.NewHealthSystem(id, cell(row, idx, "name")))
	}
	return out, nil
}
