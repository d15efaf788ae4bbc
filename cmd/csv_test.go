package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/attendee-enrich/internal/model"
)

func TestParseAttendees(t *testing.T) {
	in := strings.NewReader(
		"id,first_name,last_name,email,title\n" +
			"1,Jane,Doe,jane@example.com,CIO\n" +
			"2,John,Roe,,\n")

	attendees, err := parseAttendees(in)
	require.NoError(t, err)
	require.Len(t, attendees, 2)

	assert.Equal(t, model.KindAttendee, attendees[0].Kind)
	assert.Equal(t, "Jane", attendees[0].FirstName)
	assert.Equal(t, "jane@example.com", attendees[0].Email)
	assert.Equal(t, "CIO", attendees[0].Title)
	assert.Empty(t, attendees[1].Email)
}

func TestParseAttendees_MissingColumn(t *testing.T) {
	in := strings.NewReader("id,first_name\n1,Jane\n")

	_, err := parseAttendees(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "last_name"`)
}

func TestParseAttendees_BadID(t *testing.T) {
	in := strings.NewReader("id,first_name,last_name\nx,Jane,Doe\n")

	_, err := parseAttendees(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `bad id "x"`)
}

func TestParseHealthSystems(t *testing.T) {
	in := strings.NewReader("ID,Name\n7,Mercy Health\n")

	systems, err := parseHealthSystems(in)
	require.NoError(t, err)
	require.Len(t, systems, 1)
	assert.Equal(t, int64(7), systems[0].ID)
	assert.Equal(t, "Mercy Health", systems[0].Name)
	assert.Equal(t, model.KindHealthSystem, systems[0].Kind)
}

func TestParseHealthSystems_MissingName(t *testing.T) {
	in := strings.NewReader("id\n1\n")

	_, err := parseHealthSystems(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "name"`)
}
