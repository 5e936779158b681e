package models

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("archived").Valid())
	assert.False(t, Status("").Valid())
}

func TestSubmissionWithProjectsJSONIsFlat(t *testing.T) {
	phone := "555-0100"
	raw, err := json.Marshal(SubmissionWithProjects{
		Submission: Submission{ID: 3, FullName: "Jane Doe", Phone: &phone, Status: StatusPending},
		Projects:   []Project{},
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, float64(3), got["id"])
	assert.Equal(t, "Jane Doe", got["fullName"])
	assert.Equal(t, "555-0100", got["phone"])
	assert.Nil(t, got["degree"])
	assert.Equal(t, []any{}, got["projects"])
	assert.NotContains(t, got, "Submission")
}

func TestAdminSessionPayload(t *testing.T) {
	s := AdminSession{Sess: datatypes.JSONMap{"isAdmin": true, "username": "admin"}}
	assert.True(t, s.IsAdmin())
	assert.Equal(t, "admin", s.Username())

	empty := AdminSession{}
	assert.False(t, empty.IsAdmin())
	assert.Equal(t, "", empty.Username())
	assert.Equal(t, "admin_sessions", empty.TableName())
}

func TestModelColumns(t *testing.T) {
	s, err := schema.Parse(&Project{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	columns := ModelColumns(s)
	assert.Contains(t, columns, "submission_id")
	assert.Contains(t, columns, "screenshot_url")
	assert.NotContains(t, columns, "submission", "associations have no column")
}

func TestFindColumnMismatches(t *testing.T) {
	got := findColumnMismatches([]string{"id", "Title", "legacy_notes"}, []string{"id", "title"})
	assert.Equal(t, []string{"legacy_notes"}, got)
}
