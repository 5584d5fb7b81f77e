package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/rosterpull/internal/models"
)

func TestWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	writer := NewWriter(path, arbor.NewLogger())

	users := []models.User{
		{ID: 1, FirstName: "A", LastName: "B", Email: "a@b.com"},
	}
	current := &models.User{ID: 2, FirstName: "C", LastName: "D", Email: "c@d.com"}

	require.NoError(t, writer.Write(users, current))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	expected := `[
  {
    "id": 1,
    "firstName": "A",
    "lastName": "B",
    "email": "a@b.com"
  },
  {
    "id": 2,
    "firstName": "C",
    "lastName": "D",
    "email": "c@d.com"
  }
]
`
	assert.Equal(t, expected, string(data))
}

func TestWriter_OverwritesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("stale output"), 0644))

	writer := NewWriter(path, arbor.NewLogger())
	require.NoError(t, writer.Write(nil, &models.User{ID: 7, Email: "x@y.com"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.Contains(t, string(data), `"id": 7`)
}

func TestWriter_WriteFailureLeavesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "users.json")

	writer := NewWriter(path, arbor.NewLogger())
	err := writer.Write(nil, &models.User{ID: 1})
	assert.Error(t, err)
}
