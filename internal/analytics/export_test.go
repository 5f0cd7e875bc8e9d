package analytics

import (
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportJobExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&ExportJob{Status: JobDone, ExpiresAt: &past}).Expired(now))
	assert.False(t, (&ExportJob{Status: JobDone, ExpiresAt: &future}).Expired(now))
	assert.False(t, (&ExportJob{Status: JobDone}).Expired(now))
	assert.False(t, (&ExportJob{Status: JobPending, ExpiresAt: &past}).Expired(now))
	assert.False(t, (&ExportJob{Status: JobFailed, ExpiresAt: &past}).Expired(now))
}

// The exporter's queries must only reference columns the migration creates.
func TestExportJobsSchemaHasQueriedColumns(t *testing.T) {
	ddl, err := os.ReadFile("../../migrations/migrations.sql")
	require.NoError(t, err)

	block := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS export_jobs \((.*?)\);`).
		FindStringSubmatch(string(ddl))
	require.Len(t, block, 2, "export_jobs DDL not found")

	for _, col := range []string{
		"child_id", "user_id", "days", "status", "token",
		"file_path", "error", "expires_at", "created_at",
	} {
		assert.True(t, strings.Contains(block[1], col), "export_jobs is missing column %q", col)
	}
}

func TestNewDownloadToken(t *testing.T) {
	a := newDownloadToken()
	b := newDownloadToken()
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}
