package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldbooks/ledger-engine/pkg/db"
	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

const testCompany int64 = 7

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewStore(conn)
}

func TestLoadActiveOrdering(t *testing.T) {
	s := newTestStore(t)

	mustCreate := func(pattern string, priority int) {
		t.Helper()
		_, err := s.Create(ledger.ClassificationRule{
			CompanyID:   testCompany,
			PatternText: pattern,
			AccountCode: "8800-001",
			Priority:    priority,
			IsActive:    true,
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond) // distinct created_at for the recency tie-break
	}

	mustCreate("LOW", 10)
	mustCreate("OLD-HIGH", 90)
	mustCreate("NEW-HIGH", 90)

	loaded, err := s.LoadActive(testCompany)
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	// priority DESC, then most recently created first
	assert.Equal(t, "NEW-HIGH", loaded[0].PatternText)
	assert.Equal(t, "OLD-HIGH", loaded[1].PatternText)
	assert.Equal(t, "LOW", loaded[2].PatternText)
}

func TestLoadActiveFiltersInactiveAndOtherCompanies(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create(ledger.ClassificationRule{
		CompanyID: testCompany, PatternText: "ACTIVE", AccountCode: "8800-001", IsActive: true,
	})
	require.NoError(t, err)
	_, err = s.Create(ledger.ClassificationRule{
		CompanyID: testCompany, PatternText: "INACTIVE", AccountCode: "8800-001", IsActive: false,
	})
	require.NoError(t, err)
	_, err = s.Create(ledger.ClassificationRule{
		CompanyID: testCompany + 1, PatternText: "OTHER", AccountCode: "8800-001", IsActive: true,
	})
	require.NoError(t, err)

	loaded, err := s.LoadActive(testCompany)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "ACTIVE", loaded[0].PatternText)
	assert.Equal(t, ledger.MatchTypeContains, loaded[0].MatchType)
}

func TestSeedFromFile(t *testing.T) {
	s := newTestStore(t)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	seed := `rules:
  - pattern: DOTSURE
    account_code: 8800-002
    account_name: Insurance - Dotsure
    priority: 90
  - pattern: ENGEN
    account_code: 8500-001
    account_name: Motor Vehicle Expenses
    priority: 50
`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

	inserted, err := s.SeedFromFile(testCompany, path)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// Re-seeding is a no-op for existing patterns.
	inserted, err = s.SeedFromFile(testCompany, path)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	loaded, err := s.LoadActive(testCompany)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "DOTSURE", loaded[0].PatternText)
	assert.Equal(t, 90, loaded[0].Priority)
}
