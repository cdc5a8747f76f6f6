package accounts

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldbooks/ledger-engine/pkg/db"
	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

const testCompany int64 = 7

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewDirectory(conn, NewCache())
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	d := newTestDirectory(t)

	first, err := d.GetOrCreate(testCompany, "9800-001", "Bank Charges", "")
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	assert.Equal(t, ledger.CategoryExpense, first.Category)

	second, err := d.GetOrCreate(testCompany, "9800-001", "Bank Charges", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	d := newTestDirectory(t)

	const callers = 8
	accs := make([]ledger.Account, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			accs[i], errs[i] = d.GetOrCreate(testCompany, "9800-001", "Bank Charges", "")
		}(i)
	}
	wg.Wait()

	// Every caller observes the same committed row.
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotZero(t, accs[i].ID)
		assert.Equal(t, accs[0].ID, accs[i].ID)
	}

	var count int
	err := d.conn.QueryRow(`
		SELECT COUNT(*) FROM accounts WHERE company_id = ? AND account_code = ?`,
		testCompany, "9800-001",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetOrCreateLinksParent(t *testing.T) {
	d := newTestDirectory(t)

	parent, err := d.GetOrCreate(testCompany, "8800", "Insurance", "")
	require.NoError(t, err)

	child, err := d.GetOrCreate(testCompany, "8800-002", "Insurance - Dotsure", "8800")
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
}

func TestGetOrCreateMissingParentIsNotAnError(t *testing.T) {
	d := newTestDirectory(t)

	acc, err := d.GetOrCreate(testCompany, "8500-001", "Motor Vehicle Expenses", "8500")
	require.NoError(t, err)
	assert.Nil(t, acc.ParentID, "orphaned account should have a null parent")
}

func TestResolveNotFound(t *testing.T) {
	d := newTestDirectory(t)

	_, err := d.Resolve(testCompany, "0000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveUsesCacheUntilInvalidated(t *testing.T) {
	d := newTestDirectory(t)

	created, err := d.GetOrCreate(testCompany, "6000-001", "Sales Revenue", "")
	require.NoError(t, err)

	cached, ok := d.cache.Get(testCompany, "6000-001")
	require.True(t, ok)
	assert.Equal(t, created.ID, cached.ID)

	d.InvalidateCompany(testCompany)
	_, ok = d.cache.Get(testCompany, "6000-001")
	assert.False(t, ok)

	// Other companies' entries survive invalidation.
	other, err := d.GetOrCreate(testCompany+1, "6000-001", "Sales Revenue", "")
	require.NoError(t, err)
	d.InvalidateCompany(testCompany)
	stillCached, ok := d.cache.Get(testCompany+1, "6000-001")
	require.True(t, ok)
	assert.Equal(t, other.ID, stillCached.ID)
}

func TestEnsureSubAccountMintsDeterministically(t *testing.T) {
	d := newTestDirectory(t)

	_, err := d.GetOrCreate(testCompany, "8800", "Insurance", "")
	require.NoError(t, err)

	first, err := d.EnsureSubAccount(testCompany, "8800", "Insurance", "DOTSURE")
	require.NoError(t, err)
	assert.Equal(t, "8800-DOT", first.Code)
	assert.Equal(t, "Insurance - Dotsure", first.Name)
	require.NotNil(t, first.ParentID)

	// Same counter-party resolves to the same account.
	again, err := d.EnsureSubAccount(testCompany, "8800", "Insurance", "DOTSURE")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestEnsureSubAccountProbesOnCollision(t *testing.T) {
	d := newTestDirectory(t)

	_, err := d.GetOrCreate(testCompany, "8800", "Insurance", "")
	require.NoError(t, err)

	// Two issuers sharing the first three alphanumerics collide on the
	// alpha suffix; the second falls through to a numeric probe.
	first, err := d.EnsureSubAccount(testCompany, "8800", "Insurance", "OUTSURANCE")
	require.NoError(t, err)
	second, err := d.EnsureSubAccount(testCompany, "8800", "Insurance", "OUTSIDERS BROKERS")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Code, second.Code)

	// Both remain stable on re-request.
	firstAgain, err := d.EnsureSubAccount(testCompany, "8800", "Insurance", "OUTSURANCE")
	require.NoError(t, err)
	assert.Equal(t, first.ID, firstAgain.ID)
}

func TestEnsureSubAccountShortName(t *testing.T) {
	d := newTestDirectory(t)

	acc, err := d.EnsureSubAccount(testCompany, "8100", "Salaries and Wages", "JO")
	require.NoError(t, err)
	// Too short for an alpha suffix; a stable numeric suffix is used.
	assert.Regexp(t, `^8100-\d{3}$`, acc.Code)

	again, err := d.EnsureSubAccount(testCompany, "8100", "Salaries and Wages", "JO")
	require.NoError(t, err)
	assert.Equal(t, acc.Code, again.Code)
}

func TestSeedFromFile(t *testing.T) {
	d := newTestDirectory(t)

	path := filepath.Join(t.TempDir(), "chart.yaml")
	chart := `accounts:
  - code: "1000"
    name: Current Assets
  - code: "1000-001"
    name: Bank Account
    parent: "1000"
  - code: "9800-001"
    name: Bank Charges
`
	require.NoError(t, os.WriteFile(path, []byte(chart), 0644))

	count, err := d.SeedFromFile(testCompany, path)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	bankAcc, err := d.Resolve(testCompany, "1000-001")
	require.NoError(t, err)
	assert.Equal(t, ledger.CategoryAssets, bankAcc.Category)
	require.NotNil(t, bankAcc.ParentID)

	// Re-seeding touches the same rows without duplicating.
	count, err = d.SeedFromFile(testCompany, path)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
