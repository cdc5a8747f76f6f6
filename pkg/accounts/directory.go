// Package accounts implements the account directory: chart-of-accounts
// resolution with lazy, on-demand account creation backed by a cache.
package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/veldbooks/ledger-engine/pkg/db"
	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

// ErrNotFound is returned when an account does not exist for a company.
var ErrNotFound = errors.New("account not found")

// Directory resolves and lazily creates chart-of-accounts entries. The
// database unique constraint on (company_id, account_code) is the source of
// truth; the cache is best-effort and reconciled on conflict.
type Directory struct {
	conn  *db.Connection
	cache *Cache

	// per-company creation locks
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewDirectory creates a Directory backed by the given connection and cache.
func NewDirectory(conn *db.Connection, cache *Cache) *Directory {
	if cache == nil {
		cache = NewCache()
	}
	return &Directory{
		conn:  conn,
		cache: cache,
		locks: make(map[int64]*sync.Mutex),
	}
}

// InvalidateCompany drops cached accounts for a company. Call after bulk
// chart modifications such as seeding.
func (d *Directory) InvalidateCompany(companyID int64) {
	d.cache.InvalidateCompany(companyID)
}

func (d *Directory) companyLock(companyID int64) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[companyID]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[companyID] = lock
	}
	return lock
}

// Resolve returns the account with the given code, or ErrNotFound.
func (d *Directory) Resolve(companyID int64, code string) (ledger.Account, error) {
	if acc, ok := d.cache.Get(companyID, code); ok {
		return acc, nil
	}

	acc, err := d.fetch(companyID, code)
	if err != nil {
		return ledger.Account{}, err
	}

	d.cache.Put(acc)
	return acc, nil
}

func (d *Directory) fetch(companyID int64, code string) (ledger.Account, error) {
	var acc ledger.Account
	var parentID sql.NullInt64
	var category string
	err := d.conn.QueryRow(`
		SELECT id, company_id, account_code, account_name, category, parent_account_id, is_active
		FROM accounts
		WHERE company_id = ? AND account_code = ?`,
		companyID, code,
	).Scan(&acc.ID, &acc.CompanyID, &acc.Code, &acc.Name, &category, &parentID, &acc.IsActive)
	if err == sql.ErrNoRows {
		return ledger.Account{}, fmt.Errorf("account %q (company %d): %w", code, companyID, ErrNotFound)
	}
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to query account %q: %w", code, err)
	}
	acc.Category = ledger.Category(category)
	if parentID.Valid {
		acc.ParentID = &parentID.Int64
	}
	return acc, nil
}

// GetOrCreate returns the account with the given code, creating it when it
// does not exist. The category is inferred from the code prefix. A missing
// parent code is not an error: the account is created with a null parent.
// Concurrent creators are serialized per company, and an insert that still
// loses the race to the unique constraint re-reads the winner's row.
func (d *Directory) GetOrCreate(companyID int64, code, name, parentCode string) (ledger.Account, error) {
	acc, err := d.Resolve(companyID, code)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return ledger.Account{}, err
	}

	lock := d.companyLock(companyID)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have created it while we waited for the lock.
	if acc, err := d.fetch(companyID, code); err == nil {
		d.cache.Put(acc)
		return acc, nil
	} else if !errors.Is(err, ErrNotFound) {
		return ledger.Account{}, err
	}

	var parentID *int64
	if parentCode != "" {
		parent, err := d.fetch(companyID, parentCode)
		switch {
		case err == nil:
			parentID = &parent.ID
		case errors.Is(err, ErrNotFound):
			// Orphaned but valid: the account is linked later if the
			// parent ever appears.
			slog.Debug("parent account missing, creating orphan",
				"company_id", companyID, "code", code, "parent_code", parentCode)
		default:
			return ledger.Account{}, err
		}
	}

	category := InferCategory(code)
	res, err := d.conn.Exec(`
		INSERT INTO accounts (company_id, account_code, account_name, category, parent_account_id, is_active)
		VALUES (?, ?, ?, ?, ?, 1)`,
		companyID, code, name, string(category), parentID,
	)
	if err != nil {
		// Unique-constraint loss against a writer outside this process:
		// the row is the truth, use it.
		if existing, fetchErr := d.fetch(companyID, code); fetchErr == nil {
			d.cache.Put(existing)
			return existing, nil
		}
		return ledger.Account{}, fmt.Errorf("failed to create account %q: %w", code, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return ledger.Account{}, fmt.Errorf("failed to read new account id: %w", err)
	}

	acc = ledger.Account{
		ID:        id,
		CompanyID: companyID,
		Code:      code,
		Name:      name,
		Category:  category,
		ParentID:  parentID,
		IsActive:  true,
	}
	d.cache.Put(acc)

	slog.Info("created account",
		"company_id", companyID, "code", code, "name", name, "category", string(category))

	return acc, nil
}

// EnsureSubAccount returns a detail account under parentCode for the given
// counter-party, minting it on first sight. The code suffix is derived
// deterministically from the counter-party name; when the candidate code is
// already taken by a different counter-party, the next numeric suffix is
// probed until a free or matching one is found.
func (d *Directory) EnsureSubAccount(companyID int64, parentCode, parentName, counterParty string) (ledger.Account, error) {
	display := strings.TrimSpace(counterParty)
	if display == "" {
		return ledger.Account{}, fmt.Errorf("empty counter-party for sub-account under %q", parentCode)
	}
	name := fmt.Sprintf("%s - %s", parentName, titleCase(display))

	for _, suffix := range suffixCandidates(display) {
		code := parentCode + "-" + suffix

		acc, err := d.Resolve(companyID, code)
		if errors.Is(err, ErrNotFound) {
			return d.GetOrCreate(companyID, code, name, parentCode)
		}
		if err != nil {
			return ledger.Account{}, err
		}
		if acc.Name == name {
			return acc, nil
		}
		// Collision with a different counter-party; probe the next suffix.
	}

	return ledger.Account{}, fmt.Errorf("no free sub-account code under %q for %q", parentCode, display)
}

// suffixCandidates returns the ordered suffixes to try for a counter-party
// name: the first three alphanumerics when the name is long enough, then
// numeric probes seeded by a stable hash of the name.
func suffixCandidates(name string) []string {
	candidates := make([]string, 0, 1001)

	var alnum []rune
	for _, r := range strings.ToUpper(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum = append(alnum, r)
		}
		if len(alnum) == 3 {
			break
		}
	}
	if len(alnum) == 3 {
		candidates = append(candidates, string(alnum))
	}

	h := fnv.New32a()
	h.Write([]byte(strings.ToUpper(name)))
	seed := int(h.Sum32() % 1000)
	for i := 0; i < 1000; i++ {
		candidates = append(candidates, fmt.Sprintf("%03d", (seed+i)%1000))
	}

	return candidates
}

// titleCase renders an upper-cased statement token as a display name
// ("VAN DER MERWE" -> "Van Der Merwe").
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
