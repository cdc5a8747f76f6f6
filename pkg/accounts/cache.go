package accounts

import (
	"sync"

	"github.com/veldbooks/ledger-engine/pkg/ledger"
)

// cacheKey identifies an account within a company.
type cacheKey struct {
	companyID int64
	code      string
}

// Cache is a read-mostly in-process cache of resolved accounts. The database
// unique constraint on (company_id, account_code) is the source of truth;
// cache entries are best-effort and reconciled on insert conflict.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]ledger.Account
}

// NewCache creates an empty account cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]ledger.Account)}
}

// Get returns the cached account for (companyID, code), if present.
func (c *Cache) Get(companyID int64, code string) (ledger.Account, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	acc, ok := c.entries[cacheKey{companyID, code}]
	return acc, ok
}

// Put stores an account in the cache.
func (c *Cache) Put(acc ledger.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{acc.CompanyID, acc.Code}] = acc
}

// InvalidateCompany drops all cached accounts for a company. Called after
// bulk chart operations (seeding, imports) so stale rows are re-read.
func (c *Cache) InvalidateCompany(companyID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.companyID == companyID {
			delete(c.entries, key)
		}
	}
}
