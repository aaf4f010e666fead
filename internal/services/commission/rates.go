package commission

import (
	"sync"

	"github.com/shopspring/decimal"
)

// rateTable holds the category and role rate maps. Reads take a shared
// snapshot; UpdateRate swaps in a fresh map so lookups never observe a
// partially applied change.
type rateTable struct {
	mu          sync.RWMutex
	defaultRate decimal.Decimal
	categories  map[string]decimal.Decimal
	roles       map[string]decimal.Decimal
}

func newRateTable(defaultRate decimal.Decimal, categories, roles map[string]decimal.Decimal) *rateTable {
	t := &rateTable{
		defaultRate: defaultRate,
		categories:  make(map[string]decimal.Decimal, len(categories)),
		roles:       make(map[string]decimal.Decimal, len(roles)),
	}
	for k, v := range categories {
		t.categories[k] = v
	}
	for k, v := range roles {
		t.roles[k] = v
	}
	return t
}

// resolve applies the precedence: custom rate > role rate > category
// rate > default rate.
func (t *rateTable) resolve(category string, o *Overrides) decimal.Decimal {
	if o != nil && o.CustomRate != nil {
		return *o.CustomRate
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if o != nil && o.OwnerRole != "" {
		if rate, ok := t.roles[o.OwnerRole]; ok {
			return rate
		}
	}
	if rate, ok := t.categories[category]; ok {
		return rate
	}
	return t.defaultRate
}

// setCategory swaps in a new category map with the updated rate.
func (t *rateTable) setCategory(category string, rate decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := make(map[string]decimal.Decimal, len(t.categories)+1)
	for k, v := range t.categories {
		next[k] = v
	}
	next[category] = rate
	t.categories = next
}
