// Package ledger answers "was this entity already persisted?" from the
// persisted tables themselves. Nothing is stored besides the tables.
package ledger

import (
	"context"
	"fmt"

	"piscinemarket/scraper/internal/storage"
)

// Ledger is the set of names already persisted within one scope.
type Ledger struct {
	scope string
	names map[string]struct{}
}

// ForSubcategories reads every persisted subcategory name.
func ForSubcategories(ctx context.Context, table storage.Table[storage.SubcategoryRow]) (*Ledger, error) {
	rows, err := table.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subcategory ledger: %w", err)
	}

	l := newLedger("")
	for _, row := range rows {
		l.names[row.Name] = struct{}{}
	}
	return l, nil
}

// ForProducts reads the persisted product names whose category is category.
func ForProducts(ctx context.Context, table storage.Table[storage.ProductRow], category string) (*Ledger, error) {
	rows, err := table.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load product ledger for %s: %w", category, err)
	}

	l := newLedger(category)
	for _, row := range rows {
		if row.Category == category {
			l.names[row.Name] = struct{}{}
		}
	}
	return l, nil
}

func newLedger(scope string) *Ledger {
	return &Ledger{
		scope: scope,
		names: make(map[string]struct{}),
	}
}

func (l *Ledger) AlreadyProcessed(name string) bool {
	_, ok := l.names[name]
	return ok
}

// Scope is the category the ledger is restricted to, or "" for the global scope.
func (l *Ledger) Scope() string {
	return l.scope
}

func (l *Ledger) Len() int {
	return len(l.names)
}
