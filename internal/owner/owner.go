// Package owner assigns an owner label to a posting from a static
// company-substring table. It is enrichment only and never filters.
package owner

import (
	"sort"
	"strings"
)

// Lookup maps lower-cased company-name substrings to owner labels.
// When several aliases match the same company, the longest alias wins; ties
// on length break alphabetically. The order is fixed at construction so
// results never depend on map iteration order.
type Lookup struct {
	aliases []string
	owners  map[string]string
}

// New builds a Lookup from an alias -> owner table.
func New(table map[string]string) *Lookup {
	l := &Lookup{
		aliases: make([]string, 0, len(table)),
		owners:  make(map[string]string, len(table)),
	}
	for alias, owner := range table {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" {
			continue
		}
		l.aliases = append(l.aliases, alias)
		l.owners[alias] = owner
	}
	sort.Slice(l.aliases, func(i, j int) bool {
		if len(l.aliases[i]) != len(l.aliases[j]) {
			return len(l.aliases[i]) > len(l.aliases[j])
		}
		return l.aliases[i] < l.aliases[j]
	})
	return l
}

// Owner returns the owner label for the company, or "" when no alias matches.
func (l *Lookup) Owner(company string) string {
	name := strings.ToLower(company)
	for _, alias := range l.aliases {
		if strings.Contains(name, alias) {
			return l.owners[alias]
		}
	}
	return ""
}
