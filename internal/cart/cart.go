// Package cart keeps the pending purchase selection of a browsing session.
package cart

import (
	"sort"
	"strings"

	"sportzone/internal/apperr"
)

// Session identifies the browsing session a cart belongs to. It is passed
// explicitly to every cart and checkout operation.
type Session struct {
	ID string
}

func (s Session) validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return apperr.Validation("session", "missing session")
	}
	return nil
}

// Cart maps variant id to a positive quantity.
type Cart map[uint]int

// VariantIDs returns the ids in ascending order.
func (c Cart) VariantIDs() []uint {
	ids := make([]uint, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c Cart) Empty() bool {
	return len(c) == 0
}
