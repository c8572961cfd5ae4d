package order

import (
	"strings"

	"orderline/internal/catalog"
)

// RawItem is an unvalidated item candidate: a product code as it appeared
// in text or external JSON, plus a claimed quantity.
type RawItem struct {
	Code     string
	Quantity int
}

// Partition splits item candidates into accepted order items and rejected
// candidates. A candidate is rejected when its code is not in the catalog
// or its quantity is not positive. Rejection is silent by policy — callers
// log the rejected list at debug level at most — but the partition keeps
// the dropped candidates inspectable.
func Partition(candidates []RawItem) (accepted []Item, rejected []RawItem) {
	for _, c := range candidates {
		p, ok := catalog.Lookup(strings.ToUpper(c.Code))
		if !ok || c.Quantity <= 0 {
			rejected = append(rejected, c)
			continue
		}
		accepted = append(accepted, Item{Product: p, Quantity: c.Quantity})
	}
	return accepted, rejected
}
