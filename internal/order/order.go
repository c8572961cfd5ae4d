// Package order defines the normalized order record every parsing path
// produces, plus the small derivation rules (totals, seller assignment,
// discount amounts) that must behave identically no matter which path
// built the order.
package order

import (
	"strings"

	"orderline/internal/catalog"
)

// PaymentMethod is one of the fixed payment channels the ledger accepts.
type PaymentMethod string

const (
	PayGcash  PaymentMethod = "Gcash"
	PayBPI    PaymentMethod = "BPI"
	PayMaya   PaymentMethod = "Maya"
	PayCash   PaymentMethod = "Cash"
	PayBDO    PaymentMethod = "BDO"
	PayOthers PaymentMethod = "Others"
)

// Location is a recognized customer area. Each location has a fixed seller.
type Location string

const (
	LocQuezonCity Location = "Quezon City"
	LocParanaque  Location = "Paranaque"
)

// SellerFor returns the seller handling a location. The mapping is a pure
// function; a seller is never accepted from external input directly.
func SellerFor(loc Location) string {
	switch loc {
	case LocQuezonCity:
		return "Ferdie"
	case LocParanaque:
		return "Nina"
	default:
		return ""
	}
}

// Item is one product line of an order. Quantity is always positive in a
// finalized order; non-positive candidates are dropped during validation.
type Item struct {
	Product  catalog.Product
	Quantity int
}

// Order is the canonical structured result of parsing one customer message.
// Optional string fields use "" for absent; DiscountPercentage uses a
// pointer because an explicit 0% (bare "discount" keyword, amount to be
// filled in manually) is distinct from no discount at all.
type Order struct {
	CustomerName     string
	Items            []Item
	TotalAmount      int // Σ quantity × unit price; never includes shipping or discount
	PaymentMethod    PaymentMethod
	CustomerLocation Location
	AssignedSeller   string // always re-derived from CustomerLocation

	DiscountPercentage *float64
	DiscountAmount     int
	ShippingFee        int

	// Diagnostics carried through from the text-understanding service.
	// Never affect control flow.
	Confidence float64
	Notes      string

	RawMessage string
}

// Total computes the pre-discount, pre-shipping total of a set of items.
func Total(items []Item) int {
	sum := 0
	for _, it := range items {
		sum += it.Quantity * it.Product.UnitPrice
	}
	return sum
}

// GrandTotal is what the customer actually pays: total plus shipping minus
// discount. Applied only at display/persistence time.
func (o *Order) GrandTotal() int {
	return o.TotalAmount + o.ShippingFee - o.DiscountAmount
}

// Finalize recomputes every derived field from first principles: the total
// from the item list, the seller from the location, and the discount amount
// from the percentage when no amount was supplied. Both the deterministic
// extractor and the reconciler run their results through this.
func (o *Order) Finalize() {
	o.TotalAmount = Total(o.Items)
	o.AssignedSeller = SellerFor(o.CustomerLocation)
	if o.DiscountPercentage != nil && o.DiscountAmount == 0 {
		o.DiscountAmount = DiscountAmount(o.TotalAmount, *o.DiscountPercentage)
	}
}

// DiscountAmount converts a percentage into pesos: floor(total × pct / 100).
func DiscountAmount(total int, pct float64) int {
	if pct <= 0 || total <= 0 {
		return 0
	}
	return int(float64(total) * pct / 100)
}

// TitleCase normalizes a customer name: one space between words, first
// letter of each word upper-cased, rest lowered.
func TitleCase(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	for i, f := range fields {
		fields[i] = strings.ToUpper(f[:1]) + strings.ToLower(f[1:])
	}
	return strings.Join(fields, " ")
}

// State is where an order sits in its lifecycle.
type State string

const (
	// StateDrafted: extraction complete, waiting for confirmation.
	StateDrafted State = "drafted"
	// StatePersisted: allocator and writer both succeeded.
	StatePersisted State = "persisted"
	// StateCancelled: discarded before persistence.
	StateCancelled State = "cancelled"
	// StateParseFailed: terminal; no items recognized, customer must resend.
	StateParseFailed State = "parse_failed"
)
