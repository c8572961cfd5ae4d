package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"orderline/internal/order"
)

// WriteSet is the sparse update for one confirmed order: a target row and
// the cells to set on it. Cells whose source field is absent are simply
// not in the map, so existing sheet content (and formulas) in those
// columns is never blanked.
type WriteSet struct {
	Row   int
	Cells map[int]string
}

// Sentinel values the sheet staff rely on.
const (
	unknownCustomer = "Unknown"
	statusUnpaid    = "Unpaid"
	orderTypeTag    = "Reserved"
)

// manilaTime returns the sheet's local clock. The ledger is maintained in
// Manila regardless of where the bot runs.
func manilaTime() *time.Location {
	loc, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		return time.FixedZone("PHT", 8*60*60)
	}
	return loc
}

// BuildWrites assembles the write-set for an order at the given row, using
// now for the date and note timestamps. Conditional columns follow the
// sheet contract: soldBy and paymentMethod only when detected, shipping
// and discount only when positive, a quantity column only for SKUs the
// order actually contains.
func BuildWrites(o *order.Order, row int, now time.Time) WriteSet {
	now = now.In(manilaTime())
	cells := map[int]string{
		ColDate:          now.Format("01/02/2006"),
		ColCustomer:      unknownCustomer,
		ColPaymentStatus: statusUnpaid,
		ColNote:          "🤖 " + now.Format("3:04 PM"),
		ColOrderType:     orderTypeTag,
	}
	if o.CustomerName != "" {
		cells[ColCustomer] = o.CustomerName
	}
	if o.AssignedSeller != "" {
		cells[ColSoldBy] = o.AssignedSeller
	}
	if o.PaymentMethod != "" {
		cells[ColPaymentMethod] = string(o.PaymentMethod)
	}
	for _, it := range o.Items {
		if col, ok := productColumns[it.Product.Code]; ok {
			cells[col] = strconv.Itoa(it.Quantity)
		}
	}
	if o.ShippingFee > 0 {
		cells[ColShippingFee] = strconv.Itoa(o.ShippingFee)
	}
	if o.DiscountAmount > 0 {
		cells[ColDiscount] = strconv.Itoa(o.DiscountAmount)
	}
	return WriteSet{Row: row, Cells: cells}
}

// Commit applies every cell of the write-set. The backend only offers
// single-cell writes, so a commit is physically many calls; all of them
// are attempted, and any cell failure makes the whole commit fail with the
// per-cell causes joined. Callers see success only when every cell landed.
func Commit(ctx context.Context, grid Grid, ws WriteSet) error {
	if ws.Row < 2 {
		return fmt.Errorf("refusing to write row %d", ws.Row)
	}

	cols := make([]int, 0, len(ws.Cells))
	for col := range ws.Cells {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	var errs []error
	for _, col := range cols {
		if err := grid.UpdateCell(ctx, ws.Row, col, ws.Cells[col]); err != nil {
			errs = append(errs, fmt.Errorf("cell %s%d: %w", ColumnLetters(col), ws.Row, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("commit to row %d incomplete: %w", ws.Row, errors.Join(errs...))
	}
	return nil
}
