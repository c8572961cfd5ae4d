package ledger

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultScanRows bounds the band read; orders land well within it.
	DefaultScanRows = 2000
	// FallbackRow is returned when the grid cannot be read at all. A
	// deliberate availability-over-correctness choice: entering an order
	// on a best-guess row beats refusing the order outright. Callers must
	// treat the allocator's answer as a hint, not a reserved slot.
	FallbackRow = 526
)

// Allocator computes the next writable row of the order sheet.
type Allocator struct {
	grid     Grid
	scanRows int
	log      *zap.Logger

	// OnFallback, when set, runs each time a read failure forces the
	// fallback row. Callers hang observability off it.
	OnFallback func()
}

// NewAllocator builds an Allocator over the given grid. scanRows <= 1
// falls back to DefaultScanRows.
func NewAllocator(grid Grid, scanRows int, log *zap.Logger) *Allocator {
	if scanRows <= 1 {
		scanRows = DefaultScanRows
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Allocator{grid: grid, scanRows: scanRows, log: log}
}

// NextRow scans rows 2..scanRows (row 1 is the header) and returns one past
// the highest occupied row. A row is occupied when its name cell is
// non-blank or any quantity cell holds something other than blank or a
// literal zero. An empty sheet yields row 2. Read failures return
// FallbackRow instead of an error.
func (a *Allocator) NextRow(ctx context.Context) int {
	rows, err := a.grid.ReadBand(ctx, 1, a.scanRows)
	if err != nil {
		a.log.Warn("row scan failed, using fallback row",
			zap.Int("fallback", FallbackRow), zap.Error(err))
		if a.OnFallback != nil {
			a.OnFallback()
		}
		return FallbackRow
	}

	last := 1 // header
	for i, row := range rows {
		rowNum := i + 1
		if rowNum == 1 {
			continue
		}
		if rowOccupied(row) {
			last = rowNum
		}
	}
	return last + 1
}

// rowOccupied reports whether a band row holds order data. Cell 0 is the
// customer name; the quantity cells sit at the product-column offsets
// within the band.
func rowOccupied(row []string) bool {
	if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
		return true
	}
	for _, col := range productColumns {
		i := col - colBandStart
		if i < len(row) {
			v := strings.TrimSpace(row[i])
			if v != "" && v != "0" {
				return true
			}
		}
	}
	return false
}
