// Package ledger persists confirmed orders into the shared tabular ledger.
// The grid itself is an externally-owned resource reached through the Grid
// interface: a bounded rectangular read over the scan band plus single-cell
// writes. Row allocation and the sparse write-set builder live here too.
//
// The allocate-then-write sequence has no backend transaction; callers
// serialize it (see pipeline) so two confirmations cannot compute the same
// target row in one process. Cross-process collisions remain possible and
// are an accepted limitation of the shared sheet.
package ledger

import (
	"context"
	"sort"
	"sync"
)

// Grid is the minimal surface the ledger needs from a spreadsheet-like
// backend. ReadBand returns rows startRow..endRow (1-based, inclusive) of
// the fixed scan band, columns D through W: index 0 of each row is column
// D (customer name) and the quantity columns sit at their usual offsets.
// Rows and trailing cells may be short or missing entirely.
type Grid interface {
	ReadBand(ctx context.Context, startRow, endRow int) ([][]string, error)
	// UpdateCell writes one value at (row, col), both 1-based; col counts
	// A=1 … Z=26, AA=27.
	UpdateCell(ctx context.Context, row, col int, value string) error
}

// MemoryGrid is an in-process Grid used by tests and the CLI dry-run mode.
// Cell state is a sparse map keyed by (row, col).
type MemoryGrid struct {
	mu    sync.RWMutex
	cells map[[2]int]string

	// FailWrites, when set, makes every UpdateCell return this error.
	// FailReads does the same for ReadBand. Test hooks.
	FailWrites error
	FailReads  error
}

// NewMemoryGrid returns an empty in-memory grid.
func NewMemoryGrid() *MemoryGrid {
	return &MemoryGrid{cells: make(map[[2]int]string)}
}

// Set seeds a cell directly, bypassing failure injection.
func (g *MemoryGrid) Set(row, col int, value string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells[[2]int{row, col}] = value
}

// Get reads one cell; missing cells read as "".
func (g *MemoryGrid) Get(row, col int) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cells[[2]int{row, col}]
}

// ReadBand implements Grid over the D..W band.
func (g *MemoryGrid) ReadBand(_ context.Context, startRow, endRow int) ([][]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.FailReads != nil {
		return nil, g.FailReads
	}

	rows := make([][]string, 0, endRow-startRow+1)
	for r := startRow; r <= endRow; r++ {
		row := make([]string, bandWidth)
		for c := 0; c < bandWidth; c++ {
			row[c] = g.cells[[2]int{r, colBandStart + c}]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// UpdateCell implements Grid.
func (g *MemoryGrid) UpdateCell(_ context.Context, row, col int, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailWrites != nil {
		return g.FailWrites
	}
	g.cells[[2]int{row, col}] = value
	return nil
}

// Rows returns the sorted list of row indices holding at least one cell.
func (g *MemoryGrid) Rows() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := map[int]bool{}
	for k := range g.cells {
		seen[k[0]] = true
	}
	out := make([]int, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Ints(out)
	return out
}
