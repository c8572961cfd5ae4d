package ledger

import "strings"

// Fixed column contract of the shared order sheet. Indices are 1-based
// (A=1). The sheet has formula columns between these; the writer only ever
// touches the columns below, never whole rows.
const (
	ColDate          = 3  // C: order date, MM/DD/YYYY Manila time
	ColCustomer      = 4  // D: customer name, "Unknown" when not detected
	ColSoldBy        = 5  // E: auto-assigned seller, written only when known
	ColPaymentMethod = 7  // G: payment method, written only when detected
	ColPaymentStatus = 8  // H: always "Unpaid" on entry
	ColNote          = 10 // J: bot note with entry time
	ColOrderType     = 11 // K: always "Reserved" for bot-entered orders
	ColShippingFee   = 26 // Z: shipping fee, written only when > 0
	ColDiscount      = 27 // AA: discount amount, written only when > 0
)

// Quantity columns, one per SKU: pouches in N..Q, tubs in T..W.
var productColumns = map[string]int{
	"P-CHZ":  14, // N
	"P-SC":   15, // O
	"P-BBQ":  16, // P
	"P-OG":   17, // Q
	"2L-CHZ": 20, // T
	"2L-SC":  21, // U
	"2L-BBQ": 22, // V
	"2L-OG":  23, // W
}

// The allocator's scan band covers columns D..W.
const (
	colBandStart = ColCustomer
	colBandEnd   = 23 // W
	bandWidth    = colBandEnd - colBandStart + 1
)

// ColumnIndex converts a column letter reference to its 1-based index:
// A=1 … Z=26, AA=27. Returns 0 for an empty or non-alphabetic reference.
func ColumnIndex(letters string) int {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	idx := 0
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return 0
		}
		idx = idx*26 + int(r-'A'+1)
	}
	return idx
}

// ColumnLetters converts a 1-based column index back to letters: 1→A,
// 26→Z, 27→AA. Returns "" for indices < 1.
func ColumnLetters(idx int) string {
	if idx < 1 {
		return ""
	}
	var b []byte
	for idx > 0 {
		idx--
		b = append([]byte{byte('A' + idx%26)}, b...)
		idx /= 26
	}
	return string(b)
}
