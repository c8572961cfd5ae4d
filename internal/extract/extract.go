// Package extract is the deterministic, rule-based order parser. It is the
// guaranteed-available baseline: a pure, total function over the raw
// message text, with no network, no state and no failure mode. Every rule
// set is an explicit ordered list evaluated top to bottom, so the priority
// between patterns is visible in the data rather than buried in control
// flow.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"orderline/internal/catalog"
	"orderline/internal/order"
)

// Extract parses a raw customer message into a normalized order. It never
// fails; a message with no recognizable products yields an order with an
// empty item list.
func Extract(raw string) *order.Order {
	o := &order.Order{RawMessage: raw}
	lower := strings.ToLower(raw)

	items, _ := extractItems(raw)
	o.Items = items
	o.TotalAmount = order.Total(items)

	o.CustomerName = extractName(raw)
	o.PaymentMethod = detectPayment(lower)
	o.CustomerLocation = detectLocation(lower)
	o.DiscountPercentage, o.DiscountAmount = detectDiscount(lower, o.TotalAmount)
	o.ShippingFee = detectShipping(lower)

	o.Finalize()
	return o
}

// --- items -----------------------------------------------------------------

var codeAlt = strings.Join(catalog.Codes(), "|")

// The three item pattern families, in priority order:
//  1. leading quantity then catalog code ("2 P-CHZ", "2x P-CHZ")
//  2. catalog code then trailing quantity ("P-CHZ 2")
//  3. flavor keyword with optional size word and a nearby quantity
//     ("2 cheese pouches", "bbq tub 1", "isang keso tub")
//
// All families are applied and their matches collected. Matches from a
// later family whose span overlaps an already-accepted span are dropped,
// so the same text segment is never counted twice (see DESIGN.md on the
// dedup policy).
var (
	reQtyCode = regexp.MustCompile(`(?i)(\d+)\s*x?\s*(` + codeAlt + `)`)
	reCodeQty = regexp.MustCompile(`(?i)(` + codeAlt + `)\s*x?\s*(\d+)`)
	reFlavor  = buildFlavorPattern()
)

// filipinoNumbers maps Tagalog number words (and their linker forms) to
// integers, per the vocabulary the original storefront accepts.
var filipinoNumbers = map[string]int{
	"isa": 1, "isang": 1,
	"dalawa": 2, "dalawang": 2,
	"tatlo": 3, "tatlong": 3,
	"apat": 4,
	"lima": 5, "limang": 5,
	"anim": 6,
	"pito": 7, "pitong": 7,
	"walo": 8, "walong": 8,
	"siyam": 9,
	"sampu": 10, "sampung": 10,
}

func buildFlavorPattern() *regexp.Regexp {
	aliases := make([]string, 0, 12)
	for _, a := range catalog.FlavorAliases() {
		aliases = append(aliases, regexp.QuoteMeta(a.Alias))
	}
	numbers := make([]string, 0, len(filipinoNumbers))
	for w := range filipinoNumbers {
		numbers = append(numbers, w)
	}
	// Longest first so linker forms ("isang") are preferred over their
	// stems ("isa").
	sort.Slice(numbers, func(i, j int) bool {
		if len(numbers[i]) != len(numbers[j]) {
			return len(numbers[i]) > len(numbers[j])
		}
		return numbers[i] < numbers[j]
	})
	// Size words, multi-character forms first so plurals win.
	sizes := `pouches|pouch|maliit|100g|tubs|tub|malaki|200g`

	return regexp.MustCompile(`(?i)\b(?:(\d+|` + strings.Join(numbers, "|") + `)\s*x?\s*)?(` +
		strings.Join(aliases, "|") + `)\s*(?:chips?\s*)?(` + sizes + `)?(?:\s*x?\s*(\d+))?`)
}

// parseQty parses a digit run into a quantity. Atoi reports ErrRange with
// a clamped MaxInt value for out-of-range input, which would otherwise
// slip a quantity into the order that the customer never wrote, so any
// parse error drops the candidate.
func parseQty(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func extractItems(raw string) ([]order.Item, []order.RawItem) {
	var candidates []order.RawItem
	var spans [][2]int

	overlaps := func(start, end int) bool {
		for _, s := range spans {
			if start < s[1] && end > s[0] {
				return true
			}
		}
		return false
	}

	// Family 1: quantity then code.
	for _, m := range reQtyCode.FindAllStringSubmatchIndex(raw, -1) {
		qty, ok := parseQty(raw[m[2]:m[3]])
		if !ok {
			continue
		}
		candidates = append(candidates, order.RawItem{Code: raw[m[4]:m[5]], Quantity: qty})
		spans = append(spans, [2]int{m[0], m[1]})
	}

	// Family 2: code then quantity.
	for _, m := range reCodeQty.FindAllStringSubmatchIndex(raw, -1) {
		if overlaps(m[0], m[1]) {
			continue
		}
		qty, ok := parseQty(raw[m[4]:m[5]])
		if !ok {
			continue
		}
		candidates = append(candidates, order.RawItem{Code: raw[m[2]:m[3]], Quantity: qty})
		spans = append(spans, [2]int{m[0], m[1]})
	}

	// Family 3: flavor keyword with nearby quantity.
	for _, m := range reFlavor.FindAllStringSubmatchIndex(raw, -1) {
		if overlaps(m[0], m[1]) {
			continue
		}
		item, ok := flavorCandidate(raw, m)
		if !ok {
			continue
		}
		candidates = append(candidates, item)
		spans = append(spans, [2]int{m[0], m[1]})
	}

	accepted, rejected := order.Partition(candidates)
	return accepted, rejected
}

// flavorCandidate resolves one flavor-family match into an item candidate.
// Submatch groups: 1=leading quantity (digits or Filipino word), 2=flavor
// alias, 3=size word, 4=trailing quantity. A match with no quantity at all
// is not an order line ("may cheese ba kayo?" is a question, not an order).
func flavorCandidate(raw string, m []int) (order.RawItem, bool) {
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return raw[m[2*i]:m[2*i+1]]
	}

	qty := 0
	if lead := strings.ToLower(group(1)); lead != "" {
		if n, ok := parseQty(lead); ok {
			qty = n
		} else if n, ok := filipinoNumbers[lead]; ok {
			qty = n
		}
	} else if trail := group(4); trail != "" {
		qty, _ = parseQty(trail)
	}
	if qty == 0 {
		return order.RawItem{}, false
	}

	flavor := resolveFlavor(group(2))
	size := catalog.SizePouch // no size word means the small casual "chips" order
	if sw := strings.ToLower(group(3)); sw != "" {
		if s, ok := catalog.SizeWords()[sw]; ok {
			size = s
		}
	}
	p, ok := catalog.ByFlavorSize(flavor, size)
	if !ok {
		return order.RawItem{}, false
	}
	return order.RawItem{Code: p.Code, Quantity: qty}, true
}

func resolveFlavor(alias string) catalog.Flavor {
	alias = strings.ToLower(alias)
	for _, a := range catalog.FlavorAliases() {
		if a.Alias == alias {
			return a.Flavor
		}
	}
	return catalog.Flavor(alias)
}

// --- customer name ---------------------------------------------------------

// Six naming patterns tried in fixed priority order; first match wins.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfor\s+([A-Za-z][A-Za-z\s]*)`),            // "for Maria"
	regexp.MustCompile(`(?i)\bpara\s+(?:sa\s+)?([A-Za-z][A-Za-z\s]*)`), // "para Maria", "para sa Maria"
	regexp.MustCompile(`(?i)\bkay\s+([A-Za-z][A-Za-z\s]*)`),            // "kay Maria"
	regexp.MustCompile(`(?i)\bfrom\s+([A-Za-z][A-Za-z\s]*)`),           // "from Maria"
	regexp.MustCompile(`(?i)([A-Za-z][A-Za-z\s]*)\s+ordered\b`),        // "Maria ordered"
	regexp.MustCompile(`(?i)customer:\s*([A-Za-z][A-Za-z\s]*)`),        // "customer: Maria"
}

func extractName(raw string) string {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return order.TitleCase(m[1])
		}
	}
	return ""
}

// --- payment method --------------------------------------------------------

type paymentCluster struct {
	method   order.PaymentMethod
	keywords []string
}

// Fixed priority order. Gcash is tested before Cash so that "gcash" never
// falls through to the bare "cash" substring.
var paymentClusters = []paymentCluster{
	{order.PayGcash, []string{"gcash", "g-cash", "g cash"}},
	{order.PayBPI, []string{"bpi"}},
	{order.PayMaya, []string{"maya", "paymaya", "pay maya"}},
	{order.PayCash, []string{"cash", "cod", "cash on delivery", "bayad cash"}},
	{order.PayBDO, []string{"bdo"}},
	{order.PayOthers, []string{"transfer", "bank", "online"}},
}

func detectPayment(lower string) order.PaymentMethod {
	for _, c := range paymentClusters {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.method
			}
		}
	}
	return ""
}

// --- location / seller -----------------------------------------------------

type locationCluster struct {
	location order.Location
	keywords []string
}

var locationClusters = []locationCluster{
	{order.LocQuezonCity, []string{"quezon city", "qc"}},
	{order.LocParanaque, []string{"paranaque", "parañaque"}},
}

func detectLocation(lower string) order.Location {
	for _, c := range locationClusters {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.location
			}
		}
	}
	return ""
}

// --- discount --------------------------------------------------------------

// Every numeric value these patterns recover is a PERCENTAGE, never an
// absolute peso amount — including "5 off" and "discount 5". That is the
// storefront's convention, odd as it reads.
var discountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)%\s*off`),
	regexp.MustCompile(`(\d+)%\s*discount`),
	regexp.MustCompile(`(\d+)%`),
	regexp.MustCompile(`(\d+)\s*off`),
	regexp.MustCompile(`discount\s*(\d+)%`),
	regexp.MustCompile(`discount\s*(\d+)`),
}

// A bare discount keyword with no number sets an explicit 0%: the row gets
// a discount the staff will fill in by hand. Distinct from no discount.
var discountKeywords = []string{"discount", "diskarte", "bawas"}

func detectDiscount(lower string, total int) (*float64, int) {
	for _, re := range discountPatterns {
		if m := re.FindStringSubmatch(lower); m != nil {
			pct, _ := strconv.ParseFloat(m[1], 64)
			return &pct, order.DiscountAmount(total, pct)
		}
	}
	for _, kw := range discountKeywords {
		if strings.Contains(lower, kw) {
			zero := 0.0
			return &zero, 0
		}
	}
	return nil, 0
}

// --- shipping fee ----------------------------------------------------------

// Shipping fees are always absolute peso amounts. First match wins.
var shippingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`shipping\s*(?:fee)?\s*(\d+)`),
	regexp.MustCompile(`delivery\s*(?:fee)?\s*(\d+)`),
	regexp.MustCompile(`sf\s*(?:fee)?\s*(\d+)`),
	regexp.MustCompile(`padala\s*(\d+)`),
	regexp.MustCompile(`hatid\s*(\d+)`),
	regexp.MustCompile(`ship\s*(\d+)`),
	regexp.MustCompile(`deliver\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*shipping`),
	regexp.MustCompile(`(\d+)\s*sf`),
	regexp.MustCompile(`plus\s*(\d+)\s*(?:shipping|sf|delivery|padala)`),
}

func detectShipping(lower string) int {
	for _, re := range shippingPatterns {
		if m := re.FindStringSubmatch(lower); m != nil {
			if fee, ok := parseQty(m[1]); ok {
				return fee
			}
		}
	}
	return 0
}
