// Package reconcile arbitrates between the text-understanding service's
// free-text response and the deterministic extractor. The external
// response is untrusted: it is expected to embed one JSON object with the
// order schema, but nothing guarantees it does, so recovery runs an
// ordered list of extraction strategies and falls back to the
// deterministic parse of the original message when all of them fail.
// The reconciler never fails — its contract is the same total-function
// contract as the extractor's.
package reconcile

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"orderline/internal/extract"
	"orderline/internal/order"
)

// envelope is the JSON schema the text-understanding service is asked to
// produce. Every field is optional except items; a candidate without an
// items key is rejected outright.
type envelope struct {
	CustomerName       *string  `json:"customer_name"`
	PaymentMethod      *string  `json:"payment_method"`
	CustomerLocation   *string  `json:"customer_location"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	DiscountAmount     *int     `json:"discount_amount"`
	ShippingFee        *int     `json:"shipping_fee"`
	Items              []struct {
		ProductCode string `json:"product_code"`
		Quantity    int    `json:"quantity"`
	} `json:"items"`
	Confidence *float64 `json:"confidence"`
	Notes      *string  `json:"notes"`
}

// strategy is one way of locating a JSON payload inside free text. The
// pipeline short-circuits on the first strategy whose result parses and
// carries an items key; new strategies are appended to the list without
// touching call sites.
type strategy struct {
	name    string
	extract func(text string) (string, bool)
}

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

var strategies = []strategy{
	{
		// Largest balanced brace-delimited span in the response.
		name: "brace_span",
		extract: func(text string) (string, bool) {
			best := ""
			for _, c := range findJSONCandidates(text) {
				if len(c) > len(best) && json.Valid([]byte(c)) {
					best = c
				}
			}
			return best, best != ""
		},
	},
	{
		// Fenced block explicitly tagged as JSON.
		name: "fenced_block",
		extract: func(text string) (string, bool) {
			m := fencedJSON.FindStringSubmatch(text)
			if m == nil {
				return "", false
			}
			return m[1], true
		},
	},
	{
		// The whole response, trimmed, as-is.
		name: "whole_text",
		extract: func(text string) (string, bool) {
			t := strings.TrimSpace(text)
			return t, t != ""
		},
	},
}

// Reconciler validates external parse results against the catalog, with
// the deterministic extractor as unconditional fallback.
type Reconciler struct {
	log *zap.Logger
}

// New returns a Reconciler logging through the given logger. A nil logger
// is replaced with a no-op one.
func New(log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{log: log}
}

// Reconcile turns an external response plus the original raw message into
// a normalized order. An empty external response, or one with no
// recoverable JSON order, falls back to the deterministic extractor over
// the ORIGINAL message — never over the external text.
func (r *Reconciler) Reconcile(external, raw string) *order.Order {
	if strings.TrimSpace(external) == "" {
		return extract.Extract(raw)
	}

	env, strategyName, ok := recoverEnvelope(external)
	if !ok {
		r.log.Debug("no usable JSON in external response, falling back to rule-based parse")
		return extract.Extract(raw)
	}
	r.log.Debug("external response accepted", zap.String("strategy", strategyName))

	return r.build(env, raw)
}

// recoverEnvelope runs the strategy list over the response text. A candidate is
// accepted only if it parses as a JSON object AND contains an items key.
func recoverEnvelope(text string) (*envelope, string, bool) {
	for _, s := range strategies {
		payload, ok := s.extract(text)
		if !ok {
			continue
		}

		// The items key must be present in the raw object; an envelope
		// decode alone cannot distinguish "items": [] from no items key.
		var keys map[string]json.RawMessage
		if err := json.Unmarshal([]byte(payload), &keys); err != nil {
			continue
		}
		if _, hasItems := keys["items"]; !hasItems {
			continue
		}

		var env envelope
		if err := json.Unmarshal([]byte(payload), &env); err != nil {
			continue
		}
		return &env, s.name, true
	}
	return nil, "", false
}

// build converts an accepted envelope into a normalized order, repairing
// everything that cannot be trusted: item codes are upper-cased and
// filtered against the catalog, the seller is recomputed from the
// location, and a missing discount amount is derived from the percentage.
func (r *Reconciler) build(env *envelope, raw string) *order.Order {
	candidates := make([]order.RawItem, 0, len(env.Items))
	for _, it := range env.Items {
		candidates = append(candidates, order.RawItem{
			Code:     strings.ToUpper(it.ProductCode),
			Quantity: it.Quantity,
		})
	}
	accepted, rejected := order.Partition(candidates)
	if len(rejected) > 0 {
		r.log.Debug("dropped invalid item candidates", zap.Int("count", len(rejected)))
	}

	o := &order.Order{
		Items:      accepted,
		RawMessage: raw,
	}
	if env.CustomerName != nil {
		o.CustomerName = order.TitleCase(*env.CustomerName)
	}
	if env.PaymentMethod != nil {
		o.PaymentMethod = normalizePayment(*env.PaymentMethod)
	}
	if env.CustomerLocation != nil {
		o.CustomerLocation = normalizeLocation(*env.CustomerLocation)
	}
	if env.DiscountPercentage != nil {
		pct := *env.DiscountPercentage
		o.DiscountPercentage = &pct
	}
	if env.DiscountAmount != nil && *env.DiscountAmount > 0 {
		o.DiscountAmount = *env.DiscountAmount
	}
	if env.ShippingFee != nil && *env.ShippingFee > 0 {
		o.ShippingFee = *env.ShippingFee
	}
	if env.Confidence != nil {
		o.Confidence = *env.Confidence
	}
	if env.Notes != nil {
		o.Notes = *env.Notes
	}

	o.Finalize()
	return o
}

// normalizePayment maps a claimed payment method onto the fixed enum;
// anything unrecognized becomes Others rather than passing through.
func normalizePayment(s string) order.PaymentMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case "gcash":
		return order.PayGcash
	case "bpi":
		return order.PayBPI
	case "maya", "paymaya":
		return order.PayMaya
	case "cash", "cod":
		return order.PayCash
	case "bdo":
		return order.PayBDO
	default:
		return order.PayOthers
	}
}

func normalizeLocation(s string) order.Location {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quezon city", "qc":
		return order.LocQuezonCity
	case "paranaque", "parañaque":
		return order.LocParanaque
	default:
		return ""
	}
}
