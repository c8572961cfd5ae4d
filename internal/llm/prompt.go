package llm

import (
	"fmt"
	"strings"

	"orderline/internal/catalog"
)

// BuildPrompt assembles the instructional template for one customer
// message: the catalog, the Filipino vocabulary the service must
// recognize, the payment and location keyword tables, the sequential
// add/remove/replace protocol for mid-message order changes, and the JSON
// schema the answer must embed.
func BuildPrompt(message string) string {
	var sb strings.Builder

	sb.WriteString("You parse Filipino-English (Taglish) customer orders for chickpea chips.\n\n")

	sb.WriteString("PRODUCTS:\n")
	for _, p := range catalog.All() {
		sb.WriteString(fmt.Sprintf("- %s: %s %s, ₱%d\n", p.Code, p.Name, p.Size, p.UnitPrice))
	}

	sb.WriteString(`
NUMBER WORDS: isa/isang=1, dalawa/dalawang=2, tatlo/tatlong=3, apat=4,
lima/limang=5, anim=6, pito/pitong=7, walo/walong=8, siyam=9, sampu/sampung=10.

FLAVOR WORDS: cheese/cheesy/keso=Cheese; sour cream/sour/sc=Sour Cream;
bbq/barbeque/barbecue=BBQ; original/orig/plain=Original.
SIZE WORDS: pouch/maliit/100g=Pouch; tub/malaki/200g=Tub.

PAYMENT METHODS (map to exactly one of): Gcash, BPI, Maya, Cash, BDO, Others.
Keywords: gcash/g-cash -> Gcash; bpi -> BPI; maya/paymaya -> Maya;
cash/cod/cash on delivery -> Cash; bdo -> BDO; transfer/bank/online -> Others.

LOCATIONS (map to exactly one of): "Quezon City" (quezon city, qc, taga qc,
sa qc, qc area) or "Paranaque" (paranaque, parañaque, taga paranaque).

ORDER MODIFICATIONS: process changes in chronological order, one step at a
time. "add/pa-add/dagdag/plus/pati" adds items; "tanggal/patanggal/remove/
wag na/cancel" removes the named item from the running list; "replace/
pareplace/palit/change to" removes the old item first, then adds the new
one. Removed items must never appear in the final result. List each step
you applied in "notes".

DISCOUNTS: every numeric discount is a PERCENTAGE, never pesos ("5 off"
means 5%). A bare "discount"/"diskarte"/"bawas" with no number means 0.
SHIPPING: shipping/delivery/sf/padala/hatid amounts are always fixed pesos.

Return ONLY a JSON object of this exact shape:
{
  "customer_name": "name or null",
  "payment_method": "Gcash|BPI|Maya|Cash|BDO|Others or null",
  "customer_location": "Quezon City|Paranaque or null",
  "discount_percentage": 15.0,
  "discount_amount": 150,
  "shipping_fee": 50,
  "items": [{"product_code": "P-CHZ", "quantity": 2}],
  "confidence": 0.95,
  "notes": "short parsing notes"
}

CUSTOMER MESSAGE:
`)
	sb.WriteString(message)

	return sb.String()
}
