// Package catalog holds the fixed product lookup table for the chickpea
// chips line: four flavors, each sold as a 100g pouch or a 200g tub.
// The catalog is immutable; every parsing path validates item candidates
// against it and silently drops anything it does not recognize.
package catalog

import (
	"sort"
	"strings"
)

// Size is the physical packaging of a product.
type Size string

const (
	SizePouch Size = "Pouch" // 100g, ₱150
	SizeTub   Size = "Tub"   // 200g, ₱290
)

// Product is one purchasable SKU.
type Product struct {
	Code      string // short fixed identifier, e.g. "P-CHZ"
	Name      string // flavor label
	Size      Size
	UnitPrice int // whole pesos
}

// Unit prices are fixed per size across all flavors.
const (
	PouchPrice = 150
	TubPrice   = 290
)

var products = map[string]Product{
	"P-CHZ":  {Code: "P-CHZ", Name: "Cheese", Size: SizePouch, UnitPrice: PouchPrice},
	"P-SC":   {Code: "P-SC", Name: "Sour Cream", Size: SizePouch, UnitPrice: PouchPrice},
	"P-BBQ":  {Code: "P-BBQ", Name: "BBQ", Size: SizePouch, UnitPrice: PouchPrice},
	"P-OG":   {Code: "P-OG", Name: "Original", Size: SizePouch, UnitPrice: PouchPrice},
	"2L-CHZ": {Code: "2L-CHZ", Name: "Cheese", Size: SizeTub, UnitPrice: TubPrice},
	"2L-SC":  {Code: "2L-SC", Name: "Sour Cream", Size: SizeTub, UnitPrice: TubPrice},
	"2L-BBQ": {Code: "2L-BBQ", Name: "BBQ", Size: SizeTub, UnitPrice: TubPrice},
	"2L-OG":  {Code: "2L-OG", Name: "Original", Size: SizeTub, UnitPrice: TubPrice},
}

// Lookup returns the product for a code. Codes are case-insensitive.
func Lookup(code string) (Product, bool) {
	p, ok := products[strings.ToUpper(strings.TrimSpace(code))]
	return p, ok
}

// All returns every product in stable code order.
func All() []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Codes returns every product code in stable order.
func Codes() []string {
	all := All()
	codes := make([]string, len(all))
	for i, p := range all {
		codes[i] = p.Code
	}
	return codes
}

// Flavor identifies a flavor family independent of packaging.
type Flavor string

const (
	FlavorCheese    Flavor = "cheese"
	FlavorSourCream Flavor = "sour-cream"
	FlavorBBQ       Flavor = "bbq"
	FlavorOriginal  Flavor = "original"
)

// flavorCodes maps a flavor to its pouch and tub SKUs.
var flavorCodes = map[Flavor][2]string{
	FlavorCheese:    {"P-CHZ", "2L-CHZ"},
	FlavorSourCream: {"P-SC", "2L-SC"},
	FlavorBBQ:       {"P-BBQ", "2L-BBQ"},
	FlavorOriginal:  {"P-OG", "2L-OG"},
}

// ByFlavorSize resolves a flavor plus a size to a concrete product.
func ByFlavorSize(f Flavor, s Size) (Product, bool) {
	codes, ok := flavorCodes[f]
	if !ok {
		return Product{}, false
	}
	if s == SizeTub {
		return Lookup(codes[1])
	}
	return Lookup(codes[0])
}

// FlavorAliases maps casual English and Filipino flavor words to their
// flavor family, longest aliases first so multi-word forms win when the
// caller builds an alternation out of them.
func FlavorAliases() []struct {
	Alias  string
	Flavor Flavor
} {
	return []struct {
		Alias  string
		Flavor Flavor
	}{
		{"sour cream", FlavorSourCream},
		{"barbecue", FlavorBBQ},
		{"barbeque", FlavorBBQ},
		{"original", FlavorOriginal},
		{"cheesy", FlavorCheese},
		{"cheese", FlavorCheese},
		{"plain", FlavorOriginal},
		{"keso", FlavorCheese},
		{"sour", FlavorSourCream},
		{"orig", FlavorOriginal},
		{"bbq", FlavorBBQ},
		{"sc", FlavorSourCream},
	}
}

// SizeWords maps size vocabulary (English and Filipino) to a Size.
// "malaki" (big) means tub, "maliit" (small) means pouch.
func SizeWords() map[string]Size {
	return map[string]Size{
		"pouches": SizePouch,
		"pouch":   SizePouch,
		"maliit":  SizePouch,
		"100g":    SizePouch,
		"tubs":    SizeTub,
		"tub":     SizeTub,
		"malaki":  SizeTub,
		"200g":    SizeTub,
	}
}
