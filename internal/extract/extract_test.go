package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderline/internal/order"
)

func TestExtractItems_CodePatterns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code string
		qty  int
	}{
		{"quantity then code", "2 P-CHZ", "P-CHZ", 2},
		{"quantity x code", "2x P-CHZ", "P-CHZ", 2},
		{"code then quantity", "P-CHZ 2", "P-CHZ", 2},
		{"code x quantity", "2L-BBQ x3", "2L-BBQ", 3},
		{"lowercase code", "2 p-chz", "P-CHZ", 2},
		{"tub code", "1 2L-OG", "2L-OG", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Extract(tt.in)
			require.Len(t, o.Items, 1)
			assert.Equal(t, tt.code, o.Items[0].Product.Code)
			assert.Equal(t, tt.qty, o.Items[0].Quantity)
		})
	}
}

func TestExtractItems_FlavorPatterns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code string
		qty  int
	}{
		{"qty flavor size", "2 cheese pouches", "P-CHZ", 2},
		{"qty flavor tub", "1 bbq tub", "2L-BBQ", 1},
		{"flavor size trailing qty", "sour cream tub 3", "2L-SC", 3},
		{"filipino quantity word", "dalawang cheese tub", "2L-CHZ", 2},
		{"filipino alias", "isang keso tub", "2L-CHZ", 1},
		{"no size word defaults to pouch", "3 original", "P-OG", 3},
		{"size word malaki", "2 bbq malaki", "2L-BBQ", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Extract(tt.in)
			require.Len(t, o.Items, 1, "items: %v", o.Items)
			assert.Equal(t, tt.code, o.Items[0].Product.Code)
			assert.Equal(t, tt.qty, o.Items[0].Quantity)
		})
	}
}

func TestExtractItems_NoDoubleCounting(t *testing.T) {
	// "1 P-SC" satisfies family 1; the "SC" inside the code must not also
	// fire the flavor family.
	o := Extract("1 P-SC please")
	require.Len(t, o.Items, 1)
	assert.Equal(t, "P-SC", o.Items[0].Product.Code)
	assert.Equal(t, 1, o.Items[0].Quantity)
}

func TestExtractItems_Dropped(t *testing.T) {
	t.Run("zero quantity dropped", func(t *testing.T) {
		o := Extract("0 P-CHZ")
		assert.Empty(t, o.Items)
	})
	t.Run("flavor with no quantity dropped", func(t *testing.T) {
		o := Extract("may cheese pa ba kayo?")
		assert.Empty(t, o.Items)
	})
	t.Run("nothing recognizable", func(t *testing.T) {
		o := Extract("hello po, ask ko lang sana")
		assert.Empty(t, o.Items)
		assert.Equal(t, 0, o.TotalAmount)
	})
}

func TestExtractItems_OverflowQuantitiesDropped(t *testing.T) {
	// Atoi clamps out-of-range input to MaxInt alongside ErrRange; if the
	// error were ignored, the absurd quantity would be accepted and the
	// total would wrap negative.
	tests := []struct {
		name string
		in   string
	}{
		{"quantity then code", "99999999999999999999 P-CHZ"},
		{"code then quantity", "P-CHZ 99999999999999999999"},
		{"flavor trailing quantity", "cheese pouch 99999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Extract(tt.in)
			assert.Empty(t, o.Items)
			assert.Equal(t, 0, o.TotalAmount)
			assert.GreaterOrEqual(t, o.GrandTotal(), 0)
		})
	}
}

func TestDetectShipping_OverflowIgnored(t *testing.T) {
	o := Extract("1 P-CHZ, shipping 99999999999999999999")
	assert.Equal(t, 0, o.ShippingFee)
	assert.Equal(t, 150, o.TotalAmount)
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"for", "2 P-CHZ for maria", "Maria"},
		{"para", "2 P-CHZ para maria", "Maria"},
		{"para sa", "2 P-CHZ para sa maria clara", "Maria Clara"},
		{"kay", "2 P-CHZ kay nina", "Nina"},
		{"from", "order from juan", "Juan"},
		{"ordered", "maria ordered 2 P-CHZ", "Maria"},
		{"customer colon", "customer: ana", "Ana"},
		{"none", "2 P-CHZ", ""},
		{"stops at comma", "1 2L-BBQ for Maria, gcash", "Maria"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.in).CustomerName)
		})
	}
}

func TestDetectPayment(t *testing.T) {
	tests := []struct {
		in   string
		want order.PaymentMethod
	}{
		{"bayad via gcash po", order.PayGcash},
		{"g-cash ko", order.PayGcash},
		{"sa BPI transfer", order.PayBPI}, // BPI cluster outranks generic "transfer"
		{"paymaya po", order.PayMaya},
		{"cod na lang", order.PayCash},
		{"cash on delivery", order.PayCash},
		{"bdo naman", order.PayBDO},
		{"bank transfer", order.PayOthers},
		{"online payment", order.PayOthers},
		{"walang binanggit", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.in).PaymentMethod)
		})
	}
}

func TestDetectLocationAndSeller(t *testing.T) {
	t.Run("quezon city", func(t *testing.T) {
		o := Extract("2 P-CHZ dito sa QC")
		assert.Equal(t, order.LocQuezonCity, o.CustomerLocation)
		assert.Equal(t, "Ferdie", o.AssignedSeller)
	})
	t.Run("paranaque", func(t *testing.T) {
		o := Extract("taga paranaque po ako")
		assert.Equal(t, order.LocParanaque, o.CustomerLocation)
		assert.Equal(t, "Nina", o.AssignedSeller)
	})
	t.Run("none", func(t *testing.T) {
		o := Extract("2 P-CHZ")
		assert.Equal(t, order.Location(""), o.CustomerLocation)
		assert.Equal(t, "", o.AssignedSeller)
	})
}

func TestDetectDiscount(t *testing.T) {
	t.Run("percent off", func(t *testing.T) {
		o := Extract("1 2L-OG 15% off")
		require.NotNil(t, o.DiscountPercentage)
		assert.Equal(t, 15.0, *o.DiscountPercentage)
		assert.Equal(t, 43, o.DiscountAmount) // floor(290 × 0.15)
	})
	t.Run("bare number off is a percentage", func(t *testing.T) {
		o := Extract("1 2L-OG 5 off")
		require.NotNil(t, o.DiscountPercentage)
		assert.Equal(t, 5.0, *o.DiscountPercentage)
		assert.Equal(t, 14, o.DiscountAmount) // floor(290 × 0.05), not ₱5
	})
	t.Run("discount N", func(t *testing.T) {
		o := Extract("2 P-CHZ discount 10")
		require.NotNil(t, o.DiscountPercentage)
		assert.Equal(t, 10.0, *o.DiscountPercentage)
		assert.Equal(t, 30, o.DiscountAmount)
	})
	t.Run("bare keyword means explicit zero", func(t *testing.T) {
		o := Extract("2 P-CHZ may bawas daw")
		require.NotNil(t, o.DiscountPercentage)
		assert.Equal(t, 0.0, *o.DiscountPercentage)
		assert.Equal(t, 0, o.DiscountAmount)
	})
	t.Run("no discount is nil", func(t *testing.T) {
		o := Extract("2 P-CHZ")
		assert.Nil(t, o.DiscountPercentage)
	})
}

func TestDetectShipping(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"shipping 50", 50},
		{"shipping fee 75", 75},
		{"delivery 100", 100},
		{"sf 60", 60},
		{"padala 50", 50},
		{"hatid 75", 75},
		{"50 shipping", 50},
		{"plus 80 sf", 80},
		{"no fee mentioned", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.in).ShippingFee)
		})
	}
}

func TestExtract_ScenarioA(t *testing.T) {
	o := Extract("2 cheese pouches and 1 BBQ tub for Maria, gcash, QC")

	require.Len(t, o.Items, 2)
	assert.Equal(t, "P-CHZ", o.Items[0].Product.Code)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, "2L-BBQ", o.Items[1].Product.Code)
	assert.Equal(t, 1, o.Items[1].Quantity)

	assert.Equal(t, 590, o.TotalAmount)
	assert.Equal(t, "Maria", o.CustomerName)
	assert.Equal(t, order.PayGcash, o.PaymentMethod)
	assert.Equal(t, order.LocQuezonCity, o.CustomerLocation)
	assert.Equal(t, "Ferdie", o.AssignedSeller)
}

func TestExtract_ScenarioB(t *testing.T) {
	o := Extract("15% off, shipping 50, 1 2L-OG")

	require.Len(t, o.Items, 1)
	assert.Equal(t, "2L-OG", o.Items[0].Product.Code)
	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, 290, o.TotalAmount)

	require.NotNil(t, o.DiscountPercentage)
	assert.Equal(t, 15.0, *o.DiscountPercentage)
	assert.Equal(t, 43, o.DiscountAmount)
	assert.Equal(t, 50, o.ShippingFee)
	assert.Equal(t, 297, o.GrandTotal())
}

func TestExtract_IsTotal(t *testing.T) {
	// Never panics, always returns an order.
	for _, in := range []string{"", "   ", "{}", "9999999999999999999 P-CHZ", "%%%", "\x00\xff"} {
		assert.NotNil(t, Extract(in))
	}
}
