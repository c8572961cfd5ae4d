package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"orderline/internal/catalog"
)

func TestBuildPromptCoversCatalog(t *testing.T) {
	p := BuildPrompt("2 cheese pouches para kay Maria")

	for _, prod := range catalog.All() {
		assert.Contains(t, p, prod.Code)
	}
	assert.Contains(t, p, "sampu")
	assert.Contains(t, p, "Gcash")
	assert.Contains(t, p, "Quezon City")
	assert.Contains(t, p, "product_code")
	// The raw message rides at the end, untouched.
	assert.Contains(t, p, "2 cheese pouches para kay Maria")
}

func TestBuildPromptStatesDiscountRule(t *testing.T) {
	p := BuildPrompt("x")
	assert.Contains(t, p, "PERCENTAGE")
}
