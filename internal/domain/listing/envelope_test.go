package listing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEnvelope(t *testing.T) {
	fragments := []string{
		StockFragment("SKU-1", 5),
		StockFragment("SKU&2", 0),
	}

	payload, err := BuildEnvelope("A2SELLER", FeedTypeStock, fragments)
	require.NoError(t, err)

	doc := string(payload)
	assert.Contains(t, doc, "<MerchantIdentifier>A2SELLER</MerchantIdentifier>")
	assert.Contains(t, doc, "<MessageType>Inventory</MessageType>")
	assert.Contains(t, doc, "<MessageID>1</MessageID>")
	assert.Contains(t, doc, "<MessageID>2</MessageID>")
	assert.Contains(t, doc, "<SKU>SKU-1</SKU>")
	assert.Contains(t, doc, "<SKU>SKU&amp;2</SKU>")
}

func TestBuildEnvelope_InvalidType(t *testing.T) {
	_, err := BuildEnvelope("A2SELLER", FeedType("BOGUS"), nil)
	assert.ErrorIs(t, err, ErrFeedTypeInvalid)
}

func TestPriceFragment(t *testing.T) {
	fragment := PriceFragment("SKU-1", "EUR", decimal.RequireFromString("19.9"))
	assert.Equal(t, `<Price><SKU>SKU-1</SKU><StandardPrice currency="EUR">19.90</StandardPrice></Price>`, fragment)
}

func TestListingFragment(t *testing.T) {
	fragment := ListingFragment("SKU-1", "B000TEST01", "Widget <new>")
	assert.Contains(t, fragment, "<Type>ASIN</Type><Value>B000TEST01</Value>")
	assert.Contains(t, fragment, "<Title>Widget &lt;new&gt;</Title>")

	bare := ListingFragment("SKU-2", "", "")
	assert.Equal(t, "<Product><SKU>SKU-2</SKU></Product>", bare)
}
