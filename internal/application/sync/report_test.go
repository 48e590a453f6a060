package sync

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInventoryReport(t *testing.T) {
	payload := []byte("seller-sku\tasin1\titem-name\tquantity\tprice\tmerchant-shipping-group\n" +
		"SKU-1\tB000TEST01\tWidget\t5\t19.99\tStandard DE\n" +
		"SKU-2\tB000TEST02\tGadget\t0\t9,50\tExpress DE\n" +
		"\t\t\t\t\t\n")

	rows, err := ParseInventoryReport(payload)
	require.NoError(t, err)
	require.Len(t, rows, 2, "blank SKU line is skipped")

	assert.Equal(t, "SKU-1", rows[0].SKU)
	assert.Equal(t, "B000TEST01", rows[0].ASIN)
	assert.Equal(t, "Widget", rows[0].Title)
	assert.Equal(t, 5, rows[0].Quantity)
	assert.True(t, rows[0].Price.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, "Standard DE", rows[0].MerchantShippingGroup)

	// comma decimal separator is normalized
	assert.True(t, rows[1].Price.Equal(decimal.RequireFromString("9.50")))
	assert.Equal(t, 0, rows[1].Quantity)
}

func TestParseInventoryReport_Empty(t *testing.T) {
	rows, err := ParseInventoryReport(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSalesReportOrderIDs(t *testing.T) {
	payload := []byte("order-id\torder-item-id\tsku\n" +
		"403-1111111-1111111\t1\tSKU-1\n" +
		"403-1111111-1111111\t2\tSKU-2\n" +
		"403-2222222-2222222\t3\tSKU-1\n")

	ids, err := SalesReportOrderIDs(payload)
	require.NoError(t, err)
	assert.Equal(t, []string{"403-1111111-1111111", "403-2222222-2222222"}, ids)
}

func TestSalesReportOrderIDs_NoOrderColumn(t *testing.T) {
	ids, err := SalesReportOrderIDs([]byte("sku\tquantity\nSKU-1\t2\n"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}
