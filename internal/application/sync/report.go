package sync

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// inventory report column headers, as they appear in merchant listings
// reports. Reports from non-English marketplaces carry localized headers, so
// the parser also accepts well-known aliases.
var inventoryColumnAliases = map[string]string{
	"seller-sku":              "sku",
	"sku":                     "sku",
	"asin1":                   "asin",
	"asin":                    "asin",
	"item-name":               "title",
	"quantity":                "quantity",
	"price":                   "price",
	"marketplace-id":          "marketplace",
	"merchant-shipping-group": "shipping-group",
}

// ParseInventoryReport parses a tab-separated merchant listings report into
// rows. Lines missing a SKU are skipped; unknown columns are ignored.
func ParseInventoryReport(payload []byte) ([]InventoryReportRow, error) {
	scanner := bufio.NewScanner(bytes.NewReader(payload))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var columns map[int]string
	var rows []InventoryReportRow

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		if columns == nil {
			columns = make(map[int]string, len(fields))
			for i, header := range fields {
				key := strings.ToLower(strings.TrimSpace(header))
				if name, ok := inventoryColumnAliases[key]; ok {
					columns[i] = name
				}
			}
			continue
		}

		var row InventoryReportRow
		for i, value := range fields {
			value = strings.TrimSpace(value)
			switch columns[i] {
			case "sku":
				row.SKU = value
			case "asin":
				row.ASIN = value
			case "title":
				row.Title = value
			case "quantity":
				if qty, err := strconv.Atoi(value); err == nil {
					row.Quantity = qty
				}
			case "price":
				if price, err := decimal.NewFromString(normalizeDecimal(value)); err == nil {
					row.Price = price
				}
			case "marketplace":
				row.MarketplaceID = value
			case "shipping-group":
				row.MerchantShippingGroup = value
			}
		}
		if row.SKU == "" {
			continue
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// SalesReportOrderIDs extracts the distinct order IDs from a flat-file
// orders report. Used to reconcile the report against locally imported
// orders.
func SalesReportOrderIDs(payload []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(payload))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	orderColumn := -1
	seen := make(map[string]struct{})
	var ids []string

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		if orderColumn < 0 {
			for i, header := range fields {
				key := strings.ToLower(strings.TrimSpace(header))
				if key == "order-id" || key == "amazon-order-id" {
					orderColumn = i
					break
				}
			}
			if orderColumn < 0 {
				return nil, nil
			}
			continue
		}

		if orderColumn >= len(fields) {
			continue
		}
		id := strings.TrimSpace(fields[orderColumn])
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// normalizeDecimal converts comma decimal separators used by some locales.
func normalizeDecimal(s string) string {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		return strings.Replace(s, ",", ".", 1)
	}
	return strings.ReplaceAll(s, ",", "")
}
