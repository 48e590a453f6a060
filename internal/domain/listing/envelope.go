package listing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// envelopeMessageTypes maps feed types to AmazonEnvelope message types.
var envelopeMessageTypes = map[FeedType]string{
	FeedTypeStock:   "Inventory",
	FeedTypePrice:   "Price",
	FeedTypeListing: "Product",
}

// BuildEnvelope wraps item fragments in the AmazonEnvelope document the
// feeds API expects. Each fragment becomes one numbered Message element.
func BuildEnvelope(sellerID string, feedType FeedType, fragments []string) ([]byte, error) {
	messageType, ok := envelopeMessageTypes[feedType]
	if !ok {
		return nil, ErrFeedTypeInvalid
	}

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<AmazonEnvelope xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:noNamespaceSchemaLocation="amzn-envelope.xsd">` + "\n")
	sb.WriteString("  <Header>\n")
	sb.WriteString("    <DocumentVersion>1.01</DocumentVersion>\n")
	fmt.Fprintf(&sb, "    <MerchantIdentifier>%s</MerchantIdentifier>\n", xmlEscape(sellerID))
	sb.WriteString("  </Header>\n")
	fmt.Fprintf(&sb, "  <MessageType>%s</MessageType>\n", messageType)
	for i, fragment := range fragments {
		sb.WriteString("  <Message>\n")
		fmt.Fprintf(&sb, "    <MessageID>%d</MessageID>\n", i+1)
		sb.WriteString("    " + strings.TrimSpace(fragment) + "\n")
		sb.WriteString("  </Message>\n")
	}
	sb.WriteString("</AmazonEnvelope>\n")
	return []byte(sb.String()), nil
}

// StockFragment builds the Inventory message body for one SKU.
func StockFragment(sku string, quantity int) string {
	return fmt.Sprintf("<Inventory><SKU>%s</SKU><Quantity>%d</Quantity></Inventory>",
		xmlEscape(sku), quantity)
}

// PriceFragment builds the Price message body for one SKU.
func PriceFragment(sku, currency string, price decimal.Decimal) string {
	return fmt.Sprintf(`<Price><SKU>%s</SKU><StandardPrice currency="%s">%s</StandardPrice></Price>`,
		xmlEscape(sku), xmlEscape(currency), price.StringFixed(2))
}

// ListingFragment builds the Product message body binding a SKU to an ASIN.
func ListingFragment(sku, asin, title string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<Product><SKU>%s</SKU>", xmlEscape(sku))
	if asin != "" {
		fmt.Fprintf(&sb, "<StandardProductID><Type>ASIN</Type><Value>%s</Value></StandardProductID>", xmlEscape(asin))
	}
	if title != "" {
		fmt.Fprintf(&sb, "<DescriptionData><Title>%s</Title></DescriptionData>", xmlEscape(title))
	}
	sb.WriteString("</Product>")
	return sb.String()
}

func xmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}
