package mws

import "encoding/xml"

// API sections and versions. Orders and Products have versioned paths;
// Reports and Feeds live at the root path.
const (
	ordersPath      = "/Orders/2013-09-01"
	ordersVersion   = "2013-09-01"
	productsPath    = "/Products/2011-10-01"
	productsVersion = "2011-10-01"
	rootPath        = "/"
	legacyVersion   = "2009-01-01"
)

// ErrorResponse is the generic MWS error envelope.
type ErrorResponse struct {
	XMLName xml.Name `xml:"ErrorResponse"`
	Error   struct {
		Type    string `xml:"Type"`
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	} `xml:"Error"`
	RequestID string `xml:"RequestID"`
}

// xmlOrder mirrors the Order element of the Orders API.
type xmlOrder struct {
	AmazonOrderID          string `xml:"AmazonOrderId"`
	OrderStatus            string `xml:"OrderStatus"`
	MarketplaceID          string `xml:"MarketplaceId"`
	FulfillmentChannel     string `xml:"FulfillmentChannel"`
	PurchaseDate           string `xml:"PurchaseDate"`
	LastUpdateDate         string `xml:"LastUpdateDate"`
	BuyerEmail             string `xml:"BuyerEmail"`
	OrderTotal             xmlMoney
	NumberOfItemsUnshipped int `xml:"NumberOfItemsUnshipped"`
}

type xmlMoney struct {
	CurrencyCode string `xml:"CurrencyCode"`
	Amount       string `xml:"Amount"`
}

// ListOrdersResponse covers both ListOrders and ListOrdersByNextToken.
type ListOrdersResponse struct {
	XMLName xml.Name
	Result  struct {
		Orders struct {
			Order []xmlOrder `xml:"Order"`
		} `xml:"Orders"`
		NextToken string `xml:"NextToken"`
	} `xml:"ListOrdersResult"`
	NextResult struct {
		Orders struct {
			Order []xmlOrder `xml:"Order"`
		} `xml:"Orders"`
		NextToken string `xml:"NextToken"`
	} `xml:"ListOrdersByNextTokenResult"`
}

type xmlOrderItem struct {
	OrderItemID     string   `xml:"OrderItemId"`
	SellerSKU       string   `xml:"SellerSKU"`
	ASIN            string   `xml:"ASIN"`
	Title           string   `xml:"Title"`
	QuantityOrdered int      `xml:"QuantityOrdered"`
	ItemPrice       xmlMoney `xml:"ItemPrice"`
	ShippingPrice   xmlMoney `xml:"ShippingPrice"`
	ItemTax         xmlMoney `xml:"ItemTax"`
}

// ListOrderItemsResponse covers ListOrderItems and its next-token variant.
type ListOrderItemsResponse struct {
	XMLName xml.Name
	Result  struct {
		OrderItems struct {
			OrderItem []xmlOrderItem `xml:"OrderItem"`
		} `xml:"OrderItems"`
		NextToken string `xml:"NextToken"`
	} `xml:"ListOrderItemsResult"`
	NextResult struct {
		OrderItems struct {
			OrderItem []xmlOrderItem `xml:"OrderItem"`
		} `xml:"OrderItems"`
		NextToken string `xml:"NextToken"`
	} `xml:"ListOrderItemsByNextTokenResult"`
}

// RequestReportResponse acknowledges a report request.
type RequestReportResponse struct {
	XMLName xml.Name `xml:"RequestReportResponse"`
	Result  struct {
		ReportRequestInfo struct {
			ReportRequestID        string `xml:"ReportRequestId"`
			ReportProcessingStatus string `xml:"ReportProcessingStatus"`
		} `xml:"ReportRequestInfo"`
	} `xml:"RequestReportResult"`
}

// GetReportRequestListResponse carries the processing state of report
// requests.
type GetReportRequestListResponse struct {
	XMLName xml.Name `xml:"GetReportRequestListResponse"`
	Result  struct {
		ReportRequestInfo []struct {
			ReportRequestID        string `xml:"ReportRequestId"`
			ReportProcessingStatus string `xml:"ReportProcessingStatus"`
			GeneratedReportID      string `xml:"GeneratedReportId"`
		} `xml:"ReportRequestInfo"`
	} `xml:"GetReportRequestListResult"`
}

// Report processing states of interest.
const (
	reportStatusDone      = "_DONE_"
	reportStatusCancelled = "_CANCELLED_"
	reportStatusNoData    = "_DONE_NO_DATA_"
)

// SubmitFeedResponse acknowledges a feed submission.
type SubmitFeedResponse struct {
	XMLName xml.Name `xml:"SubmitFeedResponse"`
	Result  struct {
		FeedSubmissionInfo struct {
			FeedSubmissionID     string `xml:"FeedSubmissionId"`
			FeedProcessingStatus string `xml:"FeedProcessingStatus"`
		} `xml:"FeedSubmissionInfo"`
	} `xml:"SubmitFeedResult"`
}

// GetMyPriceForSKUResponse carries the seller's own offer prices. One
// result element is returned per requested SKU.
type GetMyPriceForSKUResponse struct {
	XMLName xml.Name `xml:"GetMyPriceForSKUResponse"`
	Results []struct {
		SKU     string `xml:"SellerSKU,attr"`
		Status  string `xml:"status,attr"`
		Product struct {
			Offers struct {
				Offer []struct {
					BuyingPrice struct {
						LandedPrice xmlMoney `xml:"LandedPrice"`
					} `xml:"BuyingPrice"`
				} `xml:"Offer"`
			} `xml:"Offers"`
		} `xml:"Product"`
	} `xml:"GetMyPriceForSKUResult"`
}

// GetMyFeesEstimateResponse carries fee estimates per requested item.
type GetMyFeesEstimateResponse struct {
	XMLName xml.Name `xml:"GetMyFeesEstimateResponse"`
	Result  struct {
		FeesEstimateResultList struct {
			FeesEstimateResult []struct {
				Status       string `xml:"Status"`
				FeesEstimate struct {
					TotalFeesEstimate xmlMoney `xml:"TotalFeesEstimate"`
				} `xml:"FeesEstimate"`
			} `xml:"FeesEstimateResult"`
		} `xml:"FeesEstimateResultList"`
	} `xml:"GetMyFeesEstimateResult"`
}
