package mws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/connector"
)

func newTestBackend(t *testing.T) *connector.Backend {
	t.Helper()
	backend, err := connector.NewBackend(
		"test-de", "AKIAEXAMPLE", "secret", "A2SELLER", "amzn.mws.token",
		"de", "AMZ", uuid.New())
	require.NoError(t, err)
	mp, ok := connector.MarketplaceByCountry("de")
	require.True(t, ok)
	backend.Marketplaces = []connector.Marketplace{mp}
	return backend
}

func newTestAdapter(handler http.Handler) (*Adapter, *httptest.Server) {
	server := httptest.NewServer(handler)
	adapter := NewAdapter(zap.NewNop(), WithEndpoint(server.URL))
	return adapter, server
}

func TestAdapter_ListOrders(t *testing.T) {
	var gotActions []string
	adapter, server := newTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		action := r.PostFormValue("Action")
		gotActions = append(gotActions, action)

		assert.Equal(t, "A2SELLER", r.PostFormValue("SellerId"))
		assert.Equal(t, "amzn.mws.token", r.PostFormValue("MWSAuthToken"))
		assert.NotEmpty(t, r.PostFormValue("Signature"))

		switch action {
		case "ListOrders":
			assert.Equal(t, "A1PA6795UKMFR9", r.PostFormValue("MarketplaceId.Id.1"))
			assert.NotEmpty(t, r.PostFormValue("CreatedAfter"))
			w.Write([]byte(`<?xml version="1.0"?>
<ListOrdersResponse>
  <ListOrdersResult>
    <Orders>
      <Order>
        <AmazonOrderId>026-1234567-1234567</AmazonOrderId>
        <OrderStatus>Unshipped</OrderStatus>
        <MarketplaceId>A1PA6795UKMFR9</MarketplaceId>
        <FulfillmentChannel>MFN</FulfillmentChannel>
        <PurchaseDate>2020-06-01T10:00:00Z</PurchaseDate>
        <LastUpdateDate>2020-06-01T11:00:00Z</LastUpdateDate>
        <OrderTotal><CurrencyCode>EUR</CurrencyCode><Amount>42.50</Amount></OrderTotal>
      </Order>
    </Orders>
  </ListOrdersResult>
</ListOrdersResponse>`))
		case "ListOrderItems":
			assert.Equal(t, "026-1234567-1234567", r.PostFormValue("AmazonOrderId"))
			w.Write([]byte(`<?xml version="1.0"?>
<ListOrderItemsResponse>
  <ListOrderItemsResult>
    <OrderItems>
      <OrderItem>
        <OrderItemId>0001</OrderItemId>
        <SellerSKU>SKU-1</SellerSKU>
        <ASIN>B000TEST01</ASIN>
        <Title>Widget</Title>
        <QuantityOrdered>2</QuantityOrdered>
        <ItemPrice><CurrencyCode>EUR</CurrencyCode><Amount>40.00</Amount></ItemPrice>
        <ShippingPrice><CurrencyCode>EUR</CurrencyCode><Amount>2.50</Amount></ShippingPrice>
      </OrderItem>
    </OrderItems>
  </ListOrderItemsResult>
</ListOrderItemsResponse>`))
		default:
			t.Fatalf("unexpected action %s", action)
		}
	}))
	defer server.Close()

	from := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(12 * time.Hour)
	orders, err := adapter.ListOrders(context.Background(), newTestBackend(t), from, to)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order := orders[0]
	assert.Equal(t, "026-1234567-1234567", order.PlatformOrderID)
	assert.Equal(t, "Unshipped", order.Status)
	assert.Equal(t, "MFN", order.Fulfillment)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("42.50")))
	assert.Equal(t, time.Date(2020, 6, 1, 11, 0, 0, 0, time.UTC), order.LastUpdate)
	assert.NotEmpty(t, order.RawPayload)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "SKU-1", order.Items[0].SKU)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Items[0].ItemPrice.Equal(decimal.RequireFromString("40.00")))

	assert.Equal(t, []string{"ListOrders", "ListOrderItems"}, gotActions)
}

func TestAdapter_ListOrders_Pagination(t *testing.T) {
	page := 0
	adapter, server := newTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.PostFormValue("Action") {
		case "ListOrders":
			page++
			w.Write([]byte(`<?xml version="1.0"?>
<ListOrdersResponse>
  <ListOrdersResult>
    <Orders>
      <Order><AmazonOrderId>026-0000000-0000001</AmazonOrderId><OrderStatus>Pending</OrderStatus><LastUpdateDate>2020-06-01T10:00:00Z</LastUpdateDate></Order>
    </Orders>
    <NextToken>token-1</NextToken>
  </ListOrdersResult>
</ListOrdersResponse>`))
		case "ListOrdersByNextToken":
			page++
			assert.Equal(t, "token-1", r.PostFormValue("NextToken"))
			w.Write([]byte(`<?xml version="1.0"?>
<ListOrdersByNextTokenResponse>
  <ListOrdersByNextTokenResult>
    <Orders>
      <Order><AmazonOrderId>026-0000000-0000002</AmazonOrderId><OrderStatus>Pending</OrderStatus><LastUpdateDate>2020-06-01T10:00:00Z</LastUpdateDate></Order>
    </Orders>
  </ListOrdersByNextTokenResult>
</ListOrdersByNextTokenResponse>`))
		case "ListOrderItems":
			w.Write([]byte(`<?xml version="1.0"?>
<ListOrderItemsResponse><ListOrderItemsResult><OrderItems></OrderItems></ListOrderItemsResult></ListOrderItemsResponse>`))
		}
	}))
	defer server.Close()

	orders, err := adapter.ListOrders(context.Background(), newTestBackend(t), time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, 2, page)
	assert.Equal(t, "026-0000000-0000001", orders[0].PlatformOrderID)
	assert.Equal(t, "026-0000000-0000002", orders[1].PlatformOrderID)
}

func TestAdapter_RequestReport(t *testing.T) {
	adapter, server := newTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "RequestReport", r.PostFormValue("Action"))
		assert.Equal(t, "_GET_FLAT_FILE_ORDERS_DATA_", r.PostFormValue("ReportType"))
		w.Write([]byte(`<?xml version="1.0"?>
<RequestReportResponse>
  <RequestReportResult>
    <ReportRequestInfo>
      <ReportRequestId>2291326454</ReportRequestId>
      <ReportProcessingStatus>_SUBMITTED_</ReportProcessingStatus>
    </ReportRequestInfo>
  </RequestReportResult>
</RequestReportResponse>`))
	}))
	defer server.Close()

	id, err := adapter.RequestReport(context.Background(), newTestBackend(t),
		"_GET_FLAT_FILE_ORDERS_DATA_", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "2291326454", id)
}

func TestAdapter_FetchReport(t *testing.T) {
	t.Run("not ready", func(t *testing.T) {
		adapter, server := newTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<?xml version="1.0"?>
<GetReportRequestListResponse>
  <GetReportRequestListResult>
    <ReportRequestInfo>
      <ReportRequestId>2291326454</ReportRequestId>
      <ReportProcessingStatus>_IN_PROGRESS_</ReportProcessingStatus>
    </ReportRequestInfo>
  </GetReportRequestListResult>
</GetReportRequestListResponse>`))
		}))
		defer server.Close()

		_, err := adapter.FetchReport(context.Background(), newTestBackend(t), "2291326454")
		assert.ErrorIs(t, err, ErrReportNotReady)
	})

	t.Run("cancelled", func(t *testing.T) {
		adapter, server := newTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<?xml version="1.0"?>
<GetReportRequestListResponse>
  <GetReportRequestListResult>
    <ReportRequestInfo>
      <ReportRequestId>2291326454</ReportRequestId>
      <ReportProcessingStatus>_CANCELLED_</ReportProcessingStatus>
    </ReportRequestInfo>
  </GetReportRequestListResult>
</GetReportRequestListResponse>`))
		}))
		defer server.Close()

		_, err := adapter.FetchReport(context.Background(), newTestBackend(t), "2291326454")
		assert.ErrorIs(t, err, ErrReportCancelled)
	})

	t.Run("done", func(t *testing.T) {
		adapter, server := newTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			switch r.PostFormValue("Action") {
			case "GetReportRequestList":
				w.Write([]byte(`<?xml version="1.0"?>
<GetReportRequestListResponse>
  <GetReportRequestListResult>
    <ReportRequestInfo>
      <ReportRequestId>2291326454</ReportRequestId>
      <ReportProcessingStatus>_DONE_</ReportProcessingStatus>
      <GeneratedReportId>3538561173</GeneratedReportId>
    </ReportRequestInfo>
  </GetReportRequestListResult>
</GetReportRequestListResponse>`))
			case "GetReport":
				assert.Equal(t, "3538561173", r.PostFormValue("ReportId"))
				w.Write([]byte("seller-sku\tquantity\nSKU-1\t5\n"))
			}
		}))
		defer server.Close()

		payload, err := adapter.FetchReport(context.Background(), newTestBackend(t), "2291326454")
		require.NoError(t, err)
		assert.Contains(t, string(payload), "SKU-1")
	})
}

func TestAdapter_SubmitFeed(t *testing.T) {
	adapter, server := newTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "SubmitFeed", query.Get("Action"))
		assert.Equal(t, "_POST_INVENTORY_AVAILABILITY_DATA_", query.Get("FeedType"))
		assert.NotEmpty(t, r.Header.Get("Content-MD5"))
		w.Write([]byte(`<?xml version="1.0"?>
<SubmitFeedResponse>
  <SubmitFeedResult>
    <FeedSubmissionInfo>
      <FeedSubmissionId>2291326430</FeedSubmissionId>
      <FeedProcessingStatus>_SUBMITTED_</FeedProcessingStatus>
    </FeedSubmissionInfo>
  </SubmitFeedResult>
</SubmitFeedResponse>`))
	}))
	defer server.Close()

	id, err := adapter.SubmitFeed(context.Background(), newTestBackend(t),
		"_POST_INVENTORY_AVAILABILITY_DATA_", []byte("<AmazonEnvelope/>"))
	require.NoError(t, err)
	assert.Equal(t, "2291326430", id)
}

func TestAdapter_GetMyPrice(t *testing.T) {
	adapter, server := newTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "GetMyPriceForSKU", r.PostFormValue("Action"))
		assert.Equal(t, "SKU-1", r.PostFormValue("SellerSKUList.SellerSKU.1"))
		w.Write([]byte(`<?xml version="1.0"?>
<GetMyPriceForSKUResponse>
  <GetMyPriceForSKUResult SellerSKU="SKU-1" status="Success">
    <Product>
      <Offers>
        <Offer>
          <BuyingPrice>
            <LandedPrice><CurrencyCode>EUR</CurrencyCode><Amount>19.99</Amount></LandedPrice>
          </BuyingPrice>
        </Offer>
      </Offers>
    </Product>
  </GetMyPriceForSKUResult>
</GetMyPriceForSKUResponse>`))
	}))
	defer server.Close()

	prices, err := adapter.GetMyPrice(context.Background(), newTestBackend(t), "A1PA6795UKMFR9", []string{"SKU-1"})
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, "SKU-1", prices[0].SKU)
	assert.True(t, prices[0].Price.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, "EUR", prices[0].Currency)
}

func TestAdapter_GetMyPrice_TooManySKUs(t *testing.T) {
	adapter := NewAdapter(zap.NewNop())
	skus := make([]string, maxPriceSKUs+1)
	for i := range skus {
		skus[i] = "SKU"
	}
	_, err := adapter.GetMyPrice(context.Background(), newTestBackend(t), "A1PA6795UKMFR9", skus)
	assert.Error(t, err)
}

func TestAdapter_GetFeesEstimate(t *testing.T) {
	adapter, server := newTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "GetMyFeesEstimate", r.PostFormValue("Action"))
		assert.Equal(t, "B000TEST01", r.PostFormValue("FeesEstimateRequestList.FeesEstimateRequest.1.IdValue"))
		assert.Equal(t, "19.99", r.PostFormValue("FeesEstimateRequestList.FeesEstimateRequest.1.PriceToEstimateFees.ListingPrice.Amount"))
		assert.Equal(t, "EUR", r.PostFormValue("FeesEstimateRequestList.FeesEstimateRequest.1.PriceToEstimateFees.ListingPrice.CurrencyCode"))
		w.Write([]byte(`<?xml version="1.0"?>
<GetMyFeesEstimateResponse>
  <GetMyFeesEstimateResult>
    <FeesEstimateResultList>
      <FeesEstimateResult>
        <Status>Success</Status>
        <FeesEstimate>
          <TotalFeesEstimate><CurrencyCode>EUR</CurrencyCode><Amount>3.00</Amount></TotalFeesEstimate>
        </FeesEstimate>
      </FeesEstimateResult>
    </FeesEstimateResultList>
  </GetMyFeesEstimateResult>
</GetMyFeesEstimateResponse>`))
	}))
	defer server.Close()

	fee, err := adapter.GetFeesEstimate(context.Background(), newTestBackend(t),
		"A1PA6795UKMFR9", "B000TEST01", decimal.RequireFromString("19.99"))
	require.NoError(t, err)
	assert.True(t, fee.Equal(decimal.RequireFromString("3.00")))
}

func TestAdapter_ThrottledError(t *testing.T) {
	adapter, server := newTestAdapter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`<?xml version="1.0"?>
<ErrorResponse>
  <Error>
    <Type>Sender</Type>
    <Code>RequestThrottled</Code>
    <Message>Request is throttled</Message>
  </Error>
  <RequestID>abc-123</RequestID>
</ErrorResponse>`))
	}))
	defer server.Close()

	_, err := adapter.RequestReport(context.Background(), newTestBackend(t),
		"_GET_FLAT_FILE_ORDERS_DATA_", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrThrottled)
}

func TestAdapter_UnknownRegion(t *testing.T) {
	adapter := NewAdapter(zap.NewNop())
	backend := newTestBackend(t)
	backend.Region = "jp"

	_, err := adapter.ListOrders(context.Background(), backend, time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)
}

func TestBaseParams(t *testing.T) {
	creds := &Credentials{AccessKey: "AK", SecretKey: "sk", SellerID: "SID", AuthToken: "tok", Host: "h"}
	params := baseParams(creds, "ListOrders", ordersVersion)

	assert.Equal(t, "ListOrders", params.Get("Action"))
	assert.Equal(t, "HmacSHA256", params.Get("SignatureMethod"))
	assert.Equal(t, "2", params.Get("SignatureVersion"))
	assert.Equal(t, "2013-09-01", params.Get("Version"))
	assert.Equal(t, "tok", params.Get("MWSAuthToken"))

	_, err := time.Parse("2006-01-02T15:04:05Z", params.Get("Timestamp"))
	assert.NoError(t, err)
}
