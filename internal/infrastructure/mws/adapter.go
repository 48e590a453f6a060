package mws

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appsync "github.com/erp/amazon-connector/internal/application/sync"
	"github.com/erp/amazon-connector/internal/domain/connector"
)

const (
	// maxResponseSize caps API responses at 10MB
	maxResponseSize = 10 * 1024 * 1024

	defaultTimeout = 30 * time.Second

	// maxPriceSKUs is the per-call SKU limit of GetMyPriceForSKU
	maxPriceSKUs = 20
)

var (
	// ErrReportNotReady and ErrReportCancelled are the port's report-status
	// sentinels; the executors match on them to decide whether to retry.
	ErrReportNotReady  = appsync.ErrReportNotReady
	ErrReportCancelled = appsync.ErrReportCancelled
	// ErrThrottled signals a RequestThrottled response.
	ErrThrottled = errors.New("mws: request throttled")
)

// Adapter talks to the Amazon MWS API over HTTP. Every call is signed with
// the credentials of the backend it is scoped to, so one adapter instance
// serves all backends.
type Adapter struct {
	httpClient *http.Client
	logger     *zap.Logger

	// scheme and endpointHost replace the regional https endpoint, for tests
	scheme       string
	endpointHost string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

// WithEndpoint overrides the regional endpoint with a fixed base URL.
func WithEndpoint(baseURL string) Option {
	return func(a *Adapter) {
		if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
			a.scheme = u.Scheme
			a.endpointHost = u.Host
		}
	}
}

// NewAdapter creates an MWS adapter.
func NewAdapter(logger *zap.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
		scheme:     "https",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// credentialsFor builds signing credentials from a backend's stored keys and
// its regional endpoint.
func (a *Adapter) credentialsFor(backend *connector.Backend) (*Credentials, error) {
	host, ok := connector.EndpointHost(backend.Region)
	if !ok {
		return nil, fmt.Errorf("mws: no endpoint for region %q", backend.Region)
	}
	if a.endpointHost != "" {
		host = a.endpointHost
	}
	creds := &Credentials{
		AccessKey: backend.AccessKey,
		SecretKey: backend.SecretKey,
		SellerID:  backend.SellerID,
		AuthToken: backend.AuthToken,
		Host:      host,
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return creds, nil
}

// baseParams assembles the parameters common to every MWS action.
func baseParams(creds *Credentials, action, version string) url.Values {
	params := url.Values{}
	params.Set("AWSAccessKeyId", creds.AccessKey)
	params.Set("Action", action)
	params.Set("SellerId", creds.SellerID)
	if creds.AuthToken != "" {
		params.Set("MWSAuthToken", creds.AuthToken)
	}
	params.Set("SignatureMethod", "HmacSHA256")
	params.Set("SignatureVersion", "2")
	params.Set("Timestamp", time.Now().UTC().Format("2006-01-02T15:04:05Z"))
	params.Set("Version", version)
	return params
}

// doRequest signs the parameters, POSTs them as a form body and returns the
// raw response payload. MWS errors are decoded and mapped.
func (a *Adapter) doRequest(ctx context.Context, creds *Credentials, path string, params url.Values) ([]byte, error) {
	body := creds.SignedQuery(path, params)
	endpoint := a.scheme + "://" + creds.Host + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return a.send(req, params.Get("Action"))
}

// doFeedRequest sends a feed document. Unlike other actions the parameters
// travel in the query string and the feed content is the request body, with
// its MD5 in the Content-MD5 header.
func (a *Adapter) doFeedRequest(ctx context.Context, creds *Credentials, path string, params url.Values, payload []byte) ([]byte, error) {
	sum := md5.Sum(payload)
	params.Set("ContentMD5Value", base64.StdEncoding.EncodeToString(sum[:]))

	endpoint := a.scheme + "://" + creds.Host + path + "?" + creds.SignedQuery(path, params)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("Content-MD5", base64.StdEncoding.EncodeToString(sum[:]))

	return a.send(req, params.Get("Action"))
}

func (a *Adapter) send(req *http.Request, action string) ([]byte, error) {
	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", action, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", action, err)
	}

	a.logger.Debug("mws request completed",
		zap.String("action", action),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, mapError(action, resp.StatusCode, payload)
	}
	return payload, nil
}

// mapError decodes the MWS error envelope into a sentinel or descriptive
// error.
func mapError(action string, status int, payload []byte) error {
	var envelope ErrorResponse
	if err := xml.Unmarshal(payload, &envelope); err == nil && envelope.Error.Code != "" {
		switch envelope.Error.Code {
		case "RequestThrottled", "QuotaExceeded":
			return fmt.Errorf("%s: %w", action, ErrThrottled)
		default:
			return fmt.Errorf("%s failed: %s: %s", action, envelope.Error.Code, envelope.Error.Message)
		}
	}
	if status == http.StatusServiceUnavailable {
		return fmt.Errorf("%s: %w", action, ErrThrottled)
	}
	return fmt.Errorf("%s failed with status %d", action, status)
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// ListOrders returns orders created inside the window, items included.
func (a *Adapter) ListOrders(ctx context.Context, backend *connector.Backend, createdAfter, createdBefore time.Time) ([]appsync.OrderSnapshot, error) {
	return a.listOrders(ctx, backend, func(params url.Values) {
		params.Set("CreatedAfter", createdAfter.UTC().Format(time.RFC3339))
		params.Set("CreatedBefore", createdBefore.UTC().Format(time.RFC3339))
	})
}

// ListUpdatedOrders returns orders modified inside the window, items included.
func (a *Adapter) ListUpdatedOrders(ctx context.Context, backend *connector.Backend, updatedAfter, updatedBefore time.Time) ([]appsync.OrderSnapshot, error) {
	return a.listOrders(ctx, backend, func(params url.Values) {
		params.Set("LastUpdatedAfter", updatedAfter.UTC().Format(time.RFC3339))
		params.Set("LastUpdatedBefore", updatedBefore.UTC().Format(time.RFC3339))
	})
}

func (a *Adapter) listOrders(ctx context.Context, backend *connector.Backend, window func(url.Values)) ([]appsync.OrderSnapshot, error) {
	creds, err := a.credentialsFor(backend)
	if err != nil {
		return nil, err
	}

	var snapshots []appsync.OrderSnapshot
	nextToken := ""
	for {
		params := baseParams(creds, "ListOrders", ordersVersion)
		if nextToken != "" {
			params.Set("Action", "ListOrdersByNextToken")
			params.Set("NextToken", nextToken)
		} else {
			window(params)
			for i, id := range backend.MarketplaceIDs() {
				params.Set(fmt.Sprintf("MarketplaceId.Id.%d", i+1), id)
			}
		}

		payload, err := a.doRequest(ctx, creds, ordersPath, params)
		if err != nil {
			return nil, err
		}

		var resp ListOrdersResponse
		if err := xml.Unmarshal(payload, &resp); err != nil {
			return nil, fmt.Errorf("decode ListOrders response: %w", err)
		}

		orders := resp.Result.Orders.Order
		token := resp.Result.NextToken
		if nextToken != "" {
			orders = resp.NextResult.Orders.Order
			token = resp.NextResult.NextToken
		}

		for _, order := range orders {
			snapshot, err := a.orderSnapshot(ctx, creds, order)
			if err != nil {
				return nil, err
			}
			snapshots = append(snapshots, snapshot)
		}

		if token == "" {
			break
		}
		nextToken = token
	}
	return snapshots, nil
}

func (a *Adapter) orderSnapshot(ctx context.Context, creds *Credentials, order xmlOrder) (appsync.OrderSnapshot, error) {
	items, err := a.listOrderItems(ctx, creds, order.AmazonOrderID)
	if err != nil {
		return appsync.OrderSnapshot{}, err
	}

	raw, _ := xml.Marshal(order)
	return appsync.OrderSnapshot{
		PlatformOrderID: order.AmazonOrderID,
		Status:          order.OrderStatus,
		MarketplaceID:   order.MarketplaceID,
		Fulfillment:     order.FulfillmentChannel,
		Total:           parseDecimal(order.OrderTotal.Amount),
		Currency:        order.OrderTotal.CurrencyCode,
		BuyerEmail:      order.BuyerEmail,
		PurchaseDate:    parseTime(order.PurchaseDate),
		LastUpdate:      parseTime(order.LastUpdateDate),
		Items:           items,
		RawPayload:      string(raw),
	}, nil
}

func (a *Adapter) listOrderItems(ctx context.Context, creds *Credentials, amazonOrderID string) ([]appsync.OrderItemSnapshot, error) {
	var items []appsync.OrderItemSnapshot
	nextToken := ""
	for {
		params := baseParams(creds, "ListOrderItems", ordersVersion)
		if nextToken != "" {
			params.Set("Action", "ListOrderItemsByNextToken")
			params.Set("NextToken", nextToken)
		} else {
			params.Set("AmazonOrderId", amazonOrderID)
		}

		payload, err := a.doRequest(ctx, creds, ordersPath, params)
		if err != nil {
			return nil, err
		}

		var resp ListOrderItemsResponse
		if err := xml.Unmarshal(payload, &resp); err != nil {
			return nil, fmt.Errorf("decode ListOrderItems response: %w", err)
		}

		lines := resp.Result.OrderItems.OrderItem
		token := resp.Result.NextToken
		if nextToken != "" {
			lines = resp.NextResult.OrderItems.OrderItem
			token = resp.NextResult.NextToken
		}

		for _, line := range lines {
			items = append(items, appsync.OrderItemSnapshot{
				OrderItemID:   line.OrderItemID,
				SKU:           line.SellerSKU,
				ASIN:          line.ASIN,
				Title:         line.Title,
				Quantity:      line.QuantityOrdered,
				ItemPrice:     parseDecimal(line.ItemPrice.Amount),
				ShippingPrice: parseDecimal(line.ShippingPrice.Amount),
				Tax:           parseDecimal(line.ItemTax.Amount),
			})
		}

		if token == "" {
			break
		}
		nextToken = token
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

// RequestReport submits a report request and returns the request ID the
// marketplace assigned to it.
func (a *Adapter) RequestReport(ctx context.Context, backend *connector.Backend, reportType string, from, to time.Time) (string, error) {
	creds, err := a.credentialsFor(backend)
	if err != nil {
		return "", err
	}

	params := baseParams(creds, "RequestReport", legacyVersion)
	params.Set("ReportType", reportType)
	if !from.IsZero() {
		params.Set("StartDate", from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		params.Set("EndDate", to.UTC().Format(time.RFC3339))
	}

	payload, err := a.doRequest(ctx, creds, rootPath, params)
	if err != nil {
		return "", err
	}

	var resp RequestReportResponse
	if err := xml.Unmarshal(payload, &resp); err != nil {
		return "", fmt.Errorf("decode RequestReport response: %w", err)
	}
	requestID := resp.Result.ReportRequestInfo.ReportRequestID
	if requestID == "" {
		return "", errors.New("mws: RequestReport returned no request ID")
	}
	return requestID, nil
}

// FetchReport resolves a report request to its payload. While the
// marketplace is still generating the report it returns ErrReportNotReady;
// cancelled requests return ErrReportCancelled.
func (a *Adapter) FetchReport(ctx context.Context, backend *connector.Backend, requestID string) ([]byte, error) {
	creds, err := a.credentialsFor(backend)
	if err != nil {
		return nil, err
	}

	params := baseParams(creds, "GetReportRequestList", legacyVersion)
	params.Set("ReportRequestIdList.Id.1", requestID)

	payload, err := a.doRequest(ctx, creds, rootPath, params)
	if err != nil {
		return nil, err
	}

	var resp GetReportRequestListResponse
	if err := xml.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode GetReportRequestList response: %w", err)
	}

	reportID := ""
	for _, info := range resp.Result.ReportRequestInfo {
		if info.ReportRequestID != requestID {
			continue
		}
		switch info.ReportProcessingStatus {
		case reportStatusDone:
			reportID = info.GeneratedReportID
		case reportStatusNoData:
			return nil, nil
		case reportStatusCancelled:
			return nil, ErrReportCancelled
		default:
			return nil, ErrReportNotReady
		}
	}
	if reportID == "" {
		return nil, ErrReportNotReady
	}

	params = baseParams(creds, "GetReport", legacyVersion)
	params.Set("ReportId", reportID)

	// GetReport returns the raw report document, not an XML envelope
	return a.doRequest(ctx, creds, rootPath, params)
}

// ---------------------------------------------------------------------------
// Feeds
// ---------------------------------------------------------------------------

// SubmitFeed uploads a feed document and returns the submission ID.
func (a *Adapter) SubmitFeed(ctx context.Context, backend *connector.Backend, feedType string, payload []byte) (string, error) {
	creds, err := a.credentialsFor(backend)
	if err != nil {
		return "", err
	}

	params := baseParams(creds, "SubmitFeed", legacyVersion)
	params.Set("FeedType", feedType)
	for i, id := range backend.MarketplaceIDs() {
		params.Set(fmt.Sprintf("MarketplaceIdList.Id.%d", i+1), id)
	}

	body, err := a.doFeedRequest(ctx, creds, rootPath, params, payload)
	if err != nil {
		return "", err
	}

	var resp SubmitFeedResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode SubmitFeed response: %w", err)
	}
	submissionID := resp.Result.FeedSubmissionInfo.FeedSubmissionID
	if submissionID == "" {
		return "", errors.New("mws: SubmitFeed returned no submission ID")
	}
	return submissionID, nil
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// GetMyPrice returns the seller's current landed prices for up to 20 SKUs.
func (a *Adapter) GetMyPrice(ctx context.Context, backend *connector.Backend, marketplaceID string, skus []string) ([]appsync.PriceSnapshot, error) {
	if len(skus) > maxPriceSKUs {
		return nil, fmt.Errorf("mws: GetMyPriceForSKU accepts at most %d SKUs, got %d", maxPriceSKUs, len(skus))
	}
	creds, err := a.credentialsFor(backend)
	if err != nil {
		return nil, err
	}

	params := baseParams(creds, "GetMyPriceForSKU", productsVersion)
	params.Set("MarketplaceId", marketplaceID)
	for i, sku := range skus {
		params.Set(fmt.Sprintf("SellerSKUList.SellerSKU.%d", i+1), sku)
	}

	payload, err := a.doRequest(ctx, creds, productsPath, params)
	if err != nil {
		return nil, err
	}

	var resp GetMyPriceForSKUResponse
	if err := xml.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode GetMyPriceForSKU response: %w", err)
	}

	snapshots := make([]appsync.PriceSnapshot, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.Status != "" && !strings.EqualFold(result.Status, "Success") {
			continue
		}
		snapshot := appsync.PriceSnapshot{
			SKU:           result.SKU,
			MarketplaceID: marketplaceID,
		}
		if offers := result.Product.Offers.Offer; len(offers) > 0 {
			snapshot.Price = parseDecimal(offers[0].BuyingPrice.LandedPrice.Amount)
			snapshot.Currency = offers[0].BuyingPrice.LandedPrice.CurrencyCode
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// GetFeesEstimate returns the estimated total fees for listing an ASIN at
// the given price.
func (a *Adapter) GetFeesEstimate(ctx context.Context, backend *connector.Backend, marketplaceID, asin string, price decimal.Decimal) (decimal.Decimal, error) {
	creds, err := a.credentialsFor(backend)
	if err != nil {
		return decimal.Zero, err
	}

	currency := "EUR"
	if mp, ok := connector.MarketplaceByID(marketplaceID); ok {
		currency = mp.Currency
	}

	params := baseParams(creds, "GetMyFeesEstimate", productsVersion)
	prefix := "FeesEstimateRequestList.FeesEstimateRequest.1."
	params.Set(prefix+"MarketplaceId", marketplaceID)
	params.Set(prefix+"IdType", "ASIN")
	params.Set(prefix+"IdValue", asin)
	params.Set(prefix+"IsAmazonFulfilled", "false")
	params.Set(prefix+"Identifier", "fee-"+asin+"-"+strconv.FormatInt(time.Now().UnixNano(), 10))
	params.Set(prefix+"PriceToEstimateFees.ListingPrice.Amount", price.StringFixed(2))
	params.Set(prefix+"PriceToEstimateFees.ListingPrice.CurrencyCode", currency)

	payload, err := a.doRequest(ctx, creds, productsPath, params)
	if err != nil {
		return decimal.Zero, err
	}

	var resp GetMyFeesEstimateResponse
	if err := xml.Unmarshal(payload, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("decode GetMyFeesEstimate response: %w", err)
	}

	for _, result := range resp.Result.FeesEstimateResultList.FeesEstimateResult {
		if result.Status != "Success" {
			continue
		}
		return parseDecimal(result.FeesEstimate.TotalFeesEstimate.Amount), nil
	}
	return decimal.Zero, fmt.Errorf("mws: no fee estimate for ASIN %s", asin)
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ appsync.MarketplaceGateway = (*Adapter)(nil)
