// Package catalog fetches and normalizes the remote product catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/erpgo/pos-storefront/internal/model"
)

const (
	reportPath = "/api/method/frappe.desk.reportview.get"

	doctypeParam = "Item"
	fieldsParam  = `["name","item_name","item_code","description","standard_rate","stock_uom","image"]`
	filtersParam = `[["disabled","=",0],["is_sales_item","=",1]]`

	placeholderImage = "/api/placeholder/200/200"
)

// NetworkError reports a transport-level failure: the request never
// produced a usable response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "catalog: network failure: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// BackendError reports a response that arrived but did not match the
// expected report shape.
type BackendError struct {
	Reason string
}

func (e *BackendError) Error() string { return "catalog: malformed response: " + e.Reason }

// Client retrieves the sellable item catalog from the backend's report
// endpoint. The sellable/non-disabled filter is fixed server-side query
// criteria, not a client option.
type Client struct {
	base  string
	token string
	hc    *http.Client
}

// NewClient builds a Client against the given base URL. The token is sent
// as an Authorization header on every request. hc may carry a caching
// transport; nil falls back to http.DefaultClient.
func NewClient(base, token string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: base, token: token, hc: hc}
}

type reportEnvelope struct {
	Message *reportMessage `json:"message"`
}

type reportMessage struct {
	Keys   []string `json:"keys"`
	Values [][]any  `json:"values"`
}

// Fetch performs the catalog query and pivots the columnar response into
// ProductRecords. An empty catalog is a valid result, distinct from any
// error. Errors are always *NetworkError or *BackendError.
func (c *Client) Fetch(ctx context.Context) ([]model.ProductRecord, error) {
	q := url.Values{}
	q.Set("doctype", doctypeParam)
	q.Set("fields", fieldsParam)
	q.Set("filters", filtersParam)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+reportPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &BackendError{Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var env reportEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &BackendError{Reason: "invalid json: " + err.Error()}
	}
	if env.Message == nil {
		return nil, &BackendError{Reason: "missing message"}
	}
	return pivot(env.Message)
}

// requiredKeys are the columns a well-formed report must carry. The
// remaining projection fields are optional and default when absent.
var requiredKeys = []string{"name", "item_name", "standard_rate"}

func pivot(msg *reportMessage) ([]model.ProductRecord, error) {
	if len(msg.Values) == 0 {
		return []model.ProductRecord{}, nil
	}
	idx := make(map[string]int, len(msg.Keys))
	for i, k := range msg.Keys {
		idx[k] = i
	}
	for _, k := range requiredKeys {
		if _, ok := idx[k]; !ok {
			return nil, &BackendError{Reason: "missing key " + strconv.Quote(k)}
		}
	}

	records := make([]model.ProductRecord, 0, len(msg.Values))
	for i, row := range msg.Values {
		if len(row) != len(msg.Keys) {
			return nil, &BackendError{Reason: fmt.Sprintf("row %d width %d, want %d", i, len(row), len(msg.Keys))}
		}
		kv := func(key string) any {
			j, ok := idx[key]
			if !ok {
				return nil
			}
			return row[j]
		}
		rec := model.ProductRecord{
			ID:            asString(kv("name")),
			Name:          asString(kv("item_name")),
			Code:          asString(kv("item_code")),
			Description:   asString(kv("description")),
			Price:         asPrice(kv("standard_rate")),
			UnitOfMeasure: asString(kv("stock_uom")),
			ImageRef:      asString(kv("image")),
		}
		if rec.ID == "" {
			return nil, &BackendError{Reason: fmt.Sprintf("row %d has no item identifier", i)}
		}
		if rec.ImageRef == "" {
			rec.ImageRef = placeholderImage
		}
		records = append(records, rec)
	}
	return records, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// asPrice coerces the rate column into a non-negative decimal. Parse
// failures and negative values become zero, never a rejected record.
func asPrice(v any) decimal.Decimal {
	var d decimal.Decimal
	switch t := v.(type) {
	case string:
		parsed, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(t)
	case json.Number:
		parsed, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
