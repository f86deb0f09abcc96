package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	errx "github.com/acp-commerce-poc/simulator/internal/core/error"
	"github.com/acp-commerce-poc/simulator/internal/simulator/model"
	logx "github.com/acp-commerce-poc/simulator/pkg/logger"
	"github.com/google/uuid"
)

// MCPClient drives the same checkout flow through the backend's MCP
// endpoint: every operation is one JSON-RPC tools/call POST, and tool
// results arrive as an embedded JSON resource inside a generic content
// envelope. Payloads are decoded with a strict parse (unknown fields
// rejected) and re-projected into the canonical session shape.
type MCPClient struct {
	endpoint string
	httpc    *http.Client
	calls    *model.CallLog

	// create_checkout is the only tool response carrying line items, so
	// they are retained per session to keep later re-projections whole.
	mu       sync.Mutex
	sessions map[string]sessionScratch
}

type sessionScratch struct {
	lineItems []model.LineItem
	currency  string
}

func NewMCPClient(baseURL string, calls *model.CallLog) *MCPClient {
	return &MCPClient{
		endpoint: baseURL + "/mcp",
		httpc:    &http.Client{},
		calls:    calls,
		sessions: make(map[string]sessionScratch),
	}
}

// ================ JSON-RPC envelope ================

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      string    `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  *toolResult     `json:"result"`
	Error   *rpcError       `json:"error"`
}

type toolResult struct {
	Content []contentEntry `json:"content"`
	IsError bool           `json:"isError"`
}

type contentEntry struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	Resource *embeddedPayload `json:"resource,omitempty"`
}

type embeddedPayload struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// ================ tool payloads ================

type toolCheckoutCreated struct {
	SessionID string              `json:"session_id"`
	Status    model.SessionStatus `json:"status"`
	Items     []model.LineItem    `json:"items"`
	Subtotal  string              `json:"subtotal"`
	Currency  string              `json:"currency"`
	Message   string              `json:"message"`
}

type toolTotals struct {
	Items    string `json:"items"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type toolShippingCalculated struct {
	SessionID        string                    `json:"session_id"`
	Status           model.SessionStatus       `json:"status"`
	ShippingAddress  model.Address             `json:"shipping_address"`
	ShippingOptions  []model.FulfillmentOption `json:"shipping_options"`
	SelectedShipping string                    `json:"selected_shipping"`
	Totals           toolTotals                `json:"totals"`
	Message          string                    `json:"message"`
}

type toolPurchaseCompleted struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"order_id"`
	OrderStatus string `json:"order_status"`
	Total       string `json:"total"`
	Currency    string `json:"currency"`
	Permalink   string `json:"permalink"`
	Message     string `json:"message"`
}

type toolProduct struct {
	GTIN         string   `json:"gtin"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	Currency     string   `json:"currency"`
	Category     string   `json:"category"`
	Availability string   `json:"availability"`
	Images       []string `json:"images"`
}

type searchProductsArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type createCheckoutArgs struct {
	Items      []model.LineItemRequest `json:"items"`
	BuyerEmail string                  `json:"buyer_email,omitempty"`
}

type addShippingArgs struct {
	SessionID string        `json:"session_id"`
	Address   model.Address `json:"address"`
}

type completePurchaseArgs struct {
	SessionID     string            `json:"session_id"`
	PaymentMethod model.PaymentCard `json:"payment_method"`
}

// searchLimit caps how many catalog entries one search_products call asks
// for. The demo catalog is tiny; anything beyond the first page is noise.
const searchLimit = 5

// CreateCheckoutSession resolves the query through the search_products tool
// and then opens the session with create_checkout, so opening a cart costs
// two tool calls on this binding. An empty query skips the catalog lookup.
func (c *MCPClient) CreateCheckoutSession(ctx context.Context, query string, items []model.LineItemRequest, buyer model.BuyerInfo) (*model.CheckoutSession, error) {
	if query != "" {
		found, err := c.searchProducts(ctx, query)
		if err != nil {
			return nil, err
		}
		items = resolveItems(items, found)
	}

	raw, err := c.callTool(ctx, "create_checkout", createCheckoutArgs{Items: items, BuyerEmail: buyer.Email})
	if err != nil {
		return nil, err
	}

	var payload toolCheckoutCreated
	if err := decodeStrict(raw, &payload); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.sessions[payload.SessionID] = sessionScratch{lineItems: payload.Items, currency: payload.Currency}
	c.mu.Unlock()

	money := model.Money{Value: payload.Subtotal, Currency: payload.Currency}
	return &model.CheckoutSession{
		ID:        payload.SessionID,
		Status:    payload.Status,
		Currency:  payload.Currency,
		LineItems: payload.Items,
		Totals: model.Totals{
			ItemsTotal: money,
			Subtotal:   money,
		},
	}, nil
}

func (c *MCPClient) searchProducts(ctx context.Context, query string) ([]toolProduct, error) {
	raw, err := c.callTool(ctx, "search_products", searchProductsArgs{Query: query, Limit: searchLimit})
	if err != nil {
		return nil, err
	}

	var products []toolProduct
	if err := decodeStrict(raw, &products); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, errx.New(fmt.Errorf("search_products %q: no matching products", query), http.StatusBadGateway, errx.BackendErrorMessage)
	}
	return products, nil
}

// resolveItems swaps requested GTINs for catalog GTINs discovered by the
// search. A requested GTIN present in the results is kept as is; anything
// else falls back to the top result. With no requested items the top result
// becomes a single-unit line item.
func resolveItems(requested []model.LineItemRequest, found []toolProduct) []model.LineItemRequest {
	if len(requested) == 0 {
		return []model.LineItemRequest{{GTIN: found[0].GTIN, Quantity: 1}}
	}

	known := make(map[string]bool, len(found))
	for _, p := range found {
		known[p.GTIN] = true
	}

	resolved := make([]model.LineItemRequest, len(requested))
	for i, item := range requested {
		if !known[item.GTIN] {
			item.GTIN = found[0].GTIN
		}
		resolved[i] = item
	}
	return resolved
}

func (c *MCPClient) AddShippingAddress(ctx context.Context, sessionID string, addr model.Address) (*model.CheckoutSession, error) {
	raw, err := c.callTool(ctx, "add_shipping_address", addShippingArgs{SessionID: sessionID, Address: addr})
	if err != nil {
		return nil, err
	}

	var payload toolShippingCalculated
	if err := decodeStrict(raw, &payload); err != nil {
		return nil, err
	}

	c.mu.Lock()
	scratch := c.sessions[payload.SessionID]
	c.mu.Unlock()
	currency := scratch.currency
	if currency == "" {
		currency = "USD"
	}

	address := payload.ShippingAddress
	items := model.Money{Value: payload.Totals.Items, Currency: currency}
	return &model.CheckoutSession{
		ID:                          payload.SessionID,
		Status:                      payload.Status,
		Currency:                    currency,
		LineItems:                   scratch.lineItems,
		FulfillmentAddress:          &address,
		FulfillmentOptions:          payload.ShippingOptions,
		SelectedFulfillmentOptionID: payload.SelectedShipping,
		Totals: model.Totals{
			ItemsTotal:  items,
			Subtotal:    items,
			Fulfillment: model.Money{Value: payload.Totals.Shipping, Currency: currency},
			Taxes:       model.Money{Value: payload.Totals.Tax, Currency: currency},
			Total:       model.Money{Value: payload.Totals.Total, Currency: currency},
		},
	}, nil
}

func (c *MCPClient) CompletePurchase(ctx context.Context, sessionID string, card model.PaymentCard) (*model.OrderConfirmation, error) {
	raw, err := c.callTool(ctx, "complete_purchase", completePurchaseArgs{SessionID: sessionID, PaymentMethod: card})
	if err != nil {
		return nil, err
	}

	var payload toolPurchaseCompleted
	if err := decodeStrict(raw, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, errx.New(fmt.Errorf("complete_purchase reported failure"), http.StatusBadGateway, errx.BackendErrorMessage)
	}

	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.mu.Unlock()

	return &model.OrderConfirmation{
		SessionID: sessionID,
		Status:    model.StatusCompleted,
		Order: model.Order{
			ID:                payload.OrderID,
			CheckoutSessionID: sessionID,
			Permalink:         payload.Permalink,
		},
		Messages: []model.OrderMessage{{Type: "success", Text: payload.Message}},
	}, nil
}

// callTool posts one tools/call envelope and returns the raw JSON text of
// the first embedded resource in the result content list.
func (c *MCPClient) callTool(ctx context.Context, name string, args any) ([]byte, error) {
	envelope := rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  "tools/call",
		Params:  rpcParams{Name: name, Arguments: args},
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, errx.WrapPayload(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errx.WrapTransport(err)
	}
	req.Header.Set("Content-Type", "application/json")

	endpoint := "/mcp#" + name
	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.record(endpoint, 0, start)
		logx.Error().Err(err).Str("tool", name).Msg("mcp request failed")
		return nil, errx.WrapTransport(err)
	}
	defer resp.Body.Close()
	c.record(endpoint, resp.StatusCode, start)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errx.WrapTransport(err)
	}

	var rpc rpcResponse
	if err := json.Unmarshal(data, &rpc); err != nil {
		return nil, errx.WrapPayload(err)
	}
	if rpc.Error != nil {
		logx.Error().Str("tool", name).Int("code", rpc.Error.Code).Str("message", rpc.Error.Message).Msg("mcp error envelope")
		return nil, errx.New(fmt.Errorf("jsonrpc error %d: %s", rpc.Error.Code, rpc.Error.Message), http.StatusBadGateway, errx.BackendErrorMessage)
	}
	if rpc.Result == nil {
		return nil, errx.WrapPayload(fmt.Errorf("tools/call %s: empty result", name))
	}

	raw, found := embeddedResource(rpc.Result)
	if !found {
		return nil, errx.WrapPayload(fmt.Errorf("tools/call %s: no embedded resource in content", name))
	}

	// Tool handlers report application failures inside the payload rather
	// than the envelope; probe before the strict decode.
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.Error != "" {
		return nil, errx.New(fmt.Errorf("tool %s: %s", name, probe.Error), http.StatusBadGateway, errx.BackendErrorMessage)
	}
	if rpc.Result.IsError {
		return nil, errx.New(fmt.Errorf("tool %s flagged isError", name), http.StatusBadGateway, errx.BackendErrorMessage)
	}

	return raw, nil
}

func embeddedResource(result *toolResult) ([]byte, bool) {
	for _, entry := range result.Content {
		if entry.Type == "resource" && entry.Resource != nil {
			return []byte(entry.Resource.Text), true
		}
	}
	return nil, false
}

// decodeStrict parses an embedded payload into its typed shape, rejecting
// unknown fields. The payload is data and is only ever parsed, never
// evaluated.
func decodeStrict(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return errx.WrapPayload(err)
	}
	if dec.More() {
		return errx.WrapPayload(fmt.Errorf("trailing data after payload"))
	}
	return nil
}

func (c *MCPClient) record(endpoint string, status int, start time.Time) {
	c.calls.Append(model.APICallRecord{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Status:   status,
		Duration: time.Since(start),
	})
}

var _ Backend = (*MCPClient)(nil)
