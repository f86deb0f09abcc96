package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errx "github.com/acp-commerce-poc/simulator/internal/core/error"
	"github.com/acp-commerce-poc/simulator/internal/simulator/model"
	logx "github.com/acp-commerce-poc/simulator/pkg/logger"
)

// ACPClient talks to the commerce backend over its plain REST surface.
// Session JSON is decoded as-is: field names on the wire are canonical.
type ACPClient struct {
	baseURL string
	httpc   *http.Client
	calls   *model.CallLog
}

func NewACPClient(baseURL string, calls *model.CallLog) *ACPClient {
	return &ACPClient{
		baseURL: baseURL,
		// No timeout: a hung backend call hangs the turn, matching the
		// demo's synchronous-await semantics.
		httpc: &http.Client{},
		calls: calls,
	}
}

type createSessionRequest struct {
	LineItems []model.LineItemRequest `json:"line_items"`
	BuyerInfo model.BuyerInfo         `json:"buyer_info"`
}

type updateSessionRequest struct {
	FulfillmentAddress model.Address `json:"fulfillment_address"`
}

type completeSessionRequest struct {
	PaymentTokenID string `json:"payment_token_id"`
}

type delegatePaymentResponse struct {
	PaymentTokenID string `json:"payment_token_id"`
}

// errorDetail is the FastAPI-style error envelope the backend wraps
// application errors in.
type errorDetail struct {
	Detail struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"detail"`
}

// CreateCheckoutSession ignores the search query: the REST surface exposes
// no product search, so the session is created from the requested items in
// a single call.
func (c *ACPClient) CreateCheckoutSession(ctx context.Context, _ string, items []model.LineItemRequest, buyer model.BuyerInfo) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	req := createSessionRequest{LineItems: items, BuyerInfo: buyer}
	if err := c.post(ctx, "/acp/v1/checkout_sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *ACPClient) AddShippingAddress(ctx context.Context, sessionID string, addr model.Address) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	req := updateSessionRequest{FulfillmentAddress: addr}
	if err := c.post(ctx, "/acp/v1/checkout_sessions/"+sessionID, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *ACPClient) CompletePurchase(ctx context.Context, sessionID string, card model.PaymentCard) (*model.OrderConfirmation, error) {
	// Tokenize first, then complete with the token. Strictly sequential;
	// a failure in either step surfaces as one error and a token from a
	// half-finished sequence is simply discarded.
	var token delegatePaymentResponse
	if err := c.post(ctx, "/acp/v1/delegate_payment", card, &token); err != nil {
		return nil, err
	}

	var confirmation model.OrderConfirmation
	req := completeSessionRequest{PaymentTokenID: token.PaymentTokenID}
	if err := c.post(ctx, "/acp/v1/checkout_sessions/"+sessionID+"/complete", req, &confirmation); err != nil {
		return nil, err
	}
	return &confirmation, nil
}

func (c *ACPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errx.WrapPayload(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errx.WrapTransport(err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.record(path, 0, start)
		logx.Error().Err(err).Str("endpoint", path).Msg("acp request failed")
		return errx.WrapTransport(err)
	}
	defer resp.Body.Close()
	c.record(path, resp.StatusCode, start)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errx.WrapTransport(err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		var detail errorDetail
		msg := errx.BackendErrorMessage
		if err := json.Unmarshal(data, &detail); err == nil && detail.Detail.Message != "" {
			msg = detail.Detail.Message
		}
		logx.Error().Str("endpoint", path).Int("status", resp.StatusCode).Msg("acp error response")
		return errx.New(fmt.Errorf("%s: status %d", path, resp.StatusCode), resp.StatusCode, msg)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errx.WrapPayload(err)
	}
	return nil
}

func (c *ACPClient) record(endpoint string, status int, start time.Time) {
	c.calls.Append(model.APICallRecord{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Status:   status,
		Duration: time.Since(start),
	})
}

var _ Backend = (*ACPClient)(nil)
