package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	errx "github.com/acp-commerce-poc/simulator/internal/core/error"
	"github.com/acp-commerce-poc/simulator/internal/simulator/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionCreatedBody = `{
  "id": "cs_demo123",
  "status": "not_ready_for_payment",
  "currency": "USD",
  "line_items": [
    {"gtin": "00883419552502", "product_id": "prod_1", "title": "Nike Air Max 90", "quantity": 1, "unit_price": 190.0, "total": 190.0}
  ],
  "fulfillment_address": null,
  "fulfillment_options": null,
  "selected_fulfillment_option_id": null,
  "totals": {
    "items_total": {"value": "190.00", "currency": "USD"},
    "discounts": {"value": "0.00", "currency": "USD"},
    "subtotal": {"value": "190.00", "currency": "USD"},
    "fulfillment": {"value": "0.00", "currency": "USD"},
    "taxes": {"value": "15.20", "currency": "USD"},
    "fees": {"value": "0.00", "currency": "USD"},
    "total": {"value": "205.20", "currency": "USD"}
  },
  "buyer_info": {"first_name": "John", "last_name": "Doe", "email": "john.doe@example.com", "phone": "+15035551234"},
  "links": {"terms_of_service": "https://www.nike.com/us/terms"},
  "created_at": "2024-01-01T00:00:00Z",
  "updated_at": "2024-01-01T00:00:00Z"
}`

const sessionReadyBody = `{
  "id": "cs_demo123",
  "status": "ready_for_payment",
  "currency": "USD",
  "line_items": [
    {"gtin": "00883419552502", "product_id": "prod_1", "title": "Nike Air Max 90", "quantity": 1, "unit_price": 190.0, "total": 190.0}
  ],
  "fulfillment_address": {"name": "John Doe", "address_line_1": "3775 SW Morrison", "city": "Portland", "state": "OR", "postal_code": "97220", "country": "US"},
  "fulfillment_options": [
    {"id": "standard", "title": "Standard Shipping", "subtitle": "5-7 business days", "cost": "5.00", "delivery_min_days": 5, "delivery_max_days": 7},
    {"id": "express", "title": "Express Shipping", "subtitle": "2-3 business days", "cost": "15.00", "delivery_min_days": 2, "delivery_max_days": 3},
    {"id": "overnight", "title": "Overnight Shipping", "subtitle": "1 business day", "cost": "25.00", "delivery_min_days": 1, "delivery_max_days": 1}
  ],
  "selected_fulfillment_option_id": "standard",
  "totals": {
    "items_total": {"value": "190.00", "currency": "USD"},
    "discounts": {"value": "0.00", "currency": "USD"},
    "subtotal": {"value": "190.00", "currency": "USD"},
    "fulfillment": {"value": "5.00", "currency": "USD"},
    "taxes": {"value": "15.20", "currency": "USD"},
    "fees": {"value": "0.00", "currency": "USD"},
    "total": {"value": "210.20", "currency": "USD"}
  },
  "buyer_info": {"first_name": "John", "last_name": "Doe", "email": "john.doe@example.com", "phone": "+15035551234"}
}`

var testBuyer = model.BuyerInfo{
	FirstName: "John",
	LastName:  "Doe",
	Email:     "john.doe@example.com",
	Phone:     "+15035551234",
}

func TestACPClient_CreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/acp/v1/checkout_sessions", r.URL.Path)

		var body struct {
			LineItems []model.LineItemRequest `json:"line_items"`
			BuyerInfo model.BuyerInfo         `json:"buyer_info"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.LineItems, 1)
		assert.Equal(t, "00883419552502", body.LineItems[0].GTIN)
		assert.Equal(t, 1, body.LineItems[0].Quantity)
		assert.Equal(t, "john.doe@example.com", body.BuyerInfo.Email)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sessionCreatedBody))
	}))
	defer srv.Close()

	calls := model.NewCallLog()
	client := NewACPClient(srv.URL, calls)

	session, err := client.CreateCheckoutSession(context.Background(), "Air Max",
		[]model.LineItemRequest{{GTIN: "00883419552502", Quantity: 1}}, testBuyer)

	require.NoError(t, err)
	assert.Equal(t, "cs_demo123", session.ID)
	assert.Equal(t, model.StatusNotReadyForPayment, session.Status)
	require.Len(t, session.LineItems, 1)
	assert.Equal(t, "Nike Air Max 90", session.LineItems[0].Title)
	assert.Equal(t, 190.0, session.LineItems[0].UnitPrice)
	assert.Equal(t, "190.00", session.Totals.Subtotal.Value)
	assert.Equal(t, "205.20", session.Totals.Total.Value)

	records := calls.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "/acp/v1/checkout_sessions", records[0].Endpoint)
	assert.Equal(t, http.StatusOK, records[0].Status)
}

func TestACPClient_AddShippingAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acp/v1/checkout_sessions/cs_demo123", r.URL.Path)

		var body struct {
			FulfillmentAddress model.Address `json:"fulfillment_address"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Portland", body.FulfillmentAddress.City)
		assert.Equal(t, "John Doe", body.FulfillmentAddress.Name)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sessionReadyBody))
	}))
	defer srv.Close()

	calls := model.NewCallLog()
	client := NewACPClient(srv.URL, calls)

	addr := model.Address{Name: "John Doe", AddressLine1: "3775 SW Morrison", City: "Portland", State: "OR", PostalCode: "97220", Country: "US"}
	session, err := client.AddShippingAddress(context.Background(), "cs_demo123", addr)

	require.NoError(t, err)
	assert.Equal(t, model.StatusReadyForPayment, session.Status)
	require.Len(t, session.FulfillmentOptions, 3)
	assert.Equal(t, "standard", session.SelectedFulfillmentOptionID)

	// Totals and options must reproduce the backend response exactly.
	assert.Equal(t, "5.00", session.FulfillmentOptions[0].Cost)
	assert.Equal(t, "25.00", session.FulfillmentOptions[2].Cost)
	assert.Equal(t, "5.00", session.Totals.Fulfillment.Value)
	assert.Equal(t, "15.20", session.Totals.Taxes.Value)
	assert.Equal(t, "210.20", session.Totals.Total.Value)
}

func TestACPClient_CompletePurchase_TwoSequentialCalls(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/acp/v1/delegate_payment":
			var card model.PaymentCard
			require.NoError(t, json.NewDecoder(r.Body).Decode(&card))
			assert.Equal(t, "4242424242424242", card.CardNumber)
			w.Write([]byte(`{"payment_token_id": "pm_test123"}`))
		case "/acp/v1/checkout_sessions/cs_demo123/complete":
			var body struct {
				PaymentTokenID string `json:"payment_token_id"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "pm_test123", body.PaymentTokenID)
			w.Write([]byte(`{
			  "id": "cs_demo123",
			  "status": "completed",
			  "order": {"id": "order_abc123", "checkout_session_id": "cs_demo123", "permalink": "https://nike.com/orders/order_abc123", "created_at": "2024-01-01T00:05:00Z"},
			  "messages": [{"type": "success", "text": "Your order has been confirmed!"}]
			}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	calls := model.NewCallLog()
	client := NewACPClient(srv.URL, calls)

	card := model.PaymentCard{CardNumber: "4242424242424242", ExpMonth: 12, ExpYear: 2025, CVC: "123"}
	confirmation, err := client.CompletePurchase(context.Background(), "cs_demo123", card)

	require.NoError(t, err)
	assert.Equal(t, "order_abc123", confirmation.Order.ID)
	assert.Equal(t, model.StatusCompleted, confirmation.Status)
	require.Len(t, confirmation.Messages, 1)
	assert.Equal(t, "success", confirmation.Messages[0].Type)

	// Tokenize must precede completion, and nothing else may be called.
	require.Equal(t, []string{"/acp/v1/delegate_payment", "/acp/v1/checkout_sessions/cs_demo123/complete"}, paths)
	assert.Equal(t, 2, calls.Len())
}

func TestACPClient_CompletePurchase_TokenizeFailureStopsSequence(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": {"code": "invalid", "message": "card declined"}}`))
	}))
	defer srv.Close()

	client := NewACPClient(srv.URL, model.NewCallLog())
	_, err := client.CompletePurchase(context.Background(), "cs_demo123", model.PaymentCard{})

	require.Error(t, err)
	// The completion call must not happen after a failed tokenization.
	assert.Equal(t, []string{"/acp/v1/delegate_payment"}, paths)
}

func TestACPClient_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": {"code": "invalid", "message": "Session cs_x not found"}}`))
	}))
	defer srv.Close()

	calls := model.NewCallLog()
	client := NewACPClient(srv.URL, calls)

	_, err := client.AddShippingAddress(context.Background(), "cs_x", model.Address{})

	require.Error(t, err)
	var appErr *errx.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "Session cs_x not found", appErr.Message)

	records := calls.Records()
	require.Len(t, records, 1)
	assert.Equal(t, http.StatusBadRequest, records[0].Status)
}

func TestACPClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	calls := model.NewCallLog()
	client := NewACPClient(srv.URL, calls)

	_, err := client.CreateCheckoutSession(context.Background(), "", nil, testBuyer)

	require.Error(t, err)
	var appErr *errx.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errx.TransportErrorMessage, appErr.Message)

	records := calls.Records()
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].Status)
}
