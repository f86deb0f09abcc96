package transport

import (
	"context"

	"github.com/acp-commerce-poc/simulator/internal/simulator/model"
)

// Backend is the transport adapter driven by the checkout flow. Both
// bindings (direct ACP REST and the MCP tool-call wrapper) implement the
// same contract so the flow controller stays transport-agnostic.
//
// Calls are synchronous and carry no timeout or retry; every HTTP exchange
// is appended to the shared CallLog, including failed ones.
type Backend interface {
	// CreateCheckoutSession opens a new session for the given items and
	// buyer. The query is the shopper's catalog search phrase: the MCP
	// binding resolves it through the search_products tool before creating
	// the session, while the ACP binding creates directly from the
	// requested items (the REST surface has no search endpoint).
	CreateCheckoutSession(ctx context.Context, query string, items []model.LineItemRequest, buyer model.BuyerInfo) (*model.CheckoutSession, error)

	// AddShippingAddress attaches a shipping address to the session and
	// returns it with shipping options and recomputed totals.
	AddShippingAddress(ctx context.Context, sessionID string, addr model.Address) (*model.CheckoutSession, error)

	// CompletePurchase pays for the session and returns the order
	// confirmation. The ACP binding tokenizes the card first and then
	// completes with the token (two sequential calls); the MCP binding
	// sends the card in a single complete_purchase tool call.
	CompletePurchase(ctx context.Context, sessionID string, card model.PaymentCard) (*model.OrderConfirmation, error)
}
