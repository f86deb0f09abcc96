package model

// SessionStatus mirrors the checkout session lifecycle reported by the
// commerce backend. The wire names are the backend's, not ours.
type SessionStatus string

const (
	StatusNotReadyForPayment SessionStatus = "not_ready_for_payment"
	StatusReadyForPayment    SessionStatus = "ready_for_payment"
	StatusCompleted          SessionStatus = "completed"
	StatusCanceled           SessionStatus = "canceled"
)

// Money is a backend-formatted amount. Values arrive as decimal strings and
// are passed through untouched so totals render exactly as computed remotely.
type Money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Totals is the full price breakdown of a checkout session.
type Totals struct {
	ItemsTotal  Money `json:"items_total"`
	Discounts   Money `json:"discounts"`
	Subtotal    Money `json:"subtotal"`
	Fulfillment Money `json:"fulfillment"`
	Taxes       Money `json:"taxes"`
	Fees        Money `json:"fees"`
	Total       Money `json:"total"`
}

type LineItem struct {
	GTIN      string  `json:"gtin"`
	ProductID string  `json:"product_id,omitempty"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// LineItemRequest is the client-side item reference used when creating a
// session: the product key plus a quantity, nothing else.
type LineItemRequest struct {
	GTIN     string `json:"gtin"`
	Quantity int    `json:"quantity"`
}

type Address struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

type BuyerInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// PaymentCard holds raw card fields for tokenization. The demo only ever
// sends the shared test card.
type PaymentCard struct {
	CardNumber string `json:"card_number"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVC        string `json:"cvc"`
}

type FulfillmentOption struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Cost            string `json:"cost"`
	DeliveryMinDays int    `json:"delivery_min_days,omitempty"`
	DeliveryMaxDays int    `json:"delivery_max_days,omitempty"`
}

// CheckoutSession is the canonical session shape shared by both transport
// bindings. The ACP binding decodes it directly from backend JSON; the MCP
// binding re-projects tool payloads into it. At most one session is live at
// a time and every successful backend response replaces it wholesale.
type CheckoutSession struct {
	ID                          string              `json:"id"`
	Status                      SessionStatus       `json:"status"`
	Currency                    string              `json:"currency"`
	LineItems                   []LineItem          `json:"line_items"`
	FulfillmentAddress          *Address            `json:"fulfillment_address,omitempty"`
	FulfillmentOptions          []FulfillmentOption `json:"fulfillment_options,omitempty"`
	SelectedFulfillmentOptionID string              `json:"selected_fulfillment_option_id,omitempty"`
	Totals                      Totals              `json:"totals"`
	BuyerInfo                   *BuyerInfo          `json:"buyer_info,omitempty"`
}

// Product is what gets attached to a search result message. Sourced from
// backend line items; the client never invents pricing.
type Product struct {
	GTIN         string  `json:"gtin"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Description  string  `json:"description"`
	Availability string  `json:"availability"`
}

type Order struct {
	ID                string `json:"id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	Permalink         string `json:"permalink"`
	CreatedAt         string `json:"created_at"`
}

type OrderMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// OrderConfirmation is the terminal payload of a completed purchase.
// Created once and never mutated after it is attached to a message.
type OrderConfirmation struct {
	SessionID string         `json:"id"`
	Status    SessionStatus  `json:"status"`
	Order     Order          `json:"order"`
	Messages  []OrderMessage `json:"messages,omitempty"`
}
