package flow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/acp-commerce-poc/simulator/internal/simulator/intent"
	"github.com/acp-commerce-poc/simulator/internal/simulator/model"
	"github.com/acp-commerce-poc/simulator/internal/simulator/transport"
	logx "github.com/acp-commerce-poc/simulator/pkg/logger"
	"github.com/google/uuid"
)

// ErrTurnInFlight is returned when a user message arrives while a previous
// turn is still being processed. The caller is expected to keep the input
// surface disabled until the in-flight turn resolves.
var ErrTurnInFlight = errors.New("turn already in flight")

// Demo fixtures. The simulator always buys the same product, ships to the
// same address and pays with the shared test card.
const (
	demoQuery       = "Air Max"
	demoGTIN        = "00883419552502"
	demoDescription = "Nothing as fly, nothing as comfortable. The Nike Air Max 90 stays true to its OG running roots."
)

var (
	demoBuyer = model.BuyerInfo{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john.doe@example.com",
		Phone:     "+15035551234",
	}

	demoAddress = model.Address{
		Name:         "John Doe",
		AddressLine1: "3775 SW Morrison",
		City:         "Portland",
		State:        "OR",
		PostalCode:   "97220",
		Country:      "US",
	}

	demoCard = model.PaymentCard{
		CardNumber: "4242424242424242",
		ExpMonth:   12,
		ExpYear:    2025,
		CVC:        "123",
	}
)

// Assistant copy, one static string per flow step.
const (
	msgHelp              = "I can help you shop for Nike products! Try:\n• 'I want to buy Nike Air Max shoes'\n• 'Show me running shoes'\n• 'Add to cart'"
	msgProductFound      = "I found this Nike Air Max 90 for you:"
	msgSearchFailed      = "Sorry, I encountered an error searching for products. Please make sure the backend server is running."
	msgAddedToCart       = "Great! I've added the Nike Air Max 90 to your cart. Where would you like it shipped?"
	msgSearchFirst       = "Please search for a product first!"
	msgAddItemsFirst     = "Please add items to your cart first!"
	msgShippingComputed  = "Perfect! I've calculated shipping and tax for your order:"
	msgAddressFailed     = "Sorry, I had trouble processing that address. Please try again."
	msgCartEmpty         = "Your cart is empty. Would you like to browse Nike products?"
	msgNeedAddress       = "I need your shipping address to calculate the total. Where should I ship your order?"
	msgProcessingPayment = "I'll process your payment now using a test card (4242...)."
	msgOrderPlaced       = "🎉 Your order has been placed successfully!"
	msgCheckoutFailed    = "Sorry, there was an issue completing your purchase. Please try again."
)

type Config struct {
	ConversationID string
	TypingDelay    time.Duration
}

// Store routes user messages through the checkout flow: classify the
// utterance, drive the backend through the transport adapter, keep the
// single live session consistent with remote state and append formatted
// messages to the transcript.
//
// One logical thread of control: turns execute strictly one at a time and
// the session is only touched by the in-flight turn.
type Store struct {
	backend     transport.Backend
	transcript  model.TranscriptRepository
	cid         string
	typingDelay time.Duration

	mu      sync.Mutex
	busy    bool
	session *model.CheckoutSession
}

func NewStore(backend transport.Backend, transcript model.TranscriptRepository, cfg Config) *Store {
	cid := cfg.ConversationID
	if cid == "" {
		cid = uuid.NewString()
	}
	return &Store{
		backend:     backend,
		transcript:  transcript,
		cid:         cid,
		typingDelay: cfg.TypingDelay,
	}
}

// Session returns a detached copy of the live checkout session, or nil when
// none. Mutating the copy never reaches the store's own state.
func (s *Store) Session() *model.CheckoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSession(s.session)
}

// current returns the live session pointer for the in-flight turn. Only the
// turn holder mutates the session, so reading through the returned pointer
// is safe; the lock covers the pointer swap done by the turn handlers.
func (s *Store) current() *model.CheckoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func cloneSession(src *model.CheckoutSession) *model.CheckoutSession {
	if src == nil {
		return nil
	}
	cp := *src
	cp.LineItems = append([]model.LineItem(nil), src.LineItems...)
	cp.FulfillmentOptions = append([]model.FulfillmentOption(nil), src.FulfillmentOptions...)
	if src.FulfillmentAddress != nil {
		addr := *src.FulfillmentAddress
		cp.FulfillmentAddress = &addr
	}
	if src.BuyerInfo != nil {
		buyer := *src.BuyerInfo
		cp.BuyerInfo = &buyer
	}
	return &cp
}

// History loads the transcript for the renderer.
func (s *Store) History(ctx context.Context) (*model.TranscriptHistory, error) {
	return s.transcript.LoadHistory(ctx, s.cid)
}

// HandleUserMessage executes one turn: append the user message, wait out the
// typing delay, classify and dispatch. Returns ErrTurnInFlight when called
// while a previous turn has not resolved; that turn's input is dropped
// without touching transcript or session.
func (s *Store) HandleUserMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	if err := s.transcript.AddMessage(ctx, s.cid, model.UserMessage(text)); err != nil {
		return err
	}

	if s.typingDelay > 0 {
		time.Sleep(s.typingDelay)
	}

	it := intent.Classify(text, s.current())
	logx.Debug().Str("intent", it.String()).Str("conversationID", s.cid).Msg("classified turn")

	switch it {
	case intent.Search:
		return s.searchProducts(ctx)
	case intent.AddToCart:
		return s.addToCart(ctx)
	case intent.SetAddress:
		return s.addShippingAddress(ctx)
	case intent.Checkout:
		return s.initiateCheckout(ctx)
	case intent.Ignore:
		return nil
	default:
		return s.say(ctx, model.AssistantMessage(msgHelp))
	}
}

func (s *Store) searchProducts(ctx context.Context) error {
	items := []model.LineItemRequest{{GTIN: demoGTIN, Quantity: 1}}
	session, err := s.backend.CreateCheckoutSession(ctx, demoQuery, items, demoBuyer)
	if err != nil {
		logx.Error().Err(err).Msg("create checkout session failed")
		return s.say(ctx, model.AssistantMessage(msgSearchFailed))
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	msg := model.AssistantMessage(msgProductFound)
	if len(session.LineItems) > 0 {
		li := session.LineItems[0]
		currency := session.Currency
		if currency == "" {
			currency = "USD"
		}
		msg.Products = []model.Product{{
			GTIN:         li.GTIN,
			Title:        li.Title,
			Price:        li.UnitPrice,
			Currency:     currency,
			Description:  demoDescription,
			Availability: "in_stock",
		}}
	}
	return s.say(ctx, msg)
}

// addToCart is purely cosmetic: the session already holds the demo item, so
// this never calls the backend and never changes state.
func (s *Store) addToCart(ctx context.Context) error {
	if s.current() == nil {
		return s.say(ctx, model.AssistantMessage(msgSearchFirst))
	}
	return s.say(ctx, model.AssistantMessage(msgAddedToCart))
}

func (s *Store) addShippingAddress(ctx context.Context) error {
	live := s.current()
	if live == nil {
		return s.say(ctx, model.AssistantMessage(msgAddItemsFirst))
	}

	session, err := s.backend.AddShippingAddress(ctx, live.ID, demoAddress)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", live.ID).Msg("add shipping address failed")
		return s.say(ctx, model.AssistantMessage(msgAddressFailed))
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	msg := model.AssistantMessage(msgShippingComputed)
	msg.CheckoutSummary = session
	return s.say(ctx, msg)
}

func (s *Store) initiateCheckout(ctx context.Context) error {
	live := s.current()
	switch {
	case live == nil:
		return s.say(ctx, model.AssistantMessage(msgCartEmpty))
	case live.Status == model.StatusNotReadyForPayment:
		return s.say(ctx, model.AssistantMessage(msgNeedAddress))
	default:
		if err := s.say(ctx, model.AssistantMessage(msgProcessingPayment)); err != nil {
			return err
		}
		return s.completeCheckout(ctx, live.ID)
	}
}

func (s *Store) completeCheckout(ctx context.Context, sessionID string) error {
	confirmation, err := s.backend.CompletePurchase(ctx, sessionID, demoCard)
	if err != nil {
		// No compensation: a token from a half-finished sequence is
		// discarded and the session keeps its pre-attempt state.
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("complete purchase failed")
		return s.say(ctx, model.AssistantMessage(msgCheckoutFailed))
	}

	msg := model.AssistantMessage(msgOrderPlaced)
	msg.OrderConfirmation = confirmation
	if err := s.say(ctx, msg); err != nil {
		return err
	}

	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) say(ctx context.Context, msg *model.ChatMessage) error {
	return s.transcript.AddMessage(ctx, s.cid, msg)
}
