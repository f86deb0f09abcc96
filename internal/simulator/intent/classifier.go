package intent

import (
	"strings"

	"github.com/acp-commerce-poc/simulator/internal/simulator/model"
)

// Intent is the commerce action inferred from a user utterance.
type Intent int

const (
	// Search creates a checkout session for the demo product.
	Search Intent = iota
	// AddToCart acknowledges the cart without any backend call.
	AddToCart
	// SetAddress submits the demo shipping address to the live session.
	SetAddress
	// Checkout drives payment when the session is ready for it.
	Checkout
	// Ignore drops the turn: buy keywords while the session is already
	// past the address stage.
	Ignore
	// Fallback emits the static help message.
	Fallback
)

func (i Intent) String() string {
	switch i {
	case Search:
		return "search"
	case AddToCart:
		return "add_to_cart"
	case SetAddress:
		return "set_address"
	case Checkout:
		return "checkout"
	case Ignore:
		return "ignore"
	default:
		return "fallback"
	}
}

var (
	buyKeywords      = []string{"buy", "air max", "nike", "shoes"}
	cartKeywords     = []string{"cart", "add"}
	shipKeywords     = []string{"ship", "address", "portland", "york"}
	checkoutKeywords = []string{"complete", "checkout", "pay", "yes"}
)

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Classify maps a raw utterance to an Intent. This is a priority-ordered
// keyword table, not a general classifier: rules are checked top to bottom
// against the lowercased utterance and the first match wins. The current
// session (nil when none is live) disambiguates the buy rule and the
// fallback: unrecognized text while the session is waiting for an address
// is assumed to be address input.
func Classify(utterance string, session *model.CheckoutSession) Intent {
	s := strings.ToLower(utterance)

	switch {
	case containsAny(s, buyKeywords):
		if session == nil {
			return Search
		}
		if session.Status == model.StatusNotReadyForPayment {
			return SetAddress
		}
		return Ignore
	case containsAny(s, cartKeywords):
		return AddToCart
	case containsAny(s, shipKeywords):
		return SetAddress
	case containsAny(s, checkoutKeywords):
		return Checkout
	default:
		if session != nil && session.Status == model.StatusNotReadyForPayment {
			return SetAddress
		}
		return Fallback
	}
}
