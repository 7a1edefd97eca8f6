package mockapi

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/validator"
)

// Test card numbers with fixed outcomes. Any other well-formed number is
// approved.
const (
	CardApproved = "4111111111111111"
	CardDeclined = "4000000000000000"
	CardInvalid  = "4000000000009999"
)

const (
	msgDeclined    = "Your card was declined"
	msgInvalidCard = "Invalid card number"
)

// PaymentMethods lists the methods offered by GET /payment/methods.
func PaymentMethods() []domain.PaymentMethod {
	return []domain.PaymentMethod{
		{ID: domain.MethodCreditCard, Name: "Credit Card", Description: "Pay with Visa, Mastercard, or American Express", Icon: "💳"},
		{ID: domain.MethodPayPal, Name: "PayPal", Description: "Pay with your PayPal account", Icon: "🅿️"},
		{ID: domain.MethodApplePay, Name: "Apple Pay", Description: "Pay with Apple Pay", Icon: "🍎"},
		{ID: domain.MethodGooglePay, Name: "Google Pay", Description: "Pay with Google Pay", Icon: "🔵"},
	}
}

// paymentDecline is a rejected charge, rendered as {success:false, message}.
type paymentDecline struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// charge decides the outcome of req. It returns the order on approval and
// the decline otherwise.
func charge(req domain.PaymentRequest, now time.Time) (*domain.Order, *paymentDecline) {
	method := req.PaymentMethod
	if method == "" {
		method = domain.MethodCreditCard
	}

	summary := domain.CardSummary{Brand: methodBrand(method)}
	if method == domain.MethodCreditCard {
		card := validator.StripSeparators(req.CardNumber)
		switch {
		case card == CardDeclined:
			return nil, &paymentDecline{Message: msgDeclined}
		case card == CardInvalid, !validator.IsCardNumber(card):
			return nil, &paymentDecline{Message: msgInvalidCard}
		}
		summary = domain.CardSummary{Brand: cardBrand(card), LastFour: card[len(card)-4:]}
	}

	return &domain.Order{
		Success:       true,
		OrderID:       "ORD-" + shortID(),
		TransactionID: "TXN-" + shortID(),
		Timestamp:     now.UTC().Format(time.RFC3339),
		Status:        "completed",
		PaymentMethod: summary,
		Amount:        req.Amount,
		Currency:      "USD",
		Items:         req.Items,
		Message:       "Payment processed successfully",
	}, nil
}

func cardBrand(card string) string {
	switch {
	case strings.HasPrefix(card, "4"):
		return "Visa"
	case strings.HasPrefix(card, "5"):
		return "Mastercard"
	case strings.HasPrefix(card, "34"), strings.HasPrefix(card, "37"):
		return "American Express"
	case strings.HasPrefix(card, "6"):
		return "Discover"
	default:
		return "Card"
	}
}

func methodBrand(method string) string {
	for _, m := range PaymentMethods() {
		if m.ID == method {
			return m.Name
		}
	}
	return method
}

func shortID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
