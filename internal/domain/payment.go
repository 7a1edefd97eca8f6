package domain

import "github.com/shopspring/decimal"

// Payment method identifiers.
const (
	MethodCreditCard = "credit_card"
	MethodPayPal     = "paypal"
	MethodApplePay   = "apple_pay"
	MethodGooglePay  = "google_pay"
)

// DefaultCountry is sent when the billing form has no country.
const DefaultCountry = "United States"

// PaymentMethod is a selectable way to pay.
type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// BillingAddress is sent with a payment.
type BillingAddress struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

// PaymentRequest is the body of POST /payment/process.
type PaymentRequest struct {
	CardNumber     string          `json:"cardNumber"`
	ExpiryDate     string          `json:"expiryDate"`
	CVV            string          `json:"cvv"`
	CardholderName string          `json:"cardholderName"`
	BillingAddress BillingAddress  `json:"billingAddress"`
	Amount         decimal.Decimal `json:"amount"`
	Items          []CheckoutLine  `json:"items"`
	PaymentMethod  string          `json:"paymentMethod,omitempty"`
}

// CardSummary identifies the card that was charged.
type CardSummary struct {
	Brand    string `json:"brand"`
	LastFour string `json:"lastFour"`
}

// Order is the payment response handed to the confirmation view unchanged.
type Order struct {
	Success       bool            `json:"success"`
	OrderID       string          `json:"orderId"`
	TransactionID string          `json:"transactionId"`
	Timestamp     string          `json:"timestamp"`
	Status        string          `json:"status"`
	PaymentMethod CardSummary     `json:"paymentMethod"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Items         []CheckoutLine  `json:"items"`
	Message       string          `json:"message,omitempty"`
}
