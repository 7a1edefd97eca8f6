// Package checkout drives a single checkout from a cart snapshot to a
// confirmed order.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/broadcast"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// FallbackReason is shown when a payment fails without a server message.
const FallbackReason = "Payment failed. Please try again."

// ErrSubmitInProgress is returned by Submit while a payment is in flight.
var ErrSubmitInProgress = errors.New("payment submission already in progress")

// State is the orchestrator's position in the checkout flow.
type State int

const (
	Collecting State = iota
	Validating
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// API is the subset of the storefront API used at checkout.
type API interface {
	ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.Order, error)
	ClearCart(ctx context.Context) error
	PaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error)
}

// Confirmation is what the confirmation view shows after a successful payment.
type Confirmation struct {
	Order   domain.Order
	Billing domain.BillingAddress
}

// NewSession snapshots cart for checkout. It fails with InvalidSession when
// the cart has no resolved items.
func NewSession(cart *domain.Cart, taxRate decimal.Decimal) (*domain.CheckoutSession, error) {
	s := domain.NewCheckoutSession(cart, taxRate)
	if s.Empty() {
		return nil, apperrors.InvalidSession("your cart is empty")
	}
	return s, nil
}

// Orchestrator runs one checkout. It is safe for concurrent use.
type Orchestrator struct {
	api      API
	notifier broadcast.Notifier
	logger   *slog.Logger

	mu           sync.Mutex
	session      *domain.CheckoutSession
	state        State
	reason       string
	form         Form
	confirmation *Confirmation
}

// New starts a checkout for session.
func New(session *domain.CheckoutSession, api API, notifier broadcast.Notifier, log *slog.Logger) (*Orchestrator, error) {
	if session.Empty() {
		return nil, apperrors.InvalidSession("no checkout session, return to the cart")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Orchestrator{
		api:      api,
		notifier: notifier,
		logger:   log,
		session:  session,
		state:    Collecting,
	}, nil
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Reason returns the failure message while in Failed.
func (o *Orchestrator) Reason() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reason
}

// Session returns the checkout snapshot, or nil once the checkout has
// succeeded or been abandoned.
func (o *Orchestrator) Session() *domain.CheckoutSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Form returns the current form input.
func (o *Orchestrator) Form() Form {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.form
}

// SetForm replaces the form input and returns to Collecting.
func (o *Orchestrator) SetForm(f Form) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case o.state == Submitting:
		return ErrSubmitInProgress
	case o.session == nil:
		return apperrors.InvalidSession("checkout is no longer active")
	}
	o.form = f
	o.state = Collecting
	o.reason = ""
	return nil
}

// Result returns the confirmed order after a successful payment.
func (o *Orchestrator) Result() (*Confirmation, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.confirmation == nil {
		return nil, false
	}
	c := *o.confirmation
	return &c, true
}

// PaymentMethods lists the methods the user can choose from.
func (o *Orchestrator) PaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	return o.api.PaymentMethods(ctx)
}

// Abandon drops the checkout session, as when the user navigates away.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Succeeded {
		o.session = nil
	}
}

// Submit validates the form and sends exactly one payment request. While a
// submission is in flight further calls return ErrSubmitInProgress without
// contacting the API. On success the remote cart is cleared and one
// cart-changed signal is emitted; on failure the form is kept so the user can
// correct it and submit again.
func (o *Orchestrator) Submit(ctx context.Context) (*domain.Order, error) {
	req, form, err := o.begin()
	if err != nil {
		return nil, err
	}

	order, err := o.api.ProcessPayment(ctx, req)
	if err == nil && (order == nil || !order.Success) {
		msg := ""
		if order != nil {
			msg = order.Message
		}
		err = apperrors.RemoteRejected(http.StatusOK, msg)
	}
	if err != nil {
		reason := failureReason(err)
		o.mu.Lock()
		o.state = Failed
		o.reason = reason
		o.mu.Unlock()

		o.logger.WarnContext(ctx, "payment failed",
			slog.String("reason", reason),
			slog.String("amount", req.Amount.StringFixed(2)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	// Payment is authoritative: a failed clear is logged and does not change
	// the outcome.
	if cerr := o.api.ClearCart(context.WithoutCancel(ctx)); cerr != nil {
		o.logger.ErrorContext(ctx, "failed to clear cart after payment",
			slog.String("order_id", order.OrderID),
			slog.String("error", cerr.Error()),
		)
	}

	o.mu.Lock()
	o.state = Succeeded
	o.session = nil
	o.confirmation = &Confirmation{Order: *order, Billing: form.billingAddress()}
	o.mu.Unlock()

	if o.notifier != nil {
		o.notifier.Notify()
	}

	o.logger.InfoContext(ctx, "payment succeeded",
		slog.String("order_id", order.OrderID),
		slog.String("transaction_id", order.TransactionID),
		slog.String("amount", order.Amount.StringFixed(2)),
	)
	return order, nil
}

// begin validates under the lock and moves to Submitting, returning the
// payment request built from the session snapshot.
func (o *Orchestrator) begin() (domain.PaymentRequest, Form, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.state == Submitting:
		return domain.PaymentRequest{}, Form{}, ErrSubmitInProgress
	case o.session == nil:
		return domain.PaymentRequest{}, Form{}, apperrors.InvalidSession("checkout is no longer active")
	}

	o.state = Validating
	if err := o.form.Validate(); err != nil {
		o.state = Collecting
		o.reason = ""
		return domain.PaymentRequest{}, Form{}, err
	}

	o.state = Submitting
	o.reason = ""
	f := o.form
	return domain.PaymentRequest{
		CardNumber:     validator.StripSeparators(f.Card.CardNumber),
		ExpiryDate:     f.Card.ExpiryDate,
		CVV:            f.Card.CVV,
		CardholderName: f.Card.CardholderName,
		BillingAddress: f.billingAddress(),
		Amount:         o.session.Total,
		Items:          slices.Clone(o.session.Items),
		PaymentMethod:  f.Method(),
	}, f, nil
}

func failureReason(err error) string {
	if errors.Is(err, apperrors.ErrNetwork) {
		return FallbackReason
	}
	return apperrors.Message(err, FallbackReason)
}
