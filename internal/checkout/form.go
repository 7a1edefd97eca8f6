package checkout

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// CardForm holds the card fields, validated only for credit card payments.
type CardForm struct {
	CardNumber     string `json:"cardNumber" validate:"required,cardnumber"`
	ExpiryDate     string `json:"expiryDate" validate:"required,expiry"`
	CVV            string `json:"cvv" validate:"required,cvv"`
	CardholderName string `json:"cardholderName" validate:"required"`
}

// BillingForm holds the billing address fields.
type BillingForm struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zipCode" validate:"required"`
	Country   string `json:"country"`
}

// Form is the checkout input. An empty PaymentMethod means credit card.
type Form struct {
	PaymentMethod string      `json:"paymentMethod"`
	Card          CardForm    `json:"card"`
	Billing       BillingForm `json:"billing"`
}

var knownMethods = []string{
	domain.MethodCreditCard,
	domain.MethodPayPal,
	domain.MethodApplePay,
	domain.MethodGooglePay,
}

// Method returns the selected payment method.
func (f Form) Method() string {
	if f.PaymentMethod == "" {
		return domain.MethodCreditCard
	}
	return f.PaymentMethod
}

// Validate checks the form and returns a validation AppError listing every
// failing field. The message names the first one.
func (f Form) Validate() error {
	var first string
	fields := make(map[string]string)

	collect := func(err error) error {
		if err == nil {
			return nil
		}
		var ve *validator.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		if first == "" {
			first = ve.First()
		}
		maps.Copy(fields, ve.Fields())
		return nil
	}

	if !slices.Contains(knownMethods, f.Method()) {
		first = "payment method is not supported"
		fields["paymentMethod"] = "must be one of: " + strings.Join(knownMethods, ", ")
	}
	if f.Method() == domain.MethodCreditCard {
		if err := collect(validator.Validate(f.Card)); err != nil {
			return err
		}
	}
	if err := collect(validator.Validate(f.Billing)); err != nil {
		return err
	}

	if len(fields) > 0 {
		return apperrors.Validation(first, fields)
	}
	return nil
}

// billingAddress converts the form to the wire address, defaulting the
// country.
func (f Form) billingAddress() domain.BillingAddress {
	country := f.Billing.Country
	if country == "" {
		country = domain.DefaultCountry
	}
	return domain.BillingAddress{
		Email:     f.Billing.Email,
		FirstName: f.Billing.FirstName,
		LastName:  f.Billing.LastName,
		Address:   f.Billing.Address,
		City:      f.Billing.City,
		State:     f.Billing.State,
		ZipCode:   f.Billing.ZipCode,
		Country:   country,
	}
}
