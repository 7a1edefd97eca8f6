package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func (c *cli) checkoutCmd() *cobra.Command {
	var form checkout.Form
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Pay for the items in your cart",
		Long: "Pay for the items in your cart. Card flags are required for credit card payments.\n" +
			"The cart is snapshotted when checkout starts; the amount charged is the snapshot total.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			orch, err := c.app.BeginCheckout(ctx)
			if err != nil {
				return err
			}

			s := orch.Session()
			fmt.Fprintln(c.out, "Order summary")
			for _, line := range s.Items {
				fmt.Fprintf(c.out, "  %d x %s  %s\n", line.Quantity, line.Name, money(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))))
			}
			fmt.Fprintf(c.out, "  Subtotal  %s\n", money(s.Subtotal))
			fmt.Fprintf(c.out, "  Tax       %s\n", money(s.Tax()))
			fmt.Fprintf(c.out, "  Total     %s\n\n", money(s.Total))

			if err := orch.SetForm(form); err != nil {
				return err
			}
			if _, err := orch.Submit(ctx); err != nil {
				if orch.State() == checkout.Failed {
					return &apperrors.AppError{Code: "PAYMENT_FAILED", Message: orch.Reason(), Err: err}
				}
				return err
			}

			conf, _ := orch.Result()
			c.printConfirmation(conf)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&form.PaymentMethod, "method", domain.MethodCreditCard, "payment method: credit_card, paypal, apple_pay or google_pay")
	f.StringVar(&form.Card.CardNumber, "card", "", "card number")
	f.StringVar(&form.Card.ExpiryDate, "expiry", "", "card expiry (MM/YY)")
	f.StringVar(&form.Card.CVV, "cvv", "", "card security code")
	f.StringVar(&form.Card.CardholderName, "cardholder", "", "name on the card")
	f.StringVar(&form.Billing.Email, "email", "", "billing email")
	f.StringVar(&form.Billing.FirstName, "first-name", "", "billing first name")
	f.StringVar(&form.Billing.LastName, "last-name", "", "billing last name")
	f.StringVar(&form.Billing.Address, "address", "", "billing street address")
	f.StringVar(&form.Billing.City, "city", "", "billing city")
	f.StringVar(&form.Billing.State, "state", "", "billing state")
	f.StringVar(&form.Billing.ZipCode, "zip", "", "billing ZIP code")
	f.StringVar(&form.Billing.Country, "country", "", "billing country (default "+domain.DefaultCountry+")")
	return cmd
}

func (c *cli) printConfirmation(conf *checkout.Confirmation) {
	o := conf.Order
	fmt.Fprintln(c.out, "Order confirmed!")
	fmt.Fprintf(c.out, "  Order:        %s\n", o.OrderID)
	fmt.Fprintf(c.out, "  Transaction:  %s\n", o.TransactionID)
	fmt.Fprintf(c.out, "  Amount:       %s %s\n", money(o.Amount), o.Currency)
	if o.PaymentMethod.LastFour != "" {
		fmt.Fprintf(c.out, "  Paid with:    %s ending in %s\n", o.PaymentMethod.Brand, o.PaymentMethod.LastFour)
	} else if o.PaymentMethod.Brand != "" {
		fmt.Fprintf(c.out, "  Paid with:    %s\n", o.PaymentMethod.Brand)
	}
	fmt.Fprintf(c.out, "  Receipt sent to %s\n", conf.Billing.Email)
}
