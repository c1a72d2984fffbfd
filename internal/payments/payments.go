// Package payments issues Stripe Checkout links for booked appointments.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"barberbook/internal/config"
	"barberbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

var ErrNotPayable = errors.New("appointment is not payable")

// CreateFunc creates a checkout session. Production uses the Stripe API.
type CreateFunc func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

type Checkout struct {
	cfg    config.PaymentsConfig
	create CreateFunc
	logger *zerolog.Logger
}

func NewCheckout(cfg config.PaymentsConfig, logger *zerolog.Logger) *Checkout {
	client := &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.StripeSecretKey}
	return newCheckout(cfg, client.New, logger)
}

func newCheckout(cfg config.PaymentsConfig, create CreateFunc, logger *zerolog.Logger) *Checkout {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Checkout{cfg: cfg, create: create, logger: logger}
}

// CheckoutURL returns a hosted payment page for the appointment price.
func (c *Checkout) CheckoutURL(ctx context.Context, appt *models.Appointment) (string, error) {
	if !appt.IsBooked() || appt.ServicePrice <= 0 {
		return "", ErrNotPayable
	}

	params := c.params(appt)
	params.Context = ctx

	s, err := c.create(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	if s.URL == "" {
		return "", fmt.Errorf("checkout session %s has no url", s.ID)
	}

	c.logger.Info().
		Int64("appointment_id", appt.ID).
		Str("session_id", s.ID).
		Msg("checkout session created")
	return s.URL, nil
}

func (c *Checkout) params(appt *models.Appointment) *stripe.CheckoutSessionParams {
	id := strconv.FormatInt(appt.ID, 10)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		ClientReferenceID: stripe.String(id),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(c.cfg.Currency),
					UnitAmount: stripe.Int64(appt.ServicePrice),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%s with %s", appt.ServiceName, appt.ProviderName)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddMetadata("appointment_id", id)
	params.AddMetadata("customer_id", strconv.FormatInt(appt.CustomerID, 10))
	return params
}
