package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anneth/shop/internal/domain"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeConfig struct {
	SecretKey  string
	Currency   string
	SuccessURL string
	CancelURL  string
	// Backends overrides the Stripe API endpoint; nil uses the public API.
	Backends *stripe.Backends
}

// StripeGateway opens Stripe Checkout sessions and reads payment intents.
// Calls are never retried here; a circuit breaker stops hammering Stripe
// while it is failing.
type StripeGateway struct {
	api      *client.API
	breaker  *gobreaker.CircuitBreaker[any]
	currency string
	success  string
	cancel   string
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, cfg.Backends)

	currency := cfg.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	return &StripeGateway{
		api:      api,
		breaker:  newBreaker("stripe"),
		currency: currency,
		success:  cfg.SuccessURL,
		cancel:   cfg.CancelURL,
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up says nothing about Stripe's health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if req.Cart == nil || req.Cart.IsEmpty() {
		return nil, domain.ErrCartEmpty
	}

	params := g.sessionParams(req)
	params.Context = ctx

	result, err := g.breaker.Execute(func() (any, error) {
		return g.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return nil, gatewayError("create checkout session", err)
	}

	cs := result.(*stripe.CheckoutSession)
	session := &Session{
		ID:            cs.ID,
		URL:           cs.URL,
		PaymentStatus: string(cs.PaymentStatus),
	}
	if cs.PaymentIntent != nil {
		session.PaymentIntentID = cs.PaymentIntent.ID
	}
	return session, nil
}

func (g *StripeGateway) RetrievePaymentIntentStatus(ctx context.Context, intentID string) (IntentStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	result, err := g.breaker.Execute(func() (any, error) {
		return g.api.PaymentIntents.Get(intentID, params)
	})
	if err != nil {
		return IntentStatus{}, gatewayError("retrieve payment intent", err)
	}

	raw := string(result.(*stripe.PaymentIntent).Status)
	return IntentStatus{Raw: raw, Outcome: ClassifyIntentStatus(raw)}, nil
}

func (g *StripeGateway) sessionParams(req SessionRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Cart.Items))
	for _, item := range req.Cart.Items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name + " product"),
		}
		if item.Image != "" {
			productData.Images = stripe.StringSlice([]string{item.Image})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(g.currency),
				UnitAmount:  stripe.Int64(domain.ToMinorUnits(item.DiscountPrice)),
				ProductData: productData,
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(g.success),
		CancelURL:          stripe.String(g.cancel),
		LineItems:          lineItems,
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type:        stripe.String("fixed_amount"),
				DisplayName: stripe.String("Standard Shipping"),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(domain.ToMinorUnits(req.Cart.DeliveryFee)),
					Currency: stripe.String(g.currency),
				},
				DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
					Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(3),
					},
					Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(9),
					},
				},
			},
		}},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	return params
}

func gatewayError(op string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%s: %w", op, domain.ErrGatewayUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, domain.ErrUpstreamTimeout)
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fmt.Errorf("%s: %w: %s (%s)", op, domain.ErrPaymentGateway, stripeErr.Msg, stripeErr.Type)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrPaymentGateway, err)
}
