package data

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"feastly/membership-service/internal/biz"
	"feastly/membership-service/internal/conf"
	"feastly/membership-service/internal/constants"
	bizErrors "feastly/membership-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// stripeGateway implements the card tokenization/charge collaborator over
// the Stripe API. Raw card data passes through Tokenize and is gone; only
// opaque tokens ever reach the rest of the service.
type stripeGateway struct {
	api      *client.API
	currency string
	log      *log.Helper
}

// NewStripeGateway creates the Stripe-backed payment gateway.
func NewStripeGateway(c *conf.Bootstrap, logger log.Logger) biz.Gateway {
	api := &client.API{}
	api.Init(c.Gateway.StripeKey, nil)

	currency := constants.DefaultCurrency
	if c.Gateway.Currency != "" {
		currency = c.Gateway.Currency
	}
	return &stripeGateway{
		api:      api,
		currency: currency,
		log:      log.NewHelper(logger),
	}
}

func (g *stripeGateway) Tokenize(ctx context.Context, card biz.CardDetails) (string, error) {
	params := &stripe.TokenParams{
		Card: &stripe.CardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.String(strconv.Itoa(card.ExpMonth)),
			ExpYear:  stripe.String(strconv.Itoa(card.ExpYear)),
			CVC:      stripe.String(card.CVC),
			Name:     stripe.String(card.NameOnCard),
		},
	}
	params.Context = ctx

	tok, err := g.api.Tokens.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			g.log.Infof("Card rejected at tokenization: %s", stripeErr.Code)
			return "", bizErrors.InvalidCard("card was rejected by the payment gateway")
		}
		g.log.Errorf("Tokenization failed: %v", err)
		return "", bizErrors.GatewayUnavailable("card tokenization is temporarily unavailable")
	}
	return tok.ID, nil
}

// Charge bills the token. A card decline is an ordinary failed outcome; only
// transport-level trouble comes back as an error, and callers treat both
// identically as a failed charge.
func (g *stripeGateway) Charge(ctx context.Context, amount decimal.Decimal, currency, token string) (*biz.ChargeResult, error) {
	if currency == "" {
		currency = g.currency
	}
	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(toMinorUnits(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx
	if err := params.SetSource(token); err != nil {
		return nil, err
	}

	ch, err := g.api.Charges.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			g.log.Infof("Charge declined: %s", stripeErr.Code)
			return &biz.ChargeResult{Completed: false}, nil
		}
		return nil, err
	}

	return &biz.ChargeResult{
		TransactionID: ch.ID,
		Completed:     ch.Status == stripe.ChargeStatusSucceeded,
	}, nil
}

// toMinorUnits converts a decimal major-unit amount to the gateway's integer
// minor units (two decimal places).
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
