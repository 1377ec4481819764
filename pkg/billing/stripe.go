package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

const stripeSignatureHeader = "Stripe-Signature"

// Stripe is the card and PIX provider.
type Stripe struct {
	api           *client.API
	webhookSecret string
}

var _ Provider = (*Stripe)(nil)

// NewStripe returns a Stripe client. Both keys are required.
func NewStripe(cfg StripeConfig) (*Stripe, error) {
	if cfg.SecretKey == "" || cfg.WebhookSecret == "" {
		return nil, ErrMissingCredential
	}
	return &Stripe{api: client.New(cfg.SecretKey, nil), webhookSecret: cfg.WebhookSecret}, nil
}

func (p *Stripe) Name() string { return "stripe" }

// CreateCheckout opens a hosted card checkout session for the plan.
func (p *Stripe) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	price := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(strings.ToLower(req.Plan.Price.Currency)),
		UnitAmount: stripe.Int64(req.Plan.Price.Amount),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(req.Plan.Name),
		},
	}
	mode := stripe.CheckoutSessionModePayment
	if req.Purchase == entitlement.PurchaseRecurring {
		mode = stripe.CheckoutSessionModeSubscription
		price.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(mode)),
		ClientReferenceID: stripe.String(req.AccountID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{PriceData: price, Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx
	for k, v := range metadata(req.AccountID, req.Plan.ID, req.Purchase) {
		params.AddMetadata(k, v)
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}
	return &CheckoutSession{
		ID:        sess.ID,
		URL:       sess.URL,
		ExpiresAt: time.Unix(sess.ExpiresAt, 0).UTC(),
	}, nil
}

// CreatePixCharge creates a PIX payment intent and returns its QR payload.
func (p *Stripe) CreatePixCharge(ctx context.Context, req PixRequest) (*PixCharge, error) {
	if err := validatePix(req); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Plan.Price.Amount),
		Currency:           stripe.String(strings.ToLower(req.Plan.Price.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"pix"}),
		PaymentMethodOptions: &stripe.PaymentIntentPaymentMethodOptionsParams{
			Pix: &stripe.PaymentIntentPaymentMethodOptionsPixParams{
				ExpiresAfterSeconds: stripe.Int64(int64(PixTTL / time.Second)),
			},
		},
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	params.Context = ctx
	for k, v := range metadata(req.AccountID, req.Plan.ID, entitlement.PurchaseOneTime) {
		params.AddMetadata(k, v)
	}
	params.AddMetadata(metaSource, sourcePix)

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}
	return &PixCharge{
		ID:           pi.ID,
		Amount:       req.Plan.Price,
		ClientSecret: pi.ClientSecret,
		ExpiresAt:    time.Unix(pi.Created, 0).Add(PixTTL).UTC(),
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and maps
// checkout.session.completed, payment_intent.succeeded for PIX intents and
// customer.subscription.deleted. Everything else is EventIgnored.
func (p *Stripe) ParseWebhook(_ context.Context, payload []byte, header http.Header) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, header.Get(stripeSignatureHeader), p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	out := &Event{Kind: EventIgnored}
	switch evt.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		out = completionFromMetadata(sess.Metadata)
		if out.AccountID == "" && sess.ClientReferenceID != "" {
			out.AccountID = sess.ClientReferenceID
			out.Kind = EventCheckoutCompleted
			if out.PlanID == "" {
				out.Kind = EventIgnored
			}
		}
		if sess.Subscription != nil {
			out.SubscriptionID = sess.Subscription.ID
			out.Purchase = entitlement.PurchaseRecurring
		}
		if sess.Customer != nil {
			out.CustomerID = sess.Customer.ID
		}

	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		// Card checkouts also emit this event; only PIX intents carry our source tag.
		if pi.Metadata[metaSource] == sourcePix {
			out = completionFromMetadata(pi.Metadata)
			out.Purchase = entitlement.PurchaseOneTime
			if pi.Customer != nil {
				out.CustomerID = pi.Customer.ID
			}
		}

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		out = &Event{Kind: EventSubscriptionDeleted, SubscriptionID: sub.ID}
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
	}

	out.ID = evt.ID
	out.Provider = p.Name()
	out.Type = string(evt.Type)
	return out, nil
}
