package billing

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

// Metadata keys attached to every checkout and charge so webhooks can be
// routed back to the account.
const (
	metaAccountID = "account_id"
	metaPlanID    = "plan_id"
	metaPurchase  = "purchase"
	metaSource    = "source"
	sourcePix     = "pix"
)

// PixTTL is how long a PIX charge stays payable.
const PixTTL = 24 * time.Hour

// Provider is a payment gateway.
type Provider interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	CreatePixCharge(ctx context.Context, req PixRequest) (*PixCharge, error)
	ParseWebhook(ctx context.Context, payload []byte, header http.Header) (*Event, error)
}

// Simulating providers can settle their own charges without a gateway.
type Simulating interface {
	SimulatePayment(ctx context.Context, chargeID string) (*Event, error)
}

// CheckoutRequest opens a hosted card checkout for one plan.
type CheckoutRequest struct {
	AccountID  string
	Email      string
	Plan       entitlement.Plan
	Purchase   entitlement.Purchase
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the provider's hosted checkout.
type CheckoutSession struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PixRequest opens a one-time PIX charge for one plan.
type PixRequest struct {
	AccountID string
	Email     string
	Name      string
	Plan      entitlement.Plan
}

// PixCharge is a payable PIX charge. Stripe charges are confirmed client side
// with ClientSecret; simulated charges carry a BR Code and QR image instead.
type PixCharge struct {
	ID           string            `json:"id"`
	Amount       entitlement.Money `json:"amount"`
	ClientSecret string            `json:"client_secret,omitempty"`
	BRCode       string            `json:"br_code,omitempty"`
	QRCode       string            `json:"qr_code,omitempty"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Simulated    bool              `json:"simulated"`
}

// EventKind classifies a webhook delivery.
type EventKind string

const (
	EventCheckoutCompleted   EventKind = "checkout_completed"
	EventSubscriptionDeleted EventKind = "subscription_deleted"
	EventIgnored             EventKind = "ignored"
)

// Event is a verified, provider-neutral webhook delivery.
type Event struct {
	ID             string
	Provider       string
	Type           string // provider event type, for logging
	Kind           EventKind
	AccountID      string
	PlanID         entitlement.PlanID
	Purchase       entitlement.Purchase
	SubscriptionID string
	CustomerID     string
}

// Completion converts a checkout event into the engine entrypoint payload.
func (e Event) Completion() entitlement.CheckoutCompletion {
	return entitlement.CheckoutCompletion{
		AccountID:      e.AccountID,
		PlanID:         e.PlanID,
		Purchase:       e.Purchase,
		SubscriptionID: e.SubscriptionID,
		CustomerID:     e.CustomerID,
	}
}

func metadata(accountID string, plan entitlement.PlanID, purchase entitlement.Purchase) map[string]string {
	return map[string]string{
		metaAccountID: accountID,
		metaPlanID:    string(plan),
		metaPurchase:  string(purchase),
	}
}

// completionFromMetadata builds a checkout event from metadata written by
// metadata(). Missing routing keys downgrade the event to EventIgnored.
func completionFromMetadata(md map[string]string) *Event {
	ev := &Event{
		Kind:      EventCheckoutCompleted,
		AccountID: md[metaAccountID],
		PlanID:    entitlement.PlanID(md[metaPlanID]),
		Purchase:  entitlement.Purchase(md[metaPurchase]),
	}
	if ev.AccountID == "" || ev.PlanID == "" {
		ev.Kind = EventIgnored
	}
	if ev.Purchase == "" {
		ev.Purchase = entitlement.PurchaseOneTime
	}
	return ev
}

func validateCheckout(req CheckoutRequest) error {
	if req.AccountID == "" {
		return ErrMissingAccount
	}
	if req.Plan.ID == "" || req.Plan.ID == entitlement.PlanFree || req.Plan.Price.Amount <= 0 {
		return entitlement.ErrPlanNotEligible
	}
	switch req.Purchase {
	case entitlement.PurchaseRecurring, entitlement.PurchaseOneTime:
	default:
		return ErrInvalidPurchase
	}
	return nil
}

func validatePix(req PixRequest) error {
	if req.AccountID == "" {
		return ErrMissingAccount
	}
	if req.Plan.ID == "" || req.Plan.ID == entitlement.PlanFree || req.Plan.Price.Amount <= 0 {
		return entitlement.ErrPlanNotEligible
	}
	return nil
}
