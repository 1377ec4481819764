package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/qrcode"
	"github.com/dmitrymomot/lessonkit/pkg/token"
)

const (
	simulatedPixPrefix     = "pi_test_pix_"
	simulatedSessionPrefix = "cs_test_sim_"
	simulatedSubPrefix     = "sub_test_sim_"
)

// Simulator is a development Provider. Charges stay pending in memory until
// SimulatePayment settles them; each charge settles at most once.
type Simulator struct {
	cfg SimulatorConfig
	now func() time.Time

	mu      sync.Mutex
	pending map[string]pendingCharge
}

type pendingCharge struct {
	event     Event
	expiresAt time.Time
}

var (
	_ Provider   = (*Simulator)(nil)
	_ Simulating = (*Simulator)(nil)
)

// NewSimulator returns a Simulator. A nil now uses time.Now.
func NewSimulator(cfg SimulatorConfig, now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{cfg: cfg, now: now, pending: make(map[string]pendingCharge)}
}

func (s *Simulator) Name() string { return "simulated" }

// CreateCheckout returns a local simulate URL in place of a hosted page.
// POSTing to it settles the session through SimulatePayment.
func (s *Simulator) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}
	id, err := s.newID(simulatedSessionPrefix)
	if err != nil {
		return nil, err
	}

	ev := Event{
		ID:         id,
		Provider:   s.Name(),
		Type:       "checkout.simulated",
		Kind:       EventCheckoutCompleted,
		AccountID:  req.AccountID,
		PlanID:     req.Plan.ID,
		Purchase:   req.Purchase,
		CustomerID: "cus_test_sim_" + req.AccountID,
	}
	if req.Purchase == entitlement.PurchaseRecurring {
		ev.SubscriptionID = simulatedSubPrefix + strings.TrimPrefix(id, simulatedSessionPrefix)
	}

	expires := s.now().Add(PixTTL)
	s.store(id, ev, expires)

	return &CheckoutSession{
		ID:        id,
		URL:       strings.TrimRight(s.cfg.BaseURL, "/") + "/billing/pix/" + id + "/simulate",
		ExpiresAt: expires,
	}, nil
}

// CreatePixCharge builds a real BR Code for the charge and keeps it pending
// until SimulatePayment settles it or PixTTL passes.
func (s *Simulator) CreatePixCharge(_ context.Context, req PixRequest) (*PixCharge, error) {
	if err := validatePix(req); err != nil {
		return nil, err
	}
	id, err := s.newID(simulatedPixPrefix)
	if err != nil {
		return nil, err
	}

	code := BRCode{
		Key:          s.cfg.PixKey,
		MerchantName: s.cfg.MerchantName,
		MerchantCity: s.cfg.MerchantCity,
		Amount:       req.Plan.Price,
		TxID:         strings.TrimPrefix(id, simulatedPixPrefix),
	}.String()
	qr, err := qrcode.DataURI(code, 0)
	if err != nil {
		return nil, err
	}

	expires := s.now().Add(PixTTL)
	s.store(id, Event{
		ID:        id,
		Provider:  s.Name(),
		Type:      "pix.simulated",
		Kind:      EventCheckoutCompleted,
		AccountID: req.AccountID,
		PlanID:    req.Plan.ID,
		Purchase:  entitlement.PurchaseOneTime,
	}, expires)

	return &PixCharge{
		ID:        id,
		Amount:    req.Plan.Price,
		BRCode:    code,
		QRCode:    qr,
		ExpiresAt: expires,
		Simulated: true,
	}, nil
}

// SimulatePayment settles a pending charge or checkout and returns the event
// a real gateway would have delivered.
func (s *Simulator) SimulatePayment(_ context.Context, chargeID string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[chargeID]
	if !ok {
		return nil, ErrChargeNotFound
	}
	delete(s.pending, chargeID)
	if !s.now().Before(p.expiresAt) {
		return nil, ErrChargeExpired
	}
	ev := p.event
	return &ev, nil
}

// ParseWebhook accepts {"charge_id": "..."} and settles that charge.
func (s *Simulator) ParseWebhook(ctx context.Context, payload []byte, _ http.Header) (*Event, error) {
	var body struct {
		ChargeID string `json:"charge_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.ChargeID == "" {
		return nil, ErrInvalidPayload
	}
	return s.SimulatePayment(ctx, body.ChargeID)
}

func (s *Simulator) store(id string, ev Event, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[id] = pendingCharge{event: ev, expiresAt: expiresAt}
}

func (s *Simulator) newID(prefix string) (string, error) {
	r, err := token.Random(12)
	if err != nil {
		return "", err
	}
	return prefix + r, nil
}
