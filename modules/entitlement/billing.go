package entitlement

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrymomot/lessonkit/handler"
	"github.com/dmitrymomot/lessonkit/pkg/billing"
	engine "github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/logger"
)

const maxWebhookSize = 1 << 20

type checkoutRequest struct {
	PlanID   engine.PlanID   `json:"plan_id"`
	Purchase engine.Purchase `json:"purchase"`
}

type pixRequest struct {
	PlanID engine.PlanID `json:"plan_id"`
}

type simulatePixRequest struct {
	ChargeID string `path:"chargeID"`
}

type forceExpireRequest struct {
	AccountID string `json:"account_id"`
}

type webhookResponse struct {
	Received bool   `json:"received"`
	Kind     string `json:"kind"`
}

// plans lists the catalog for pricing pages. It needs no session.
func (m *Module) plans(_ handler.Context, _ noRequest) handler.Response {
	return handler.JSON(m.svc.Catalog().Plans())
}

// payablePlan loads the caller and the plan and rejects purchases the
// checkout entrypoint would refuse anyway.
func (m *Module) payablePlan(ctx context.Context, planID engine.PlanID) (*engine.Account, engine.Plan, error) {
	acc, err := m.svc.Refresh(ctx, caller(ctx))
	if err != nil {
		return nil, engine.Plan{}, err
	}
	plan, err := m.svc.Catalog().Lookup(planID)
	if err != nil {
		return nil, engine.Plan{}, err
	}
	if acc.InTeam() {
		return nil, engine.Plan{}, engine.ErrAlreadyInTeam
	}
	return acc, plan, nil
}

func (m *Module) checkout(ctx handler.Context, req checkoutRequest) handler.Response {
	acc, plan, err := m.payablePlan(ctx, req.PlanID)
	if err != nil {
		return handler.Error(err)
	}
	if req.Purchase == "" {
		req.Purchase = engine.PurchaseRecurring
	}

	base := strings.TrimRight(m.cfg.BaseURL, "/")
	sess, err := m.billing.CreateCheckout(ctx, billing.CheckoutRequest{
		AccountID:  acc.ID,
		Email:      acc.Email,
		Plan:       plan,
		Purchase:   req.Purchase,
		SuccessURL: base + "/billing/success",
		CancelURL:  base + "/billing/cancel",
	})
	if err != nil {
		return handler.Error(m.providerError(ctx, "create_checkout", acc.ID, err))
	}
	return handler.JSON(sess, handler.WithJSONStatus(http.StatusCreated))
}

func (m *Module) createPix(ctx handler.Context, req pixRequest) handler.Response {
	acc, plan, err := m.payablePlan(ctx, req.PlanID)
	if err != nil {
		return handler.Error(err)
	}
	charge, err := m.billing.CreatePixCharge(ctx, billing.PixRequest{
		AccountID: acc.ID,
		Email:     acc.Email,
		Name:      acc.Name,
		Plan:      plan,
	})
	if err != nil {
		return handler.Error(m.providerError(ctx, "create_pix_charge", acc.ID, err))
	}
	return handler.JSON(charge, handler.WithJSONStatus(http.StatusCreated))
}

func (m *Module) providerError(ctx context.Context, op, accountID string, err error) error {
	if errors.Is(err, billing.ErrProviderFailure) {
		m.log.ErrorContext(ctx, "payment provider request failed",
			logger.Provider(m.billing.Name()),
			logger.Operation(op),
			logger.AccountID(accountID),
			logger.Error(err),
		)
	}
	return err
}

// simulatePix settles a simulated PIX charge as if the provider had sent the
// webhook.
func (m *Module) simulatePix(ctx handler.Context, req simulatePixRequest) handler.Response {
	sim, ok := m.billing.(billing.Simulating)
	if !ok {
		return handler.Error(handler.ErrNotFound)
	}
	ev, err := sim.SimulatePayment(ctx, req.ChargeID)
	if err != nil {
		return handler.Error(err)
	}
	if ev.AccountID != caller(ctx) {
		return handler.Error(handler.ErrForbidden)
	}
	acc, err := m.applyEvent(ctx, ev)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(acc)
}

func (m *Module) forceExpire(ctx handler.Context, req forceExpireRequest) handler.Response {
	id := req.AccountID
	if id == "" {
		id = caller(ctx)
	}
	acc, err := m.svc.ForceExpire(ctx, id)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(acc)
}

// webhook verifies a provider delivery and applies it. Domain rejections are
// acknowledged so the provider stops retrying; infrastructure failures are
// not, so it retries later.
func (m *Module) webhook(w http.ResponseWriter, r *http.Request) {
	ctx := handler.NewContext(w, r)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookSize+1))
	if err != nil || len(payload) > maxWebhookSize {
		m.errorHandler(ctx, billing.ErrInvalidPayload)
		return
	}

	ev, err := m.billing.ParseWebhook(r.Context(), payload, r.Header)
	if err != nil {
		m.log.WarnContext(r.Context(), "rejected billing webhook",
			logger.Provider(m.billing.Name()),
			logger.Error(err),
		)
		m.errorHandler(ctx, err)
		return
	}

	_, err = m.applyEvent(r.Context(), ev)
	switch {
	case err == nil:
	case engine.IsDomainError(err):
		m.log.WarnContext(r.Context(), "billing event not applied",
			logger.Provider(ev.Provider),
			logger.Event(ev.Type),
			logger.AccountID(ev.AccountID),
			logger.Error(err),
		)
	default:
		m.errorHandler(ctx, err)
		return
	}

	_ = handler.JSON(webhookResponse{Received: true, Kind: string(ev.Kind)}).Render(w, r)
}

func (m *Module) applyEvent(ctx context.Context, ev *billing.Event) (*engine.Account, error) {
	switch ev.Kind {
	case billing.EventCheckoutCompleted:
		acc, err := m.svc.CompleteCheckout(ctx, ev.Completion())
		if err == nil {
			m.log.InfoContext(ctx, "plan purchased",
				logger.Provider(ev.Provider),
				logger.Event(ev.Type),
				logger.AccountID(acc.ID),
				logger.Plan(string(acc.PlanID)),
			)
		}
		return acc, err
	case billing.EventSubscriptionDeleted:
		acc, err := m.svc.DeleteSubscription(ctx, ev.SubscriptionID)
		if err == nil {
			m.log.InfoContext(ctx, "subscription deleted",
				logger.Provider(ev.Provider),
				logger.Event(ev.Type),
				logger.AccountID(acc.ID),
			)
		}
		return acc, err
	default:
		return nil, nil
	}
}
