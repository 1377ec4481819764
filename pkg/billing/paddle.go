package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

const paddleSignatureHeader = "Paddle-Signature"

// Paddle is the alternate card provider. It has no PIX support.
type Paddle struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	prices   map[entitlement.PlanID]string
}

var _ Provider = (*Paddle)(nil)

// NewPaddle returns a Paddle client for the sandbox or production
// environment named in cfg.
func NewPaddle(cfg PaddleConfig) (*Paddle, error) {
	if cfg.APIKey == "" || cfg.WebhookSecret == "" {
		return nil, ErrMissingCredential
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox", "":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("billing: invalid paddle environment %q", cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("billing: paddle client: %w", err)
	}

	return &Paddle{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		prices: map[entitlement.PlanID]string{
			entitlement.PlanPersonal: cfg.PricePersonal,
			entitlement.PlanSchool:   cfg.PriceSchool,
		},
	}, nil
}

func (p *Paddle) Name() string { return "paddle" }

// CreateCheckout opens a transaction against the catalog price configured for
// the plan. Paddle prices carry their own billing cycle, so Purchase is only
// recorded in custom data.
func (p *Paddle) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}
	priceID := p.prices[req.Plan.ID]
	if priceID == "" {
		return nil, ErrMissingPrice
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})
	custom := paddle.CustomData{}
	for k, v := range metadata(req.AccountID, req.Plan.ID, req.Purchase) {
		custom[k] = v
	}

	txReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomData: custom,
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	tx, err := p.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil {
		return nil, errors.Join(ErrProviderFailure, errors.New("paddle returned no checkout url"))
	}

	return &CheckoutSession{
		ID:        tx.ID,
		URL:       *tx.Checkout.URL,
		ExpiresAt: time.Now().Add(24 * time.Hour).UTC(),
	}, nil
}

// CreatePixCharge always fails with ErrPixUnsupported.
func (p *Paddle) CreatePixCharge(context.Context, PixRequest) (*PixCharge, error) {
	return nil, ErrPixUnsupported
}

// ParseWebhook verifies the Paddle-Signature header and maps
// transaction.completed and subscription.canceled.
func (p *Paddle) ParseWebhook(ctx context.Context, payload []byte, header http.Header) (*Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/billing/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	req.Header.Set(paddleSignatureHeader, header.Get(paddleSignatureHeader))

	ok, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !ok {
		return nil, ErrInvalidSignature
	}

	return decodePaddleEvent(payload)
}

type paddleEnvelope struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Data      struct {
		ID             string            `json:"id"`
		CustomerID     string            `json:"customer_id"`
		SubscriptionID string            `json:"subscription_id"`
		CustomData     map[string]any    `json:"custom_data"`
	} `json:"data"`
}

func decodePaddleEvent(payload []byte) (*Event, error) {
	var env paddleEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}

	out := &Event{Kind: EventIgnored}
	switch env.EventType {
	case "transaction.completed":
		md := make(map[string]string, len(env.Data.CustomData))
		for k, v := range env.Data.CustomData {
			if s, ok := v.(string); ok {
				md[k] = s
			}
		}
		out = completionFromMetadata(md)
		out.CustomerID = env.Data.CustomerID
		if env.Data.SubscriptionID != "" {
			out.SubscriptionID = env.Data.SubscriptionID
			out.Purchase = entitlement.PurchaseRecurring
		}
	case "subscription.canceled":
		out = &Event{
			Kind:           EventSubscriptionDeleted,
			SubscriptionID: env.Data.ID,
			CustomerID:     env.Data.CustomerID,
		}
	}

	out.ID = env.EventID
	out.Provider = "paddle"
	out.Type = env.EventType
	return out, nil
}
