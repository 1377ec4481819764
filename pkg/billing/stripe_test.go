package billing_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/dmitrymomot/lessonkit/pkg/billing"
	"github.com/dmitrymomot/lessonkit/pkg/entitlement"
)

const stripeSecret = "whsec_test_secret"

func signedStripe(t *testing.T, payload string) http.Header {
	t.Helper()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    stripeSecret,
		Timestamp: time.Now(),
	})
	h := http.Header{}
	h.Set("Stripe-Signature", signed.Header)
	return h
}

func TestStripeParseWebhook(t *testing.T) {
	t.Parallel()

	p, err := billing.NewStripe(billing.StripeConfig{SecretKey: "sk_test_123", WebhookSecret: stripeSecret})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("subscription checkout", func(t *testing.T) {
		t.Parallel()

		payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{
			"id":"cs_1","object":"checkout.session","mode":"subscription","client_reference_id":"acc-1",
			"customer":"cus_9","subscription":"sub_42",
			"metadata":{"account_id":"acc-1","plan_id":"School","purchase":"recurring"}}}}`

		ev, err := p.ParseWebhook(ctx, []byte(payload), signedStripe(t, payload))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, "stripe", ev.Provider)
		assert.Equal(t, billing.EventCheckoutCompleted, ev.Kind)
		assert.Equal(t, entitlement.CheckoutCompletion{
			AccountID:      "acc-1",
			PlanID:         entitlement.PlanSchool,
			Purchase:       entitlement.PurchaseRecurring,
			SubscriptionID: "sub_42",
			CustomerID:     "cus_9",
		}, ev.Completion())
	})

	t.Run("pix payment intent", func(t *testing.T) {
		t.Parallel()

		payload := `{"id":"evt_2","object":"event","type":"payment_intent.succeeded","data":{"object":{
			"id":"pi_1","object":"payment_intent","amount":1990,"currency":"brl",
			"metadata":{"account_id":"acc-2","plan_id":"Personal","purchase":"one_time","source":"pix"}}}}`

		ev, err := p.ParseWebhook(ctx, []byte(payload), signedStripe(t, payload))
		require.NoError(t, err)
		assert.Equal(t, billing.EventCheckoutCompleted, ev.Kind)
		assert.Equal(t, "acc-2", ev.AccountID)
		assert.Equal(t, entitlement.PlanPersonal, ev.PlanID)
		assert.Equal(t, entitlement.PurchaseOneTime, ev.Purchase)
	})

	t.Run("card payment intents are ignored", func(t *testing.T) {
		t.Parallel()

		payload := `{"id":"evt_3","object":"event","type":"payment_intent.succeeded","data":{"object":{
			"id":"pi_2","object":"payment_intent","metadata":{}}}}`

		ev, err := p.ParseWebhook(ctx, []byte(payload), signedStripe(t, payload))
		require.NoError(t, err)
		assert.Equal(t, billing.EventIgnored, ev.Kind)
	})

	t.Run("subscription deleted", func(t *testing.T) {
		t.Parallel()

		payload := `{"id":"evt_4","object":"event","type":"customer.subscription.deleted","data":{"object":{
			"id":"sub_42","object":"subscription","customer":"cus_9"}}}`

		ev, err := p.ParseWebhook(ctx, []byte(payload), signedStripe(t, payload))
		require.NoError(t, err)
		assert.Equal(t, billing.EventSubscriptionDeleted, ev.Kind)
		assert.Equal(t, "sub_42", ev.SubscriptionID)
	})

	t.Run("bad signature", func(t *testing.T) {
		t.Parallel()

		payload := `{"id":"evt_5","object":"event","type":"customer.subscription.deleted","data":{"object":{}}}`
		h := http.Header{}
		h.Set("Stripe-Signature", "t=1,v1=deadbeef")

		_, err := p.ParseWebhook(ctx, []byte(payload), h)
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})
}

func TestNewStripe(t *testing.T) {
	t.Parallel()

	_, err := billing.NewStripe(billing.StripeConfig{SecretKey: "sk_test_123"})
	assert.ErrorIs(t, err, billing.ErrMissingCredential)
}
