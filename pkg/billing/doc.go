// Package billing talks to payment providers on behalf of the entitlement
// engine.
//
// A Provider opens checkouts and PIX charges and turns verified webhook
// deliveries into provider-neutral Events. The engine never sees provider
// payloads: callers translate an Event into entitlement.CheckoutCompletion or
// entitlement.Service.DeleteSubscription.
//
// Three providers are available:
//
//   - Stripe: hosted Checkout for cards, PaymentIntents for PIX.
//   - Paddle: hosted Checkout through transactions. No PIX.
//   - Simulator: in-process fake for development. Charges are settled with
//     SimulatePayment instead of a webhook from a real gateway.
//
// Webhook signatures are always verified before a payload is decoded.
package billing
