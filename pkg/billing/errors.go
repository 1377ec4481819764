package billing

import "errors"

var (
	ErrMissingAccount    = errors.New("billing.errors.missing_account")
	ErrInvalidPurchase   = errors.New("billing.errors.invalid_purchase")
	ErrPixUnsupported    = errors.New("billing.errors.pix_unsupported")
	ErrInvalidSignature  = errors.New("billing.errors.invalid_signature")
	ErrInvalidPayload    = errors.New("billing.errors.invalid_payload")
	ErrChargeNotFound    = errors.New("billing.errors.charge_not_found")
	ErrChargeExpired     = errors.New("billing.errors.charge_expired")
	ErrProviderFailure   = errors.New("billing.errors.provider_failure")
	ErrMissingCredential = errors.New("billing: missing provider credentials")
	ErrMissingPrice      = errors.New("billing: no provider price configured for plan")
)
