package entitlement

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/lessonkit/handler"
	"github.com/dmitrymomot/lessonkit/pkg/billing"
	engine "github.com/dmitrymomot/lessonkit/pkg/entitlement"
	"github.com/dmitrymomot/lessonkit/pkg/generator"
	"github.com/dmitrymomot/lessonkit/pkg/token"
)

type errorStatus struct {
	err    error
	status int
}

// errorStatuses is checked in order; the first match wins.
var errorStatuses = []errorStatus{
	{engine.ErrPersistenceUnavailable, http.StatusServiceUnavailable},
	{engine.ErrConcurrencyConflict, http.StatusConflict},
	{engine.ErrInvalidPlanConfiguration, http.StatusInternalServerError},

	{engine.ErrAccountNotFound, http.StatusNotFound},
	{engine.ErrTeamNotFound, http.StatusNotFound},
	{engine.ErrInviteNotFound, http.StatusNotFound},
	{engine.ErrPlanNotFound, http.StatusNotFound},

	{engine.ErrQuotaExceeded, http.StatusForbidden},
	{engine.ErrSeatLimitReached, http.StatusForbidden},
	{engine.ErrNotInTeam, http.StatusForbidden},
	{engine.ErrNotTeamAdmin, http.StatusForbidden},
	{engine.ErrCannotRemoveAdmin, http.StatusForbidden},
	{engine.ErrAlreadyMember, http.StatusConflict},
	{engine.ErrAlreadyInTeam, http.StatusConflict},
	{engine.ErrEmailTaken, http.StatusConflict},
	{engine.ErrInviteExpired, http.StatusBadRequest},
	{engine.ErrInvalidEmail, http.StatusBadRequest},
	{engine.ErrInvalidName, http.StatusBadRequest},
	{engine.ErrWeakPassword, http.StatusBadRequest},
	{engine.ErrPlanNotEligible, http.StatusBadRequest},
	{engine.ErrInvalidCredentials, http.StatusUnauthorized},

	{billing.ErrMissingAccount, http.StatusBadRequest},
	{billing.ErrInvalidPurchase, http.StatusBadRequest},
	{billing.ErrPixUnsupported, http.StatusBadRequest},
	{billing.ErrInvalidSignature, http.StatusBadRequest},
	{billing.ErrInvalidPayload, http.StatusBadRequest},
	{billing.ErrChargeNotFound, http.StatusNotFound},
	{billing.ErrChargeExpired, http.StatusGone},
	{billing.ErrProviderFailure, http.StatusBadGateway},

	{generator.ErrEmptyResponse, http.StatusBadGateway},
	{generator.ErrUpstream, http.StatusBadGateway},

	{token.ErrInvalidToken, http.StatusUnauthorized},
	{token.ErrSignatureInvalid, http.StatusUnauthorized},
}

// MapError translates engine, billing and generator errors for the
// handler.ErrorHandler.
func MapError(err error) (handler.HTTPError, bool) {
	for _, es := range errorStatuses {
		if errors.Is(err, es.err) {
			return handler.NewHTTPError(es.status, es.err.Error()), true
		}
	}
	return handler.HTTPError{}, false
}
