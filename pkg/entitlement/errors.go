package entitlement

import "errors"

// Domain errors. The message doubles as the translation key used by the HTTP layer.
var (
	// Not found
	ErrAccountNotFound = errors.New("entitlement.errors.account_not_found")
	ErrTeamNotFound    = errors.New("entitlement.errors.team_not_found")
	ErrInviteNotFound  = errors.New("entitlement.errors.invite_not_found")
	ErrPlanNotFound    = errors.New("entitlement.errors.plan_not_found")

	// Usage
	ErrQuotaExceeded = errors.New("entitlement.errors.quota_exceeded")

	// Team seats and invites
	ErrSeatLimitReached  = errors.New("entitlement.errors.seat_limit_reached")
	ErrAlreadyMember     = errors.New("entitlement.errors.already_member")
	ErrAlreadyInTeam     = errors.New("entitlement.errors.already_in_team")
	ErrInviteExpired     = errors.New("entitlement.errors.invite_expired")
	ErrNotInTeam         = errors.New("entitlement.errors.not_in_team")
	ErrNotTeamAdmin      = errors.New("entitlement.errors.not_team_admin")
	ErrCannotRemoveAdmin = errors.New("entitlement.errors.cannot_remove_admin")

	// Accounts
	ErrEmailTaken         = errors.New("entitlement.errors.email_taken")
	ErrInvalidEmail       = errors.New("entitlement.errors.invalid_email")
	ErrInvalidName        = errors.New("entitlement.errors.invalid_name")
	ErrWeakPassword       = errors.New("entitlement.errors.weak_password")
	ErrInvalidCredentials = errors.New("entitlement.errors.invalid_credentials")

	// Plans
	ErrPlanNotEligible          = errors.New("entitlement.errors.plan_not_eligible")
	ErrInvalidPlanConfiguration = errors.New("entitlement.errors.invalid_plan_configuration")

	// Transient and infrastructure
	ErrConcurrencyConflict    = errors.New("entitlement.errors.concurrency_conflict")
	ErrPersistenceUnavailable = errors.New("entitlement.errors.persistence_unavailable")
)

// domainErrors are expected outcomes of an operation. They are returned as-is
// and never logged as failures.
var domainErrors = []error{
	ErrAccountNotFound,
	ErrTeamNotFound,
	ErrInviteNotFound,
	ErrPlanNotFound,
	ErrQuotaExceeded,
	ErrSeatLimitReached,
	ErrAlreadyMember,
	ErrAlreadyInTeam,
	ErrInviteExpired,
	ErrNotInTeam,
	ErrNotTeamAdmin,
	ErrCannotRemoveAdmin,
	ErrEmailTaken,
	ErrInvalidEmail,
	ErrInvalidName,
	ErrWeakPassword,
	ErrInvalidCredentials,
	ErrPlanNotEligible,
}

// IsDomainError reports whether err is an expected business outcome rather
// than an infrastructure failure.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
