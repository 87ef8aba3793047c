// Package errors defines the typed failures the membership service surfaces
// to its callers. Reasons are stable machine-readable identifiers; the HTTP
// layer maps them onto status codes.
package errors

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// Error reasons, grouped by module.
const (
	// Plan catalog.
	ReasonNoActivePlan = "NO_ACTIVE_PLAN"
	ReasonPlanConflict = "PLAN_CONFLICT"
	ReasonPlanNotFound = "PLAN_NOT_FOUND"

	// Subscription lifecycle.
	ReasonUserNotFound         = "USER_NOT_FOUND"
	ReasonSubscriptionNotFound = "SUBSCRIPTION_NOT_FOUND"
	ReasonAlreadySubscribed    = "ALREADY_SUBSCRIBED"
	ReasonChargeFailed         = "CHARGE_FAILED"
	ReasonInvalidCard          = "INVALID_CARD"
	ReasonGatewayUnavailable   = "GATEWAY_UNAVAILABLE"

	// Payment retry.
	ReasonPaymentNotFound     = "PAYMENT_NOT_FOUND"
	ReasonPaymentNotRetryable = "PAYMENT_NOT_RETRYABLE"
	ReasonNotPaymentOwner     = "NOT_PAYMENT_OWNER"
	ReasonMissingPaymentToken = "MISSING_PAYMENT_TOKEN"

	// Request handling.
	ReasonInvalidArgument = "INVALID_ARGUMENT"
	ReasonUnauthorized    = "UNAUTHORIZED"
)

func NoActivePlan() *errors.Error {
	return errors.NotFound(ReasonNoActivePlan, "no active membership plan found")
}

func PlanConflict() *errors.Error {
	return errors.Conflict(ReasonPlanConflict, "more than one membership plan is marked active")
}

func PlanNotFound(id string) *errors.Error {
	return errors.NotFound(ReasonPlanNotFound, "membership plan not found").WithMetadata(map[string]string{"plan_id": id})
}

func UserNotFound(id string) *errors.Error {
	return errors.NotFound(ReasonUserNotFound, "user not found").WithMetadata(map[string]string{"user_id": id})
}

func SubscriptionNotFound() *errors.Error {
	return errors.NotFound(ReasonSubscriptionNotFound, "subscription not found")
}

func AlreadySubscribed() *errors.Error {
	return errors.Conflict(ReasonAlreadySubscribed, "user already has an active subscription")
}

// ChargeFailed is the ordinary business outcome of a declined or timed-out
// charge. Cause detail goes to the log, not into control flow.
func ChargeFailed(detail string) *errors.Error {
	return errors.New(402, ReasonChargeFailed, "payment was not completed").WithMetadata(map[string]string{"detail": detail})
}

func InvalidCard(detail string) *errors.Error {
	return errors.BadRequest(ReasonInvalidCard, detail)
}

func GatewayUnavailable(detail string) *errors.Error {
	return errors.New(502, ReasonGatewayUnavailable, detail)
}

func PaymentNotFound() *errors.Error {
	return errors.NotFound(ReasonPaymentNotFound, "payment not found")
}

func PaymentNotRetryable() *errors.Error {
	return errors.BadRequest(ReasonPaymentNotRetryable, "only failed payments can be retried")
}

func NotPaymentOwner() *errors.Error {
	return errors.Forbidden(ReasonNotPaymentOwner, "payment does not belong to the current user")
}

func MissingPaymentToken() *errors.Error {
	return errors.BadRequest(ReasonMissingPaymentToken, "no payment token available for retry")
}

func InvalidArgument(detail string) *errors.Error {
	return errors.BadRequest(ReasonInvalidArgument, detail)
}

func Unauthorized() *errors.Error {
	return errors.Unauthorized(ReasonUnauthorized, "authentication required")
}

// IsReason reports whether err carries the given reason.
func IsReason(err error, reason string) bool {
	return errors.Reason(err) == reason
}
