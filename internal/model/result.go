package model

import "time"

// ErrorCode is the structured failure taxonomy shared by the router,
// the policy evaluator, and the power-star manager. Failures are
// returned as values carrying one of these codes, never as panics.
type ErrorCode string

const (
	// Router failures.
	ErrRouteNotFound    ErrorCode = "route_not_found"
	ErrRoleUnauthorized ErrorCode = "role_unauthorized"
	ErrDeviceRequired   ErrorCode = "device_required"
	ErrConditionsFailed ErrorCode = "conditions_failed"

	// Policy failures.
	ErrInvalidRole              ErrorCode = "invalid_role"
	ErrRoleNotInAllowList       ErrorCode = "role_not_in_allow_list"
	ErrCategoryPermissionDenied ErrorCode = "category_permission_denied"

	// Power-star failures.
	ErrChallengeNotFound         ErrorCode = "challenge_not_found"
	ErrChallengeAlreadyCompleted ErrorCode = "challenge_already_completed"
	ErrChallengeFailed           ErrorCode = "challenge_verification_failed"
	ErrStarNotFound              ErrorCode = "star_not_found"
	ErrStarExpired               ErrorCode = "star_expired"
	ErrStarRevoked               ErrorCode = "star_revoked"
	ErrStarNotValid              ErrorCode = "star_not_valid"
	ErrOperationMismatch         ErrorCode = "operation_mismatch"
	ErrDeviceMismatch            ErrorCode = "device_mismatch"

	// Gate failures.
	ErrShadowLogFailed      ErrorCode = "shadow_log_failed"
	ErrMachineNotAuthorized ErrorCode = "machine_not_authorized"
	ErrPolicyDenied         ErrorCode = "policy_denied"
)

// RoutingResult is the immutable outcome of one routing decision.
type RoutingResult struct {
	Success              bool      `json:"success"`
	Operation            string    `json:"operation"`
	Domain               string    `json:"domain,omitempty"`
	Category             Category  `json:"category,omitempty"`
	RequiresConfirmation bool      `json:"requires_confirmation,omitempty"`
	Handoff              string    `json:"handoff,omitempty"`
	Error                ErrorCode `json:"error,omitempty"`
	Reason               string    `json:"reason,omitempty"`
	// AllowedRoles is populated on role denials so callers can display
	// which roles would have been accepted.
	AllowedRoles []Role            `json:"allowed_roles,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// PolicyResult is the outcome of permission-matrix evaluation.
type PolicyResult struct {
	Allowed              bool      `json:"allowed"`
	Error                ErrorCode `json:"error,omitempty"`
	Reason               string    `json:"reason,omitempty"`
	RequiresConfirmation bool      `json:"requires_confirmation"`
	// Policy echoes the evaluated spec so callers can attach it to
	// confirmation workflows without re-fetching.
	Policy *OperationSpec `json:"policy,omitempty"`
}
