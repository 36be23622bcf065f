package service

import (
	dErrors "slotkeeper/pkg/domain-errors"
)

// Terminal abort reasons for the registration transition. Each one leaves the
// registry bit-identical to its pre-call state.
var (
	// ErrNetworkDoesNotExist covers both an absent network and one whose
	// capacity is zero; the two are indistinguishable to callers.
	ErrNetworkDoesNotExist = dErrors.New(dErrors.CodeNotFound, "network does not exist")

	ErrTooManyRegistrationsThisBlock = dErrors.New(dErrors.CodeTooManyRequests, "too many registrations this block")

	ErrAlreadyRegistered = dErrors.New(dErrors.CodeConflict, "key is already registered on this network")

	ErrDidNotPassConnectedNetworkRequirement = dErrors.New(dErrors.CodeForbidden, "did not pass connected network requirement")
)

// abortReason labels aborts for metrics without leaking error strings.
func abortReason(err error) string {
	switch {
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		return "network_does_not_exist"
	case dErrors.HasCode(err, dErrors.CodeTooManyRequests):
		return "too_many_registrations_this_block"
	case dErrors.HasCode(err, dErrors.CodeConflict):
		return "already_registered"
	case dErrors.HasCode(err, dErrors.CodeForbidden):
		return "connected_network_requirement"
	default:
		return "internal"
	}
}
