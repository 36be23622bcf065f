package handler

// CreateNetworkRequest adds a network with its admission parameters.
type CreateNetworkRequest struct {
	NetUID                   uint16 `json:"netuid"`
	Capacity                 uint16 `json:"capacity"`
	ImmunityPeriod           uint64 `json:"immunity_period"`
	MaxRegistrationsPerBlock uint16 `json:"max_registrations_per_block"`
}

// SetRequirementRequest configures a connection-requirement edge. Threshold
// is u16-normalized: 0 admits only the top occupant, 65535 admits everyone.
type SetRequirementRequest struct {
	Threshold uint16 `json:"threshold"`
}

// SetScoreRequest is the external scoring mechanism's hand-off: it overwrites
// a slot's pruning score between registrations.
type SetScoreRequest struct {
	Score uint16 `json:"score"`
}
