package models

import (
	"slotkeeper/pkg/domain"
)

// NetworkParams is the per-network configuration owned by the params store
// and read by the registration core.
type NetworkParams struct {
	// Capacity is the maximum number of occupiable slots. Zero means
	// registration on this network is impossible.
	Capacity uint16 `json:"capacity"`

	// ImmunityPeriod is the block-count window during which a newly placed
	// occupant is shielded from eviction.
	ImmunityPeriod uint64 `json:"immunity_period"`

	// MaxRegistrationsPerBlock throttles admissions per block.
	MaxRegistrationsPerBlock uint16 `json:"max_registrations_per_block"`
}

// Requirement is a directed connection-requirement edge. Registration on the
// owning network is gated on the candidate's percentile rank in network To.
type Requirement struct {
	To domain.NetID `json:"to"`

	// Threshold is a u16-normalized fraction: Threshold/65535 is the share
	// of better-scored occupants the candidate may rank behind. 0 admits
	// only the top occupant, 65535 admits everyone.
	Threshold uint16 `json:"threshold"`
}

// Slot is one occupancy unit of a network. For a given network, uids are
// densely packed 0..occupied-1 and each holds exactly one key.
type Slot struct {
	UID          domain.UID   `json:"uid"`
	Key          domain.Key   `json:"key"`
	PruningScore domain.Score `json:"pruning_score"`
	RegisteredAt domain.Block `json:"registered_at"`
}

// Registration is the committed outcome of a successful admission.
type Registration struct {
	Net     domain.NetID `json:"netuid"`
	UID     domain.UID   `json:"uid"`
	Key     domain.Key   `json:"key"`
	Block   domain.Block `json:"block"`
	Evicted bool         `json:"evicted"`
}

// RegisteredEvent is the outbound notification emitted once per committed
// registration.
type RegisteredEvent struct {
	ID    string       `json:"id"`
	Net   domain.NetID `json:"netuid"`
	UID   domain.UID   `json:"uid"`
	Key   domain.Key   `json:"key"`
	Block domain.Block `json:"block"`
}
