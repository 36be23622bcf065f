// Package ports defines shared interfaces for the registry module.
// Interfaces are placed here when consumed by multiple services to avoid
// duplication; implementations live under store/ and in internal/chain and
// internal/events.
package ports

import (
	"context"

	"slotkeeper/internal/registry/models"
	"slotkeeper/pkg/domain"
)

// SlotStore holds the per-network slot table and the bidirectional
// key<->uid membership index. Occupied slots are densely packed
// 0..OccupiedCount-1; the table never shrinks.
type SlotStore interface {
	// OccupiedCount returns the number of occupied slots on a network.
	OccupiedCount(ctx context.Context, net domain.NetID) (uint16, error)

	// IsMember reports whether key currently occupies a slot on net.
	IsMember(ctx context.Context, net domain.NetID, key domain.Key) (bool, error)

	// UIDOf returns key's slot on net, or sentinel.ErrNotFound.
	UIDOf(ctx context.Context, net domain.NetID, key domain.Key) (domain.UID, error)

	// PruningScore returns the score of a uid, or sentinel.ErrNotFound.
	PruningScore(ctx context.Context, net domain.NetID, uid domain.UID) (domain.Score, error)

	// SetPruningScore overwrites the score of an occupied uid.
	SetPruningScore(ctx context.Context, net domain.NetID, uid domain.UID, score domain.Score) error

	// RegistrationBlock returns the block at which the current occupant of
	// uid took the slot.
	RegistrationBlock(ctx context.Context, net domain.NetID, uid domain.UID) (domain.Block, error)

	// Append places key in a new slot at uid = OccupiedCount and returns it.
	Append(ctx context.Context, net domain.NetID, key domain.Key, block domain.Block) (domain.UID, error)

	// Replace overwrites the occupant of uid with key at the given block.
	// The previous occupant is logically destroyed; the count is unchanged.
	Replace(ctx context.Context, net domain.NetID, uid domain.UID, key domain.Key, block domain.Block) error

	// Slots returns the dense slot listing of a network, ordered by uid.
	Slots(ctx context.Context, net domain.NetID) ([]models.Slot, error)
}

// ParamsStore holds per-network configuration and the directed
// connection-requirement edge set.
type ParamsStore interface {
	// Exists reports whether the network has been added.
	Exists(ctx context.Context, net domain.NetID) (bool, error)

	// Params returns a network's configuration, or sentinel.ErrNotFound.
	Params(ctx context.Context, net domain.NetID) (models.NetworkParams, error)

	// Create adds a network with the given configuration.
	Create(ctx context.Context, net domain.NetID, params models.NetworkParams) error

	// Requirements returns the outgoing requirement edges of a network in
	// ascending target-netuid order. Edges to networks that were never
	// added are not returned.
	Requirements(ctx context.Context, from domain.NetID) ([]models.Requirement, error)

	// SetRequirement adds or updates the edge from->to.
	SetRequirement(ctx context.Context, from, to domain.NetID, threshold uint16) error

	// Networks lists all added networks in ascending netuid order.
	Networks(ctx context.Context) ([]domain.NetID, error)
}

// CounterStore tracks per-network registration counters. Block counters are
// reset by the chain worker on every new block, interval counters on every
// interval boundary.
type CounterStore interface {
	// RegistrationsThisBlock returns the per-block counter for a network.
	RegistrationsThisBlock(ctx context.Context, net domain.NetID) (uint16, error)

	// RegistrationsThisInterval returns the per-interval counter.
	RegistrationsThisInterval(ctx context.Context, net domain.NetID) (uint16, error)

	// IncrementBlock adds one to the per-block counter.
	IncrementBlock(ctx context.Context, net domain.NetID) error

	// IncrementInterval adds one to the per-interval counter.
	IncrementInterval(ctx context.Context, net domain.NetID) error

	// ResetBlock zeroes the per-block counters of all networks.
	ResetBlock(ctx context.Context) error

	// ResetInterval zeroes the per-interval counters of all networks.
	ResetInterval(ctx context.Context) error
}

// Ledger is the wider account ledger. The registry only needs existence.
type Ledger interface {
	// EnsureAccount creates the account for key if absent. Idempotent.
	EnsureAccount(ctx context.Context, key domain.Key) error
}

// BlockSource provides the current block height from the external ordering
// layer.
type BlockSource interface {
	CurrentBlock() domain.Block
}

// EventPublisher emits the registration-completed notification.
type EventPublisher interface {
	EmitRegistered(ctx context.Context, event models.RegisteredEvent) error
}
