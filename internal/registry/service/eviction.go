package service

import (
	"context"
	"fmt"

	"slotkeeper/pkg/domain"
)

// SelectEvictionCandidate picks the uid to evict from a full network: the
// lowest-scored slot outside its immunity period, falling back to the
// lowest-scored immune slot when every occupant is immune. On equal scores
// the latest-scanned non-immune slot wins but the earliest immune one does;
// the asymmetry is load-bearing for cross-node determinism and must not be
// "fixed".
//
// Selection commits a write: the chosen uid's pruning score is stamped to
// MaxScore before returning, so a second call without an intervening replace
// will generally pick a different uid.
func (s *Service) SelectEvictionCandidate(ctx context.Context, net domain.NetID) (domain.UID, error) {
	occupied, err := s.slots.OccupiedCount(ctx, net)
	if err != nil {
		return 0, fmt.Errorf("occupied count: %w", err)
	}
	if occupied == 0 {
		return 0, nil
	}

	p, err := s.params.Params(ctx, net)
	if err != nil {
		return 0, fmt.Errorf("network params: %w", err)
	}
	current := s.chain.CurrentBlock()

	minScore := domain.MaxScore
	minImmuneScore := domain.MaxScore
	var candidate domain.UID
	var immuneCandidate domain.UID

	for uid := domain.UID(0); uint16(uid) < occupied; uid++ {
		score, err := s.slots.PruningScore(ctx, net, uid)
		if err != nil {
			return 0, fmt.Errorf("pruning score of uid %s: %w", uid, err)
		}
		registeredAt, err := s.slots.RegistrationBlock(ctx, net, uid)
		if err != nil {
			return 0, fmt.Errorf("registration block of uid %s: %w", uid, err)
		}

		if uint64(current)-uint64(registeredAt) < p.ImmunityPeriod {
			if score < minImmuneScore {
				minImmuneScore = score
				immuneCandidate = uid
			}
		} else if score <= minScore {
			minScore = score
			candidate = uid
		}
	}

	// minScore still at the sentinel means no non-immune slot improved on
	// it, so everyone is treated as immune.
	chosen := candidate
	if minScore == domain.MaxScore {
		chosen = immuneCandidate
	}

	// Stamp the slot as freshly safe before handing it over; every occupant
	// always carries a score, even mid-replacement.
	if err := s.slots.SetPruningScore(ctx, net, chosen, domain.MaxScore); err != nil {
		return 0, fmt.Errorf("stamp pruning score of uid %s: %w", chosen, err)
	}
	return chosen, nil
}
