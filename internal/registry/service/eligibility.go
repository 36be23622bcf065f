package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"slotkeeper/pkg/domain"
	"slotkeeper/pkg/platform/sentinel"
)

// MeetsConnectionRequirements reports whether key clears every connection
// requirement configured on target: for each edge target->B, key must occupy
// a slot on B and rank within the edge's top percentile by pruning score.
// Only direct edges are examined, never transitively. Read-only.
func (s *Service) MeetsConnectionRequirements(ctx context.Context, target domain.NetID, key domain.Key) (bool, error) {
	reqs, err := s.params.Requirements(ctx, target)
	if err != nil {
		return false, fmt.Errorf("requirements of net %s: %w", target, err)
	}

	for _, req := range reqs {
		occupied, err := s.slots.OccupiedCount(ctx, req.To)
		if err != nil {
			return false, fmt.Errorf("occupied count of net %s: %w", req.To, err)
		}
		// Nobody can be in the top percentile of an empty network.
		if occupied == 0 {
			return false, nil
		}

		uid, err := s.slots.UIDOf(ctx, req.To, key)
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("uid of key on net %s: %w", req.To, err)
		}

		ourScore, err := s.slots.PruningScore(ctx, req.To, uid)
		if err != nil {
			return false, fmt.Errorf("pruning score on net %s: %w", req.To, err)
		}

		var better uint16
		for other := domain.UID(0); uint16(other) < occupied; other++ {
			if other == uid {
				continue
			}
			score, err := s.slots.PruningScore(ctx, req.To, other)
			if err != nil {
				return false, fmt.Errorf("pruning score of uid %s on net %s: %w", other, req.To, err)
			}
			if score > ourScore {
				better++
			}
		}

		// better/occupied > threshold/65535, compared exactly by
		// cross-multiplication so rank == threshold passes on every node.
		if uint64(better)*math.MaxUint16 > uint64(req.Threshold)*uint64(occupied) {
			return false, nil
		}
	}

	return true, nil
}
