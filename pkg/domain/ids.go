package domain

import (
	"fmt"
	"math"
	"strconv"
)

// NetID identifies a network: an independently capacity-bounded registry
// partition. This is a domain primitive that enforces validity at parse time.
type NetID uint16

// ParseNetID validates and returns a NetID from its decimal string form.
func ParseNetID(s string) (NetID, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid network id %q: %w", s, err)
	}
	return NetID(v), nil
}

// String returns the decimal representation of the network id.
func (n NetID) String() string {
	return strconv.FormatUint(uint64(n), 10)
}

// UID identifies one slot within a network. UIDs are densely packed
// 0..occupied-1 with no gaps.
type UID uint16

// ParseUID validates and returns a UID from its decimal string form.
func ParseUID(s string) (UID, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid uid %q: %w", s, err)
	}
	return UID(v), nil
}

// String returns the decimal representation of the uid.
func (u UID) String() string {
	return strconv.FormatUint(uint64(u), 10)
}

// Key is the opaque identity occupying a slot. The registry never inspects
// its contents; it only compares keys for equality.
type Key string

// IsNil returns true if the key is empty.
func (k Key) IsNil() bool {
	return k == ""
}

// String returns the raw key string.
func (k Key) String() string {
	return string(k)
}

// Block is a block height from the external ordering layer.
type Block uint64

// Score is an unsigned reputation metric. Lower means more eligible for
// eviction; MaxScore marks a slot as freshly safe until re-scored.
type Score uint16

// MaxScore is the highest representable pruning score.
const MaxScore Score = math.MaxUint16

// ParseScore validates and returns a Score from its decimal string form.
func ParseScore(s string) (Score, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid score %q: %w", s, err)
	}
	return Score(v), nil
}
