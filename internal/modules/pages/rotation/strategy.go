package rotation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoVariationsAvailable is returned when Select gets an empty candidate list.
	ErrNoVariationsAvailable = errors.New("no variations available")
	ErrUnknownStrategy       = errors.New("unknown rotation strategy")
	ErrUnknownVariation      = errors.New("unknown variation")
)

type Strategy int

const (
	Sequential Strategy = iota + 1
	LeastUsed
	WeightedRandom
	PerformanceBased
)

// DefaultStrategy is used when callers do not pick one.
const DefaultStrategy = WeightedRandom

func (s Strategy) String() string {
	switch s {
	case Sequential:
		return "sequential"
	case LeastUsed:
		return "least_used"
	case WeightedRandom:
		return "weighted_random"
	case PerformanceBased:
		return "performance_based"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

func (s Strategy) Valid() bool {
	return s >= Sequential && s <= PerformanceBased
}

// ParseStrategy maps a configuration tag to a Strategy. An empty tag yields
// DefaultStrategy.
func ParseStrategy(raw string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return DefaultStrategy, nil
	case "sequential":
		return Sequential, nil
	case "least_used":
		return LeastUsed, nil
	case "weighted_random":
		return WeightedRandom, nil
	case "performance_based":
		return PerformanceBased, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, raw)
	}
}

func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
