package rotation

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

// Selection is the outcome of one Select call.
type Selection struct {
	VariationID string   `json:"variation_id"`
	Position    int      `json:"position"`
	Strategy    Strategy `json:"strategy"`
	UsageCount  int      `json:"usage_count"`
	Candidates  int      `json:"candidates"`
	Reason      string   `json:"reason"`
	// Previous is the variation selected for the same key before this call.
	Previous string `json:"previous,omitempty"`
}

type PerformanceMeta struct {
	QualityScore float64
}

type Option func(*Engine)

// WithRand sets the source used by WeightedRandom.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithMinAttempts sets how many recorded attempts a variation needs before
// PerformanceBased treats it as explored.
func WithMinAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minAttempts = n
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log.With("component", "RotationEngine")
		}
	}
}

type Engine struct {
	state       *State
	log         *logger.Logger
	minAttempts int

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewEngine(state *State, opts ...Option) *Engine {
	if state == nil {
		state = NewState()
	}
	e := &Engine{
		state:       state,
		log:         logger.Nop(),
		minAttempts: 1,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) State() *State { return e.state }

// Select picks the next variation for promptKey. The choice and the usage
// increment happen under the key's lock.
func (e *Engine) Select(promptKey string, variations []string, strategy Strategy) (Selection, error) {
	if len(variations) == 0 {
		return Selection{}, fmt.Errorf("%w: prompt_key=%s", ErrNoVariationsAvailable, promptKey)
	}
	ks := e.state.key(promptKey)
	ks.mu.Lock()
	defer ks.mu.Unlock()

	var (
		pos    int
		reason string
	)
	switch strategy {
	case Sequential:
		pos, reason = e.pickSequential(ks, variations)
	case LeastUsed:
		pos, reason = pickLeastUsed(ks, variations, allPositions(len(variations)))
	case WeightedRandom:
		pos, reason = e.pickWeightedRandom(ks, variations)
	case PerformanceBased:
		pos, reason = e.pickPerformanceBased(ks, variations)
	default:
		return Selection{}, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(strategy))
	}

	id := variations[pos]
	prev := ks.lastSelected
	ks.usage[id]++
	ks.selections++
	ks.lastSelected = id

	e.log.Debug("variation selected", "prompt_key", promptKey, "variation_id", id, "strategy", strategy.String(), "reason", reason)
	return Selection{
		VariationID: id,
		Position:    pos,
		Strategy:    strategy,
		UsageCount:  ks.usage[id],
		Candidates:  len(variations),
		Reason:      reason,
		Previous:    prev,
	}, nil
}

// RecordPerformance adds one attempt for variationID under promptKey.
func (e *Engine) RecordPerformance(promptKey, variationID string, success bool, meta PerformanceMeta) error {
	if strings.TrimSpace(variationID) == "" {
		return fmt.Errorf("%w: empty variation id", ErrUnknownVariation)
	}
	ks := e.state.key(promptKey)
	ks.mu.Lock()
	defer ks.mu.Unlock()

	p := ks.performance[variationID]
	if p == nil {
		p = &Performance{}
		ks.performance[variationID] = p
	}
	p.Attempts++
	if success {
		p.Successes++
	}
	p.QualitySum += meta.QualityScore
	return nil
}

func (e *Engine) pickSequential(ks *keyState, variations []string) (int, string) {
	pos := ks.cursor % len(variations)
	ks.cursor = pos + 1
	return pos, "next in list order"
}

func allPositions(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// pickLeastUsed scans positions in list order so ties go to the earliest.
func pickLeastUsed(ks *keyState, variations []string, positions []int) (int, string) {
	best := positions[0]
	for _, p := range positions[1:] {
		if ks.usage[variations[p]] < ks.usage[variations[best]] {
			best = p
		}
	}
	return best, "lowest usage count"
}

func (e *Engine) pickWeightedRandom(ks *keyState, variations []string) (int, string) {
	weights := make([]float64, len(variations))
	total := 0.0
	for i, v := range variations {
		weights[i] = 1.0 / float64(1+ks.usage[v])
		total += weights[i]
	}
	e.rngMu.Lock()
	r := e.rng.Float64() * total
	e.rngMu.Unlock()
	for i, w := range weights {
		if r < w {
			return i, "weighted draw"
		}
		r -= w
	}
	return len(variations) - 1, "weighted draw"
}

func (e *Engine) pickPerformanceBased(ks *keyState, variations []string) (int, string) {
	var unexplored, explored []int
	for i, v := range variations {
		if ks.perf(v).Attempts < e.minAttempts {
			unexplored = append(unexplored, i)
		} else {
			explored = append(explored, i)
		}
	}
	if len(unexplored) > 0 {
		pos, _ := pickLeastUsed(ks, variations, unexplored)
		return pos, "exploring variation below attempt threshold"
	}

	bestRate := -1.0
	var leaders []int
	for _, i := range explored {
		rate := ks.perf(variations[i]).SuccessRate()
		switch {
		case rate > bestRate:
			bestRate = rate
			leaders = []int{i}
		case rate == bestRate:
			leaders = append(leaders, i)
		}
	}
	pos, _ := pickLeastUsed(ks, variations, leaders)
	return pos, fmt.Sprintf("highest success rate %.3f", bestRate)
}
