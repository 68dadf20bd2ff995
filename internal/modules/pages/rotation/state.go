package rotation

import "sync"

type Performance struct {
	Successes  int     `json:"successes"`
	Attempts   int     `json:"attempts"`
	QualitySum float64 `json:"quality_sum"`
}

func (p Performance) SuccessRate() float64 {
	if p.Attempts == 0 {
		return 0
	}
	return float64(p.Successes) / float64(p.Attempts)
}

func (p Performance) AvgQuality() float64 {
	if p.Attempts == 0 {
		return 0
	}
	return p.QualitySum / float64(p.Attempts)
}

// keyState is the rotation state of one prompt key. mu serializes every
// read-modify-write on it.
type keyState struct {
	mu           sync.Mutex
	usage        map[string]int
	performance  map[string]*Performance
	lastSelected string
	cursor       int
	selections   int
}

func newKeyState() *keyState {
	return &keyState{usage: map[string]int{}, performance: map[string]*Performance{}}
}

func (k *keyState) perf(variationID string) Performance {
	if p := k.performance[variationID]; p != nil {
		return *p
	}
	return Performance{}
}

// State owns the rotation state of every prompt key for the process lifetime.
// Keys are locked independently.
type State struct {
	mu   sync.RWMutex
	keys map[string]*keyState
}

func NewState() *State {
	return &State{keys: map[string]*keyState{}}
}

func (s *State) key(promptKey string) *keyState {
	s.mu.RLock()
	ks := s.keys[promptKey]
	s.mu.RUnlock()
	if ks != nil {
		return ks
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ks = s.keys[promptKey]; ks == nil {
		ks = newKeyState()
		s.keys[promptKey] = ks
	}
	return ks
}

func (s *State) promptKeys() map[string]*keyState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*keyState, len(s.keys))
	for k, v := range s.keys {
		out[k] = v
	}
	return out
}

// KeySnapshot is a copy of one key's state, for durability collaborators and
// diagnostics.
type KeySnapshot struct {
	UsageCount   map[string]int         `json:"usage_count"`
	Performance  map[string]Performance `json:"performance"`
	LastSelected string                 `json:"last_selected,omitempty"`
	Selections   int                    `json:"selections"`
}

// Snapshot deep-copies every key's state.
func (s *State) Snapshot() map[string]KeySnapshot {
	out := map[string]KeySnapshot{}
	for name, ks := range s.promptKeys() {
		ks.mu.Lock()
		snap := KeySnapshot{
			UsageCount:   make(map[string]int, len(ks.usage)),
			Performance:  make(map[string]Performance, len(ks.performance)),
			LastSelected: ks.lastSelected,
			Selections:   ks.selections,
		}
		for v, n := range ks.usage {
			snap.UsageCount[v] = n
		}
		for v, p := range ks.performance {
			snap.Performance[v] = *p
		}
		ks.mu.Unlock()
		out[name] = snap
	}
	return out
}

// Reset forgets the state of promptKey. The key's state is cleared in place
// under its lock, so callers already holding it keep writing to live state.
func (s *State) Reset(promptKey string) {
	s.mu.RLock()
	ks := s.keys[promptKey]
	s.mu.RUnlock()
	if ks == nil {
		return
	}
	ks.mu.Lock()
	ks.usage = map[string]int{}
	ks.performance = map[string]*Performance{}
	ks.lastSelected = ""
	ks.cursor = 0
	ks.selections = 0
	ks.mu.Unlock()
}
