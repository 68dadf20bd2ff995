package rotation

import "sort"

type VariationUsage struct {
	PromptKey   string  `json:"prompt_key"`
	VariationID string  `json:"variation_id"`
	UsageCount  int     `json:"usage_count"`
	Attempts    int     `json:"attempts"`
	SuccessRate float64 `json:"success_rate"`
	AvgQuality  float64 `json:"avg_quality"`
}

type KeyReport struct {
	TotalSelections  int     `json:"total_selections"`
	DistinctUsed     int     `json:"distinct_used"`
	PatternDiversity float64 `json:"pattern_diversity"`
	LastSelected     string  `json:"last_selected,omitempty"`
}

type Report struct {
	TotalSelections        int                  `json:"total_selections"`
	DistinctVariationsUsed int                  `json:"distinct_variations_used"`
	PatternDiversity       float64              `json:"pattern_diversity"`
	MostUsed               []VariationUsage     `json:"most_used"`
	BestPerforming         []VariationUsage     `json:"best_performing"`
	Keys                   map[string]KeyReport `json:"keys"`
}

const reportTopN = 5

func diversity(distinct, total int) float64 {
	if total <= 0 {
		return 0
	}
	d := float64(distinct) / float64(total)
	if d > 1 {
		return 1
	}
	return d
}

// Report summarizes usage across all prompt keys. Variations are identified by
// (prompt key, variation id).
func (e *Engine) Report() Report {
	snap := e.state.Snapshot()
	rep := Report{Keys: map[string]KeyReport{}, MostUsed: []VariationUsage{}, BestPerforming: []VariationUsage{}}

	var rows []VariationUsage
	for key, ks := range snap {
		distinct := 0
		for _, n := range ks.UsageCount {
			if n > 0 {
				distinct++
			}
		}
		rep.Keys[key] = KeyReport{
			TotalSelections:  ks.Selections,
			DistinctUsed:     distinct,
			PatternDiversity: diversity(distinct, ks.Selections),
			LastSelected:     ks.LastSelected,
		}
		rep.TotalSelections += ks.Selections
		rep.DistinctVariationsUsed += distinct

		ids := map[string]bool{}
		for id := range ks.UsageCount {
			ids[id] = true
		}
		for id := range ks.Performance {
			ids[id] = true
		}
		for id := range ids {
			p := ks.Performance[id]
			rows = append(rows, VariationUsage{
				PromptKey:   key,
				VariationID: id,
				UsageCount:  ks.UsageCount[id],
				Attempts:    p.Attempts,
				SuccessRate: p.SuccessRate(),
				AvgQuality:  p.AvgQuality(),
			})
		}
	}
	rep.PatternDiversity = diversity(rep.DistinctVariationsUsed, rep.TotalSelections)

	byIdentity := func(a, b VariationUsage) bool {
		if a.PromptKey != b.PromptKey {
			return a.PromptKey < b.PromptKey
		}
		return a.VariationID < b.VariationID
	}

	used := make([]VariationUsage, 0, len(rows))
	performed := make([]VariationUsage, 0, len(rows))
	for _, r := range rows {
		if r.UsageCount > 0 {
			used = append(used, r)
		}
		if r.Attempts > 0 {
			performed = append(performed, r)
		}
	}
	sort.Slice(used, func(i, j int) bool {
		if used[i].UsageCount != used[j].UsageCount {
			return used[i].UsageCount > used[j].UsageCount
		}
		return byIdentity(used[i], used[j])
	})
	sort.Slice(performed, func(i, j int) bool {
		if performed[i].SuccessRate != performed[j].SuccessRate {
			return performed[i].SuccessRate > performed[j].SuccessRate
		}
		if performed[i].Attempts != performed[j].Attempts {
			return performed[i].Attempts > performed[j].Attempts
		}
		return byIdentity(performed[i], performed[j])
	})
	if len(used) > reportTopN {
		used = used[:reportTopN]
	}
	if len(performed) > reportTopN {
		performed = performed[:reportTopN]
	}
	rep.MostUsed = used
	rep.BestPerforming = performed
	return rep
}
