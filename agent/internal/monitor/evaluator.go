package monitor

// GrowthMultiple computes current/baseline. Callers must keep non-positive
// baselines out of the active set; this guards anyway and reports 0.
func GrowthMultiple(baseline, current float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return current / baseline
}

// NewlyCrossedTiers returns every configured tier that the growth multiple
// has reached but that has not been alerted yet, in ascending order. When the
// price jumps across several thresholds between polls all of them are
// reported, not just the highest, so the ledger records every tier actually
// reached.
func NewlyCrossedTiers(baseline, current float64, alerted map[int]bool, tiers []int) []int {
	if baseline <= 0 {
		return nil
	}
	multiple := current / baseline
	var crossed []int
	for _, tier := range tiers {
		if multiple >= float64(tier) && !alerted[tier] {
			crossed = append(crossed, tier)
		}
	}
	return crossed
}
