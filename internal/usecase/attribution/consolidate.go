package attribution

import (
	"sort"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

// Consolidation is the outcome of folding one label into its closest mapped label.
type Consolidation struct {
	Label       string
	Via         string
	Participant string
	DistanceMs  int64
}

// Consolidate finds, among mappedLabels, the label whose utterances start closest in time
// to any utterance of label, and returns that label's participant.
//
// Distance is the brute-force minimum of |start_a - start_b| over every utterance pair.
// Ties go to the lexically smallest mapped label. ok is false when no mapped label has
// utterances to compare against.
func Consolidate(label string, mappedLabels []string, byLabel map[string][]entities.CleanUtterance, mapping entities.Mapping) (Consolidation, bool) {
	candidates := make([]string, 0, len(mappedLabels))
	for _, l := range mappedLabels {
		if l == label {
			continue
		}
		if _, ok := mapping[l]; !ok {
			continue
		}
		candidates = append(candidates, l)
	}
	sort.Strings(candidates)

	own := byLabel[label]
	best := Consolidation{Label: label}
	found := false

	for _, cand := range candidates {
		d, ok := minStartDistance(own, byLabel[cand])
		if !ok {
			continue
		}
		if !found || d < best.DistanceMs {
			best.Via = cand
			best.DistanceMs = d
			best.Participant = mapping[cand]
			found = true
		}
	}
	return best, found
}

func minStartDistance(a, b []entities.CleanUtterance) (int64, bool) {
	var (
		min   int64
		found bool
	)
	for _, x := range a {
		for _, y := range b {
			d := x.StartMs - y.StartMs
			if d < 0 {
				d = -d
			}
			if !found || d < min {
				min = d
				found = true
			}
		}
	}
	return min, found
}
