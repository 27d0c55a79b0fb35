package attribution

import (
	"sort"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

// TimelineNames returns the usable, deduplicated speaker names of a change log in first-seen order.
func TimelineNames(changes []entities.SpeakerChange) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, c := range changes {
		if entities.IsGenericParticipantName(c.Speaker) || len([]rune(c.Speaker)) < 2 {
			continue
		}
		if _, ok := seen[c.Speaker]; ok {
			continue
		}
		seen[c.Speaker] = struct{}{}
		names = append(names, c.Speaker)
	}
	return DedupeNames(names)
}

// CorrelateTimeline scores every (label, name) pair by how close the visual speaker changes
// sit to the label's utterances. A change Δ ms away from an utterance start (Δ < window)
// adds (1 - Δ/window)². Labels are resolved most talkative first; each takes its best
// unclaimed name when the score exceeds TimelineMinScore.
func CorrelateTimeline(utts []entities.CleanUtterance, changes []entities.SpeakerChange, names []string, meetingStartMs int64, p Params) []Assignment {
	if len(names) == 0 || len(changes) == 0 || p.TimelineWindowMs <= 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[n] = struct{}{}
	}

	scores := make(ScoreTable)
	counts := make(map[string]int)
	window := float64(p.TimelineWindowMs)
	for _, u := range utts {
		counts[u.Label]++
		at := meetingStartMs + u.StartMs
		for _, c := range changes {
			if _, ok := allowed[c.Speaker]; !ok {
				continue
			}
			d := c.TimestampMs - at
			if d < 0 {
				d = -d
			}
			if d >= p.TimelineWindowMs {
				continue
			}
			proximity := 1 - float64(d)/window
			scores.add(u.Label, c.Speaker, proximity*proximity)
		}
	}

	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})

	sortedNames := append([]string(nil), names...)
	sort.Strings(sortedNames)

	claimed := make(map[string]bool)
	var out []Assignment
	for _, label := range labels {
		best, bestScore := "", 0.0
		for _, name := range sortedNames {
			if claimed[name] {
				continue
			}
			if s := scores.Score(label, name); best == "" || s > bestScore {
				best, bestScore = name, s
			}
		}
		if best == "" || bestScore <= p.TimelineMinScore {
			continue
		}
		claimed[best] = true
		out = append(out, Assignment{Label: label, Participant: best, Method: MethodTimeline, Score: bestScore})
	}
	return out
}
