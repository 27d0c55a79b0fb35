package attribution

import (
	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

// AssignMethod says how a label obtained its name.
type AssignMethod string

const (
	MethodMention       AssignMethod = "mention"
	MethodRank          AssignMethod = "rank"
	MethodSpeakingOrder AssignMethod = "speaking_order"
	MethodConsolidated  AssignMethod = "consolidated"
	MethodFallback      AssignMethod = "roster_fallback"
	MethodTimeline      AssignMethod = "timeline"
	MethodContent       AssignMethod = "content"
	MethodRawLabel      AssignMethod = "raw_label"
)

// Assignment is one label → participant decision.
type Assignment struct {
	Label       string       `json:"label"`
	Participant string       `json:"participant"`
	Method      AssignMethod `json:"method"`
	Score       float64      `json:"score,omitempty"`
	Via         string       `json:"via,omitempty"`
	DistanceMs  int64        `json:"distance_ms,omitempty"`
}

// run carries the mutable state of one Attribute call. It never outlives the call.
type run struct {
	params   Params
	strategy Strategy
	utts     []entities.CleanUtterance
	stats    *SpeakerStatsSet
	byLabel  map[string][]entities.CleanUtterance

	// activity order
	participants []string

	mapping     entities.Mapping
	taken       map[string]bool
	anchors     []string
	assignments []Assignment
	classes     []LabelClass
	observer    Observer
}

func (r *run) emit(e Event) {
	if r.observer == nil {
		return
	}
	if e.Strategy == "" {
		e.Strategy = r.strategy
	}
	r.observer.Observe(e)
}

// record stores the decision. Direct assignments claim the participant and become
// consolidation anchors.
func (r *run) record(a Assignment, anchor bool) {
	r.mapping[a.Label] = a.Participant
	switch a.Method {
	case MethodMention, MethodRank, MethodSpeakingOrder, MethodTimeline, MethodContent:
		r.taken[a.Participant] = true
	}
	if anchor {
		r.anchors = append(r.anchors, a.Label)
	}
	r.assignments = append(r.assignments, a)
	r.emit(Event{
		Kind:        EventLabelAssigned,
		Label:       a.Label,
		Participant: a.Participant,
		Method:      a.Method,
		Score:       a.Score,
		Via:         a.Via,
		DistanceMs:  a.DistanceMs,
	})
}

func (r *run) freeParticipants() []string {
	out := make([]string, 0, len(r.participants))
	for _, name := range r.participants {
		if !r.taken[name] {
			out = append(out, name)
		}
	}
	return out
}

// assignByMentions walks labels in order and gives each its best-scoring free participant.
// The first participant in activity order wins ties. Returns labels left unassigned.
func (r *run) assignByMentions(labels []string, scores ScoreTable) []string {
	var rest []string
	for _, label := range labels {
		best, bestScore := "", 0.0
		for _, name := range r.participants {
			if r.taken[name] {
				continue
			}
			if s := scores.Score(label, name); s > bestScore {
				best, bestScore = name, s
			}
		}
		if best != "" && bestScore >= r.params.AssignThreshold {
			r.record(Assignment{Label: label, Participant: best, Method: MethodMention, Score: bestScore}, true)
			continue
		}
		rest = append(rest, label)
	}
	return rest
}

// pairByRank pairs labels positionally with the free participants in activity order.
// Returns labels beyond the number of free participants.
func (r *run) pairByRank(labels []string, method AssignMethod) []string {
	free := r.freeParticipants()
	var rest []string
	for i, label := range labels {
		if i >= len(free) {
			rest = append(rest, label)
			continue
		}
		r.record(Assignment{Label: label, Participant: free[i], Method: method}, true)
	}
	return rest
}

// consolidate folds label into the nearest anchor, or the most active participant
// when nothing is mapped yet.
func (r *run) consolidate(label string, anchor bool) {
	if c, ok := Consolidate(label, r.anchors, r.byLabel, r.mapping); ok {
		r.record(Assignment{
			Label:       label,
			Participant: c.Participant,
			Method:      MethodConsolidated,
			Via:         c.Via,
			DistanceMs:  c.DistanceMs,
		}, anchor)
		return
	}
	if len(r.participants) == 0 {
		return
	}
	r.record(Assignment{Label: label, Participant: r.participants[0], Method: MethodFallback}, anchor)
}

// safetyNet consolidates any label still unmapped.
func (r *run) safetyNet() {
	for _, label := range r.stats.Labels() {
		if _, ok := r.mapping[label]; !ok {
			r.consolidate(label, false)
		}
	}
}
