package attribution

// Strategy is the assignment approach chosen for one run.
type Strategy string

const (
	StrategyNone          Strategy = "NONE"
	StrategyEqual         Strategy = "EQUAL"
	StrategyOverSegmented Strategy = "OVER_SEGMENTED"
	StrategyUnderDetected Strategy = "UNDER_DETECTED"
	StrategyContent       Strategy = "CONTENT"
	StrategyTimeline      Strategy = "TIMELINE"
	StrategyRawLabels     Strategy = "RAW_LABELS"
)

// SelectStrategy compares the label count to the participant count.
func SelectStrategy(numLabels, numParticipants int) Strategy {
	switch {
	case numLabels == numParticipants:
		return StrategyEqual
	case numLabels > numParticipants:
		return StrategyOverSegmented
	default:
		return StrategyUnderDetected
	}
}

func (r *run) execute() {
	switch r.strategy {
	case StrategyEqual:
		r.runEqual()
	case StrategyOverSegmented:
		r.runOverSegmented()
	case StrategyUnderDetected:
		r.runUnderDetected()
	}
	r.safetyNet()
}

func (r *run) scoreMentions(labels []string, nearWeight float64) ScoreTable {
	return ScoreMentions(r.utts, labels, r.participants, r.params, nearWeight, func(h MentionHit) {
		r.emit(Event{
			Kind:        EventMentionScored,
			Label:       h.Label,
			Participant: h.Participant,
			Score:       h.Weight,
			Signal:      h.Signal,
			Reason:      "mentioned by " + h.MentionedBy,
		})
	})
}

// runEqual resolves dominant speakers first by mentions, then pairs the rest by rank.
func (r *run) runEqual() {
	labels := r.stats.LabelsByDuration(r.stats.Labels())
	scores := r.scoreMentions(labels, r.params.NearWeightEqual)
	rest := r.assignByMentions(labels, scores)
	r.pairByRank(rest, MethodRank)
}

// runOverSegmented maps real labels like runEqual and folds the surplus into their nearest neighbours.
func (r *run) runOverSegmented() {
	r.classes = ClassifyLabels(r.stats, r.byLabel, len(r.participants), r.params)

	var real, artifacts []string
	for _, c := range r.classes {
		r.emit(Event{Kind: EventLabelClassified, Label: c.Label, Real: c.Real, Reason: c.Reason, Score: c.Percentage})
		if c.Real {
			real = append(real, c.Label)
		} else {
			artifacts = append(artifacts, c.Label)
		}
	}

	scores := r.scoreMentions(real, r.params.NearWeightOverSegmented)
	rest := r.assignByMentions(real, scores)
	rest = r.pairByRank(rest, MethodRank)

	// surplus real speakers become anchors themselves, artifacts do not
	for _, label := range rest {
		r.consolidate(label, true)
	}
	for _, label := range artifacts {
		r.consolidate(label, false)
	}
}

// runUnderDetected pairs labels in speaking order with participants by activity.
// Participants past the label count stay unmapped. This is a heuristic, not an optimal matching.
func (r *run) runUnderDetected() {
	order := r.stats.ByFirstUtterance()
	labels := make([]string, 0, len(order))
	for _, st := range order {
		labels = append(labels, st.Label)
	}
	r.pairByRank(labels, MethodSpeakingOrder)

	for _, name := range r.freeParticipants() {
		r.emit(Event{Kind: EventParticipantUnused, Participant: name})
	}
}
