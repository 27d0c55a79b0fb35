package attribution

import (
	"go.uber.org/zap"
)

// EventKind names one decision the engine took.
type EventKind string

const (
	EventUtteranceDropped  EventKind = "utterance_dropped"
	EventStrategySelected  EventKind = "strategy_selected"
	EventLabelClassified   EventKind = "label_classified"
	EventMentionScored     EventKind = "mention_scored"
	EventLabelAssigned     EventKind = "label_assigned"
	EventParticipantUnused EventKind = "participant_unused"
	EventNoUtterances      EventKind = "no_utterances"
	EventNoRoster          EventKind = "no_roster"
)

// Event is emitted to the observer for every decision. Fields irrelevant to a kind stay zero.
type Event struct {
	Kind        EventKind
	Strategy    Strategy
	Label       string
	Participant string
	Method      AssignMethod
	Score       float64
	Via         string
	DistanceMs  int64
	Reason      string
	Real        bool
	Signal      MentionSignal
}

// Observer receives engine events. Implementations must not retain the engine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// Recorder keeps every event in order. Useful in tests and diagnostics.
type Recorder struct {
	Events []Event
}

// Observe appends e.
func (r *Recorder) Observe(e Event) { r.Events = append(r.Events, e) }

// OfKind filters recorded events.
func (r *Recorder) OfKind(kind EventKind) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type multiObserver []Observer

func (m multiObserver) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}

// zapObserver logs assignments at info and everything else at debug.
type zapObserver struct {
	logger *zap.Logger
}

// NewZapObserver turns engine events into structured log lines.
func NewZapObserver(logger *zap.Logger) Observer {
	return &zapObserver{logger: logger}
}

func (z *zapObserver) Observe(e Event) {
	if z.logger == nil {
		return
	}
	fields := []zap.Field{zap.String("event", string(e.Kind))}
	if e.Strategy != "" {
		fields = append(fields, zap.String("strategy", string(e.Strategy)))
	}
	if e.Label != "" {
		fields = append(fields, zap.String("label", e.Label))
	}
	if e.Participant != "" {
		fields = append(fields, zap.String("participant", e.Participant))
	}
	if e.Method != "" {
		fields = append(fields, zap.String("method", string(e.Method)))
	}
	if e.Score != 0 {
		fields = append(fields, zap.Float64("score", e.Score))
	}
	if e.Via != "" {
		fields = append(fields, zap.String("via", e.Via), zap.Int64("distance_ms", e.DistanceMs))
	}
	if e.Reason != "" {
		fields = append(fields, zap.String("reason", e.Reason))
	}

	switch e.Kind {
	case EventLabelAssigned:
		z.logger.Info("🎯 Speaker label assigned", fields...)
	case EventStrategySelected:
		z.logger.Info("🧭 Attribution strategy selected", fields...)
	case EventNoRoster, EventNoUtterances:
		z.logger.Warn("⚠️ Attribution degraded", fields...)
	case EventLabelClassified:
		z.logger.Debug("label classified", append(fields, zap.Bool("real", e.Real))...)
	case EventMentionScored:
		z.logger.Debug("mention scored", append(fields, zap.String("signal", string(e.Signal)))...)
	default:
		z.logger.Debug("attribution event", fields...)
	}
}
