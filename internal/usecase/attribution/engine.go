package attribution

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

// Outcome summarizes how complete an attribution run was.
type Outcome string

const (
	OutcomeMapped       Outcome = "MAPPED"
	OutcomeNoUtterances Outcome = "NO_UTTERANCES"
	OutcomeNoRoster     Outcome = "NO_ROSTER"
)

// Input is everything one meeting contributes to an attribution run.
type Input struct {
	Utterances []entities.Utterance `json:"utterances" yaml:"utterances"`
	Roster     entities.Roster      `json:"roster" yaml:"roster"`
	// SpeakerChanges is the optional visual active-speaker log
	SpeakerChanges []entities.SpeakerChange `json:"speaker_changes,omitempty" yaml:"speaker_changes,omitempty"`
	// MeetingStartMs anchors utterance offsets to wall-clock epoch milliseconds
	MeetingStartMs int64 `json:"meeting_start_ms" yaml:"meeting_start_ms"`
}

// Result is the outcome of one run. It never shares memory with the Input.
type Result struct {
	Outcome        Outcome                        `json:"outcome"`
	Strategy       Strategy                       `json:"strategy"`
	Mapping        entities.Mapping               `json:"mapping"`
	Utterances     []entities.AttributedUtterance `json:"utterances"`
	Stats          []entities.SpeakerStats        `json:"stats"`
	Classification []LabelClass                   `json:"classification,omitempty"`
	Assignments    []Assignment                   `json:"assignments"`
	Dropped        []Dropped                      `json:"dropped,omitempty"`
	// Participants is the filtered roster in activity order
	Participants  []string       `json:"participants"`
	MentionCounts []MentionCount `json:"mention_counts,omitempty"`
}

// UnusedParticipants lists participants no label was mapped to, in activity order.
func (r *Result) UnusedParticipants() []string {
	used := make(map[string]struct{}, len(r.Mapping))
	for _, name := range r.Mapping {
		used[name] = struct{}{}
	}
	var out []string
	for _, name := range r.Participants {
		if _, ok := used[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// UtteranceCounts returns the number of attributed utterances per label.
func (r *Result) UtteranceCounts() map[string]int {
	out := make(map[string]int, len(r.Stats))
	for _, st := range r.Stats {
		out[st.Label] = st.UtteranceCount
	}
	return out
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver adds an observer for decision events.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// Engine resolves anonymous diarization labels to roster names.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	params    Params
	observers multiObserver
}

// NewEngine creates an engine with validated params.
func NewEngine(p Params, opts ...Option) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{params: p}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Params returns the thresholds the engine runs with.
func (e *Engine) Params() Params { return e.params }

// Attribute runs the full pipeline: normalize, aggregate, pick a strategy, assign, consolidate
// and apply. Every label left in the cleaned transcript is a key of Result.Mapping.
func (e *Engine) Attribute(in Input) (*Result, error) {
	for i, u := range in.Utterances {
		if err := u.Validate(); err != nil {
			return nil, fmt.Errorf("utterance %d: %w", i, err)
		}
	}

	r := &run{
		params:   e.params,
		strategy: StrategyNone,
		mapping:  make(entities.Mapping),
		taken:    make(map[string]bool),
	}
	if len(e.observers) > 0 {
		r.observer = e.observers
	}

	res := &Result{
		Outcome:  OutcomeMapped,
		Strategy: StrategyNone,
		Mapping:  r.mapping,
	}

	norm := Normalize(in.Utterances, e.params)
	res.Dropped = norm.Dropped
	for _, d := range norm.Dropped {
		r.emit(Event{Kind: EventUtteranceDropped, Label: d.Utterance.Label, Reason: string(d.Reason), Score: d.Similarity})
	}
	r.participants = FilterParticipants(in.Roster)
	res.Participants = r.participants

	if len(norm.Utterances) == 0 {
		res.Outcome = OutcomeNoUtterances
		res.Utterances = []entities.AttributedUtterance{}
		r.emit(Event{Kind: EventNoUtterances, Reason: fmt.Sprintf("%d raw, %d dropped", len(in.Utterances), len(norm.Dropped))})
		return res, nil
	}

	r.utts = norm.Utterances
	r.stats = ComputeStats(r.utts)
	r.byLabel = groupByLabel(r.utts)

	if len(r.participants) == 0 {
		res.Outcome = OutcomeNoRoster
		r.emit(Event{Kind: EventNoRoster, Reason: "no usable participant names"})
		r.resolveWithoutRoster(in)
	} else {
		r.strategy = SelectStrategy(r.stats.Len(), len(r.participants))
		r.emit(Event{Kind: EventStrategySelected, Reason: fmt.Sprintf("%d labels, %d participants", r.stats.Len(), len(r.participants))})
		r.execute()
		res.MentionCounts = CountMentions(r.utts, r.participants)
	}

	if missing := r.mapping.Missing(r.stats.Labels()); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrCoverageViolation, strings.Join(missing, ", "))
	}

	res.Strategy = r.strategy
	res.Assignments = r.assignments
	res.Classification = r.classes
	res.Stats = r.stats.All()
	res.Utterances = ApplyMapping(r.utts, r.mapping)
	return res, nil
}

// resolveWithoutRoster tries transcript names, then the speaker-change log, and finally
// keeps the raw label for whatever is left.
func (r *run) resolveWithoutRoster(in Input) {
	order := r.stats.ByFirstUtterance()

	if names := ExtractNames(r.utts); len(names) > 0 {
		if content := MapByContent(r.utts, names); len(content) > 0 {
			r.strategy = StrategyContent
			for _, st := range order {
				if name, ok := content[st.Label]; ok {
					r.record(Assignment{Label: st.Label, Participant: name, Method: MethodContent}, true)
				}
			}
		}
	}

	if r.strategy == StrategyNone && len(in.SpeakerChanges) > 0 {
		names := TimelineNames(in.SpeakerChanges)
		if found := CorrelateTimeline(r.utts, in.SpeakerChanges, names, in.MeetingStartMs, r.params); len(found) > 0 {
			r.strategy = StrategyTimeline
			for _, a := range found {
				r.record(a, true)
			}
		}
	}

	if r.strategy == StrategyNone {
		r.strategy = StrategyRawLabels
	}
	for _, st := range order {
		if _, ok := r.mapping[st.Label]; !ok {
			r.record(Assignment{Label: st.Label, Participant: st.Label, Method: MethodRawLabel}, false)
		}
	}
}

// ApplyMapping substitutes names for labels. Unmapped labels keep the raw label as speaker.
func ApplyMapping(utts []entities.CleanUtterance, mapping entities.Mapping) []entities.AttributedUtterance {
	out := make([]entities.AttributedUtterance, 0, len(utts))
	for _, u := range utts {
		speaker, ok := mapping[u.Label]
		if !ok {
			speaker = u.Label
		}
		out = append(out, entities.AttributedUtterance{
			Speaker:       speaker,
			OriginalLabel: u.Label,
			Text:          u.Text,
			OriginalText:  u.OriginalText,
			StartMs:       u.StartMs,
			EndMs:         u.EndMs,
			Confidence:    u.Confidence,
		})
	}
	return out
}
