package attribution

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultParams(), opts...)
	require.NoError(t, err)
	return e
}

func TestNewEngine_RejectsInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.NearWindow = 0
	_, err := NewEngine(p)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestAttribute_InvalidUtterance(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Attribute(Input{Utterances: []entities.Utterance{
		utt("A", "fine", 0, 1_000),
		utt("", "no label", 2_000, 3_000),
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInvalidUtterance)
	assert.Contains(t, err.Error(), "utterance 1")

	_, err = e.Attribute(Input{Utterances: []entities.Utterance{utt("A", "backwards", 5_000, 4_000)}})
	assert.ErrorIs(t, err, entities.ErrInvalidUtterance)
}

func TestAttribute_NoUtterances(t *testing.T) {
	e := newTestEngine(t)
	roster := entities.Roster{"Pat": {ActivityCount: 3}}

	res, err := e.Attribute(Input{Roster: roster})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoUtterances, res.Outcome)
	assert.Empty(t, res.Mapping)
	assert.Empty(t, res.Utterances)

	// everything filtered away
	res, err = e.Attribute(Input{Roster: roster, Utterances: []entities.Utterance{
		utt("A", "Foreign.", 20_000, 21_000),
		utt("B", "Thank you", 1_000, 2_000),
	}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoUtterances, res.Outcome)
	assert.Empty(t, res.Mapping)
	assert.Len(t, res.Dropped, 2)
}

func TestAttribute_EqualCountMention(t *testing.T) {
	rec := &Recorder{}
	e := newTestEngine(t, WithObserver(rec))

	res, err := e.Attribute(Input{
		Utterances: []entities.Utterance{
			utt("A", "thanks Sam", 0, 4_000),
			utt("B", "happy to help with the rollout", 1_000, 3_000),
		},
		Roster: entities.Roster{
			"Alex": {ActivityCount: 7},
			"Sam":  {ActivityCount: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeMapped, res.Outcome)
	assert.Equal(t, StrategyEqual, res.Strategy)
	assert.Equal(t, entities.Mapping{"A": "Alex", "B": "Sam"}, res.Mapping)

	assigned := rec.OfKind(EventLabelAssigned)
	require.Len(t, assigned, 2)
	assert.Equal(t, "B", assigned[0].Label)
	assert.Equal(t, MethodMention, assigned[0].Method)
	assert.Equal(t, 10.0, assigned[0].Score)
	assert.Equal(t, MethodRank, assigned[1].Method)
	require.Len(t, rec.OfKind(EventStrategySelected), 1)
}

func TestAttribute_PrefixNamesAreDistinctParticipants(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Attribute(Input{
		Utterances: []entities.Utterance{
			utt("A", "thanks Samantha for joining", 0, 4_000),
			utt("B", "glad to be here, let's get started", 5_000, 8_000),
		},
		Roster: entities.Roster{
			"Sam":      {ActivityCount: 5},
			"Samantha": {ActivityCount: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Sam", "Samantha"}, res.Participants)
	assert.Equal(t, StrategyEqual, res.Strategy)
	assert.Equal(t, entities.Mapping{"A": "Sam", "B": "Samantha"}, res.Mapping)
}

func TestAttribute_UnderDetectionBySpeakingOrder(t *testing.T) {
	rec := &Recorder{}
	e := newTestEngine(t, WithObserver(rec))

	res, err := e.Attribute(Input{
		Utterances: []entities.Utterance{
			utt("A", "good morning everyone, let's begin", 0, 3_000),
			utt("A", "first item is the launch checklist", 20_000, 24_000),
		},
		Roster: entities.Roster{
			"Pat":  {ActivityCount: 5},
			"Drew": {ActivityCount: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StrategyUnderDetected, res.Strategy)
	assert.Equal(t, entities.Mapping{"A": "Pat"}, res.Mapping)
	assert.Equal(t, []string{"Drew"}, res.UnusedParticipants())

	unused := rec.OfKind(EventParticipantUnused)
	require.Len(t, unused, 1)
	assert.Equal(t, "Drew", unused[0].Participant)
}

// heuristic: positional pairing assumes the earliest speaker is the most active participant
func TestAttribute_UnderDetectionPairsInSpeakingOrder(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Attribute(Input{
		Utterances: []entities.Utterance{
			utt("A", "I joined a little late", 30_000, 33_000),
			utt("B", "welcome, we just started", 20_000, 23_000),
		},
		Roster: entities.Roster{
			"Pat":  {ActivityCount: 5},
			"Drew": {ActivityCount: 2},
			"Kai":  {ActivityCount: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.Mapping{"B": "Pat", "A": "Drew"}, res.Mapping)
}

// overSegmentedInput builds A (50 long turns), B (45 shorter turns) and C (2 brief turns close to B).
func overSegmentedInput() Input {
	var utts []entities.Utterance
	for i := 0; i < 50; i++ {
		start := int64(i) * 20_000
		utts = append(utts, utt("A", fmt.Sprintf("status update part %d from the platform side", i), start, start+1_200))
	}
	for i := 0; i < 45; i++ {
		start := int64(i)*20_000 + 10_000
		utts = append(utts, utt("B", fmt.Sprintf("follow up question %d about the timeline", i), start, start+800))
	}
	utts = append(utts,
		utt("C", "could you repeat that", 213_000, 213_500),
		utt("C", "got it, makes sense", 613_000, 613_500),
	)
	return Input{
		Utterances: utts,
		Roster: entities.Roster{
			"Jordan Lee": {ActivityCount: 9},
			"Morgan":     {ActivityCount: 4},
		},
	}
}

func TestAttribute_OverSegmentationConsolidatesArtifacts(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Attribute(overSegmentedInput())
	require.NoError(t, err)

	assert.Equal(t, StrategyOverSegmented, res.Strategy)
	assert.Equal(t, entities.Mapping{"A": "Jordan Lee", "B": "Morgan", "C": "Morgan"}, res.Mapping)

	require.Len(t, res.Classification, 3)
	assert.True(t, res.Classification[0].Real)
	assert.True(t, res.Classification[1].Real)
	assert.False(t, res.Classification[2].Real)
	assert.Equal(t, "artifact", res.Classification[2].Reason)

	var viaC Assignment
	for _, a := range res.Assignments {
		if a.Label == "C" {
			viaC = a
		}
	}
	assert.Equal(t, MethodConsolidated, viaC.Method)
	assert.Equal(t, "B", viaC.Via)
	assert.Equal(t, int64(3_000), viaC.DistanceMs)

	for _, u := range res.Utterances {
		if u.OriginalLabel == "C" {
			assert.Equal(t, "Morgan", u.Speaker)
		}
	}
}

func TestAttribute_OverSegmentationSurplusRealSpeakers(t *testing.T) {
	e := newTestEngine(t)
	var utts []entities.Utterance
	for i := 0; i < 12; i++ {
		base := int64(i) * 30_000
		utts = append(utts,
			utt("A", fmt.Sprintf("architecture note %d", i), base, base+3_000),
			utt("B", fmt.Sprintf("design concern %d", i), base+10_000, base+12_000),
			utt("C", fmt.Sprintf("testing remark %d", i), base+20_000, base+21_000),
		)
	}
	res, err := e.Attribute(Input{
		Utterances: utts,
		Roster:     entities.Roster{"Riley": {ActivityCount: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Riley", res.Mapping["A"])
	assert.Equal(t, "Riley", res.Mapping["B"])
	assert.Equal(t, "Riley", res.Mapping["C"])
	for _, c := range res.Classification {
		assert.True(t, c.Real, c.Label)
	}
}

func TestAttribute_NoRosterUsesTranscriptNames(t *testing.T) {
	rec := &Recorder{}
	e := newTestEngine(t, WithObserver(rec))

	res, err := e.Attribute(Input{
		Utterances: []entities.Utterance{
			utt("A", "Hi Maria, how was the weekend", 20_000, 23_000),
			utt("B", "Hey David, it was great", 24_000, 27_000),
		},
		Roster: entities.Roster{"Unknown": {ActivityCount: 4}},
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoRoster, res.Outcome)
	assert.Equal(t, StrategyContent, res.Strategy)
	assert.Equal(t, entities.Mapping{"A": "David", "B": "Maria"}, res.Mapping)
	assert.Len(t, rec.OfKind(EventNoRoster), 1)
}

func TestAttribute_NoRosterUsesSpeakerChanges(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Attribute(Input{
		Utterances: []entities.Utterance{
			utt("A", "let us look at the numbers", 0, 3_000),
			utt("B", "sounds reasonable to me", 5_000, 8_000),
			utt("A", "then we move on", 10_000, 13_000),
		},
		SpeakerChanges: []entities.SpeakerChange{
			{TimestampMs: meetingStart + 200, Speaker: "Alice"},
			{TimestampMs: meetingStart + 5_100, Speaker: "Bob"},
			{TimestampMs: meetingStart + 10_000, Speaker: "Alice"},
		},
		MeetingStartMs: meetingStart,
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoRoster, res.Outcome)
	assert.Equal(t, StrategyTimeline, res.Strategy)
	assert.Equal(t, entities.Mapping{"A": "Alice", "B": "Bob"}, res.Mapping)
}

func TestAttribute_NoRosterKeepsRawLabels(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Attribute(Input{Utterances: []entities.Utterance{
		utt("A", "let us look at the numbers", 20_000, 23_000),
		utt("B", "sounds reasonable to me", 25_000, 28_000),
	}})
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoRoster, res.Outcome)
	assert.Equal(t, StrategyRawLabels, res.Strategy)
	assert.Equal(t, entities.Mapping{"A": "A", "B": "B"}, res.Mapping)
	assert.Equal(t, "A", res.Utterances[0].Speaker)
}

func TestAttribute_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	in := overSegmentedInput()
	in.Utterances = append(in.Utterances, utt("A", "Morgan, can you take the next one", 900_000, 903_000))

	first, err := e.Attribute(in)
	require.NoError(t, err)
	second, err := e.Attribute(in)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAttribute_DoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t)
	in := Input{
		Utterances: []entities.Utterance{
			utt("B", "SA second point on pricing", 30_000, 33_000),
			utt("A", "first point on pricing", 20_000, 23_000),
		},
		Roster: entities.Roster{"Pat": {ActivityCount: 1}, "Drew": {ActivityCount: 2}},
	}
	_, err := e.Attribute(in)
	require.NoError(t, err)

	assert.Equal(t, "B", in.Utterances[0].Label)
	assert.Equal(t, "SA second point on pricing", in.Utterances[0].Text)
	assert.Equal(t, "", in.Roster["Pat"].Name)
}

var randomWords = []string{
	"hello", "thanks", "Sam", "Alex", "Jordan", "roadmap", "budget", "yes", "uh",
	"Thank you", "Foreign.", "okay", "next", "Priya", "can you", "review", "SA",
}

var randomNames = []string{"Sam", "Alex Stone", "Alex", "Jordan", "Priya", "Unknown", "User", "Unknown Speaker 3", "Lee"}

func randomInput(rng *rand.Rand) Input {
	labels := []string{"A", "B", "C", "D", "E", "F"}[:1+rng.Intn(6)]
	n := 1 + rng.Intn(40)
	utts := make([]entities.Utterance, 0, n)
	for i := 0; i < n; i++ {
		words := 1 + rng.Intn(5)
		text := ""
		for w := 0; w < words; w++ {
			if w > 0 {
				text += " "
			}
			text += randomWords[rng.Intn(len(randomWords))]
		}
		start := int64(rng.Intn(600_000))
		utts = append(utts, entities.Utterance{
			Label:      labels[rng.Intn(len(labels))],
			Text:       text,
			StartMs:    start,
			EndMs:      start + int64(rng.Intn(8_000)),
			Confidence: rng.Float64(),
		})
	}

	roster := entities.Roster{}
	for i := rng.Intn(5); i > 0; i-- {
		roster[randomNames[rng.Intn(len(randomNames))]] = entities.ParticipantRecord{ActivityCount: rng.Intn(6)}
	}

	var changes []entities.SpeakerChange
	if rng.Intn(2) == 0 {
		for i := rng.Intn(6); i > 0; i-- {
			changes = append(changes, entities.SpeakerChange{
				TimestampMs: meetingStart + int64(rng.Intn(600_000)),
				Speaker:     randomNames[rng.Intn(len(randomNames))],
			})
		}
	}
	return Input{Utterances: utts, Roster: roster, SpeakerChanges: changes, MeetingStartMs: meetingStart}
}

func TestAttribute_TotalCoverage(t *testing.T) {
	e := newTestEngine(t)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		in := randomInput(rng)
		res, err := e.Attribute(in)
		require.NoError(t, err, "case %d", i)

		for _, u := range res.Utterances {
			name, ok := res.Mapping[u.OriginalLabel]
			require.True(t, ok, "case %d: label %s unmapped", i, u.OriginalLabel)
			assert.Equal(t, name, u.Speaker)
		}
		if res.Outcome == OutcomeNoUtterances {
			assert.Empty(t, res.Mapping, "case %d", i)
		}
	}
}
