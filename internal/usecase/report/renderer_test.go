package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/attribution"
)

// 2024-03-01T10:00:00.000Z
const start = int64(1709287200000)

func sampleResult() *attribution.Result {
	return &attribution.Result{
		Outcome:  attribution.OutcomeMapped,
		Strategy: attribution.StrategyUnderDetected,
		Mapping:  entities.Mapping{"B": "Sam", "A": "Alex"},
		Utterances: []entities.AttributedUtterance{
			{Speaker: "Alex", OriginalLabel: "A", Text: " kicking off now ", StartMs: 0, EndMs: 2_000},
			{Speaker: "Sam", OriginalLabel: "B", Text: "sounds good", StartMs: 2_500, EndMs: 4_000},
		},
		Stats: []entities.SpeakerStats{
			{Label: "A", UtteranceCount: 1},
			{Label: "B", UtteranceCount: 1},
		},
		Participants: []string{"Alex", "Sam", "Kai"},
	}
}

func TestCorrectedTranscript(t *testing.T) {
	got := NewRenderer().CorrectedTranscript(sampleResult(), start)
	want := "[2024-03-01T10:00:00.000Z] Alex: kicking off now\n" +
		"[2024-03-01T10:00:02.500Z] Sam: sounds good\n"
	assert.Equal(t, want, got)
}

func TestLabeledTranscript(t *testing.T) {
	got := NewRenderer().LabeledTranscript(sampleResult(), start)
	want := "AI Speaker Mapping\n" +
		"- Speaker A → Alex\n" +
		"- Speaker B → Sam\n" +
		"\n" +
		"[2024-03-01T10:00:00.000Z] Alex (Speaker A): kicking off now\n" +
		"[2024-03-01T10:00:02.500Z] Sam (Speaker B): sounds good\n"
	assert.Equal(t, want, got)
}

func TestLabelsOnlyTranscript(t *testing.T) {
	got := NewRenderer().LabelsOnlyTranscript(sampleResult(), start)
	assert.True(t, strings.HasPrefix(got, "AI Speaker Mapping\n"))
	assert.Contains(t, got, "[2024-03-01T10:00:02.500Z] Speaker B: sounds good\n")
	assert.NotContains(t, got, "Sam (Speaker")
}

func TestSpeakerReport(t *testing.T) {
	r := NewRendererWithClock(func() time.Time { return time.UnixMilli(start) })
	got := r.SpeakerReport(sampleResult(), start)

	assert.Contains(t, got, "Generated: 2024-03-01T10:00:00.000Z")
	assert.Contains(t, got, "## Speaker Attribution Method: Audio-Based Diarization")
	assert.Contains(t, got, "- Speaker A → **Alex** (1 utterances)")
	assert.Contains(t, got, "**Speakers detected (2):**")
	assert.Contains(t, got, "**#2** (Sam, Speaker B)")
	assert.Contains(t, got, "### Participants Who Did Not Speak\n\n- Kai\n")
	assert.NotContains(t, got, "more utterances")
}

func TestSpeakerReport_TruncatesPreview(t *testing.T) {
	res := sampleResult()
	long := strings.Repeat("word ", 40)
	for i := 0; i < 12; i++ {
		res.Utterances = append(res.Utterances, entities.AttributedUtterance{Speaker: "Alex", OriginalLabel: "A", Text: long})
	}
	got := NewRenderer().SpeakerReport(res, start)

	assert.Contains(t, got, "... and 4 more utterances")
	assert.Contains(t, got, strings.Repeat("word ", 19)+"wo...")
}

func TestRender(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render(FormatJSON, sampleResult(), start)
	require.NoError(t, err)

	var decoded attribution.Result
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "Sam", decoded.Mapping["B"])

	_, err = r.Render(FormatFlat, nil, start)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Report ")
	require.NoError(t, err)
	assert.Equal(t, FormatReport, f)
	assert.Equal(t, ".md", f.Extension())

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}
