package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
	"github.com/johnquangdev/speaker-attribution/internal/usecase/attribution"
)

// Format selects one of the transcript renderings
type Format string

const (
	FormatFlat    Format = "flat"
	FormatLabeled Format = "labeled"
	FormatLabels  Format = "labels"
	FormatReport  Format = "report"
	FormatJSON    Format = "json"
)

// Formats lists every supported format
var Formats = []Format{FormatFlat, FormatLabeled, FormatLabels, FormatReport, FormatJSON}

// ParseFormat validates a user supplied format name
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// ContentType returns the MIME type used when storing a rendering
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatReport:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension for a rendering
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatReport:
		return ".md"
	default:
		return ".txt"
	}
}

const isoMillis = "2006-01-02T15:04:05.000Z"

const (
	reportPreviewCount = 10
	reportPreviewChars = 100
)

// Renderer turns an attribution result into transcript text and reports
type Renderer struct {
	now func() time.Time
}

// NewRenderer creates a Renderer using the wall clock for report timestamps
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// NewRendererWithClock creates a Renderer with a fixed clock, used by tests
func NewRendererWithClock(now func() time.Time) *Renderer {
	return &Renderer{now: now}
}

// Render produces the requested format
func (r *Renderer) Render(format Format, res *attribution.Result, meetingStartMs int64) (string, error) {
	if res == nil {
		return "", fmt.Errorf("attribution result is nil")
	}
	switch format {
	case FormatFlat:
		return r.CorrectedTranscript(res, meetingStartMs), nil
	case FormatLabeled:
		return r.LabeledTranscript(res, meetingStartMs), nil
	case FormatLabels:
		return r.LabelsOnlyTranscript(res, meetingStartMs), nil
	case FormatReport:
		return r.SpeakerReport(res, meetingStartMs), nil
	case FormatJSON:
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal attribution result: %w", err)
		}
		return string(b) + "\n", nil
	}
	return "", fmt.Errorf("unknown format %q", format)
}

// CorrectedTranscript renders "[ISO] Name: text" lines
func (r *Renderer) CorrectedTranscript(res *attribution.Result, meetingStartMs int64) string {
	var b strings.Builder
	for _, u := range res.Utterances {
		fmt.Fprintf(&b, "[%s] %s: %s\n", timestamp(meetingStartMs, u.StartMs), u.Speaker, strings.TrimSpace(u.Text))
	}
	return b.String()
}

// LabeledTranscript renders the mapping header followed by "[ISO] Name (Speaker X): text" lines
func (r *Renderer) LabeledTranscript(res *attribution.Result, meetingStartMs int64) string {
	var b strings.Builder
	writeMappingHeader(&b, res.Mapping)
	for _, u := range res.Utterances {
		fmt.Fprintf(&b, "[%s] %s (Speaker %s): %s\n", timestamp(meetingStartMs, u.StartMs), u.Speaker, u.OriginalLabel, strings.TrimSpace(u.Text))
	}
	return b.String()
}

// LabelsOnlyTranscript renders the mapping header followed by "[ISO] Speaker X: text" lines
func (r *Renderer) LabelsOnlyTranscript(res *attribution.Result, meetingStartMs int64) string {
	var b strings.Builder
	writeMappingHeader(&b, res.Mapping)
	for _, u := range res.Utterances {
		fmt.Fprintf(&b, "[%s] Speaker %s: %s\n", timestamp(meetingStartMs, u.StartMs), u.OriginalLabel, strings.TrimSpace(u.Text))
	}
	return b.String()
}

// SpeakerReport renders the markdown attribution report
func (r *Renderer) SpeakerReport(res *attribution.Result, meetingStartMs int64) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# Speaker Attribution Report")
	line("")
	line("Generated: %s", r.now().UTC().Format(isoMillis))
	line("")
	line("## Speaker Attribution Method: %s", methodTitle(res))
	line("")
	line("%s", methodDescription(res))
	line("")

	if len(res.Mapping) > 0 {
		counts := res.UtteranceCounts()
		line("**Speaker Mapping:**")
		for _, label := range res.Mapping.Labels() {
			line("- Speaker %s → **%s** (%d utterances)", label, res.Mapping[label], counts[label])
		}
		line("")
	}

	speakers, perSpeaker := speakersInOrder(res.Utterances)
	line("**Speakers detected (%d):**", len(speakers))
	for _, s := range speakers {
		line("- **%s**: %d utterances", s, perSpeaker[s])
	}
	line("")

	line("## Attributions")
	line("")
	for i, u := range res.Utterances {
		if i == reportPreviewCount {
			break
		}
		line("**#%d** (%s, Speaker %s)", i+1, u.Speaker, u.OriginalLabel)
		line("- **Text**: %q", truncate(strings.TrimSpace(u.Text), reportPreviewChars))
		line("- **Time**: %s", timestamp(meetingStartMs, u.StartMs))
		line("")
	}
	if extra := len(res.Utterances) - reportPreviewCount; extra > 0 {
		line("... and %d more utterances", extra)
		line("")
	}

	line("## Summary")
	line("")
	line("- **Outcome**: %s", res.Outcome)
	line("- **Strategy**: %s", res.Strategy)
	line("- **Attributed utterances**: %d", len(res.Utterances))
	line("- **Dropped utterances**: %d", len(res.Dropped))
	line("- **Speaker labels**: %d", len(res.Stats))
	line("- **Roster participants**: %d", len(res.Participants))
	line("")

	if unused := res.UnusedParticipants(); len(unused) > 0 {
		line("### Participants Who Did Not Speak")
		line("")
		for _, name := range unused {
			line("- %s", name)
		}
		line("")
	}
	return b.String()
}

func writeMappingHeader(b *strings.Builder, mapping entities.Mapping) {
	if len(mapping) == 0 {
		return
	}
	b.WriteString("AI Speaker Mapping\n")
	for _, label := range mapping.Labels() {
		fmt.Fprintf(b, "- Speaker %s → %s\n", label, mapping[label])
	}
	b.WriteByte('\n')
}

func timestamp(meetingStartMs, offsetMs int64) string {
	return time.UnixMilli(meetingStartMs + offsetMs).UTC().Format(isoMillis)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func speakersInOrder(utts []entities.AttributedUtterance) ([]string, map[string]int) {
	counts := make(map[string]int)
	var order []string
	for _, u := range utts {
		if _, ok := counts[u.Speaker]; !ok {
			order = append(order, u.Speaker)
		}
		counts[u.Speaker]++
	}
	return order, counts
}

func methodTitle(res *attribution.Result) string {
	switch res.Outcome {
	case attribution.OutcomeNoUtterances:
		return "None"
	case attribution.OutcomeNoRoster:
		return "Fallback"
	}
	return "Audio-Based Diarization"
}

func methodDescription(res *attribution.Result) string {
	switch res.Strategy {
	case attribution.StrategyEqual:
		return "Each diarization label was matched to one participant using name mentions, then speaking time against roster activity."
	case attribution.StrategyOverSegmented:
		return fmt.Sprintf("The provider detected more speakers than participants. %d labels were classified as real speakers and the rest were merged into their nearest neighbour in time.", countReal(res.Classification))
	case attribution.StrategyUnderDetected:
		return "The provider detected fewer speakers than participants. Labels were paired with participants in speaking order."
	case attribution.StrategyContent:
		return "No roster was available. Names were extracted from the conversation itself."
	case attribution.StrategyTimeline:
		return "No roster was available. Labels were correlated with the visual speaker-change log."
	case attribution.StrategyRawLabels:
		return "No participant names were available. Speakers keep their diarization labels."
	}
	return "No speech was left to attribute after filtering."
}

func countReal(classes []attribution.LabelClass) int {
	n := 0
	for _, c := range classes {
		if c.Real {
			n++
		}
	}
	return n
}
