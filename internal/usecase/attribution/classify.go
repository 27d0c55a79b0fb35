package attribution

import (
	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

// LabelClass is the real-vs-artifact verdict for one label in an over-segmented transcript.
type LabelClass struct {
	Label                string  `json:"label"`
	Percentage           float64 `json:"percentage"`
	CumulativePercentage float64 `json:"cumulative_percentage"`
	IsGrouped            bool    `json:"is_grouped"`
	SpanMs               int64   `json:"span_ms"`
	MaxGapMs             int64   `json:"max_gap_ms"`
	Real                 bool    `json:"real"`
	Reason               string  `json:"reason"`
}

// ClassifyLabels decides which labels are real speakers and which are diarization artifacts.
// Results are in descending-duration order.
//
// The top-N rule (cumulative share at most 85% with an own share of at least 10%) is a
// heuristic kept for parity, not a derived bound.
func ClassifyLabels(stats *SpeakerStatsSet, byLabel map[string][]entities.CleanUtterance, numParticipants int, p Params) []LabelClass {
	total := stats.TotalDurationMs()
	ordered := stats.ByDuration()
	out := make([]LabelClass, 0, len(ordered))

	var cumulative int64
	for idx, st := range ordered {
		cumulative += st.TotalDurationMs
		lc := LabelClass{Label: st.Label}
		if total > 0 {
			lc.Percentage = float64(st.TotalDurationMs) / float64(total) * 100
			lc.CumulativePercentage = float64(cumulative) / float64(total) * 100
		}
		lc.SpanMs, lc.MaxGapMs, lc.IsGrouped = temporalGrouping(byLabel[st.Label], total, p)

		topSpeaker := idx < numParticipants &&
			lc.CumulativePercentage <= p.TopMaxCumulativePercent &&
			lc.Percentage >= p.TopMinPercentage

		switch {
		case lc.Percentage >= p.RealMinPercentage:
			lc.Real, lc.Reason = true, "duration_share"
		case st.UtteranceCount >= p.RealMinUtterances:
			lc.Real, lc.Reason = true, "utterance_count"
		case st.UtteranceCount >= p.GroupedMinUtterances && lc.IsGrouped:
			lc.Real, lc.Reason = true, "grouped"
		case topSpeaker:
			lc.Real, lc.Reason = true, "top_speaker"
		default:
			lc.Reason = "artifact"
		}
		out = append(out, lc)
	}
	return out
}

// temporalGrouping measures how compact a label's speech is.
// The reference duration is the summed speaking time of all labels, not the wall-clock length.
// Labels with fewer than two utterances are never grouped.
func temporalGrouping(utts []entities.CleanUtterance, totalMs int64, p Params) (spanMs, maxGapMs int64, grouped bool) {
	if len(utts) < 2 {
		return 0, 0, false
	}
	// utterances arrive chronologically from the normalizer
	maxGapMs = utts[1].StartMs - utts[0].EndMs
	for i := 2; i < len(utts); i++ {
		if gap := utts[i].StartMs - utts[i-1].EndMs; gap > maxGapMs {
			maxGapMs = gap
		}
	}
	spanMs = utts[len(utts)-1].EndMs - utts[0].StartMs
	grouped = float64(spanMs) < p.GroupedSpanRatio*float64(totalMs) || maxGapMs < p.GroupedMaxGapMs
	return spanMs, maxGapMs, grouped
}
