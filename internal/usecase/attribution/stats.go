package attribution

import (
	"sort"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

// SpeakerStatsSet holds per-label statistics for one filtered transcript.
type SpeakerStatsSet struct {
	byLabel map[string]entities.SpeakerStats
	labels  []string
	total   int64
}

// ComputeStats aggregates counts, durations and first/last timestamps per label.
func ComputeStats(utts []entities.CleanUtterance) *SpeakerStatsSet {
	set := &SpeakerStatsSet{byLabel: make(map[string]entities.SpeakerStats)}

	for _, u := range utts {
		st, ok := set.byLabel[u.Label]
		if !ok {
			st = entities.SpeakerStats{
				Label:            u.Label,
				FirstUtteranceMs: u.StartMs,
				LastUtteranceMs:  u.EndMs,
			}
			set.labels = append(set.labels, u.Label)
		}
		st.UtteranceCount++
		st.TotalDurationMs += u.DurationMs()
		if u.StartMs < st.FirstUtteranceMs {
			st.FirstUtteranceMs = u.StartMs
		}
		if u.EndMs > st.LastUtteranceMs {
			st.LastUtteranceMs = u.EndMs
		}
		set.byLabel[u.Label] = st
		set.total += u.DurationMs()
	}

	for label, st := range set.byLabel {
		st.AvgDurationMs = float64(st.TotalDurationMs) / float64(st.UtteranceCount)
		set.byLabel[label] = st
	}
	sort.Strings(set.labels)
	return set
}

// Len returns the number of distinct labels.
func (s *SpeakerStatsSet) Len() int { return len(s.labels) }

// Labels returns every label in lexical order.
func (s *SpeakerStatsSet) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Get returns the statistics of one label.
func (s *SpeakerStatsSet) Get(label string) (entities.SpeakerStats, bool) {
	st, ok := s.byLabel[label]
	return st, ok
}

// TotalDurationMs sums the speaking time of every label.
func (s *SpeakerStatsSet) TotalDurationMs() int64 { return s.total }

// All returns the statistics in lexical label order.
func (s *SpeakerStatsSet) All() []entities.SpeakerStats {
	out := make([]entities.SpeakerStats, 0, len(s.labels))
	for _, l := range s.labels {
		out = append(out, s.byLabel[l])
	}
	return out
}

// ByFirstUtterance is the speaking order: earliest first utterance first, ties by label.
func (s *SpeakerStatsSet) ByFirstUtterance() []entities.SpeakerStats {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FirstUtteranceMs < out[j].FirstUtteranceMs
	})
	return out
}

// ByDuration orders labels by total speaking time descending, ties by label.
func (s *SpeakerStatsSet) ByDuration() []entities.SpeakerStats {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalDurationMs > out[j].TotalDurationMs
	})
	return out
}

// LabelsByDuration is ByDuration restricted to the given labels.
func (s *SpeakerStatsSet) LabelsByDuration(labels []string) []string {
	want := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		want[l] = struct{}{}
	}
	var out []string
	for _, st := range s.ByDuration() {
		if _, ok := want[st.Label]; ok {
			out = append(out, st.Label)
		}
	}
	return out
}

// groupByLabel splits the transcript into per-label utterance lists, preserving order.
func groupByLabel(utts []entities.CleanUtterance) map[string][]entities.CleanUtterance {
	out := make(map[string][]entities.CleanUtterance)
	for _, u := range utts {
		out[u.Label] = append(out[u.Label], u)
	}
	return out
}
