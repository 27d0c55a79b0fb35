package entities

import "sort"

// SpeakerStats aggregates every utterance of one provider label
type SpeakerStats struct {
	Label            string  `json:"label"`
	UtteranceCount   int     `json:"utterance_count"`
	TotalDurationMs  int64   `json:"total_duration_ms"`
	AvgDurationMs    float64 `json:"avg_duration_ms"`
	FirstUtteranceMs int64   `json:"first_utterance_ms"`
	LastUtteranceMs  int64   `json:"last_utterance_ms"`
}

// Mapping resolves provider labels to participant names.
// Several labels may share a name; a label has exactly one.
type Mapping map[string]string

// Labels returns the mapped labels in lexical order
func (m Mapping) Labels() []string {
	out := make([]string, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Names returns the distinct mapped names in lexical order
func (m Mapping) Names() []string {
	seen := make(map[string]struct{}, len(m))
	out := make([]string, 0, len(m))
	for _, n := range m {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Missing returns the labels without an entry, in input order
func (m Mapping) Missing(labels []string) (missing []string) {
	for _, l := range labels {
		if _, ok := m[l]; !ok {
			missing = append(missing, l)
		}
	}
	return missing
}

// SpeakerChange is one entry of the visual active-speaker log.
// TimestampMs is wall-clock epoch milliseconds.
type SpeakerChange struct {
	TimestampMs int64  `json:"timestamp_ms" yaml:"timestamp_ms" validate:"gte=0"`
	Speaker     string `json:"speaker" yaml:"speaker" validate:"required"`
}
