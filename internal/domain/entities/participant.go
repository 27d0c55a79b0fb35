package entities

import (
	"fmt"
	"sort"
	"strings"
)

// ParticipantRecord is one real participant observed during the meeting
type ParticipantRecord struct {
	Name                string `json:"name,omitempty" yaml:"name,omitempty"`
	LastActiveTimestamp int64  `json:"last_active_timestamp" yaml:"last_active_timestamp"`
	ActivityCount       int    `json:"activity_count" yaml:"activity_count" validate:"gte=0"`
}

// Roster maps participant name to its activity record
type Roster map[string]ParticipantRecord

// Records returns the roster entries with Name taken from the key, sorted by name
func (r Roster) Records() []ParticipantRecord {
	out := make([]ParticipantRecord, 0, len(r))
	for name, rec := range r {
		rec.Name = name
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ActivityOf returns the activity count for name, zero when absent
func (r Roster) ActivityOf(name string) int {
	return r[name].ActivityCount
}

// Has reports whether name is on the roster
func (r Roster) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// IsGenericParticipantName reports placeholder names that never identify a person
func IsGenericParticipantName(name string) bool {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return true
	case trimmed == "Unknown", trimmed == "User":
		return true
	case strings.HasPrefix(trimmed, "Unknown Speaker"):
		return true
	}
	return false
}

// SortByActivity orders records by activity descending, then name ascending
func SortByActivity(records []ParticipantRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].ActivityCount != records[j].ActivityCount {
			return records[i].ActivityCount > records[j].ActivityCount
		}
		return records[i].Name < records[j].Name
	})
}

// Validate rejects negative activity counts
func (p ParticipantRecord) Validate() error {
	if p.ActivityCount < 0 {
		return fmt.Errorf("%w: %q has negative activity count %d", ErrInvalidParticipant, p.Name, p.ActivityCount)
	}
	return nil
}
