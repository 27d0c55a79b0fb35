package attribution

import (
	"regexp"
	"strings"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

// FilterParticipants drops placeholder names and silent participants and returns the
// names in activity order (activity desc, name asc). Roster names are distinct people,
// so no prefix deduplication happens here.
func FilterParticipants(roster entities.Roster) []string {
	records := roster.Records()
	kept := make([]entities.ParticipantRecord, 0, len(records))
	for _, rec := range records {
		if entities.IsGenericParticipantName(rec.Name) || rec.ActivityCount <= 0 {
			continue
		}
		kept = append(kept, rec)
	}
	entities.SortByActivity(kept)

	names := make([]string, 0, len(kept))
	for _, rec := range kept {
		names = append(names, rec.Name)
	}
	return names
}

// DedupeNames collapses names where one is a case-insensitive prefix of another,
// keeping the shorter form at the position of the first one seen. Only speaker-change
// logs need it: they report the same person under full and short display names.
func DedupeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		clean := strings.ToLower(strings.TrimSpace(name))
		duplicate := false
		for i, existing := range out {
			existingClean := strings.ToLower(strings.TrimSpace(existing))
			if clean == existingClean {
				duplicate = true
				break
			}
			if strings.HasPrefix(clean, existingClean) {
				duplicate = true
				break
			}
			if strings.HasPrefix(existingClean, clean) {
				out[i] = name
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, name)
		}
	}
	return out
}

const namePart = `([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`

// Keywords match case-insensitively; the captured name must be capitalized.
var namePatterns = []*regexp.Regexp{
	// self introduction
	regexp.MustCompile(`\b(?i:i'm|i am|my name is|my name's|this is|call me|it's)\s+` + namePart),
	// greeting or thanks
	regexp.MustCompile(`\b(?i:hey|hi|hello|thanks|thank you|good morning|good afternoon|good evening),?\s+` + namePart),
	// direct question
	regexp.MustCompile(namePart + `,?\s+(?i:can you|could you|do you|did you|will you|would you|are you|were you)\b`),
	regexp.MustCompile(`\b(?i:ask|tell|show|with|from)\s+` + namePart),
	regexp.MustCompile(namePart + `\s+(?i:joined|is here|has joined|just joined)\b`),
	// farewell
	regexp.MustCompile(`\b(?i:thanks|thank you|bye|goodbye|see you|talk soon|talk to you),?\s+` + namePart),
}

var commonWords = toSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
	"is", "are", "was", "were", "be", "been", "being", "have", "has", "had", "do", "does", "did",
	"will", "would", "could", "should", "may", "might", "can", "this", "that", "these", "those",
	"you", "we", "they", "it", "he", "she", "what", "which", "who", "when", "where", "why", "how",
	"good", "morning", "evening", "afternoon", "hello", "hi", "hey", "thanks", "thank", "sure",
	"okay", "yes", "no", "right", "left", "up", "down",
)

var validName = regexp.MustCompile(`^[A-Za-z\s-]+$`)

// ExtractNames finds probable person names in introductions, greetings and direct address.
// Names come back in first-seen order.
func ExtractNames(utts []entities.CleanUtterance) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, u := range utts {
		for _, re := range namePatterns {
			for _, m := range re.FindAllStringSubmatch(u.Text, -1) {
				name := strings.TrimSpace(m[1])
				if !plausibleName(name) {
					continue
				}
				if _, ok := seen[name]; ok {
					continue
				}
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
	}
	return out
}

func plausibleName(name string) bool {
	if len(name) < 2 || len(name) > 30 {
		return false
	}
	if _, ok := commonWords[strings.ToLower(name)]; ok {
		return false
	}
	if name[0] < 'A' || name[0] > 'Z' {
		return false
	}
	if name == strings.ToUpper(name) {
		return false
	}
	return validName.MatchString(name)
}

// MapByContent gives each label, in order of first appearance, the unassigned name it mentions
// least: people rarely say their own name. Returns an empty mapping when there are more names
// than labels.
func MapByContent(utts []entities.CleanUtterance, names []string) entities.Mapping {
	mapping := make(entities.Mapping)
	var labels []string
	seen := make(map[string]struct{})
	for _, u := range utts {
		if _, ok := seen[u.Label]; !ok {
			seen[u.Label] = struct{}{}
			labels = append(labels, u.Label)
		}
	}
	if len(names) == 0 || len(names) > len(labels) {
		return mapping
	}

	counts := make(map[string]map[string]int, len(labels))
	for _, l := range labels {
		counts[l] = make(map[string]int, len(names))
	}
	for _, u := range utts {
		text := strings.ToLower(u.Text)
		for _, name := range names {
			counts[u.Label][name] += countWord(text, strings.ToLower(name))
		}
	}

	assigned := make(map[string]bool, len(names))
	for _, label := range labels {
		best, bestCount := "", 0
		for _, name := range names {
			if assigned[name] {
				continue
			}
			if c := counts[label][name]; best == "" || c < bestCount {
				best, bestCount = name, c
			}
		}
		if best == "" {
			break
		}
		mapping[label] = best
		assigned[best] = true
	}
	return mapping
}

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
