package attribution

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

// DropReason says why the normalizer removed an utterance.
type DropReason string

const (
	DropAutomatedPhrase DropReason = "automated_phrase"
	DropHallucination   DropReason = "hallucination"
	DropStartupNoise    DropReason = "startup_noise"
	DropShortNoiseWord  DropReason = "short_noise_word"
	DropDuplicate       DropReason = "duplicate"
	DropSuperseded      DropReason = "superseded"
)

// Dropped records one utterance removed during normalization.
type Dropped struct {
	Utterance entities.CleanUtterance `json:"utterance"`
	Reason    DropReason              `json:"reason"`
	// Similarity is set for duplicate and superseded drops.
	Similarity float64 `json:"similarity,omitempty"`
}

// NormalizeResult is the chronological, deduplicated utterance list plus diagnostics.
type NormalizeResult struct {
	Utterances []entities.CleanUtterance
	Dropped    []Dropped
}

// artifact prefixes the provider emits for the first token of a turn, tried in order
var artifactPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^SA\s+`),
	regexp.MustCompile(`(?i)^S\.A\.\s*`),
	regexp.MustCompile(`(?i)^SA,\s*`),
	regexp.MustCompile(`(?i)^SA\.\s*`),
}

var automatedPhrases = map[string]struct{}{
	"thank you":                 {},
	"thank you for watching":    {},
	"thanks for watching":       {},
	"i don't know what to say":  {},
	"i don't know":              {},
	"i do not know what to say": {},
}

// exact, case-sensitive
var hallucinations = map[string]struct{}{
	"":              {},
	"SA":            {},
	"SA Foreign":    {},
	"SA Foreign.":   {},
	"Foreign":       {},
	"Foreign.":      {},
	"foreign":       {},
	"foreign.":      {},
	"S.A.":          {},
	"S.A. Foreign":  {},
	"S.A. Foreign.": {},
}

var meaningfulShortWords = map[string]struct{}{
	"yes": {}, "no": {}, "okay": {}, "sure": {},
	"right": {}, "good": {}, "great": {}, "nice": {},
}

// StripArtifactPrefix removes the first matching artifact prefix and re-trims the text.
func StripArtifactPrefix(text string) string {
	cleaned := strings.TrimSpace(text)
	for _, re := range artifactPrefixes {
		if loc := re.FindStringIndex(cleaned); loc != nil {
			return strings.TrimSpace(cleaned[loc[1]:])
		}
	}
	return cleaned
}

// Normalize cleans, filters and deduplicates raw utterances.
// The input slice is never modified.
func Normalize(utts []entities.Utterance, p Params) NormalizeResult {
	ordered := make([]entities.Utterance, len(utts))
	copy(ordered, utts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartMs < ordered[j].StartMs
	})

	var res NormalizeResult
	kept := make([]entities.CleanUtterance, 0, len(ordered))

	for _, u := range ordered {
		cu := entities.CleanUtterance{
			Utterance:    u,
			OriginalText: u.Text,
		}
		cu.Text = StripArtifactPrefix(u.Text)

		if reason, drop := filterReason(cu, p); drop {
			res.Dropped = append(res.Dropped, Dropped{Utterance: cu, Reason: reason})
			continue
		}
		kept = append(kept, cu)
	}

	out := make([]entities.CleanUtterance, 0, len(kept))
	for _, cand := range kept {
		if len(out) == 0 {
			out = append(out, cand)
			continue
		}
		prev := out[len(out)-1]
		if cand.Label == prev.Label && cand.StartMs-prev.EndMs < p.DuplicateMaxGapMs {
			sim := Similarity(cand.Text, prev.Text)
			if sim >= p.DuplicateMinSimilarity {
				if float64(utf8.RuneCountInString(cand.Text)) > p.DuplicateLengthRatio*float64(utf8.RuneCountInString(prev.Text)) {
					out[len(out)-1] = cand
					res.Dropped = append(res.Dropped, Dropped{Utterance: prev, Reason: DropSuperseded, Similarity: sim})
				} else {
					res.Dropped = append(res.Dropped, Dropped{Utterance: cand, Reason: DropDuplicate, Similarity: sim})
				}
				continue
			}
		}
		out = append(out, cand)
	}

	res.Utterances = out
	return res
}

func filterReason(u entities.CleanUtterance, p Params) (DropReason, bool) {
	text := u.Text
	lower := strings.ToLower(text)
	duration := u.DurationMs()
	length := utf8.RuneCountInString(text)

	if _, ok := automatedPhrases[lower]; ok && u.StartMs < p.AutomatedPhraseCutoffMs {
		return DropAutomatedPhrase, true
	}
	if _, ok := hallucinations[text]; ok {
		return DropHallucination, true
	}
	if u.StartMs < p.StartupNoiseWindowMs && duration < p.StartupNoiseMaxDurationMs && length < p.StartupNoiseMaxTextLen {
		return DropStartupNoise, true
	}
	if len(strings.Fields(text)) == 1 && length < p.ShortWordMaxLen && duration < p.ShortWordMaxDurationMs {
		if _, ok := meaningfulShortWords[lower]; !ok {
			return DropShortNoiseWord, true
		}
	}
	return "", false
}
