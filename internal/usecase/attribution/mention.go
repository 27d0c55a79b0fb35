package attribution

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/johnquangdev/speaker-attribution/internal/domain/entities"
)

// ScoreTable holds label × participant mention scores.
type ScoreTable map[string]map[string]float64

// Score returns the score of participant for label, zero when absent.
func (t ScoreTable) Score(label, participant string) float64 {
	return t[label][participant]
}

func (t ScoreTable) add(label, participant string, w float64) {
	row, ok := t[label]
	if !ok {
		row = make(map[string]float64)
		t[label] = row
	}
	row[participant] += w
}

// MentionSignal distinguishes the two kinds of score credit.
type MentionSignal string

const (
	SignalImmediate MentionSignal = "immediate"
	SignalNear      MentionSignal = "near"
)

// MentionHit is one score credit, reported to observers.
type MentionHit struct {
	Index       int
	MentionedBy string
	Label       string
	Participant string
	Signal      MentionSignal
	Weight      float64
}

// word boundary that also works for non-ASCII letters
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{N}_])`
)

// nameMatcher detects mentions of one participant in utterance text.
type nameMatcher struct {
	participant string
	firstName   string
	lastName    string
	nickname    string
	first       *regexp.Regexp
	nick        *regexp.Regexp
}

func newNameMatcher(participant string, nicknameMinLen int) nameMatcher {
	tokens := strings.Fields(strings.ToLower(participant))
	m := nameMatcher{participant: participant}
	if len(tokens) == 0 {
		return m
	}
	m.firstName = tokens[0]
	m.lastName = tokens[len(tokens)-1]
	m.first = regexp.MustCompile(`(?i)` + wordStart + regexp.QuoteMeta(m.firstName) + wordEnd)

	// truncated form catches nicknames, so it only needs to match at a word start
	if r := []rune(m.firstName); len(r) > nicknameMinLen {
		m.nickname = string(r[:len(r)-1])
		m.nick = regexp.MustCompile(`(?i)` + wordStart + regexp.QuoteMeta(m.nickname))
	}
	return m
}

func (m nameMatcher) mentionedIn(text string) bool {
	if m.first == nil {
		return false
	}
	if m.first.MatchString(text) {
		return true
	}
	return m.nick != nil && m.nick.MatchString(text)
}

// ScoreMentions credits the labels that speak right after a participant's name is said.
//
// The speaker who says the name is never credited. Only labels in scored receive
// points. The near-future window credits each label at most once per mention.
func ScoreMentions(utts []entities.CleanUtterance, scored, participants []string, p Params, nearWeight float64, onHit func(MentionHit)) ScoreTable {
	table := make(ScoreTable, len(scored))
	inScope := make(map[string]bool, len(scored))
	for _, l := range scored {
		inScope[l] = true
		table[l] = make(map[string]float64, len(participants))
		for _, name := range participants {
			table[l][name] = 0
		}
	}

	matchers := make([]nameMatcher, 0, len(participants))
	for _, name := range participants {
		matchers = append(matchers, newNameMatcher(name, p.NicknameMinLen))
	}

	credit := func(hit MentionHit) {
		table.add(hit.Label, hit.Participant, hit.Weight)
		if onHit != nil {
			onHit(hit)
		}
	}

	n := len(utts)
	for i, u := range utts {
		speaker := u.Label
		for _, m := range matchers {
			if !m.mentionedIn(u.Text) {
				continue
			}

			if i+1 < n {
				next := utts[i+1].Label
				if next != speaker && inScope[next] {
					credit(MentionHit{Index: i, MentionedBy: speaker, Label: next, Participant: m.participant, Signal: SignalImmediate, Weight: p.ImmediateWeight})
				}
			}

			seen := make(map[string]bool)
			for off := 2; off <= p.NearWindow && i+off < n; off++ {
				near := utts[i+off].Label
				if near == speaker || !inScope[near] || seen[near] {
					continue
				}
				seen[near] = true
				credit(MentionHit{Index: i, MentionedBy: speaker, Label: near, Participant: m.participant, Signal: SignalNear, Weight: nearWeight})
			}
		}
	}
	return table
}

// MentionCount tallies how often a participant's names appear across the transcript.
type MentionCount struct {
	Participant string `json:"participant"`
	FullName    int    `json:"full_name"`
	FirstName   int    `json:"first_name"`
	LastName    int    `json:"last_name"`
}

// Total sums every form.
func (c MentionCount) Total() int { return c.FullName + c.FirstName + c.LastName }

// CountMentions counts full, first and last name occurrences per participant.
// Name parts of two characters or fewer are not counted on their own.
func CountMentions(utts []entities.CleanUtterance, participants []string) []MentionCount {
	var b strings.Builder
	for i, u := range utts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToLower(u.Text))
	}
	all := b.String()

	out := make([]MentionCount, 0, len(participants))
	for _, name := range participants {
		lower := strings.ToLower(strings.TrimSpace(name))
		tokens := strings.Fields(lower)
		mc := MentionCount{Participant: name}
		if len(tokens) > 0 {
			mc.FullName = countWord(all, lower)
			first, last := tokens[0], tokens[len(tokens)-1]
			if len([]rune(first)) > 2 {
				mc.FirstName = countWord(all, first)
			}
			if len([]rune(last)) > 2 && last != first {
				mc.LastName = countWord(all, last)
			}
		}
		out = append(out, mc)
	}
	return out
}

// countWord counts whole-word occurrences of word in text.
func countWord(text, word string) int {
	if word == "" {
		return 0
	}
	n := 0
	for from := 0; from <= len(text)-len(word); {
		idx := strings.Index(text[from:], word)
		if idx < 0 {
			break
		}
		start := from + idx
		end := start + len(word)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			n++
		}
		from = start + 1
	}
	return n
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}
