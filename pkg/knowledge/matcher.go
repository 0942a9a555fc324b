package knowledge

import (
	"strings"
	"unicode"

	"github.com/coregx/ahocorasick"
	"github.com/orsinium-labs/stopwords"
)

// MatchThreshold is the minimum fraction of query keywords a question must
// contain to be returned as a match.
const MatchThreshold = 0.5

// minKeywordLen drops short tokens that survive the stopword filter.
const minKeywordLen = 3

// Source is a knowledge base searched by the matcher.
type Source struct {
	ID            string
	KnowledgeBase KnowledgeBase
}

// Match is the sample Q&A that best answers a query.
type Match struct {
	Source   string  `json:"source"`
	Category string  `json:"category"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
}

// Matcher scores sample questions against a query by keyword overlap.
type Matcher struct {
	stop *stopwords.Stopwords
}

func NewMatcher() *Matcher {
	return &Matcher{stop: stopwords.MustGet("en")}
}

// Keywords returns the distinct lowercase content words of text in order.
func (m *Matcher) Keywords(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, tok := range tokenize(text) {
		if len(tok) < minKeywordLen || seen[tok] || m.stop.Contains(tok) {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// BestMatch returns the highest scoring sample Q&A across sources. Ties keep
// the earliest candidate in source, category and item order.
func (m *Matcher) BestMatch(query string, sources []Source) (Match, bool) {
	keywords := m.Keywords(query)
	if len(keywords) == 0 {
		return Match{}, false
	}
	count := keywordCounter(keywords)

	var best Match
	found := false
	for _, src := range sources {
		for _, cat := range sortedKeys(src.KnowledgeBase.SampleQA) {
			for _, qa := range src.KnowledgeBase.SampleQA[cat] {
				score := float64(count(qa.Question)) / float64(len(keywords))
				if score < MatchThreshold || (found && score <= best.Score) {
					continue
				}
				best = Match{
					Source:   src.ID,
					Category: cat,
					Question: qa.Question,
					Answer:   qa.Answer,
					Score:    score,
				}
				found = true
			}
		}
	}
	return best, found
}

// keywordCounter returns a func reporting how many distinct keywords occur
// in a text. One automaton is built per query.
func keywordCounter(keywords []string) func(string) int {
	ac, err := ahocorasick.NewBuilder().
		AddStrings(keywords).
		SetMatchKind(ahocorasick.LeftmostLongest).
		Build()
	if err != nil {
		return func(text string) int {
			hay := canonical(text)
			n := 0
			for _, k := range keywords {
				if strings.Contains(hay, k) {
					n++
				}
			}
			return n
		}
	}
	return func(text string) int {
		hit := map[int]bool{}
		for _, mt := range ac.FindAllOverlapping([]byte(canonical(text))) {
			hit[mt.PatternID] = true
		}
		return len(hit)
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// canonical lowercases text and collapses separators to single spaces.
func canonical(text string) string {
	return " " + strings.Join(tokenize(text), " ") + " "
}
