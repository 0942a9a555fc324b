package style

import (
	"math"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/coregx/ahocorasick"
	"go.uber.org/zap"
)

// ExpressionChance is the probability of prefixing an expression when the
// reply does not already contain one.
const ExpressionChance = 0.3

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Styler applies Rules to model replies. Safe for concurrent use.
type Styler struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger
}

// NewStyler creates a Styler drawing randomness from src, or from a
// time-seeded PCG when src is nil.
func NewStyler(src rand.Source, logger *zap.Logger) *Styler {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Styler{rng: rand.New(src), logger: logger.Named("style")}
}

// Apply runs the pipeline: length, removals, formatters, emoticon,
// expression, end phrase. An empty result falls back to content.
func (s *Styler) Apply(content string, rules *Rules, length ChatLength) string {
	if content == "" {
		return content
	}

	out := TrimToLength(content, length)
	if rules == nil {
		return out
	}

	for _, t := range rules.Removals {
		next, err := t.Apply(out)
		if err != nil {
			s.logger.Debug("removal skipped", zap.String("pattern", t.Pattern), zap.Error(err))
			continue
		}
		out = next
	}
	for _, t := range rules.Formatters {
		next, err := t.Apply(out)
		if err != nil || next == "" {
			s.logger.Debug("formatter skipped", zap.String("pattern", t.Pattern), zap.Error(err))
			continue
		}
		out = next
	}

	out = s.addEmoticon(out, rules.Emoticons)
	out = s.addExpression(out, rules.Expressions)
	out = s.addEndPhrase(out, rules.EndPhrases)

	if out == "" {
		return content
	}
	return out
}

// TrimToLength keeps a prefix of content's sentences: one or two for Short,
// at least two and about half for Normal, everything for Long. Content with
// no sentence punctuation is returned as is.
func TrimToLength(content string, length ChatLength) string {
	if length == Long {
		return content
	}
	sentences := sentenceRe.FindAllString(content, -1)
	n := len(sentences)
	if n == 0 {
		return content
	}

	var keep int
	switch length {
	case Short:
		keep = min(2, max(1, int(math.Ceil(float64(n)*0.2))))
	default:
		keep = max(2, int(math.Ceil(float64(n)*0.5)))
	}
	keep = min(keep, n)

	parts := make([]string, 0, keep)
	for _, s := range sentences[:keep] {
		parts = append(parts, strings.TrimSpace(s))
	}
	return strings.Join(parts, " ")
}

func (s *Styler) addEmoticon(content string, emoticons []string) string {
	if len(emoticons) == 0 || containsAny(content, emoticons) {
		return content
	}
	return content + " " + s.pick(emoticons)
}

func (s *Styler) addExpression(content string, expressions []string) string {
	if len(expressions) == 0 {
		return content
	}
	lowered := make([]string, len(expressions))
	for i, e := range expressions {
		lowered[i] = strings.ToLower(e)
	}
	if containsAny(strings.ToLower(content), lowered) {
		return content
	}
	if s.float() >= ExpressionChance {
		return content
	}
	return s.pick(expressions) + ", " + content
}

func (s *Styler) addEndPhrase(content string, phrases []string) string {
	if len(phrases) == 0 {
		return content
	}
	trimmed := strings.TrimSpace(content)
	for _, p := range phrases {
		if p != "" && strings.HasSuffix(trimmed, p) {
			return content
		}
	}
	return trimmed + s.pick(phrases)
}

func (s *Styler) pick(options []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return options[s.rng.IntN(len(options))]
}

func (s *Styler) float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// containsAny reports whether any non-empty pattern occurs in text.
func containsAny(text string, patterns []string) bool {
	nonEmpty := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return false
	}

	ac, err := ahocorasick.NewBuilder().
		AddStrings(nonEmpty).
		SetMatchKind(ahocorasick.LeftmostLongest).
		Build()
	if err != nil {
		for _, p := range nonEmpty {
			if strings.Contains(text, p) {
				return true
			}
		}
		return false
	}
	return len(ac.FindAllOverlapping([]byte(text))) > 0
}
