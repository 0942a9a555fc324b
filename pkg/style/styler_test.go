package style

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constSource always yields the same value: 0 makes every pick the first
// option and every chance succeed, MaxUint64 the opposite.
type constSource uint64

func (c constSource) Uint64() uint64 { return uint64(c) }

func TestTrimToLength(t *testing.T) {
	six := "One. Two! Three? Four. Five. Six."
	tests := []struct {
		name    string
		content string
		length  ChatLength
		want    string
	}{
		{"short keeps two of six", six, Short, "One. Two!"},
		{"short keeps one of three", "One. Two. Three.", Short, "One."},
		{"normal keeps half", six, Normal, "One. Two! Three?"},
		{"empty length is normal", six, "", "One. Two! Three?"},
		{"normal never exceeds count", "Only one.", Normal, "Only one."},
		{"long keeps everything", six + " trailing", Long, six + " trailing"},
		{"no punctuation", "no sentences here", Short, "no sentences here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimToLength(tt.content, tt.length))
		})
	}
}

func TestApplyFullPipeline(t *testing.T) {
	s := NewStyler(constSource(0), nil)
	rules := &Rules{
		Emoticons:   []string{"(◕‿◕✿)", "(≧▽≦)"},
		Expressions: []string{"indeed", "precisely"},
		EndPhrases:  []string{"~", "!"},
		Removals:    []Transform{Removing(`\s*as an AI I know\.`)},
		Formatters:  []Transform{Replacing(`simple|easy`, "elegant")},
	}

	got := s.Apply("Staking is easy. As an AI I know.", rules, Long)
	assert.Equal(t, "indeed, Staking is elegant. (◕‿◕✿)~", got)
}

func TestApplySkipsPresentDecorations(t *testing.T) {
	s := NewStyler(constSource(0), nil)
	rules := &Rules{
		Emoticons:   []string{"✨"},
		Expressions: []string{"Sugoi"},
		EndPhrases:  []string{"!"},
	}

	got := s.Apply("sugoi, that works ✨!", rules, Long)
	assert.Equal(t, "sugoi, that works ✨!", got)
}

func TestApplyExpressionChance(t *testing.T) {
	s := NewStyler(constSource(math.MaxUint64), nil)
	rules := &Rules{Expressions: []string{"indeed"}}

	assert.Equal(t, "Plain reply.", s.Apply("Plain reply.", rules, Long))
}

func TestApplyNilRulesOnlyTrims(t *testing.T) {
	s := NewStyler(nil, nil)
	assert.Equal(t, "A. B.", s.Apply("A. B. C. D.", nil, Normal))
	assert.Equal(t, "", s.Apply("", nil, Normal))
}

func TestTransformValidate(t *testing.T) {
	assert.NoError(t, Replacing(`\b(that|which)\b`, "").Validate())
	assert.Error(t, Transform{Kind: "eval", Pattern: "x"}.Validate())
	assert.Error(t, Transform{Kind: Replace}.Validate())
	assert.Error(t, Removing(`(`).Validate())

	out, err := Transform{Kind: Replace, Pattern: `(\w+)@`, Replacement: "$1 at "}.Apply("me@home")
	require.NoError(t, err)
	assert.Equal(t, "me at home", out)
}

func TestRulesValidate(t *testing.T) {
	assert.NoError(t, Rules{
		Removals:   []Transform{Removing(`sorry`)},
		Formatters: []Transform{Replacing(`good`, "insanely great")},
	}.Validate())

	err := Rules{Removals: []Transform{Replacing(`x`, "y")}}.Validate()
	assert.ErrorContains(t, err, "removals[0]")

	err = Rules{Formatters: []Transform{Replacing(`[`, "y")}}.Validate()
	assert.ErrorContains(t, err, "formatters[0]")
}

func TestChatLengthValid(t *testing.T) {
	for _, l := range []ChatLength{"", Short, Normal, Long} {
		assert.True(t, l.Valid())
	}
	assert.False(t, ChatLength("epic").Valid())
}
