package convlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatConversation(t *testing.T) {
	c := Conversation{
		ID:          "c1",
		Timestamp:   1_700_000_000_000,
		LastUpdated: 1_700_000_001_000,
		PersonaName: "Okai",
		Messages:    []Message{hi, hello},
		ModelUsage:  []ModelUsage{{ModelID: "openai/gpt-4o-mini", ModelName: "GPT-4o-mini", Timestamp: 1_700_000_000_000}},
	}

	want := "Conversation with Okai\n" +
		"ID: c1\n" +
		"Started: 2023-11-14T22:13:20.000Z\n" +
		"Last Updated: 2023-11-14T22:13:21.000Z\n\n" +
		"Model Usage:\n" +
		"- 2023-11-14T22:13:20.000Z: GPT-4o-mini\n\n" +
		strings.Repeat("=", 50) + "\n\n" +
		"[User]:\nhi\n" +
		"\n---\n\n" +
		"[Okai]:\nhello\n"
	assert.Equal(t, want, Formatter{}.FormatConversation(c))
}

func TestFormatConversationWithoutUsage(t *testing.T) {
	out := Formatter{}.FormatConversation(Conversation{PersonaName: "Okai", Messages: []Message{hi}})
	assert.NotContains(t, out, "Model Usage")
	assert.True(t, strings.HasSuffix(out, "[User]:\nhi\n"))
}

func TestFormatAllOrdersByDisplayOrder(t *testing.T) {
	convs := []Conversation{
		{PersonaName: "Second", DisplayOrder: 2, Messages: []Message{hi}},
		{PersonaName: "First", DisplayOrder: 1, Messages: []Message{hi}},
	}
	out := Formatter{}.FormatAll(convs)
	parts := strings.Split(out, "\n\n"+strings.Repeat("=", 80)+"\n\n")
	if assert.Len(t, parts, 2) {
		assert.True(t, strings.HasPrefix(parts[0], "Conversation with First"))
		assert.True(t, strings.HasPrefix(parts[1], "Conversation with Second"))
	}
	assert.Equal(t, "Second", convs[0].PersonaName)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "elon-musk", slug("  Elon   Musk "))
}
