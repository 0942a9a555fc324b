package convlog

import (
	"slices"
	"strings"
	"time"
)

const isoMillis = "2006-01-02T15:04:05.000Z"

// Formatter renders conversations as plain-text transcripts.
type Formatter struct{}

// FormatConversation renders one conversation.
func (Formatter) FormatConversation(c Conversation) string {
	var b strings.Builder
	b.WriteString("Conversation with " + c.PersonaName + "\n")
	b.WriteString("ID: " + c.ID + "\n")
	b.WriteString("Started: " + isoTime(c.Timestamp) + "\n")
	b.WriteString("Last Updated: " + isoTime(c.LastUpdated) + "\n\n")

	if len(c.ModelUsage) > 0 {
		b.WriteString("Model Usage:\n")
		for _, u := range c.ModelUsage {
			b.WriteString("- " + isoTime(u.Timestamp) + ": " + u.ModelName + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for i, msg := range c.Messages {
		role := "User"
		if msg.Role == "assistant" {
			role = c.PersonaName
		}
		b.WriteString("[" + role + "]:\n" + msg.Content + "\n")
		if i < len(c.Messages)-1 {
			b.WriteString("\n---\n\n")
		}
	}
	return b.String()
}

// FormatAll renders every conversation ordered by persona display order.
func (f Formatter) FormatAll(convs []Conversation) string {
	sorted := slices.Clone(convs)
	slices.SortStableFunc(sorted, func(a, b Conversation) int { return a.DisplayOrder - b.DisplayOrder })

	parts := make([]string, 0, len(sorted))
	for _, c := range sorted {
		parts = append(parts, f.FormatConversation(c))
	}
	return strings.Join(parts, "\n\n"+strings.Repeat("=", 80)+"\n\n")
}

func isoTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(isoMillis)
}

// filename builds a download name like super-okai-elon-musk-<time>.txt.
func filename(subject string, now time.Time) string {
	return "super-okai-" + subject + "-" + now.UTC().Format("2006-01-02T15-04-05.000Z") + ".txt"
}

func slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
