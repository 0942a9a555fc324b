// Package knowledge defines knowledge bases, their persisted catalog, and
// the integration of knowledge into a persona's system prompt.
package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kittclouds/okai/pkg/catalog"
)

// MetadataVersion is stamped on every metadata record.
const MetadataVersion = "1.0.0"

// QA is a curated question and answer pair.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// KnowledgeBase is a named body of reference material a persona can draw on.
type KnowledgeBase struct {
	Name          string              `json:"name"`
	Topics        map[string][]string `json:"topics"`
	Prompts       map[string]string   `json:"prompts"`
	SampleQA      map[string][]QA     `json:"sampleQA,omitempty"`
	KnowledgeData string              `json:"knowledgeData"`
}

// Categories returns the topic category names in sorted order.
func (kb KnowledgeBase) Categories() []string {
	return sortedKeys(kb.Topics)
}

// QACount is the total number of sample Q&A pairs.
func (kb KnowledgeBase) QACount() int {
	n := 0
	for _, items := range kb.SampleQA {
		n += len(items)
	}
	return n
}

// Metadata is the index projection of a KnowledgeBase.
type Metadata struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Version      string   `json:"version"`
	LastModified int64    `json:"lastModified"`
	Categories   []string `json:"categories"`
	PromptCount  int      `json:"promptCount"`
	QACount      int      `json:"qaCount"`
}

// Kind plugs knowledge bases into catalog.Store.
type Kind struct{}

func (Kind) Name() string { return "knowledge" }

func (Kind) Validate(kb KnowledgeBase) error {
	if strings.TrimSpace(kb.Name) == "" {
		return catalog.Required("name")
	}
	if strings.TrimSpace(kb.KnowledgeData) == "" {
		return catalog.Required("knowledgeData")
	}
	for _, cat := range sortedKeys(kb.Topics) {
		if strings.TrimSpace(cat) == "" {
			return catalog.Invalid("topics", "category name must not be empty")
		}
		for i, topic := range kb.Topics[cat] {
			if strings.TrimSpace(topic) == "" {
				return catalog.Invalid(fmt.Sprintf("topics.%s[%d]", cat, i), "must not be empty")
			}
		}
	}
	for _, name := range sortedKeys(kb.Prompts) {
		if strings.TrimSpace(name) == "" {
			return catalog.Invalid("prompts", "prompt name must not be empty")
		}
		if strings.TrimSpace(kb.Prompts[name]) == "" {
			return catalog.Invalid("prompts."+name, "must not be empty")
		}
	}
	for _, cat := range sortedKeys(kb.SampleQA) {
		for i, qa := range kb.SampleQA[cat] {
			if strings.TrimSpace(qa.Question) == "" || strings.TrimSpace(qa.Answer) == "" {
				return catalog.Invalid(fmt.Sprintf("sampleQA.%s[%d]", cat, i), "needs a question and an answer")
			}
		}
	}
	return nil
}

func (Kind) Project(id string, kb KnowledgeBase, modified int64) Metadata {
	return Metadata{
		ID:           id,
		Name:         kb.Name,
		Description:  "Knowledge base for " + kb.Name,
		Version:      MetadataVersion,
		LastModified: modified,
		Categories:   kb.Categories(),
		PromptCount:  len(kb.Prompts),
		QACount:      kb.QACount(),
	}
}

func (Kind) MetadataID(m Metadata) string { return m.ID }
func (Kind) Modified(m Metadata) int64 { return m.LastModified }

// Less keeps knowledge bases in insertion order.
func (Kind) Less(a, b Metadata) bool { return false }

// Carry keeps the stored knowledgeData when the caller sends none.
func (Kind) Carry(stored, in KnowledgeBase) KnowledgeBase {
	if in.KnowledgeData == "" {
		in.KnowledgeData = stored.KnowledgeData
	}
	return in
}

func (Kind) Seed(id string) (KnowledgeBase, bool) {
	kb, ok := seeds()[id]
	return kb, ok
}

func (Kind) SeedIDs() []string { return append([]string(nil), seedOrder...) }

// Store is the knowledge base catalog.
type Store = catalog.Store[KnowledgeBase, Metadata]

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
