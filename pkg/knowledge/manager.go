package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/catalog"
)

// NewStore builds the knowledge base catalog over medium.
func NewStore(medium store.Medium, opts ...catalog.Option) *Store {
	return catalog.New[KnowledgeBase, Metadata](Kind{}, medium, opts...)
}

// Manager adds the expanded view, JSON exchange and prompt integration on
// top of the knowledge base catalog.
type Manager struct {
	store   *Store
	matcher *Matcher
	logger  *zap.Logger
}

func NewManager(s *Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:   s,
		matcher: NewMatcher(),
		logger:  logger.Named("knowledge"),
	}
}

// Store exposes the underlying catalog.
func (m *Manager) Store() *Store { return m.store }

func (m *Manager) Get(id string) (KnowledgeBase, bool) { return m.store.Get(id) }

func (m *Manager) Save(id string, kb KnowledgeBase) error {
	if err := m.store.Save(id, kb); err != nil {
		return err
	}
	m.logger.Info("knowledge base saved", zap.String("id", catalog.NormalizeID(id)))
	return nil
}

func (m *Manager) List() []Metadata { return m.store.List() }

func (m *Manager) Delete(id string) error { return m.store.Delete(id) }

// =============================================================================
// Expanded view
// =============================================================================

// Category is one topic group of a knowledge base.
type Category struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
}

// Prompt is one context-specific instruction.
type Prompt struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// QAEntry is a Q&A pair with a stable id of the form "<category>-<index>".
type QAEntry struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// View is the expanded read model the knowledge editor works with.
type View struct {
	Metadata      Metadata   `json:"metadata"`
	Categories    []Category `json:"categories"`
	Prompts       []Prompt   `json:"prompts"`
	QA            []QAEntry  `json:"qa"`
	KnowledgeData string     `json:"knowledgeData"`
}

// GetKnowledgeStore returns the expanded view of a knowledge base.
func (m *Manager) GetKnowledgeStore(id string) (View, bool) {
	nid := catalog.NormalizeID(id)
	kb, ok := m.store.Get(nid)
	if !ok {
		return View{}, false
	}

	meta := Kind{}.Project(nid, kb, 0)
	for _, md := range m.store.List() {
		if md.ID == nid {
			meta = md
			break
		}
	}

	v := View{Metadata: meta, KnowledgeData: kb.KnowledgeData}
	for _, name := range sortedKeys(kb.Topics) {
		v.Categories = append(v.Categories, Category{
			ID:          strings.ToLower(name),
			Name:        name,
			Description: "Topics related to " + name,
			Topics:      kb.Topics[name],
		})
	}
	for _, name := range sortedKeys(kb.Prompts) {
		v.Prompts = append(v.Prompts, Prompt{
			ID:       strings.ToLower(name),
			Name:     name,
			Content:  kb.Prompts[name],
			Category: "general",
		})
	}
	for _, cat := range sortedKeys(kb.SampleQA) {
		for i, qa := range kb.SampleQA[cat] {
			v.QA = append(v.QA, QAEntry{
				ID:       fmt.Sprintf("%s-%d", cat, i),
				Question: qa.Question,
				Answer:   qa.Answer,
				Category: cat,
				Tags:     []string{},
			})
		}
	}
	return v, true
}

// =============================================================================
// JSON exchange
// =============================================================================

// Export renders a knowledge base as indented JSON.
func Export(kb KnowledgeBase) ([]byte, error) {
	data, err := json.MarshalIndent(kb, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export knowledge base: %w", err)
	}
	return data, nil
}

// Import parses and validates a knowledge base exported by Export.
func Import(data []byte) (KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return KnowledgeBase{}, fmt.Errorf("import knowledge base: %w", err)
	}
	if err := (Kind{}).Validate(kb); err != nil {
		return KnowledgeBase{}, fmt.Errorf("import knowledge base: %w", err)
	}
	return kb, nil
}

// ExportByID exports a stored or seed knowledge base.
func (m *Manager) ExportByID(id string) ([]byte, error) {
	kb, ok := m.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("export knowledge base %q: not found", id)
	}
	return Export(kb)
}

// ImportAs validates data and saves it under id.
func (m *Manager) ImportAs(id string, data []byte) error {
	kb, err := Import(data)
	if err != nil {
		return err
	}
	return m.Save(id, kb)
}

// =============================================================================
// Prompt integration
// =============================================================================

// Integrated is the knowledge a persona brings into its system prompt.
type Integrated struct {
	Topics        []string
	Prompts       []string
	KnowledgeData []string
}

// Integrate collects topics, prompts and detailed knowledge from the given
// knowledge bases, followed by the persona's custom knowledge topics.
// Unreadable knowledge base ids are skipped.
func (m *Manager) Integrate(kbIDs, customKnowledge []string) Integrated {
	var out Integrated
	seen := map[string]bool{}
	addTopic := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		out.Topics = append(out.Topics, t)
	}

	for _, id := range kbIDs {
		kb, ok := m.store.Get(id)
		if !ok {
			m.logger.Debug("knowledge base unavailable", zap.String("id", id))
			continue
		}
		for _, cat := range sortedKeys(kb.Topics) {
			for _, t := range kb.Topics[cat] {
				addTopic(t)
			}
		}
		for _, name := range sortedKeys(kb.Prompts) {
			out.Prompts = append(out.Prompts, strings.Join(strings.Fields(kb.Prompts[name]), " "))
		}
		if d := strings.TrimSpace(kb.KnowledgeData); d != "" {
			out.KnowledgeData = append(out.KnowledgeData, d)
		}
	}
	for _, t := range customKnowledge {
		addTopic(t)
	}
	return out
}

// FindBestMatch returns the sample Q&A across kbIDs that best answers query.
func (m *Manager) FindBestMatch(query string, kbIDs []string) (Match, bool) {
	var sources []Source
	for _, id := range kbIDs {
		if kb, ok := m.store.Get(id); ok {
			sources = append(sources, Source{ID: catalog.NormalizeID(id), KnowledgeBase: kb})
		}
	}
	return m.matcher.BestMatch(query, sources)
}
