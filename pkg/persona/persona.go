// Package persona defines chat personas and their persisted catalog.
package persona

import (
	"fmt"
	"strings"

	"github.com/kittclouds/okai/pkg/catalog"
	"github.com/kittclouds/okai/pkg/style"
)

// MetadataVersion is stamped on every metadata record.
const MetadataVersion = "1.0.0"

// DefaultDisplayOrder sorts personas without an explicit order last.
const DefaultDisplayOrder = 999

// Persona is a configurable assistant character.
type Persona struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	SystemPrompt    string           `json:"systemPrompt"`
	KnowledgeBases  []string         `json:"knowledgeBases,omitempty"`
	CustomKnowledge []string         `json:"customKnowledge,omitempty"`
	DisplayOrder    int              `json:"displayOrder,omitempty"`
	Model           string           `json:"model,omitempty"`
	ChatLength      style.ChatLength `json:"chatLength,omitempty"`
	IsBuiltIn       bool             `json:"isBuiltIn,omitempty"`
	Style           *style.Rules     `json:"style,omitempty"`
}

// Order returns DisplayOrder, or DefaultDisplayOrder when unset.
func (p Persona) Order() int {
	if p.DisplayOrder == 0 {
		return DefaultDisplayOrder
	}
	return p.DisplayOrder
}

// Metadata is the index projection of a Persona.
type Metadata struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Version        string           `json:"version"`
	LastModified   int64            `json:"lastModified"`
	DisplayOrder   int              `json:"displayOrder"`
	Model          string           `json:"model,omitempty"`
	ChatLength     style.ChatLength `json:"chatLength,omitempty"`
	KnowledgeBases []string         `json:"knowledgeBases,omitempty"`
	IsBuiltIn      bool             `json:"isBuiltIn"`
}

// Kind plugs personas into catalog.Store.
type Kind struct{}

func (Kind) Name() string { return "persona" }

func (Kind) Validate(p Persona) error {
	if strings.TrimSpace(p.Name) == "" {
		return catalog.Required("name")
	}
	if strings.TrimSpace(p.SystemPrompt) == "" {
		return catalog.Required("systemPrompt")
	}
	if !p.ChatLength.Valid() {
		return catalog.Invalid("chatLength", fmt.Sprintf("must be short, normal or long, got %q", p.ChatLength))
	}
	for i, id := range p.KnowledgeBases {
		if strings.TrimSpace(id) == "" {
			return catalog.Invalid(fmt.Sprintf("knowledgeBases[%d]", i), "must not be empty")
		}
	}
	for i, k := range p.CustomKnowledge {
		if strings.TrimSpace(k) == "" {
			return catalog.Invalid(fmt.Sprintf("customKnowledge[%d]", i), "must not be empty")
		}
	}
	if p.DisplayOrder < 0 {
		return catalog.Invalid("displayOrder", "must not be negative")
	}
	if p.Style != nil {
		if err := p.Style.Validate(); err != nil {
			return catalog.Invalid("style", err.Error())
		}
	}
	return nil
}

func (Kind) Project(id string, p Persona, modified int64) Metadata {
	return Metadata{
		ID:             id,
		Name:           p.Name,
		Description:    p.Description,
		Version:        MetadataVersion,
		LastModified:   modified,
		DisplayOrder:   p.Order(),
		Model:          p.Model,
		ChatLength:     p.ChatLength,
		KnowledgeBases: p.KnowledgeBases,
		IsBuiltIn:      p.IsBuiltIn,
	}
}

func (Kind) MetadataID(m Metadata) string { return m.ID }
func (Kind) Modified(m Metadata) int64 { return m.LastModified }
func (Kind) Less(a, b Metadata) bool { return a.DisplayOrder < b.DisplayOrder }

// Carry keeps the built-in flag of a stored record; only a delete clears it.
func (Kind) Carry(stored, in Persona) Persona {
	in.IsBuiltIn = in.IsBuiltIn || stored.IsBuiltIn
	return in
}

func (Kind) Seed(id string) (Persona, bool) {
	p, ok := seeds()[id]
	return p, ok
}

func (Kind) SeedIDs() []string { return append([]string(nil), seedOrder...) }

// Store is the persona catalog.
type Store = catalog.Store[Persona, Metadata]
