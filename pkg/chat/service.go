// Package chat turns a persona, its knowledge and the conversation so far into
// a styled model reply, and records the exchange in the conversation log.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kittclouds/okai/pkg/convlog"
	"github.com/kittclouds/okai/pkg/knowledge"
	"github.com/kittclouds/okai/pkg/models"
	"github.com/kittclouds/okai/pkg/openrouter"
	"github.com/kittclouds/okai/pkg/persona"
	"github.com/kittclouds/okai/pkg/style"
)

var (
	ErrNoPersona    = errors.New("no persona selected")
	ErrEmptyHistory = errors.New("no message content provided")
)

// Completer produces the model's reply to a message list.
type Completer interface {
	Complete(ctx context.Context, model string, msgs []openrouter.Message) (string, error)
}

// Service runs one chat turn at a time for any persona.
type Service struct {
	personas  *persona.Manager
	knowledge *knowledge.Manager
	models    *models.Selector
	logs      *convlog.Manager
	styler    *style.Styler
	logger    *zap.Logger

	mu        sync.RWMutex
	completer Completer
}

// NewService wires a chat service. logs may be nil to skip recording.
func NewService(
	personas *persona.Manager,
	kbs *knowledge.Manager,
	sel *models.Selector,
	logs *convlog.Manager,
	styler *style.Styler,
	completer Completer,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		personas:  personas,
		knowledge: kbs,
		models:    sel,
		logs:      logs,
		styler:    styler,
		completer: completer,
		logger:    logger.Named("chat"),
	}
}

// SetCompleter swaps the completion backend, e.g. after the API key changed.
func (s *Service) SetCompleter(c Completer) {
	s.mu.Lock()
	s.completer = c
	s.mu.Unlock()
}

// SendMessage answers the last message of history as personaID. The styled
// reply is returned and the whole exchange is logged.
func (s *Service) SendMessage(ctx context.Context, personaID string, history []convlog.Message) (convlog.Message, error) {
	if len(history) == 0 {
		return convlog.Message{}, ErrEmptyHistory
	}
	p, ok := s.personas.Get(personaID)
	if !ok {
		return convlog.Message{}, fmt.Errorf("%w: %q", ErrNoPersona, personaID)
	}
	s.mu.RLock()
	completer := s.completer
	s.mu.RUnlock()
	if completer == nil {
		return convlog.Message{}, openrouter.ErrMissingKey
	}

	last := history[len(history)-1]
	integrated := s.knowledge.Integrate(p.KnowledgeBases, p.CustomKnowledge)
	match, matched := s.knowledge.FindBestMatch(last.Content, p.KnowledgeBases)

	var qa *knowledge.Match
	if matched {
		qa = &match
	}
	msgs := make([]openrouter.Message, 0, len(history)+1)
	msgs = append(msgs, openrouter.Message{Role: "system", Content: SystemPrompt(p, integrated, qa)})
	for _, m := range history {
		msgs = append(msgs, openrouter.Message{Role: m.Role, Content: m.Content})
	}

	model := p.Model
	if model == "" {
		model = s.models.Selected().ID
	}

	raw, err := completer.Complete(ctx, model, msgs)
	if err != nil {
		s.logger.Error("completion failed", zap.String("persona", personaID), zap.String("model", model), zap.Error(err))
		return convlog.Message{}, err
	}

	reply := convlog.Message{Role: "assistant", Content: s.styler.Apply(raw, p.Style, p.ChatLength)}
	s.logger.Info("message sent",
		zap.String("persona", p.Name),
		zap.String("model", model),
		zap.Bool("knowledgeMatch", matched))

	if s.logs != nil {
		exchange := append(append([]convlog.Message(nil), history...), reply)
		if err := s.logs.LogConversation(exchange, personaID); err != nil {
			s.logger.Warn("failed to log conversation", zap.Error(err))
		}
	}
	return reply, nil
}

// SystemPrompt assembles the persona prompt with its integrated knowledge
// and, when one matched, the verified knowledge base answer.
func SystemPrompt(p persona.Persona, in knowledge.Integrated, qa *knowledge.Match) string {
	var b strings.Builder
	b.WriteString(p.SystemPrompt)
	b.WriteString("\n\nKNOWLEDGE BASE INTEGRATION:\n")
	b.WriteString("1. Topics of Expertise: " + strings.Join(in.Topics, ", ") + "\n")
	b.WriteString("2. Context-Specific Instructions: " + strings.Join(in.Prompts, " ") + "\n")
	if len(in.KnowledgeData) > 0 {
		b.WriteString("3. Detailed Knowledge:\n" + strings.Join(in.KnowledgeData, "\n\n") + "\n")
	}
	if qa != nil {
		b.WriteString("\nVERIFIED KNOWLEDGE BASE ANSWER:\n")
		b.WriteString("Source: " + qa.Source + "\n")
		b.WriteString("Category: " + qa.Category + "\n")
		b.WriteString(fmt.Sprintf("Answer: %q\n", qa.Answer))
	}
	b.WriteString("\nRESPONSE GUIDELINES:\n")
	b.WriteString("1. Primary Source: Always prioritize knowledge base answers when available\n")
	b.WriteString("2. Consistency: Maintain " + p.Name + "'s personality and style\n")
	b.WriteString("3. Accuracy: Only use verified information from the knowledge base\n")
	b.WriteString("4. Fallback: Use general knowledge only when no knowledge base match exists")
	return b.String()
}
