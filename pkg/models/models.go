// Package models lists the chat models a persona can run on and persists the
// user's selection.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/notify"
)

// ErrUnknownModel is returned when selecting an id outside the catalog.
var ErrUnknownModel = errors.New("unknown model")

// Model describes one completion model.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsFree      bool   `json:"isFree"`
	IsAvailable bool   `json:"isAvailable"`
}

var catalog = []Model{
	{
		ID:          "google/gemini-2.0-flash-lite-preview-02-05:free",
		Name:        "Gemini Flash Lite 2.0 Preview",
		Description: "Google's latest Gemini model optimized for fast, efficient responses",
		IsFree:      true,
		IsAvailable: true,
	},
	{
		ID:          "openai/gpt-4o-mini",
		Name:        "GPT-4o-mini",
		Description: "OpenAI's compact yet powerful language model",
		IsAvailable: true,
	},
	{
		ID:          "openai/o3-mini",
		Name:        "o3 Mini",
		Description: "OpenAI's optimized model for efficient processing",
		IsAvailable: true,
	},
	{
		ID:          "anthropic/claude-3.5-sonnet",
		Name:        "Claude 3.5 Sonnet",
		Description: "Anthropic's advanced language model with enhanced capabilities",
		IsAvailable: true,
	},
	{
		ID:          "deepseek/deepseek-chat",
		Name:        "DeepSeek V3",
		Description: "DeepSeek-V3 is the latest model from the DeepSeek team",
		IsAvailable: true,
	},
	{
		ID:          "cognitivecomputations/dolphin3.0-mistral-24b:free",
		Name:        "Dolphin3.0 Mistral 24B",
		Description: "Dolphin 3.0 is the next generation of the Dolphin series of instruct-tuned models.",
		IsFree:      true,
		IsAvailable: true,
	},
	{
		ID:          "qwen/qwen-vl-plus:free",
		Name:        "Qwen VL Plus",
		Description: "Qwen's vision-language model with extended capabilities",
		IsFree:      true,
		IsAvailable: true,
	},
	{
		ID:          "qwen/qwen-max",
		Name:        "Qwen-Max",
		Description: "Qwen's maximum performance language model",
		IsAvailable: true,
	},
	{
		ID:          "x-ai/grok-2-1212",
		Name:        "Grok 2 1212",
		Description: "xAI's latest conversational AI model",
		IsAvailable: true,
	},
}

// All returns a copy of the model catalog.
func All() []Model { return append([]Model(nil), catalog...) }

// Default is the first model in the catalog.
func Default() Model { return catalog[0] }

// ByID looks a model up by id.
func ByID(id string) (Model, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Selector persists the selected model as a JSON string.
type Selector struct {
	mu     sync.Mutex
	medium store.Medium
	key    string
	bus    *notify.Bus
	logger *zap.Logger
}

func NewSelector(medium store.Medium, keys store.Keys, bus *notify.Bus, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{
		medium: medium,
		key:    keys.SelectedModel(),
		bus:    bus,
		logger: logger.Named("models"),
	}
}

// Selected returns the stored model, or Default when nothing valid is stored.
func (s *Selector) Selected() Model {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.medium.Get(s.key)
	if err != nil || !ok {
		return Default()
	}
	var id string
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		s.logger.Warn("stored model selection is corrupt", zap.Error(err))
		return Default()
	}
	if m, ok := ByID(id); ok {
		return m
	}
	return Default()
}

// Current returns the id and display name of the selected model.
func (s *Selector) Current() (id, name string) {
	m := s.Selected()
	return m.ID, m.Name
}

// Select persists id. Ids outside the catalog are rejected.
func (s *Selector) Select(id string) error {
	if _, ok := ByID(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	err = s.medium.Set(s.key, string(data))
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("select model %q: %w", id, err)
	}
	s.logger.Info("model selected", zap.String("id", id))
	if s.bus != nil {
		s.bus.Emit(notify.StorageChanged)
	}
	return nil
}
