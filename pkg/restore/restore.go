// Package restore reconciles the built-in seed tables with the live persona
// and knowledge base catalogs, and maintains the persona display order map.
package restore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/catalog"
	"github.com/kittclouds/okai/pkg/knowledge"
	"github.com/kittclouds/okai/pkg/persona"
)

// DefaultParallelism bounds the concurrent writes of one batch.
const DefaultParallelism = 8

// Report lists the ids a batch wrote and the ids that failed.
type Report struct {
	Restored []string
	Failed   map[string]error
}

// OK reports whether every id in the batch succeeded.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// Err joins the per-id failures in id order, or returns nil.
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	errs := make([]error, 0, len(ids))
	for _, id := range ids {
		errs = append(errs, fmt.Errorf("%s: %w", id, r.Failed[id]))
	}
	return errors.Join(errs...)
}

// Coordinator runs restore and ordering batches against both catalogs.
type Coordinator struct {
	personas    *persona.Store
	knowledge   *knowledge.Store
	medium      store.Medium
	keys        store.Keys
	parallelism int
	logger      *zap.Logger
}

func NewCoordinator(personas *persona.Store, kbs *knowledge.Store, medium store.Medium, keys store.Keys, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		personas:    personas,
		knowledge:   kbs,
		medium:      medium,
		keys:        keys,
		parallelism: DefaultParallelism,
		logger:      logger.Named("restore"),
	}
}

// batch collects results from concurrent per-id writes.
type batch struct {
	mu     sync.Mutex
	report Report
	logger *zap.Logger
}

func newBatch(logger *zap.Logger) *batch {
	return &batch{report: Report{Failed: map[string]error{}}, logger: logger}
}

func (b *batch) done(id string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.logger.Error("restore failed", zap.String("id", id), zap.Error(err))
		b.report.Failed[id] = err
		return
	}
	b.report.Restored = append(b.report.Restored, id)
}

func (b *batch) finish() (Report, error) {
	sort.Strings(b.report.Restored)
	return b.report, b.report.Err()
}

// =============================================================================
// Personas
// =============================================================================

// MergePersona overlays the live record's preferences on the seed's identity.
// With no live record the seed is returned as is. The result is flagged built-in.
func MergePersona(seed persona.Persona, live *persona.Persona) persona.Persona {
	out := seed
	if live != nil {
		out.KnowledgeBases = live.KnowledgeBases
		out.CustomKnowledge = live.CustomKnowledge
		if live.DisplayOrder != 0 {
			out.DisplayOrder = live.DisplayOrder
		}
		if live.ChatLength != "" {
			out.ChatLength = live.ChatLength
		}
		out.Model = live.Model
		out.Style = live.Style
	}
	out.IsBuiltIn = true
	return out
}

// RestorePersonas brings back every seed persona, keeping live preferences,
// and re-saves every custom persona. Writes run concurrently and the catalog
// signals one change at the end. A failed id does not stop the others.
func (c *Coordinator) RestorePersonas() (Report, error) {
	release := c.personas.Hold()
	defer release()

	kind := c.personas.Kind()
	live := map[string]persona.Persona{}
	var custom []string
	for _, md := range c.personas.List() {
		p, ok := c.personas.Get(md.ID)
		if !ok {
			continue
		}
		live[md.ID] = p
		if _, isSeed := kind.Seed(md.ID); !isSeed {
			custom = append(custom, md.ID)
		}
	}

	if err := c.personas.ClearDeletedIDs(); err != nil {
		return Report{}, fmt.Errorf("restore personas: %w", err)
	}

	b := newBatch(c.logger)
	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for _, id := range kind.SeedIDs() {
		seed, _ := kind.Seed(id)
		var prev *persona.Persona
		if p, ok := live[id]; ok {
			prev = &p
		}
		next := MergePersona(seed, prev)
		g.Go(func() error {
			b.done(id, c.personas.Save(id, next))
			return nil
		})
	}
	for _, id := range custom {
		p := live[id]
		g.Go(func() error {
			b.done(id, c.personas.Save(id, p))
			return nil
		})
	}
	_ = g.Wait()

	report, err := b.finish()
	c.logger.Info("personas restored",
		zap.Int("restored", len(report.Restored)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("custom", len(custom)))
	return report, err
}

// =============================================================================
// Knowledge bases
// =============================================================================

// RestoreKnowledgeBases rewrites every seed knowledge base from the seed
// table and re-saves every custom one.
func (c *Coordinator) RestoreKnowledgeBases() (Report, error) {
	release := c.knowledge.Hold()
	defer release()

	kind := c.knowledge.Kind()
	live := map[string]knowledge.KnowledgeBase{}
	var custom []string
	for _, md := range c.knowledge.List() {
		if _, isSeed := kind.Seed(md.ID); isSeed {
			continue
		}
		if kb, ok := c.knowledge.Get(md.ID); ok {
			live[md.ID] = kb
			custom = append(custom, md.ID)
		}
	}

	if err := c.knowledge.ClearDeletedIDs(); err != nil {
		return Report{}, fmt.Errorf("restore knowledge bases: %w", err)
	}

	b := newBatch(c.logger)
	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for _, id := range kind.SeedIDs() {
		seed, _ := kind.Seed(id)
		g.Go(func() error {
			b.done(id, c.knowledge.Save(id, seed))
			return nil
		})
	}
	for _, id := range custom {
		kb := live[id]
		g.Go(func() error {
			b.done(id, c.knowledge.Save(id, kb))
			return nil
		})
	}
	_ = g.Wait()

	report, err := b.finish()
	c.logger.Info("knowledge bases restored",
		zap.Int("restored", len(report.Restored)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("custom", len(custom)))
	return report, err
}

// =============================================================================
// Display order
// =============================================================================

// PersonaOrders reads the stored display order map. Unreadable data reads as empty.
func (c *Coordinator) PersonaOrders() map[string]int {
	orders := map[string]int{}
	raw, ok, err := c.medium.Get(c.keys.PersonaOrder())
	if err != nil || !ok {
		return orders
	}
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		c.logger.Warn("persona order is corrupt", zap.Error(err))
		return map[string]int{}
	}
	return orders
}

// PersonaOrder returns the stored display order of id, or the default.
func (c *Coordinator) PersonaOrder(id string) int {
	if n, ok := c.PersonaOrders()[catalog.NormalizeID(id)]; ok {
		return n
	}
	return persona.DefaultDisplayOrder
}

// UpdatePersonaOrders merges orders into the stored map and rewrites the
// displayOrder of each named persona concurrently.
func (c *Coordinator) UpdatePersonaOrders(orders map[string]int) (Report, error) {
	merged := c.PersonaOrders()
	for id, n := range orders {
		if n < 0 {
			return Report{}, catalog.Invalid("displayOrder", fmt.Sprintf("%s: must not be negative", id))
		}
		merged[catalog.NormalizeID(id)] = n
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return Report{}, fmt.Errorf("encode persona order: %w", err)
	}
	if err := c.medium.Set(c.keys.PersonaOrder(), string(data)); err != nil {
		return Report{}, fmt.Errorf("save persona order: %w", err)
	}

	release := c.personas.Hold()
	defer release()

	b := newBatch(c.logger)
	var g errgroup.Group
	g.SetLimit(c.parallelism)
	for id, n := range orders {
		nid := catalog.NormalizeID(id)
		g.Go(func() error {
			p, ok := c.personas.Get(nid)
			if !ok {
				b.done(nid, fmt.Errorf("persona %q not found", nid))
				return nil
			}
			p.DisplayOrder = n
			b.done(nid, c.personas.Save(nid, p))
			return nil
		})
	}
	_ = g.Wait()
	return b.finish()
}
