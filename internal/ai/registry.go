package ai

import (
	"fmt"
	"sort"
	"sync"

	"github.com/starford/agencyhub/internal/apperr"
)

// Tier is a request complexity class; each tier maps to a default model.
type Tier string

const (
	TierSimple  Tier = "simple"
	TierMedium  Tier = "medium"
	TierComplex Tier = "complex"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierSimple || t == TierMedium || t == TierComplex
}

// ModelSpec describes one selectable model and its pricing.
type ModelSpec struct {
	ID       string  `json:"id" yaml:"id"`
	Label    string  `json:"label" yaml:"label"`
	Provider string  `json:"provider" yaml:"provider"`
	Tier     Tier    `json:"tier" yaml:"tier"`
	InputPM  float64 `json:"input_per_million" yaml:"input_per_million"`
	OutputPM float64 `json:"output_per_million" yaml:"output_per_million"`
}

// Cost returns the USD price of a call with the given token counts.
func (m ModelSpec) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*m.InputPM + float64(outputTokens)*m.OutputPM) / 1_000_000
}

// Registry holds model specs, tier defaults and the provider clients that
// serve them. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	models    map[string]ModelSpec
	tiers     map[Tier]string
	providers map[string]ChatModel
}

// NewRegistry validates that every tier default names a registered model.
func NewRegistry(specs []ModelSpec, tiers map[Tier]string) (*Registry, error) {
	r := &Registry{
		models:    make(map[string]ModelSpec, len(specs)),
		tiers:     make(map[Tier]string, len(tiers)),
		providers: make(map[string]ChatModel),
	}
	for _, s := range specs {
		if s.ID == "" || s.Provider == "" {
			return nil, fmt.Errorf("ai: model spec needs id and provider: %+v", s)
		}
		if _, dup := r.models[s.ID]; dup {
			return nil, fmt.Errorf("ai: duplicate model %q", s.ID)
		}
		r.models[s.ID] = s
	}
	for tier, id := range tiers {
		if !tier.Valid() {
			return nil, fmt.Errorf("ai: unknown tier %q", tier)
		}
		if _, ok := r.models[id]; !ok {
			return nil, fmt.Errorf("ai: tier %s uses unregistered model %q", tier, id)
		}
		r.tiers[tier] = id
	}
	return r, nil
}

// Register binds a provider name to the client that serves its models.
func (r *Registry) Register(provider string, m ChatModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider] = m
}

// Selection is the outcome of Select.
type Selection struct {
	Spec  ModelSpec
	Model ChatModel
}

// Select resolves the model for a request. An explicit override must be a
// registered model; otherwise the tier default is used, with an empty tier
// meaning medium.
func (r *Registry) Select(tier Tier, override string) (Selection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id := override
	if id == "" {
		if tier == "" {
			tier = TierMedium
		}
		if !tier.Valid() {
			return Selection{}, apperr.Invalid("tier", "must be simple, medium or complex")
		}
		var ok bool
		if id, ok = r.tiers[tier]; !ok {
			return Selection{}, apperr.Invalid("tier", fmt.Sprintf("no default model for tier %s", tier))
		}
	}
	spec, ok := r.models[id]
	if !ok {
		return Selection{}, apperr.Invalid("model", fmt.Sprintf("unknown model %q", id))
	}
	m, ok := r.providers[spec.Provider]
	if !ok {
		return Selection{}, apperr.Invalid("model", fmt.Sprintf("provider %s is not configured", spec.Provider))
	}
	return Selection{Spec: spec, Model: m}, nil
}

// Models lists the registered specs whose provider is available, by id.
func (r *Registry) Models() []ModelSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ModelSpec, 0, len(r.models))
	for _, s := range r.models {
		if _, ok := r.providers[s.Provider]; ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Spec returns a registered model spec.
func (r *Registry) Spec(id string) (ModelSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.models[id]
	return s, ok
}

// TierDefaults returns a copy of the tier -> model mapping.
func (r *Registry) TierDefaults() map[Tier]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Tier]string, len(r.tiers))
	for k, v := range r.tiers {
		out[k] = v
	}
	return out
}
