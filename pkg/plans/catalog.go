package plans

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source defines how plans are loaded into a catalog.
type Source interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

// Catalog holds the loaded plan set. Plans are cached in memory after
// loading; catalog changes require reloading.
type Catalog struct {
	plans map[string]Plan
}

// NewCatalog loads plans from the given source and validates them.
func NewCatalog(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		panic("plans: Source is required")
	}

	loaded, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	for id, plan := range loaded {
		if plan.ID != id {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan ID mismatch: map key %s != plan.ID %s", id, plan.ID))
		}
		if plan.Price.Amount < 0 {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative price: %d", id, plan.Price.Amount))
		}
	}

	return &Catalog{plans: loaded}, nil
}

// Get returns a plan by ID. Returns ErrPlanNotFound for unknown IDs.
func (c *Catalog) Get(planID string) (Plan, error) {
	plan, exists := c.plans[planID]
	if !exists {
		return Plan{}, ErrPlanNotFound
	}
	return plan, nil
}

// Verify checks that a plan ID exists in the catalog.
func (c *Catalog) Verify(planID string) error {
	if _, exists := c.plans[planID]; !exists {
		return ErrPlanNotFound
	}
	return nil
}

// All returns every plan keyed by ID. The returned map is a copy.
func (c *Catalog) All() map[string]Plan {
	out := make(map[string]Plan, len(c.plans))
	for id, plan := range c.plans {
		out[id] = plan
	}
	return out
}

// StaticSource serves a fixed plan list. Useful for tests and for
// applications that compile their catalog in.
type StaticSource struct {
	plans []Plan
}

// NewStaticSource creates a source from the given plans.
func NewStaticSource(list ...Plan) *StaticSource {
	return &StaticSource{plans: list}
}

func (s *StaticSource) Load(_ context.Context) (map[string]Plan, error) {
	out := make(map[string]Plan, len(s.plans))
	for _, plan := range s.plans {
		out[plan.ID] = plan
	}
	return out, nil
}

// YAMLSource loads plans from a YAML file containing a top-level `plans` list.
type YAMLSource struct {
	path string
}

// NewYAMLSource creates a source reading from the given file path.
func NewYAMLSource(path string) *YAMLSource {
	return &YAMLSource{path: path}
}

func (s *YAMLSource) Load(_ context.Context) (map[string]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan catalog %s: %w", s.path, err)
	}

	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog %s: %w", s.path, err)
	}

	out := make(map[string]Plan, len(doc.Plans))
	for _, plan := range doc.Plans {
		out[plan.ID] = plan
	}
	return out, nil
}
