// Package catalog resolves (project, requested version) pairs into
// immutable, version-scoped catalog views. Everything downstream of the
// engine filters through a resolved view.
package catalog

import (
	"context"

	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/pkg/metrics"
)

// DefaultVersion requests the project's configured default version.
const DefaultVersion = -1

// Store is the catalog persistence boundary consumed by the resolver.
type Store interface {
	// FetchCatalog returns the raw definition set for a project. The store
	// validates that version (when not DefaultVersion) has a published
	// snapshot and fails with fault.ErrNotFound otherwise.
	FetchCatalog(ctx context.Context, projectID string, version int) (*model.ProjectCatalog, error)

	// FetchDefaultVersion returns the project's current maximum version.
	FetchDefaultVersion(ctx context.Context, projectID string) (int, error)
}

// Resolver builds version-scoped views on top of a Store, with an
// optional read-through cache keyed by (projectID, version).
type Resolver struct {
	store Store
	// fallbackVersion is used when a project reports no default of its
	// own; injected at construction rather than read from ambient state.
	fallbackVersion int
	cache           *viewCache
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithFallbackVersion sets the deployment-wide default catalog version.
func WithFallbackVersion(v int) Option {
	return func(r *Resolver) {
		if v >= 0 {
			r.fallbackVersion = v
		}
	}
}

// WithCacheSize bounds the view cache; zero disables caching.
func WithCacheSize(n int) Option {
	return func(r *Resolver) {
		r.cache = newViewCache(n)
	}
}

// New constructs a Resolver for the given store.
func New(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store: store,
		cache: newViewCache(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the catalog view for a project at the requested version.
// Pass DefaultVersion to use the project's configured default. Skills and
// badges introduced after the resolved version are excluded entirely, as
// are dependency edges that reference an excluded same-project skill.
func (r *Resolver) Resolve(ctx context.Context, projectID string, version int) (*model.CatalogView, error) {
	const op = "catalog.resolve"

	if version < DefaultVersion {
		return nil, fault.Wrap(op, fault.Validation("version must not be negative"))
	}

	if version == DefaultVersion {
		v, err := r.store.FetchDefaultVersion(ctx, projectID)
		if err != nil {
			return nil, fault.Wrap(op, err)
		}
		if v < 0 {
			v = r.fallbackVersion
		}
		version = v
	}

	if view, ok := r.cache.get(projectID, version); ok {
		metrics.RecordCatalogCacheHit()
		return view, nil
	}
	metrics.RecordCatalogCacheMiss()

	raw, err := r.store.FetchCatalog(ctx, projectID, version)
	if err != nil {
		return nil, fault.Wrap(op, err)
	}

	view := buildView(raw, version)
	r.cache.put(projectID, version, view)
	return view, nil
}

// Invalidate drops all cached views of a project. The authoring subsystem
// calls this on catalog mutation.
func (r *Resolver) Invalidate(projectID string) {
	r.cache.invalidate(projectID)
}

// buildView filters raw definitions down to those visible at version.
func buildView(raw *model.ProjectCatalog, version int) *model.CatalogView {
	view := &model.CatalogView{
		ProjectID:     raw.ProjectID,
		Version:       version,
		Skills:        make(map[string]model.Skill),
		Subjects:      make(map[string]model.Subject),
		SubjectOrder:  raw.SubjectOrder,
		Levels:        raw.Levels,
		SubjectLevels: raw.SubjectLevels,
	}

	for _, s := range raw.Skills {
		if s.Version <= version {
			view.Skills[s.SkillID] = s
		}
	}
	for _, sub := range raw.Subjects {
		// Subjects are not versioned; their skill lists shrink to the
		// visible set.
		visible := make([]string, 0, len(sub.SkillIDs))
		for _, id := range sub.SkillIDs {
			if _, ok := view.Skills[id]; ok {
				visible = append(visible, id)
			}
		}
		sub.SkillIDs = visible
		view.Subjects[sub.SubjectID] = sub
	}
	for _, b := range raw.Badges {
		if b.Version <= version {
			view.Badges = append(view.Badges, b)
		}
	}
	for _, e := range raw.Edges {
		if _, ok := view.Skills[e.SkillID]; !ok {
			continue
		}
		if e.PrereqProjectID == "" {
			// Same-project prerequisites must be visible too. No forward
			// dependency is possible (edges never point at a later
			// version), so this only drops genuinely dangling edges.
			if _, ok := view.Skills[e.PrereqSkillID]; !ok {
				continue
			}
		}
		view.Edges = append(view.Edges, e)
	}

	return view
}
