// Package depgraph computes the prerequisite view of a skill: which
// skills gate it, whether each gate is satisfied, and the resulting
// locked/unlocked status.
//
// The dependency graph is an explicit edge list keyed by (projectID,
// skillID); edges may cross project boundaries. The authoring system
// rejects cycles before they reach this engine, but dangling edges are
// tolerated: a prerequisite that no longer exists simply reports as
// unachieved.
package depgraph

import (
	"context"

	"github.com/okian/ascent/internal/domain/catalog"
	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/internal/domain/points"
)

// CatalogResolver resolves version-scoped catalog views.
type CatalogResolver interface {
	Resolve(ctx context.Context, projectID string, version int) (*model.CatalogView, error)
}

// EventFetcher reads a user's skill events from the event store.
type EventFetcher interface {
	FetchEvents(ctx context.Context, projectID, userID string, skillIDs ...string) ([]model.SkillEvent, error)
}

// Prerequisite is one gate on the queried skill.
type Prerequisite struct {
	ProjectID     string `json:"projectId"`
	SkillID       string `json:"skillId"`
	SkillName     string `json:"skillName"`
	CrossProject  bool   `json:"crossProject"`
	Achieved      bool   `json:"achieved"`
	Points        int    `json:"points"`
	TotalPossible int    `json:"totalPossible"`
}

// Info is the dependency view of one skill for one user.
type Info struct {
	ProjectID     string         `json:"projectId"`
	SkillID       string         `json:"skillId"`
	Unlocked      bool           `json:"unlocked"`
	Prerequisites []Prerequisite `json:"prerequisites"`
}

// Resolver traverses dependency edges and checks achievement per
// prerequisite from aggregated points.
type Resolver struct {
	catalogs   CatalogResolver
	events     EventFetcher
	transitive bool
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithTransitive makes resolution follow chained prerequisites instead of
// stopping at the first level.
func WithTransitive(on bool) Option {
	return func(r *Resolver) {
		r.transitive = on
	}
}

// New constructs a Resolver.
func New(catalogs CatalogResolver, events EventFetcher, opts ...Option) *Resolver {
	r := &Resolver{catalogs: catalogs, events: events}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DependencyInfo resolves the prerequisite list and lock status of a
// skill for a user. Fails with fault.ErrNotFound when the skill is not in
// the project's resolved catalog. The skill is locked if any listed
// prerequisite is unachieved.
func (r *Resolver) DependencyInfo(ctx context.Context, projectID, userID, skillID string) (*Info, error) {
	const op = "depgraph.dependency_info"

	view, err := r.catalogs.Resolve(ctx, projectID, catalog.DefaultVersion)
	if err != nil {
		return nil, fault.Wrap(op, err)
	}
	if _, ok := view.Skill(skillID); !ok {
		return nil, fault.Wrap(op, fault.NotFound("skill", skillID))
	}

	w := &walk{
		resolver: r,
		userID:   userID,
		views:    map[string]*model.CatalogView{projectID: view},
		totals:   map[string]points.Totals{},
		visited:  map[[2]string]bool{},
	}

	info := &Info{ProjectID: projectID, SkillID: skillID, Unlocked: true}
	if err := w.expand(ctx, projectID, skillID, info); err != nil {
		return nil, fault.Wrap(op, err)
	}
	return info, nil
}

// walk carries per-request memoization: one catalog view and one totals
// aggregation per touched project, plus a visited set so a malformed
// (cyclic) edge list cannot hang the request.
type walk struct {
	resolver *Resolver
	userID   string
	views    map[string]*model.CatalogView
	totals   map[string]points.Totals
	visited  map[[2]string]bool
}

func (w *walk) expand(ctx context.Context, projectID, skillID string, info *Info) error {
	if w.visited[[2]string{projectID, skillID}] {
		return nil
	}
	w.visited[[2]string{projectID, skillID}] = true

	view, err := w.view(ctx, projectID)
	if err != nil {
		return err
	}

	for _, edge := range view.EdgesFrom(skillID) {
		prereqProject := projectID
		if edge.PrereqProjectID != "" {
			prereqProject = edge.PrereqProjectID
		}

		p, err := w.prerequisite(ctx, info.ProjectID, prereqProject, edge.PrereqSkillID)
		if err != nil {
			return err
		}
		info.Prerequisites = append(info.Prerequisites, p)
		if !p.Achieved {
			info.Unlocked = false
		}

		if w.resolver.transitive {
			if err := w.expand(ctx, prereqProject, edge.PrereqSkillID, info); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walk) prerequisite(ctx context.Context, rootProject, projectID, skillID string) (Prerequisite, error) {
	p := Prerequisite{
		ProjectID:    projectID,
		SkillID:      skillID,
		CrossProject: projectID != rootProject,
	}

	view, err := w.view(ctx, projectID)
	if err != nil {
		return Prerequisite{}, err
	}
	skill, ok := view.Skill(skillID)
	if !ok {
		// Dangling edge: report the gate as permanently unachieved
		// rather than failing the whole query.
		return p, nil
	}
	p.SkillName = skill.Name
	p.TotalPossible = skill.TotalPossible()

	totals, err := w.projectTotals(ctx, projectID)
	if err != nil {
		return Prerequisite{}, err
	}
	p.Points = totals.SkillTotal(skillID)
	p.Achieved = p.TotalPossible > 0 && p.Points >= p.TotalPossible
	return p, nil
}

func (w *walk) view(ctx context.Context, projectID string) (*model.CatalogView, error) {
	if v, ok := w.views[projectID]; ok {
		return v, nil
	}
	v, err := w.resolver.catalogs.Resolve(ctx, projectID, catalog.DefaultVersion)
	if err != nil {
		return nil, err
	}
	w.views[projectID] = v
	return v, nil
}

func (w *walk) projectTotals(ctx context.Context, projectID string) (points.Totals, error) {
	if t, ok := w.totals[projectID]; ok {
		return t, nil
	}
	view, err := w.view(ctx, projectID)
	if err != nil {
		return points.Totals{}, err
	}
	events, err := w.resolver.events.FetchEvents(ctx, projectID, w.userID)
	if err != nil {
		return points.Totals{}, err
	}
	t := points.Aggregate(events, view, "")
	w.totals[projectID] = t
	return t, nil
}
