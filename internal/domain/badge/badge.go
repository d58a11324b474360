// Package badge evaluates achievement conditions against a user's
// aggregated points.
//
// Project and global badges share one evaluation path; the badge's scope
// tag decides whether requirements may reference skills in other
// projects. Listing a project returns its own badges plus every
// applicable global badge appended to the same list; entries are never
// coalesced because each badge instance is independent per its
// originating scope.
package badge

import (
	"context"
	"math"
	"time"

	"github.com/okian/ascent/internal/domain/catalog"
	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/internal/domain/points"
	"github.com/okian/ascent/pkg/metrics"
)

// CatalogResolver resolves version-scoped catalog views.
type CatalogResolver interface {
	Resolve(ctx context.Context, projectID string, version int) (*model.CatalogView, error)
}

// EventFetcher reads a user's skill events from the event store.
type EventFetcher interface {
	FetchEvents(ctx context.Context, projectID, userID string, skillIDs ...string) ([]model.SkillEvent, error)
}

// GlobalSource lists badges with global scope.
type GlobalSource interface {
	FetchGlobalBadges(ctx context.Context) ([]model.Badge, error)
}

// SkillProgress is the per-skill slice of a badge summary.
type SkillProgress struct {
	ProjectID string `json:"projectId"`
	SkillID   string `json:"skillId"`
	Points    int    `json:"points"`
	Required  int    `json:"required"`
	Completed bool   `json:"completed"`
}

// Summary is the evaluated state of one badge for one user.
type Summary struct {
	BadgeID         string          `json:"badgeId"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	IconClass       string          `json:"iconClass,omitempty"`
	ProjectID       string          `json:"projectId,omitempty"`
	Global          bool            `json:"global"`
	Achieved        bool            `json:"achieved"`
	PercentComplete int             `json:"percentComplete"`
	NumSkills       int             `json:"numTotalSkills"`
	NumAchieved     int             `json:"numSkillsAchieved"`
	Start           *time.Time      `json:"startDate,omitempty"`
	End             *time.Time      `json:"endDate,omitempty"`
	Skills          []SkillProgress `json:"skills,omitempty"`
}

// Evaluator computes badge summaries from aggregated points.
type Evaluator struct {
	catalogs CatalogResolver
	events   EventFetcher
	globals  GlobalSource
	now      func() time.Time
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithClock overrides the time source used for validity windows.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Evaluator.
func New(catalogs CatalogResolver, events EventFetcher, globals GlobalSource, opts ...Option) *Evaluator {
	e := &Evaluator{
		catalogs: catalogs,
		events:   events,
		globals:  globals,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate computes the achieved flag and percent complete for one badge.
// Per-skill earned points are capped at the skill's requirement so a
// surplus on one skill cannot offset a deficit on another. Global badges
// fetch totals once per referenced project; any failed lookup fails the
// evaluation rather than producing a partial state.
func (e *Evaluator) Evaluate(ctx context.Context, b model.Badge, userID string, includeSkills bool) (Summary, error) {
	const op = "badge.evaluate"
	metrics.RecordBadgeEvaluation()

	s := Summary{
		BadgeID:     b.BadgeID,
		Name:        b.Name,
		Description: b.Description,
		IconClass:   b.IconClass,
		ProjectID:   b.ProjectID,
		Global:      b.Global(),
		Start:       b.Start,
		End:         b.End,
		NumSkills:   len(b.Reqs),
	}

	totalsByProject := map[string]points.Totals{}
	earned, required := 0, 0

	for _, req := range b.Reqs {
		projectID := b.ProjectID
		if req.ProjectID != "" {
			projectID = req.ProjectID
		}

		totals, ok := totalsByProject[projectID]
		if !ok {
			var err error
			totals, err = e.projectTotals(ctx, projectID, userID)
			if err != nil {
				return Summary{}, fault.Wrap(op, err)
			}
			totalsByProject[projectID] = totals
		}

		got := totals.SkillTotal(req.SkillID)
		if got > req.Points {
			got = req.Points
		}
		earned += got
		required += req.Points
		done := req.Points > 0 && got >= req.Points
		if done {
			s.NumAchieved++
		}
		if includeSkills {
			s.Skills = append(s.Skills, SkillProgress{
				ProjectID: projectID,
				SkillID:   req.SkillID,
				Points:    got,
				Required:  req.Points,
				Completed: done,
			})
		}
	}

	if required > 0 {
		s.PercentComplete = int(math.Round(float64(earned) / float64(required) * 100))
	}
	s.Achieved = len(b.Reqs) > 0 && s.NumAchieved == len(b.Reqs)
	return s, nil
}

// ListProject returns the union of achieved and in-progress badges for a
// project at a catalog version, with all applicable global badges
// appended. Badges whose validity window has not started or has already
// ended are excluded unless the user already achieved them.
func (e *Evaluator) ListProject(ctx context.Context, projectID, userID string, version int, includeSkills bool) ([]Summary, error) {
	const op = "badge.list_project"

	view, err := e.catalogs.Resolve(ctx, projectID, version)
	if err != nil {
		return nil, fault.Wrap(op, err)
	}

	summaries := make([]Summary, 0, len(view.Badges))
	for _, b := range view.Badges {
		s, err := e.Evaluate(ctx, b, userID, includeSkills)
		if err != nil {
			return nil, fault.Wrap(op, err)
		}
		if !s.Achieved && !b.ActiveAt(e.now()) {
			continue
		}
		summaries = append(summaries, s)
	}

	globals, err := e.ListGlobal(ctx, projectID, userID, includeSkills)
	if err != nil {
		return nil, fault.Wrap(op, err)
	}
	return append(summaries, globals...), nil
}

// ListGlobal returns evaluated global badges applicable to a project. A
// global badge is applicable when any of its requirements references the
// project.
func (e *Evaluator) ListGlobal(ctx context.Context, projectID, userID string, includeSkills bool) ([]Summary, error) {
	const op = "badge.list_global"

	badges, err := e.globals.FetchGlobalBadges(ctx)
	if err != nil {
		return nil, fault.Wrap(op, err)
	}

	var summaries []Summary
	for _, b := range badges {
		if !appliesTo(b, projectID) {
			continue
		}
		s, err := e.Evaluate(ctx, b, userID, includeSkills)
		if err != nil {
			return nil, fault.Wrap(op, err)
		}
		if !s.Achieved && !b.ActiveAt(e.now()) {
			continue
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Find returns a badge definition by id: the project's catalog for
// project scope, the global list otherwise.
func (e *Evaluator) Find(ctx context.Context, projectID, badgeID string, version int, global bool) (model.Badge, error) {
	const op = "badge.find"

	if global {
		badges, err := e.globals.FetchGlobalBadges(ctx)
		if err != nil {
			return model.Badge{}, fault.Wrap(op, err)
		}
		for _, b := range badges {
			if b.BadgeID == badgeID {
				return b, nil
			}
		}
		return model.Badge{}, fault.Wrap(op, fault.NotFound("global badge", badgeID))
	}

	view, err := e.catalogs.Resolve(ctx, projectID, version)
	if err != nil {
		return model.Badge{}, fault.Wrap(op, err)
	}
	for _, b := range view.Badges {
		if b.BadgeID == badgeID {
			return b, nil
		}
	}
	return model.Badge{}, fault.Wrap(op, fault.NotFound("badge", badgeID))
}

func appliesTo(b model.Badge, projectID string) bool {
	for _, req := range b.Reqs {
		if req.ProjectID == projectID {
			return true
		}
	}
	return false
}

func (e *Evaluator) projectTotals(ctx context.Context, projectID, userID string) (points.Totals, error) {
	view, err := e.catalogs.Resolve(ctx, projectID, catalog.DefaultVersion)
	if err != nil {
		return points.Totals{}, err
	}
	events, err := e.events.FetchEvents(ctx, projectID, userID)
	if err != nil {
		return points.Totals{}, err
	}
	return points.Aggregate(events, view, ""), nil
}
