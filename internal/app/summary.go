package service

import (
	"context"

	"github.com/okian/ascent/internal/domain/badge"
	"github.com/okian/ascent/internal/domain/depgraph"
	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/history"
	"github.com/okian/ascent/internal/domain/level"
	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/internal/domain/points"
	"github.com/okian/ascent/pkg/metrics"
)

// SkillSummary is one skill's progress for one user.
type SkillSummary struct {
	ProjectID      string `json:"projectId"`
	SkillID        string `json:"skillId"`
	SubjectID      string `json:"subjectId"`
	Name           string `json:"skill"`
	Description    string `json:"description,omitempty"`
	Points         int    `json:"points"`
	TotalPoints    int    `json:"totalPoints"`
	PointIncrement int    `json:"pointIncrement"`
	MaxOccurrences int    `json:"maxOccurrencesIncrementInterval"`
	Occurrences    int    `json:"occurrences"`
	Completed      bool   `json:"completed"`
	CrossProject   bool   `json:"crossProject"`
}

// SubjectSummary is one subject's rollup for one user.
type SubjectSummary struct {
	SubjectID        string         `json:"subjectId"`
	Name             string         `json:"subject"`
	Points           int            `json:"points"`
	TotalPoints      int            `json:"totalPoints"`
	Level            int            `json:"skillsLevel"`
	LevelPoints      int            `json:"levelPoints"`
	LevelTotalPoints int            `json:"levelTotalPoints"`
	Skills           []SkillSummary `json:"skills,omitempty"`
}

// OverallSummary is a user's full standing in one project.
type OverallSummary struct {
	ProjectID        string           `json:"projectId"`
	Level            int              `json:"skillsLevel"`
	Points           int              `json:"points"`
	TotalPoints      int              `json:"totalPoints"`
	LevelPoints      int              `json:"levelPoints"`
	LevelTotalPoints int              `json:"levelTotalPoints"`
	Subjects         []SubjectSummary `json:"subjects"`
	Badges           int              `json:"badgesAchieved"`
}

// Description is the static text of a skill, used by description
// endpoints that skip progress computation.
type Description struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// LoadUserLevel returns a user's current project level.
func (s *Service) LoadUserLevel(ctx context.Context, projectID, userID string, version int) (int, error) {
	const op = "service.load_user_level"

	view, totals, err := s.viewAndTotals(ctx, projectID, userID, version, "")
	if err != nil {
		return 0, fault.Wrap(op, err)
	}
	return level.Calc(totals.Total, view.Levels), nil
}

// LoadOverallSummary builds the project-wide rollup with per-subject
// sections ordered by the catalog's display order.
func (s *Service) LoadOverallSummary(ctx context.Context, projectID, userID string, version int) (OverallSummary, error) {
	const op = "service.load_overall_summary"
	metrics.RecordSummaryQuery()

	view, totals, err := s.viewAndTotals(ctx, projectID, userID, version, "")
	if err != nil {
		return OverallSummary{}, fault.Wrap(op, err)
	}

	progress := level.CalcProgress(totals.Total, view.Levels)
	out := OverallSummary{
		ProjectID:        projectID,
		Level:            progress.Level,
		Points:           totals.Total,
		TotalPoints:      viewTotalPossible(view, ""),
		LevelPoints:      progress.Earned,
		LevelTotalPoints: progress.Needed,
	}

	for _, subjectID := range subjectOrder(view) {
		sub := view.Subjects[subjectID]
		out.Subjects = append(out.Subjects, subjectSummary(view, sub, totals, false))
	}

	badges, err := s.badges.ListProject(ctx, projectID, userID, version, false)
	if err != nil {
		return OverallSummary{}, fault.Wrap(op, err)
	}
	for _, b := range badges {
		if b.Achieved {
			out.Badges++
		}
	}
	return out, nil
}

// LoadSubjectSummary builds one subject's rollup, optionally with the
// per-skill breakdown.
func (s *Service) LoadSubjectSummary(ctx context.Context, projectID, subjectID, userID string, version int, includeSkills bool) (SubjectSummary, error) {
	const op = "service.load_subject_summary"
	metrics.RecordSummaryQuery()

	view, totals, err := s.viewAndTotals(ctx, projectID, userID, version, subjectID)
	if err != nil {
		return SubjectSummary{}, fault.Wrap(op, err)
	}
	sub, ok := view.Subject(subjectID)
	if !ok {
		return SubjectSummary{}, fault.Wrap(op, fault.NotFound("subject", subjectID))
	}
	return subjectSummary(view, sub, totals, includeSkills), nil
}

// LoadSubjectDescriptions returns the static texts of a subject's skills.
func (s *Service) LoadSubjectDescriptions(ctx context.Context, projectID, subjectID string, version int) ([]Description, error) {
	const op = "service.load_subject_descriptions"

	view, err := s.resolveView(ctx, projectID, version)
	if err != nil {
		return nil, fault.Wrap(op, err)
	}
	sub, ok := view.Subject(subjectID)
	if !ok {
		return nil, fault.Wrap(op, fault.NotFound("subject", subjectID))
	}

	out := make([]Description, 0, len(sub.SkillIDs))
	for _, skillID := range sub.SkillIDs {
		skill := view.Skills[skillID]
		out = append(out, Description{ID: skill.SkillID, Name: skill.Name, Description: skill.Description})
	}
	return out, nil
}

// LoadSkillSummary builds one skill's progress. A non-empty subjectID
// additionally asserts the skill belongs to that subject; a non-empty
// crossProjectID reads the skill from another project's catalog instead,
// which is how cross-project prerequisites are displayed.
func (s *Service) LoadSkillSummary(ctx context.Context, projectID, crossProjectID, subjectID, skillID, userID string, version int) (SkillSummary, error) {
	const op = "service.load_skill_summary"
	metrics.RecordSummaryQuery()

	targetProject := projectID
	if crossProjectID != "" {
		targetProject = crossProjectID
	}

	view, err := s.resolveView(ctx, targetProject, version)
	if err != nil {
		return SkillSummary{}, fault.Wrap(op, err)
	}
	skill, ok := view.Skill(skillID)
	if !ok {
		return SkillSummary{}, fault.Wrap(op, fault.NotFound("skill", skillID))
	}
	if subjectID != "" && skill.SubjectID != subjectID {
		return SkillSummary{}, fault.Wrap(op, fault.NotFound("skill in subject "+subjectID, skillID))
	}

	fctx, cancel := s.fetchCtx(ctx)
	defer cancel()
	events, err := s.eventStore.FetchEvents(fctx, targetProject, userID, skillID)
	if err != nil {
		return SkillSummary{}, fault.Wrap(op, err)
	}
	totals := points.Aggregate(events, view, "")

	out := skillSummary(skill, totals)
	out.CrossProject = crossProjectID != "" && crossProjectID != projectID
	return out, nil
}

// LoadPointHistory builds the daily cumulative series, project-wide or
// for one subject.
func (s *Service) LoadPointHistory(ctx context.Context, projectID, subjectID, userID string, version int) (history.Series, error) {
	const op = "service.load_point_history"

	view, err := s.resolveView(ctx, projectID, version)
	if err != nil {
		return history.Series{}, fault.Wrap(op, err)
	}
	if subjectID != "" {
		if _, ok := view.Subject(subjectID); !ok {
			return history.Series{}, fault.Wrap(op, fault.NotFound("subject", subjectID))
		}
	}

	fctx, cancel := s.fetchCtx(ctx)
	defer cancel()
	events, err := s.eventStore.FetchEvents(fctx, projectID, userID)
	if err != nil {
		return history.Series{}, fault.Wrap(op, err)
	}
	return history.Build(events, view, subjectID, s.retentionDays, s.now()), nil
}

// LoadDependencies resolves a skill's prerequisite state for a user.
func (s *Service) LoadDependencies(ctx context.Context, projectID, userID, skillID string) (depgraph.Info, error) {
	const op = "service.load_dependencies"

	info, err := s.deps.DependencyInfo(ctx, projectID, userID, skillID)
	if err != nil {
		return depgraph.Info{}, fault.Wrap(op, err)
	}
	return *info, nil
}

// LoadBadgeSummaries lists project badges plus applicable global badges.
func (s *Service) LoadBadgeSummaries(ctx context.Context, projectID, userID string, version int) ([]badge.Summary, error) {
	const op = "service.load_badge_summaries"

	list, err := s.badges.ListProject(ctx, projectID, userID, version, false)
	if err != nil {
		return nil, fault.Wrap(op, err)
	}
	return list, nil
}

// LoadBadgeSummary evaluates one badge, project or global, with its
// per-skill breakdown.
func (s *Service) LoadBadgeSummary(ctx context.Context, projectID, badgeID, userID string, version int, global bool) (badge.Summary, error) {
	const op = "service.load_badge_summary"

	b, err := s.badges.Find(ctx, projectID, badgeID, version, global)
	if err != nil {
		return badge.Summary{}, fault.Wrap(op, err)
	}
	sum, err := s.badges.Evaluate(ctx, b, userID, true)
	if err != nil {
		return badge.Summary{}, fault.Wrap(op, err)
	}
	return sum, nil
}

// LoadBadgeDescriptions returns the static texts of a badge's required
// skills.
func (s *Service) LoadBadgeDescriptions(ctx context.Context, projectID, badgeID string, version int, global bool) ([]Description, error) {
	const op = "service.load_badge_descriptions"

	b, err := s.badges.Find(ctx, projectID, badgeID, version, global)
	if err != nil {
		return nil, fault.Wrap(op, err)
	}

	views := map[string]*model.CatalogView{}
	out := make([]Description, 0, len(b.Reqs))
	for _, req := range b.Reqs {
		reqProject := b.ProjectID
		if req.ProjectID != "" {
			reqProject = req.ProjectID
		}
		view, ok := views[reqProject]
		if !ok {
			view, err = s.resolveView(ctx, reqProject, version)
			if err != nil {
				return nil, fault.Wrap(op, err)
			}
			views[reqProject] = view
		}
		if skill, found := view.Skill(req.SkillID); found {
			out = append(out, Description{ID: skill.SkillID, Name: skill.Name, Description: skill.Description})
		}
	}
	return out, nil
}

// resolveView resolves a catalog view under the fetch timeout.
func (s *Service) resolveView(ctx context.Context, projectID string, version int) (*model.CatalogView, error) {
	fctx, cancel := s.fetchCtx(ctx)
	defer cancel()
	return s.resolver.Resolve(fctx, projectID, version)
}

// viewAndTotals resolves the view and aggregates the user's events in one
// step, the shared head of most summary paths.
func (s *Service) viewAndTotals(ctx context.Context, projectID, userID string, version int, subjectID string) (*model.CatalogView, points.Totals, error) {
	view, err := s.resolveView(ctx, projectID, version)
	if err != nil {
		return nil, points.Totals{}, err
	}

	fctx, cancel := s.fetchCtx(ctx)
	defer cancel()
	events, err := s.eventStore.FetchEvents(fctx, projectID, userID)
	if err != nil {
		return nil, points.Totals{}, err
	}
	return view, points.Aggregate(events, view, subjectID), nil
}

func skillSummary(skill model.Skill, totals points.Totals) SkillSummary {
	sp := totals.BySkill[skill.SkillID]
	return SkillSummary{
		ProjectID:      skill.ProjectID,
		SkillID:        skill.SkillID,
		SubjectID:      skill.SubjectID,
		Name:           skill.Name,
		Description:    skill.Description,
		Points:         sp.Points,
		TotalPoints:    skill.TotalPossible(),
		PointIncrement: skill.PointIncrement,
		MaxOccurrences: skill.MaxOccurrences,
		Occurrences:    sp.Occurrences,
		Completed:      sp.Completed(),
	}
}

func subjectSummary(view *model.CatalogView, sub model.Subject, totals points.Totals, includeSkills bool) SubjectSummary {
	earned := totals.BySubject[sub.SubjectID]
	progress := level.CalcProgress(earned, view.LevelsFor(sub.SubjectID))

	out := SubjectSummary{
		SubjectID:        sub.SubjectID,
		Name:             sub.Name,
		Points:           earned,
		TotalPoints:      viewTotalPossible(view, sub.SubjectID),
		Level:            progress.Level,
		LevelPoints:      progress.Earned,
		LevelTotalPoints: progress.Needed,
	}
	if includeSkills {
		out.Skills = make([]SkillSummary, 0, len(sub.SkillIDs))
		for _, skillID := range sub.SkillIDs {
			out.Skills = append(out.Skills, skillSummary(view.Skills[skillID], totals))
		}
	}
	return out
}

// viewTotalPossible sums the maximum earnable points of a view, or of one
// subject when subjectID is non-empty.
func viewTotalPossible(view *model.CatalogView, subjectID string) int {
	total := 0
	for _, skill := range view.Skills {
		if subjectID != "" && skill.SubjectID != subjectID {
			continue
		}
		total += skill.TotalPossible()
	}
	return total
}

// subjectOrder returns the catalog's display order, extended with any
// subjects missing from it so nothing silently disappears.
func subjectOrder(view *model.CatalogView) []string {
	seen := make(map[string]struct{}, len(view.SubjectOrder))
	out := make([]string, 0, len(view.Subjects))
	for _, id := range view.SubjectOrder {
		if _, ok := view.Subjects[id]; ok {
			out = append(out, id)
			seen[id] = struct{}{}
		}
	}
	for id := range view.Subjects {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
