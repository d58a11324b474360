// Package points sums recorded skill events into per-skill, per-subject,
// and total point figures for one user against a resolved catalog view.
//
// Aggregation is a pure function of the event set and the view: re-running
// it with unchanged inputs yields identical totals, which is what makes
// retries and read-through caching safe.
package points

import (
	"github.com/okian/ascent/internal/domain/model"
)

// SkillPoints is the per-skill slice of an aggregation result.
type SkillPoints struct {
	SkillID   string
	SubjectID string
	// Points is the capped contribution of the skill.
	Points int
	// Occurrences counts the events that contributed, up to the skill's
	// maximum countable occurrences.
	Occurrences int
	// TotalPossible is the skill's maximum contribution.
	TotalPossible int
}

// Completed reports whether the skill is fully earned.
func (p SkillPoints) Completed() bool {
	return p.TotalPossible > 0 && p.Points >= p.TotalPossible
}

// Totals is the aggregation result for one user in one catalog view.
type Totals struct {
	Total     int
	BySubject map[string]int
	BySkill   map[string]SkillPoints
}

// SkillTotal returns the capped points earned on one skill.
func (t Totals) SkillTotal(skillID string) int {
	return t.BySkill[skillID].Points
}

// Aggregate sums events against the view, capping each skill at its
// maximum countable occurrences. Events referencing skills outside the
// view are ignored entirely; a non-empty subjectID restricts aggregation
// to that subject's skills. Events must be ordered ascending by timestamp
// so that the occurrence cap keeps the earliest completions.
func Aggregate(events []model.SkillEvent, view *model.CatalogView, subjectID string) Totals {
	t := Totals{
		BySubject: make(map[string]int),
		BySkill:   make(map[string]SkillPoints),
	}

	for _, ev := range events {
		skill, ok := view.Skill(ev.SkillID)
		if !ok {
			continue
		}
		if subjectID != "" && skill.SubjectID != subjectID {
			continue
		}

		sp, seen := t.BySkill[ev.SkillID]
		if !seen {
			sp = SkillPoints{
				SkillID:       skill.SkillID,
				SubjectID:     skill.SubjectID,
				TotalPossible: skill.TotalPossible(),
			}
		}
		if sp.Occurrences >= skill.MaxOccurrences {
			// Cap reached; later completions earn nothing.
			t.BySkill[ev.SkillID] = sp
			continue
		}
		sp.Occurrences++
		sp.Points += ev.Points
		t.BySkill[ev.SkillID] = sp

		t.BySubject[skill.SubjectID] += ev.Points
		t.Total += ev.Points
	}

	return t
}
