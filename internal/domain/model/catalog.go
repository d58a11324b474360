// Package model contains the domain entities passed between engine layers.
//
// Everything here is plain data owned by the persistence boundary; the
// engine treats instances as immutable once fetched.
package model

// Skill is one trackable action inside a subject. A completion earns
// PointIncrement points, counted at most MaxOccurrences times.
type Skill struct {
	ProjectID      string `json:"projectId"`
	SkillID        string `json:"skillId"`
	SubjectID      string `json:"subjectId"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	PointIncrement int    `json:"pointIncrement"`
	MaxOccurrences int    `json:"maxOccurrences"`
	// Version is the catalog version that introduced the skill. Skills
	// from later versions are invisible to requests pinned at an earlier
	// version.
	Version int `json:"version"`
}

// TotalPossible returns the maximum points the skill can contribute.
func (s Skill) TotalPossible() int {
	return s.PointIncrement * s.MaxOccurrences
}

// Subject groups an ordered set of skills and aggregates their points.
type Subject struct {
	ProjectID string   `json:"projectId"`
	SubjectID string   `json:"subjectId"`
	Name      string   `json:"name"`
	SkillIDs  []string `json:"skillIds"`
}

// DependencyEdge is a directed prerequisite relationship between two
// skills. PrereqProjectID is empty for same-project prerequisites and set
// when the edge crosses into another project.
type DependencyEdge struct {
	ProjectID       string `json:"projectId"`
	SkillID         string `json:"skillId"`
	PrereqProjectID string `json:"prereqProjectId,omitempty"`
	PrereqSkillID   string `json:"prereqSkillId"`
}

// CatalogView is an immutable snapshot of a project's definitions at a
// resolved version. Skills introduced after Version are already excluded.
type CatalogView struct {
	ProjectID string
	Version   int

	Skills       map[string]Skill   // keyed by skillID
	Subjects     map[string]Subject // keyed by subjectID
	SubjectOrder []string

	Badges []Badge
	Edges  []DependencyEdge

	// Levels holds ascending point cutoffs for project-wide levels.
	// SubjectLevels optionally overrides the table per subject; subjects
	// without an entry fall back to Levels.
	Levels        []int
	SubjectLevels map[string][]int
}

// Skill returns the skill by id, reporting whether it is in the view.
func (v *CatalogView) Skill(skillID string) (Skill, bool) {
	s, ok := v.Skills[skillID]
	return s, ok
}

// Subject returns the subject by id, reporting whether it is in the view.
func (v *CatalogView) Subject(subjectID string) (Subject, bool) {
	s, ok := v.Subjects[subjectID]
	return s, ok
}

// LevelsFor returns the threshold table for a subject scope, falling back
// to the project-wide table. An empty subjectID means project scope.
func (v *CatalogView) LevelsFor(subjectID string) []int {
	if subjectID != "" {
		if t, ok := v.SubjectLevels[subjectID]; ok {
			return t
		}
	}
	return v.Levels
}

// EdgesFrom returns the outgoing dependency edges of a skill.
func (v *CatalogView) EdgesFrom(skillID string) []DependencyEdge {
	var out []DependencyEdge
	for _, e := range v.Edges {
		if e.SkillID == skillID {
			out = append(out, e)
		}
	}
	return out
}
