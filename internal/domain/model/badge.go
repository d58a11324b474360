package model

import "time"

// BadgeScope tags a badge as project-owned or global. Global badges may
// reference skills across multiple projects.
type BadgeScope string

// Badge scope values.
const (
	ScopeProject BadgeScope = "project"
	ScopeGlobal  BadgeScope = "global"
)

// BadgeRequirement demands full completion worth Points on one skill.
// ProjectID is only meaningful for global badges; project badges always
// reference skills in the owning project.
type BadgeRequirement struct {
	ProjectID string `json:"projectId,omitempty"`
	SkillID   string `json:"skillId"`
	Points    int    `json:"points"`
}

// Badge defines an achievement condition over specific skills, with an
// optional validity window.
type Badge struct {
	Scope       BadgeScope         `json:"scope"`
	ProjectID   string             `json:"projectId,omitempty"` // empty for global badges
	BadgeID     string             `json:"badgeId"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	IconClass   string             `json:"iconClass,omitempty"`
	Reqs        []BadgeRequirement `json:"requirements"`
	Start       *time.Time         `json:"startDate,omitempty"`
	End         *time.Time         `json:"endDate,omitempty"`
	// Version is the catalog version that introduced the badge. Meaningful
	// for project badges only; global badges are not versioned.
	Version int `json:"version,omitempty"`
}

// Global reports whether the badge has global scope.
func (b Badge) Global() bool { return b.Scope == ScopeGlobal }

// ActiveAt reports whether the badge's validity window covers now. Badges
// without a window are always active.
func (b Badge) ActiveAt(now time.Time) bool {
	if b.Start != nil && now.Before(*b.Start) {
		return false
	}
	if b.End != nil && now.After(*b.End) {
		return false
	}
	return true
}
