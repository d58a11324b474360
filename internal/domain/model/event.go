package model

import "time"

// SkillEvent is an immutable record of one skill completion. Events are
// append-only; the only removal path is the self-reporting rejection flow.
type SkillEvent struct {
	EventID   string    `json:"eventId"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	SkillID   string    `json:"skillId"`
	Points    int       `json:"points"`
	TS        time.Time `json:"ts"` // UTC
}
