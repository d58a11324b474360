package model

import "time"

// Rejection records a reported skill event that failed validation. It
// stays visible to the user until explicitly dismissed.
type Rejection struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	SkillID   string    `json:"skillId"`
	Reason    string    `json:"message"`
	TS        time.Time `json:"rejectedOn"`
}
