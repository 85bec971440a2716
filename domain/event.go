package domain

import "time"

// StatusEvent is one progress transition of an analysis session.
type StatusEvent struct {
	SessionID string    `json:"session_id"`
	Step      string    `json:"step"`
	Text      string    `json:"text"`
	Failed    bool      `json:"failed"`
	ResumeID  string    `json:"resume_id,omitempty"`
	Time      time.Time `json:"time"`
}
