package analysis

import (
	"errors"
	"sync"
	"time"
)

// Progress is the polled view of one analysis session.
type Progress struct {
	SessionID string    `json:"session_id"`
	Current   Status    `json:"current"`
	History   []Status  `json:"history"`
	Done      bool      `json:"done"`
	ResumeID  string    `json:"resume_id,omitempty"`
	Preview   string    `json:"preview,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker keeps progress of running and recently finished sessions.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*Progress
	now      func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*Progress), now: time.Now}
}

func (t *Tracker) Start(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sessionID] = &Progress{SessionID: sessionID, UpdatedAt: t.now()}
}

func (t *Tracker) Report(sessionID string, s Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.sessions[sessionID]
	if !ok {
		p = &Progress{SessionID: sessionID}
		t.sessions[sessionID] = p
	}
	p.Current = s
	p.History = append(p.History, s)
	if s.ResumeID != "" {
		p.ResumeID = s.ResumeID
	}
	if s.Preview != "" {
		p.Preview = s.Preview
	}
	p.UpdatedAt = t.now()
}

// Finish marks the session done with the outcome of Analyze.
func (t *Tracker) Finish(sessionID, resumeID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.sessions[sessionID]
	if !ok {
		p = &Progress{SessionID: sessionID}
		t.sessions[sessionID] = p
	}
	p.Done = true
	if resumeID != "" {
		p.ResumeID = resumeID
	}
	if err != nil {
		var stepErr *StepError
		if errors.As(err, &stepErr) {
			p.Error = sentinelFor(stepErr.Step).Error()
		} else {
			p.Error = err.Error()
		}
	}
	p.UpdatedAt = t.now()
}

// Get returns a copy of the session progress.
func (t *Tracker) Get(sessionID string) (Progress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.sessions[sessionID]
	if !ok {
		return Progress{}, false
	}
	out := *p
	out.History = append([]Status(nil), p.History...)
	return out, true
}

// Prune drops finished sessions last updated before cutoff.
func (t *Tracker) Prune(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, p := range t.sessions {
		if p.Done && p.UpdatedAt.Before(cutoff) {
			delete(t.sessions, id)
			removed++
		}
	}
	return removed
}

// Sink returns a StatusFunc recording into sessionID.
func (t *Tracker) Sink(sessionID string) StatusFunc {
	return func(s Status) { t.Report(sessionID, s) }
}
