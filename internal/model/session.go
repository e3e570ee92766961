package model

import "time"

// FlashLevel classifies a flash message for rendering (info banner vs error).
type FlashLevel string

const (
	FlashInfo  FlashLevel = "info"
	FlashError FlashLevel = "error"
)

// Flash is a one-shot message carried across a redirect. It is stored in the
// session and consumed (removed) the next time the entry page renders.
type Flash struct {
	Level   FlashLevel `json:"level"`
	Message string     `json:"message"`
}

// Session is the server-side state for one browser.
//
// The browser holds only a signed cookie whose subject is Token; everything
// else lives in the sessions table. Two fields carry the whole workflow:
//
//   - UserID: set after a successful OAuth callback, empty while anonymous.
//   - Pending: the stashed form snapshot, present only between "anonymous
//     submit requiring auth" and "callback completes or logout". At most one
//     snapshot exists per session; a new submission overwrites a stale one.
//
// Mutations happen on the struct; callers persist via SessionRepository.Save.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId,omitempty"`
	Pending   *Report   `json:"pending,omitempty"`
	Flashes   []Flash   `json:"flashes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Authenticated reports whether a user is bound to this session.
func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// Stash records a pending report, replacing any stale one.
func (s *Session) Stash(r *Report) {
	s.Pending = r
}

// TakePending removes and returns the stashed report.
//
// The clear happens here, before the caller does anything with the snapshot.
// That ordering is the single-filing guarantee: even if the upstream
// submission fails afterwards, the stash is already gone and the report can
// never be replayed; the visitor has to re-enter the form.
func (s *Session) TakePending() (*Report, bool) {
	if s.Pending == nil {
		return nil, false
	}
	r := s.Pending
	s.Pending = nil
	return r, true
}

// Flash queues a one-shot message for the next page render.
func (s *Session) Flash(level FlashLevel, message string) {
	s.Flashes = append(s.Flashes, Flash{Level: level, Message: message})
}

// TakeFlashes removes and returns all queued flash messages.
func (s *Session) TakeFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}

// Reset clears both the bound user and any stashed report. Logout calls this
// unconditionally; calling it twice is safe.
func (s *Session) Reset() {
	s.UserID = ""
	s.Pending = nil
}
