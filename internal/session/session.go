// Package session scopes a working submission to a browser session and
// recycles state after inactivity.
package session

import (
	"fmt"
	"regexp"
	"time"
)

// Session is the explicit per-browser working state. It is a value:
// components receive it as an argument, never as ambient state.
type Session struct {
	SessionID    string
	SubmissionID string
	// ThreadID carries the Q&A conversation context across requests.
	ThreadID     string
	LastActivity time.Time
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]`)

// DeriveSubmissionID builds the initial working identity from today's
// date and the first 6 characters of the session id.
func DeriveSubmissionID(now time.Time, sessionID string) string {
	fragment := sessionID
	if len(fragment) > 6 {
		fragment = fragment[:6]
	}
	return fmt.Sprintf("AUDIT-%s-%s", now.Format("20060102"), fragment)
}

// DeriveFromDepartment re-derives the identity once the department is
// known, embedding a sanitized 6-character department fragment. The same
// submission row is addressed by whichever id string is current; the
// identity is not stable across this transition.
func DeriveFromDepartment(now time.Time, department string) string {
	fragment := []rune(nonWord.ReplaceAllString(department, ""))
	if len(fragment) > 6 {
		fragment = fragment[:6]
	}
	return fmt.Sprintf("AUDIT-%s-%s", now.Format("20060102"), string(fragment))
}

// Advance returns the session updated for activity at now. When the
// inactivity window has been exceeded the working state is recycled: a
// fresh submission id is minted from the long-lived session id and the
// chat thread is dropped. The second return reports whether that
// happened so the caller can evict the old scratch directory.
func Advance(s Session, now time.Time, timeout time.Duration) (Session, bool) {
	expired := !s.LastActivity.IsZero() && now.Sub(s.LastActivity) > timeout
	if expired {
		s.SubmissionID = DeriveSubmissionID(now, s.SessionID)
		s.ThreadID = ""
	}
	s.LastActivity = now
	return s, expired
}
