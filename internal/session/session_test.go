package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func TestDeriveSubmissionID(t *testing.T) {
	got := DeriveSubmissionID(testNow, "a1b2c3d4-e5f6-7890")
	assert.Equal(t, "AUDIT-20250101-a1b2c3", got)
}

func TestDeriveSubmissionIDShortSessionID(t *testing.T) {
	got := DeriveSubmissionID(testNow, "ab")
	assert.Equal(t, "AUDIT-20250101-ab", got)
}

func TestDeriveFromDepartment(t *testing.T) {
	tests := []struct {
		name       string
		department string
		want       string
	}{
		{"korean kept", "정보기술팀", "AUDIT-20250101-정보기술팀"},
		{"specials stripped", "IT팀 (본사)", "AUDIT-20250101-IT팀본사"},
		{"truncated to six", "총무인사재무감사팀", "AUDIT-20250101-총무인사재무"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveFromDepartment(testNow, tt.department))
		})
	}
}

func TestAdvanceWithinWindowKeepsState(t *testing.T) {
	s := Session{
		SessionID:    "a1b2c3d4",
		SubmissionID: "AUDIT-20250101-IT팀",
		ThreadID:     "thread_1",
		LastActivity: testNow,
	}

	next, expired := Advance(s, testNow.Add(10*time.Minute), 20*time.Minute)

	assert.False(t, expired)
	assert.Equal(t, "AUDIT-20250101-IT팀", next.SubmissionID)
	assert.Equal(t, "thread_1", next.ThreadID)
	assert.Equal(t, testNow.Add(10*time.Minute), next.LastActivity)
}

func TestAdvancePastWindowRecyclesState(t *testing.T) {
	s := Session{
		SessionID:    "a1b2c3d4",
		SubmissionID: "AUDIT-20250101-IT팀",
		ThreadID:     "thread_1",
		LastActivity: testNow,
	}

	later := testNow.Add(21 * time.Minute)
	next, expired := Advance(s, later, 20*time.Minute)

	assert.True(t, expired)
	// Fresh id from the long-lived session id; chat context dropped.
	assert.Equal(t, "AUDIT-20250101-a1b2c3", next.SubmissionID)
	assert.Empty(t, next.ThreadID)
	assert.Equal(t, "a1b2c3d4", next.SessionID)
}

func TestAdvanceFirstContactIsNotExpiry(t *testing.T) {
	s := Session{SessionID: "a1b2c3d4", SubmissionID: "AUDIT-20250101-a1b2c3"}

	next, expired := Advance(s, testNow, 20*time.Minute)
	assert.False(t, expired)
	assert.Equal(t, testNow, next.LastActivity)
}

func TestManagerTouchMintsAndKeepsSessions(t *testing.T) {
	m := NewManager(20 * time.Minute)

	s := m.Touch("", testNow)
	assert.NotEmpty(t, s.SessionID)
	assert.Contains(t, s.SubmissionID, "AUDIT-")

	again := m.Touch(s.SessionID, testNow.Add(time.Minute))
	assert.Equal(t, s.SubmissionID, again.SubmissionID)
}

func TestManagerTouchExpiryInvokesRecycle(t *testing.T) {
	m := NewManager(20 * time.Minute)

	s := m.Touch("", testNow)
	s.SubmissionID = "AUDIT-20250101-IT팀"
	m.Update(s)

	later := m.Touch(s.SessionID, testNow.Add(30*time.Minute))
	assert.NotEqual(t, "AUDIT-20250101-IT팀", later.SubmissionID)
}

func TestManagerTouchExpiryReleasesOldSubmission(t *testing.T) {
	m := NewManager(20 * time.Minute)
	var evicted []string
	m.OnExpire = func(submissionID string) { evicted = append(evicted, submissionID) }

	s := m.Touch("", testNow)
	s.SubmissionID = "AUDIT-20250101-IT팀"
	m.Update(s)

	m.Touch(s.SessionID, testNow.Add(30*time.Minute))
	assert.Equal(t, []string{"AUDIT-20250101-IT팀"}, evicted)

	// Within the window nothing fires.
	m.Touch(s.SessionID, testNow.Add(31*time.Minute))
	assert.Len(t, evicted, 1)
}

func TestManagerSweepReleasesIdleSubmission(t *testing.T) {
	m := NewManager(20 * time.Minute)
	var evicted []string
	m.OnExpire = func(submissionID string) { evicted = append(evicted, submissionID) }

	// testNow is far in the past, so the idle window has long lapsed.
	s := m.Touch("", testNow)
	s.SubmissionID = "AUDIT-20250101-IT팀"
	m.Update(s)

	m.sweep()
	assert.Equal(t, []string{"AUDIT-20250101-IT팀"}, evicted)
}

func TestManagerResetAll(t *testing.T) {
	m := NewManager(20 * time.Minute)
	s := m.Touch("", testNow)
	s.SubmissionID = "AUDIT-20250101-IT팀"
	m.Update(s)

	m.ResetAll()

	fresh := m.Touch(s.SessionID, testNow)
	assert.NotEqual(t, "AUDIT-20250101-IT팀", fresh.SubmissionID)
}
