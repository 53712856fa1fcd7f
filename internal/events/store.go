// Package events holds the append-only call and attendance collections.
package events

import (
	"errors"
	"sync"
	"time"

	"github.com/dennisdiepolder/teamops/internal/types"
	"github.com/google/uuid"
)

// ErrNoMatchingCall is returned when no call matches an agent+outcome removal
var ErrNoMatchingCall = errors.New("no matching call")

// Store keeps calls newest-first (new calls are prepended) and attendance in
// append order. Records are never mutated in place.
type Store struct {
	calls      []types.CallEvent
	attendance []types.AttendanceEvent
	mu         sync.RWMutex
}

// NewStore creates an empty event store
func NewStore() *Store {
	return &Store{
		calls:      make([]types.CallEvent, 0, 256),
		attendance: make([]types.AttendanceEvent, 0, 256),
	}
}

// Replace swaps in both collections wholesale (used after loading persisted state)
func (s *Store) Replace(calls []types.CallEvent, attendance []types.AttendanceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(make([]types.CallEvent, 0, len(calls)), calls...)
	s.attendance = append(make([]types.AttendanceEvent, 0, len(attendance)), attendance...)
}

// AddCall records a call at the front of the list
func (s *Store) AddCall(agent string, outcome types.Outcome, at time.Time) types.CallEvent {
	ev := types.CallEvent{
		ID:        newID("c_"),
		Agent:     agent,
		Outcome:   outcome,
		Timestamp: at,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	calls := make([]types.CallEvent, 0, len(s.calls)+1)
	calls = append(calls, ev)
	s.calls = append(calls, s.calls...)
	return ev
}

// RemoveLastCall removes the first call in list order matching agent and
// outcome. List order is newest-first for calls added through AddCall, but
// for loaded data it is whatever order was persisted, so the removed call is
// not guaranteed to be the chronologically latest one.
func (s *Store) RemoveLastCall(agent string, outcome types.Outcome) (types.CallEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.calls {
		if c.Agent == agent && c.Outcome == outcome {
			calls := make([]types.CallEvent, 0, len(s.calls)-1)
			calls = append(calls, s.calls[:i]...)
			s.calls = append(calls, s.calls[i+1:]...)
			return c, nil
		}
	}
	return types.CallEvent{}, ErrNoMatchingCall
}

// AddAttendance appends a clock event
func (s *Store) AddAttendance(agent string, typ types.AttendanceType, at time.Time) types.AttendanceEvent {
	ev := types.AttendanceEvent{
		ID:        newID("a_"),
		Agent:     agent,
		Type:      typ,
		Timestamp: at,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance = append(s.attendance, ev)
	return ev
}

// PurgeBetween drops every event whose instant lies in [from, to] and returns
// how many calls and attendance events were removed
func (s *Store) PurgeBetween(from, to time.Time) (calls, attendance int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inRange := func(t time.Time) bool {
		return !t.Before(from) && !t.After(to)
	}

	keptCalls := make([]types.CallEvent, 0, len(s.calls))
	for _, c := range s.calls {
		if inRange(c.Timestamp) {
			calls++
			continue
		}
		keptCalls = append(keptCalls, c)
	}

	keptAtt := make([]types.AttendanceEvent, 0, len(s.attendance))
	for _, a := range s.attendance {
		if inRange(a.Timestamp) {
			attendance++
			continue
		}
		keptAtt = append(keptAtt, a)
	}

	s.calls = keptCalls
	s.attendance = keptAtt
	return calls, attendance
}

// Calls returns a copy of the call list in store order
func (s *Store) Calls() []types.CallEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.CallEvent(nil), s.calls...)
}

// Attendance returns a copy of the attendance list in store order
func (s *Store) Attendance() []types.AttendanceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.AttendanceEvent(nil), s.attendance...)
}

// Size returns the number of calls and attendance events held
func (s *Store) Size() (calls, attendance int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.calls), len(s.attendance)
}

func newID(prefix string) string {
	return prefix + uuid.NewString()
}
