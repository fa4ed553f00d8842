// Package store provides RecordStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/hr-dashboard/analytics"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (default backend)
// =============================================================================

// Memory keeps every collection in process memory. Collections are replaced
// wholesale: a write builds a new slice and swaps it in, so slices handed
// out earlier are never modified.
type Memory struct {
	mu         sync.RWMutex
	orgs       []analytics.Organization
	headcount  periodTable[analytics.Headcount]
	payroll    periodTable[analytics.Payroll]
	attendance periodTable[analytics.Attendance]
}

func NewMemory() *Memory {
	return &Memory{
		headcount:  periodTable[analytics.Headcount]{period: func(h analytics.Headcount) analytics.Period { return h.Period }},
		payroll:    periodTable[analytics.Payroll]{period: func(p analytics.Payroll) analytics.Period { return p.Period }},
		attendance: periodTable[analytics.Attendance]{period: func(a analytics.Attendance) analytics.Period { return a.Period }},
	}
}

var _ analytics.RecordStore = (*Memory)(nil)

func (m *Memory) Organizations(_ context.Context) ([]analytics.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]analytics.Organization(nil), m.orgs...), nil
}

func (m *Memory) ReplaceOrganizations(_ context.Context, orgs []analytics.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgs = append([]analytics.Organization(nil), orgs...)
	return nil
}

func (m *Memory) Headcount(_ context.Context) ([]analytics.Headcount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.headcount.all(), nil
}

func (m *Memory) HeadcountFor(_ context.Context, p analytics.Period) ([]analytics.Headcount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.headcount.forPeriod(p), nil
}

func (m *Memory) ReplaceHeadcount(_ context.Context, p analytics.Period, recs []analytics.Headcount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headcount.replace(p, recs)
	return nil
}

func (m *Memory) Payroll(_ context.Context) ([]analytics.Payroll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payroll.all(), nil
}

func (m *Memory) PayrollFor(_ context.Context, p analytics.Period) ([]analytics.Payroll, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payroll.forPeriod(p), nil
}

func (m *Memory) ReplacePayroll(_ context.Context, p analytics.Period, recs []analytics.Payroll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payroll.replace(p, recs)
	return nil
}

func (m *Memory) Attendance(_ context.Context) ([]analytics.Attendance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attendance.all(), nil
}

func (m *Memory) AttendanceFor(_ context.Context, p analytics.Period) ([]analytics.Attendance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attendance.forPeriod(p), nil
}

func (m *Memory) ReplaceAttendance(_ context.Context, p analytics.Period, recs []analytics.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance.replace(p, recs)
	return nil
}

// Reset drops every collection.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgs = nil
	m.headcount.rows = nil
	m.payroll.rows = nil
	m.attendance.rows = nil
	return nil
}

// =============================================================================
// PERIOD TABLE
// =============================================================================

// periodTable holds records of every period in insertion order.
type periodTable[T any] struct {
	rows   []T
	period func(T) analytics.Period
}

func (t *periodTable[T]) all() []T {
	return append([]T(nil), t.rows...)
}

func (t *periodTable[T]) forPeriod(p analytics.Period) []T {
	var out []T
	for _, r := range t.rows {
		if t.period(r) == p {
			out = append(out, r)
		}
	}
	return out
}

// replace keeps the rows of other periods in place and appends recs.
func (t *periodTable[T]) replace(p analytics.Period, recs []T) {
	next := make([]T, 0, len(t.rows)+len(recs))
	for _, r := range t.rows {
		if t.period(r) != p {
			next = append(next, r)
		}
	}
	t.rows = append(next, recs...)
}
