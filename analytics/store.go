/*
store.go - Record Store interface

PURPOSE:
  Pure storage for organizations and monthly records. No aggregation logic
  lives behind this interface.

REPLACE-BY-PERIOD CONTRACT:
  Monthly records are written only by whole-period replacement:
  - Replace*(ctx, p, recs) drops every record of period p and stores recs
  - records of every other period are left untouched
  - there is no per-record update; edits read the period, change it and
    replace it

  Duplicates (more than one record per org and period) are stored as given.
  Readers merge them (see calc.go).

IMPLEMENTATIONS:
  - analytics/store/memory.go: in-memory, the default
  - store/sqlite/sqlite.go: SQLite, opened on ":memory:" by default

SEE ALSO:
  - snapshot.go: Dashboard, the only writer in the server
*/
package analytics

import (
	"context"
	"fmt"
)

// RecordStore persists organizations and per-period records.
type RecordStore interface {
	Organizations(ctx context.Context) ([]Organization, error)
	ReplaceOrganizations(ctx context.Context, orgs []Organization) error

	// Headcount returns records of every period in insertion order.
	Headcount(ctx context.Context) ([]Headcount, error)
	HeadcountFor(ctx context.Context, p Period) ([]Headcount, error)
	ReplaceHeadcount(ctx context.Context, p Period, recs []Headcount) error

	Payroll(ctx context.Context) ([]Payroll, error)
	PayrollFor(ctx context.Context, p Period) ([]Payroll, error)
	ReplacePayroll(ctx context.Context, p Period, recs []Payroll) error

	Attendance(ctx context.Context) ([]Attendance, error)
	AttendanceFor(ctx context.Context, p Period) ([]Attendance, error)
	ReplaceAttendance(ctx context.Context, p Period, recs []Attendance) error

	// Reset drops everything.
	Reset(ctx context.Context) error
}

// LoadRecords reads every monthly record from the store.
func LoadRecords(ctx context.Context, s RecordStore) (Records, error) {
	hc, err := s.Headcount(ctx)
	if err != nil {
		return Records{}, err
	}
	pr, err := s.Payroll(ctx)
	if err != nil {
		return Records{}, err
	}
	at, err := s.Attendance(ctx)
	if err != nil {
		return Records{}, err
	}
	return Records{Headcount: hc, Payroll: pr, Attendance: at}, nil
}

// Seed replaces the roster and writes every record, grouped by period.
func Seed(ctx context.Context, s RecordStore, orgs []Organization, recs Records) error {
	if err := ValidateOrganizations(orgs); err != nil {
		return err
	}
	if err := s.Reset(ctx); err != nil {
		return err
	}
	if err := s.ReplaceOrganizations(ctx, orgs); err != nil {
		return err
	}
	hc := groupByPeriod(recs.Headcount, func(h Headcount) Period { return h.Period })
	for _, g := range hc {
		if err := s.ReplaceHeadcount(ctx, g.period, g.recs); err != nil {
			return err
		}
	}
	pr := groupByPeriod(recs.Payroll, func(r Payroll) Period { return r.Period })
	for _, g := range pr {
		if err := s.ReplacePayroll(ctx, g.period, g.recs); err != nil {
			return err
		}
	}
	at := groupByPeriod(recs.Attendance, func(a Attendance) Period { return a.Period })
	for _, g := range at {
		if err := s.ReplaceAttendance(ctx, g.period, g.recs); err != nil {
			return err
		}
	}
	return nil
}

type periodGroup[T any] struct {
	period Period
	recs   []T
}

// groupByPeriod splits records by period, keeping first-seen period order
// and insertion order within each period.
func groupByPeriod[T any](recs []T, period func(T) Period) []periodGroup[T] {
	var out []periodGroup[T]
	idx := make(map[Period]int)
	for _, r := range recs {
		p := period(r)
		i, ok := idx[p]
		if !ok {
			i = len(out)
			idx[p] = i
			out = append(out, periodGroup[T]{period: p})
		}
		out[i].recs = append(out[i].recs, r)
	}
	return out
}

// ValidateOrganizations rejects rosters with empty or repeated IDs, unknown
// levels, or parent cycles. Dangling parents are allowed: they become roots.
func ValidateOrganizations(orgs []Organization) error {
	seen := make(map[string]bool, len(orgs))
	for _, org := range orgs {
		if org.ID == "" {
			return ErrMissingOrgID
		}
		if seen[org.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateOrganization, org.ID)
		}
		seen[org.ID] = true
		if !org.Level.Valid() {
			return fmt.Errorf("%s: %w: %q", org.ID, ErrUnknownLevel, org.Level)
		}
	}
	parents := parentIndex(orgs)
	for _, org := range orgs {
		if members := findCycle(parents, org.ID); members != nil {
			return &CycleError{Members: members}
		}
	}
	return nil
}

// findCycle follows parent links from start and returns the loop it runs
// into, or nil.
func findCycle(parents map[string]string, start string) []string {
	pos := make(map[string]int)
	var path []string
	for cur := start; cur != ""; cur = parents[cur] {
		if i, ok := pos[cur]; ok {
			return path[i:]
		}
		if _, known := parents[cur]; !known {
			return nil
		}
		pos[cur] = len(path)
		path = append(path, cur)
	}
	return nil
}
