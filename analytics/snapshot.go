/*
snapshot.go - Immutable snapshots and the Dashboard state holder

PURPOSE:
  All derived data (tree, attribution, rollups, comparisons, KPIs) is a pure
  function of one Snapshot: {organizations, records, selected period,
  rules}. A Snapshot never changes after it is built, and each derived value
  is computed at most once per Snapshot.

DATA FLOW:
  writes  -> Dashboard (store write + new revision)
  reads   -> Dashboard.Snapshot() -> cached Snapshot for the revision
  derived -> Snapshot.Tree(), Snapshot.Rollup(p), ...

  Any write or period change bumps the revision and drops the cached
  snapshot before the lock is released, so readers never see a mix of old
  and new inputs.

SEE ALSO:
  - store.go: RecordStore contract
  - rollup.go: aggregation rules
*/
package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is one immutable view of the dashboard inputs.
type Snapshot struct {
	Revision      uint64
	Selected      Period
	Organizations []Organization
	Records       Records
	Rules         Rules

	treeOnce sync.Once
	tree     *Tree

	attrOnce sync.Once
	attr     Attribution

	mu      sync.Mutex
	rollups map[Period]Rollup
}

// NewSnapshot builds a snapshot over its own copies of the inputs.
func NewSnapshot(revision uint64, selected Period, orgs []Organization, recs Records, rules Rules) *Snapshot {
	return &Snapshot{
		Revision:      revision,
		Selected:      selected,
		Organizations: append([]Organization(nil), orgs...),
		Records: Records{
			Headcount:  append([]Headcount(nil), recs.Headcount...),
			Payroll:    append([]Payroll(nil), recs.Payroll...),
			Attendance: append([]Attendance(nil), recs.Attendance...),
		},
		Rules:   rules,
		rollups: make(map[Period]Rollup),
	}
}

// Tree returns the org chart for the selected period.
func (s *Snapshot) Tree() *Tree {
	s.treeOnce.Do(func() {
		s.tree = BuildTree(s.Organizations, s.Selected, s.Records)
	})
	return s.tree
}

// Attribution returns the reporting-unit descendant sets.
func (s *Snapshot) Attribution() Attribution {
	s.attrOnce.Do(func() {
		s.attr = s.Rules.Attribute(s.Organizations)
	})
	return s.attr
}

// Rollup returns the reporting-unit totals for any period.
func (s *Snapshot) Rollup(p Period) Rollup {
	attr := s.Attribution()

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rollups[p]; ok {
		return r
	}
	r := s.Rules.Aggregate(attr, p, s.Records)
	s.rollups[p] = r
	return r
}

// Current returns the rollup of the selected period.
func (s *Snapshot) Current() Rollup { return s.Rollup(s.Selected) }

// UnitComparison returns same-month-last-year, previous-month and current
// overtime per reporting unit.
func (s *Snapshot) UnitComparison() []Comparison {
	return CompareUnits(
		s.Rollup(s.Selected.AddMonths(-12)),
		s.Rollup(s.Selected.AddMonths(-1)),
		s.Current(),
	)
}

// ProductionComparison returns the same series per production team.
func (s *Snapshot) ProductionComparison() []Comparison {
	return s.Rules.CompareProduction(s.Organizations, s.Selected, s.Records.Attendance)
}

// AttendanceReport returns the attendance table of the selected period.
func (s *Snapshot) AttendanceReport() []AttendanceRow {
	return s.Rules.AttendanceReport(s.Organizations, s.Selected, s.Records.Attendance)
}

// Summary returns the KPIs of the selected period.
func (s *Snapshot) Summary() Summary { return Summarize(s.Selected, s.Records) }

// PeriodRecords returns the records of one period.
func (s *Snapshot) PeriodRecords(p Period) Records {
	var out Records
	for _, h := range s.Records.Headcount {
		if h.Period == p {
			out.Headcount = append(out.Headcount, h)
		}
	}
	for _, r := range s.Records.Payroll {
		if r.Period == p {
			out.Payroll = append(out.Payroll, r)
		}
	}
	for _, a := range s.Records.Attendance {
		if a.Period == p {
			out.Attendance = append(out.Attendance, a)
		}
	}
	return out
}

// Organization looks up one organization by ID.
func (s *Snapshot) Organization(id string) (Organization, bool) {
	for _, org := range s.Organizations {
		if org.ID == id {
			return org, true
		}
	}
	return Organization{}, false
}

// =============================================================================
// DASHBOARD
// =============================================================================

// Dashboard owns the selected period and is the single writer of the store.
// It hands out snapshots and rebuilds one whenever an input changes.
type Dashboard struct {
	store  RecordStore
	rules  Rules
	logger *zap.Logger

	// OnRebuild, when set, is called with every newly built snapshot.
	OnRebuild func(*Snapshot)

	mu       sync.Mutex
	selector Selector
	revision uint64
	current  *Snapshot
}

// NewDashboard creates a dashboard over store with the given selection.
func NewDashboard(store RecordStore, rules Rules, selected Period, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		store:    store,
		rules:    rules,
		logger:   logger,
		selector: NewSelector(selected),
	}
}

// Rules returns the attribution rules in effect.
func (d *Dashboard) Rules() Rules { return d.rules }

// Selector returns the current selection.
func (d *Dashboard) Selector() Selector {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selector
}

// Select changes year and month together.
func (d *Dashboard) Select(year int, month time.Month) error {
	p, err := NewPeriod(year, month)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selector.Period() == p {
		return nil
	}
	d.selector = NewSelector(p)
	d.invalidateLocked()
	return nil
}

// SetYear changes only the selected year.
func (d *Dashboard) SetYear(year int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.selector.SetYear(year); err != nil {
		return err
	}
	d.invalidateLocked()
	return nil
}

// SetMonth changes only the selected month.
func (d *Dashboard) SetMonth(month time.Month) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.selector.SetMonth(month); err != nil {
		return err
	}
	d.invalidateLocked()
	return nil
}

// Snapshot returns the snapshot of the current revision, building it if
// needed.
func (d *Dashboard) Snapshot(ctx context.Context) (*Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil {
		return d.current, nil
	}

	orgs, err := d.store.Organizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load organizations: %w", err)
	}
	recs, err := LoadRecords(ctx, d.store)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	snap := NewSnapshot(d.revision, d.selector.Period(), orgs, recs, d.rules)
	if un := snap.Attribution().Unattributed; len(un) > 0 {
		d.logger.Warn("organizations outside every reporting unit",
			zap.Strings("org_ids", un),
			zap.Int("max_depth", d.rules.MaxDepth),
			zap.Uint64("revision", snap.Revision))
	}
	if det := snap.Tree().Detached; len(det) > 0 {
		d.logger.Warn("parent links dropped to break cycles", zap.Strings("org_ids", det))
	}
	d.logger.Debug("snapshot rebuilt",
		zap.Uint64("revision", snap.Revision),
		zap.Stringer("period", snap.Selected),
		zap.Int("organizations", len(orgs)))

	d.current = snap
	if d.OnRebuild != nil {
		d.OnRebuild(snap)
	}
	return snap, nil
}

func (d *Dashboard) invalidateLocked() {
	d.revision++
	d.current = nil
}

// =============================================================================
// WRITES
// =============================================================================

// ReplaceOrganizations swaps the roster after validation.
func (d *Dashboard) ReplaceOrganizations(ctx context.Context, orgs []Organization) error {
	if err := ValidateOrganizations(orgs); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.store.ReplaceOrganizations(ctx, orgs); err != nil {
		return err
	}
	d.invalidateLocked()
	return nil
}

// ReplaceHeadcount replaces every headcount record of period p. Records are
// stamped with p.
func (d *Dashboard) ReplaceHeadcount(ctx context.Context, p Period, recs []Headcount) error {
	stamped := make([]Headcount, len(recs))
	for i, r := range recs {
		if r.OrgID == "" {
			return ErrMissingOrgID
		}
		r.Period = p
		stamped[i] = r
	}
	return d.write(func() error { return d.store.ReplaceHeadcount(ctx, p, stamped) })
}

// ReplacePayroll replaces every payroll record of period p.
func (d *Dashboard) ReplacePayroll(ctx context.Context, p Period, recs []Payroll) error {
	stamped, err := stampPayroll(p, recs)
	if err != nil {
		return err
	}
	return d.write(func() error { return d.store.ReplacePayroll(ctx, p, stamped) })
}

// ReplaceAttendance replaces every attendance record of period p.
func (d *Dashboard) ReplaceAttendance(ctx context.Context, p Period, recs []Attendance) error {
	stamped := make([]Attendance, len(recs))
	for i, r := range recs {
		if r.OrgID == "" {
			return ErrMissingOrgID
		}
		r.Period = p
		stamped[i] = r
	}
	return d.write(func() error { return d.store.ReplaceAttendance(ctx, p, stamped) })
}

// ApplyPayrollCorrections overlays corrected records on period p: every
// organization in recs gets exactly the given record, all others keep
// theirs. The period is then replaced as a whole.
func (d *Dashboard) ApplyPayrollCorrections(ctx context.Context, p Period, recs []Payroll) error {
	stamped, err := stampPayroll(p, recs)
	if err != nil {
		return err
	}
	corrected := make(map[string]bool, len(stamped))
	for _, r := range stamped {
		corrected[r.OrgID] = true
	}
	return d.write(func() error {
		existing, err := d.store.PayrollFor(ctx, p)
		if err != nil {
			return err
		}
		next := make([]Payroll, 0, len(existing)+len(stamped))
		for _, r := range existing {
			if !corrected[r.OrgID] {
				next = append(next, r)
			}
		}
		next = append(next, stamped...)
		return d.store.ReplacePayroll(ctx, p, next)
	})
}

// AttendanceEdit carries the fields changed by a manual attendance edit.
// Nil fields are left unchanged.
type AttendanceEdit struct {
	AvgWorkingHours      *decimal.Decimal
	WeekdayOvertimeHours *decimal.Decimal
	HolidayOvertimeHours *decimal.Decimal
	AttendanceIssues     *int
}

// EditAttendance applies a manual edit to one organization's attendance in
// period p and returns the saved record. Duplicate records of that
// organization are merged into one first; an absent record starts at zero.
func (d *Dashboard) EditAttendance(ctx context.Context, orgID string, p Period, edit AttendanceEdit) (Attendance, error) {
	var saved Attendance
	err := d.write(func() error {
		if err := d.requireOrganization(ctx, orgID); err != nil {
			return err
		}
		existing, err := d.store.AttendanceFor(ctx, p)
		if err != nil {
			return err
		}

		rec := Attendance{OrgID: orgID, Period: p}
		found := false
		next := make([]Attendance, 0, len(existing)+1)
		for _, a := range existing {
			if a.OrgID != orgID {
				next = append(next, a)
				continue
			}
			if found {
				rec = rec.Add(a)
			} else {
				rec = a
				found = true
			}
		}

		if edit.AvgWorkingHours != nil {
			rec.AvgWorkingHours = *edit.AvgWorkingHours
		}
		if edit.WeekdayOvertimeHours != nil {
			rec.SetWeekdayOvertime(*edit.WeekdayOvertimeHours)
		}
		if edit.HolidayOvertimeHours != nil {
			rec.SetHolidayOvertime(*edit.HolidayOvertimeHours)
		}
		if edit.AttendanceIssues != nil {
			rec.AttendanceIssues = *edit.AttendanceIssues
		}

		saved = rec
		return d.store.ReplaceAttendance(ctx, p, append(next, rec))
	})
	return saved, err
}

// Reset reloads the store with the given dataset.
func (d *Dashboard) Reset(ctx context.Context, orgs []Organization, recs Records) error {
	return d.write(func() error { return Seed(ctx, d.store, orgs, recs) })
}

func (d *Dashboard) write(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	d.invalidateLocked()
	return nil
}

func (d *Dashboard) requireOrganization(ctx context.Context, id string) error {
	orgs, err := d.store.Organizations(ctx)
	if err != nil {
		return err
	}
	for _, org := range orgs {
		if org.ID == id {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrOrganizationNotFound, id)
}

func stampPayroll(p Period, recs []Payroll) ([]Payroll, error) {
	out := make([]Payroll, len(recs))
	for i, r := range recs {
		if r.OrgID == "" {
			return nil, ErrMissingOrgID
		}
		r.Period = p
		if r.Currency == "" {
			r.Currency = CurrencyKRW
		}
		out[i] = r
	}
	return out, nil
}
