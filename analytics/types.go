/*
Package analytics provides the organizational aggregation engine.

PURPOSE:
  Turns flat organization, headcount, payroll and attendance records into
  hierarchical summaries for management reporting. Everything in this
  package is a pure function of its inputs except Dashboard, which owns the
  current selection and rebuilds derived data when its inputs change.

KEY CONCEPTS IN THIS FILE (types.go):
  - Organization: one node of the org chart, linked to its parent by ID
  - Level: the four strictly ordered organization ranks
  - Headcount / Payroll / Attendance: monthly records keyed by (OrgID, Period)
  - Metrics: the bundle of the three records for one organization

PRECISION:
  Money and hours use decimal.Decimal. The zero value of decimal.Decimal is
  zero, so a missing component always sums as zero.

SEE ALSO:
  - period.go: Period arithmetic and the period Selector
  - tree.go: Tree Builder
  - rollup.go: Reporting-unit attribution and aggregation
  - snapshot.go: Immutable snapshot and the Dashboard state holder
*/
package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ORGANIZATION
// =============================================================================

// Level is an organization rank. Ranks are strictly ordered from executive
// down to team.
type Level string

const (
	LevelExecutive    Level = "executive"
	LevelHeadquarters Level = "headquarters"
	LevelDivision     Level = "division"
	LevelTeam         Level = "team"
)

var levelRanks = map[Level]int{
	LevelExecutive:    0,
	LevelHeadquarters: 1,
	LevelDivision:     2,
	LevelTeam:         3,
}

// Rank returns the position of the level in the hierarchy (0 = executive),
// or -1 for an unknown level.
func (l Level) Rank() int {
	if r, ok := levelRanks[l]; ok {
		return r
	}
	return -1
}

func (l Level) Valid() bool { return l.Rank() >= 0 }

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
	return l, nil
}

// Organization is a flat org-chart record. An empty ParentID marks a root.
type Organization struct {
	ID       string
	Name     string
	ParentID string
	Level    Level
	Manager  string
	Location string
}

func (o Organization) IsRoot() bool { return o.ParentID == "" }

// =============================================================================
// MONTHLY RECORDS
// =============================================================================

// Currency is fixed to a single value for the whole system.
type Currency string

const CurrencyKRW Currency = "KRW"

// Headcount is the staffing snapshot of one organization for one period.
type Headcount struct {
	OrgID        string
	Period       Period
	Total        int
	Regular      int
	Contract     int
	Executive    int
	NewHires     int
	Resignations int
}

// Payroll holds the thirteen compensation components of one organization for
// one period. See Component for the canonical ordering.
type Payroll struct {
	OrgID              string
	Period             Period
	BasePay            decimal.Decimal
	BasePayRetro       decimal.Decimal
	FixedOvertime      decimal.Decimal
	RankAllowance      decimal.Decimal
	MealAllowance      decimal.Decimal
	PositionAllowance  decimal.Decimal
	ChildcareAllowance decimal.Decimal
	HolidayWorkPay     decimal.Decimal
	OvertimeWorkPay    decimal.Decimal
	OtherAllowance     decimal.Decimal
	CertAllowance      decimal.Decimal
	AnnualLeavePay     decimal.Decimal
	Incentive          decimal.Decimal
	Currency           Currency
}

// Attendance holds working-time figures of one organization for one period.
// The overtime total is not stored: it is always derived from its two
// components, so it cannot go stale after an edit.
type Attendance struct {
	OrgID                string
	Period               Period
	AvgWorkingHours      decimal.Decimal
	WeekdayOvertimeHours decimal.Decimal
	HolidayOvertimeHours decimal.Decimal
	AttendanceIssues     int
}

// TotalOvertimeHours returns weekday + holiday overtime.
func (a Attendance) TotalOvertimeHours() decimal.Decimal {
	return TotalOvertimeHours(a)
}

// SetWeekdayOvertime updates weekday hours; the total follows.
func (a *Attendance) SetWeekdayOvertime(h decimal.Decimal) { a.WeekdayOvertimeHours = h }

// SetHolidayOvertime updates holiday hours; the total follows.
func (a *Attendance) SetHolidayOvertime(h decimal.Decimal) { a.HolidayOvertimeHours = h }

// =============================================================================
// METRICS BUNDLE
// =============================================================================

// Metrics is the bundle attached to every tree node. It is never partially
// filled: absent records are replaced by zero-valued placeholders.
type Metrics struct {
	Headcount  Headcount
	Payroll    Payroll
	Attendance Attendance
}

// ZeroMetrics returns the placeholder bundle for an organization without
// records in the given period.
func ZeroMetrics(orgID string, p Period) Metrics {
	return Metrics{
		Headcount:  Headcount{OrgID: orgID, Period: p},
		Payroll:    Payroll{OrgID: orgID, Period: p, Currency: CurrencyKRW},
		Attendance: Attendance{OrgID: orgID, Period: p},
	}
}

// Records groups the three record collections across all periods.
type Records struct {
	Headcount  []Headcount
	Payroll    []Payroll
	Attendance []Attendance
}
