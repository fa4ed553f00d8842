/*
rollup.go - Reporting-unit attribution and aggregation

PURPOSE:
  Sums headcount, labor cost and overtime per reporting unit (every
  headquarters plus the standalone executive unit) and per period.

ATTRIBUTION RULE:
  An organization belongs to a reporting unit when walking up its parent
  links reaches the unit within Rules.MaxDepth hops. Depth 0 is the unit
  itself. With the default MaxDepth of 2 this covers
  headquarters -> division -> team; anything nested deeper is NOT
  attributed to any unit and is reported in Attribution.Unattributed.

  Production teams (Rules.ProductionTeams) are excluded from headquarters
  attribution when Rules.ExcludeProductionTeams is set. They are reported
  on their own by ProductionComparison so they are never double counted.

STATUS RULE:
  A unit is "attention" when its weekday + holiday overtime hours strictly
  exceed Rules.OvertimeThreshold, or when it is listed in
  Rules.AttentionOverrides. Otherwise it is "normal".

SEE ALSO:
  - tree.go: Tree Builder (uses the same duplicate merging)
  - snapshot.go: memoizes rollups per snapshot
*/
package analytics

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RULES
// =============================================================================

// Status classifies a reporting unit for a period.
type Status string

const (
	StatusNormal    Status = "normal"
	StatusAttention Status = "attention"
)

// Rules configures reporting-unit attribution and status derivation.
type Rules struct {
	// ExecutiveUnitID is the standalone executive organization that is a
	// reporting unit on its own.
	ExecutiveUnitID string

	// MaxDepth is the number of parent hops searched for a reporting unit.
	MaxDepth int

	// OvertimeThreshold is the total overtime (hours per period) above
	// which a unit is flagged.
	OvertimeThreshold decimal.Decimal

	// AttentionOverrides are unit IDs flagged regardless of hours.
	AttentionOverrides []string

	// ProductionTeams are team IDs reported in the production grouping.
	ProductionTeams []string

	// ExcludeProductionTeams keeps production teams out of headquarters
	// totals.
	ExcludeProductionTeams bool

	// ReportOrder lists org ID prefixes in the order report tables show them.
	ReportOrder []string
}

const (
	DefaultExecutiveUnitID = "EXE"
	DefaultMaxDepth        = 2
)

// DefaultOvertimeThreshold is 400 hours per period.
var DefaultOvertimeThreshold = decimal.NewFromInt(400)

// DefaultRules returns the standard four-rank configuration.
func DefaultRules() Rules {
	return Rules{
		ExecutiveUnitID:        DefaultExecutiveUnitID,
		MaxDepth:               DefaultMaxDepth,
		OvertimeThreshold:      DefaultOvertimeThreshold,
		ExcludeProductionTeams: true,
		ReportOrder:            append([]string(nil), DefaultReportOrder...),
	}
}

// DefaultReportOrder groups the executive office first, then each
// headquarters by its ID prefix.
var DefaultReportOrder = []string{"EXE", "MS", "GS", "RD", "QC", "PD"}

// IsProductionTeam reports whether id is in the production list.
func (r Rules) IsProductionTeam(id string) bool {
	return contains(r.ProductionTeams, id)
}

// IsReportingUnit reports whether org is a headquarters or the executive unit.
func (r Rules) IsReportingUnit(org Organization) bool {
	return org.Level == LevelHeadquarters || (r.ExecutiveUnitID != "" && org.ID == r.ExecutiveUnitID)
}

// ReportingUnits returns the reporting units in roster order.
func (r Rules) ReportingUnits(orgs []Organization) []Organization {
	var units []Organization
	seen := make(map[string]bool)
	for _, org := range orgs {
		if r.IsReportingUnit(org) && !seen[org.ID] {
			units = append(units, org)
			seen[org.ID] = true
		}
	}
	return units
}

// Status applies the status rule to a unit's combined overtime hours.
func (r Rules) Status(unitID string, overtimeHours decimal.Decimal) Status {
	if contains(r.AttentionOverrides, unitID) || overtimeHours.GreaterThan(r.OvertimeThreshold) {
		return StatusAttention
	}
	return StatusNormal
}

// =============================================================================
// DESCENDANT RESOLUTION
// =============================================================================

// ResolveDescendants returns the organizations whose parent chain reaches
// unitID within maxDepth hops, the unit itself included, in roster order.
// It is a bounded walk, not a transitive closure.
func ResolveDescendants(orgs []Organization, unitID string, maxDepth int) []string {
	parents := parentIndex(orgs)
	var out []string
	seen := make(map[string]bool)
	for _, org := range orgs {
		if seen[org.ID] {
			continue
		}
		if withinHops(parents, org.ID, unitID, maxDepth) {
			out = append(out, org.ID)
			seen[org.ID] = true
		}
	}
	return out
}

// Descendants applies ResolveDescendants plus the production exclusion.
func (r Rules) Descendants(orgs []Organization, unitID string) []string {
	ids := ResolveDescendants(orgs, unitID, r.MaxDepth)
	if !r.ExcludeProductionTeams {
		return ids
	}
	out := ids[:0]
	for _, id := range ids {
		if !r.IsProductionTeam(id) {
			out = append(out, id)
		}
	}
	return out
}

func parentIndex(orgs []Organization) map[string]string {
	parents := make(map[string]string, len(orgs))
	for _, org := range orgs {
		if _, dup := parents[org.ID]; !dup {
			parents[org.ID] = org.ParentID
		}
	}
	return parents
}

func withinHops(parents map[string]string, id, target string, maxHops int) bool {
	cur := id
	for hop := 0; hop <= maxHops; hop++ {
		if cur == target {
			return true
		}
		next, ok := parents[cur]
		if !ok || next == "" {
			return false
		}
		cur = next
	}
	return false
}

// Attribution maps every reporting unit to its descendant set.
type Attribution struct {
	Units   []Organization
	Members map[string][]string // unit ID -> member org IDs

	// Unattributed lists organizations that belong to no reporting unit and
	// are not production teams.
	Unattributed []string

	unitsOf map[string][]int // org ID -> indexes into Units
}

// Attribute resolves the descendant set of every reporting unit.
func (r Rules) Attribute(orgs []Organization) Attribution {
	a := Attribution{
		Units:   r.ReportingUnits(orgs),
		Members: make(map[string][]string),
		unitsOf: make(map[string][]int),
	}
	for i, unit := range a.Units {
		members := r.Descendants(orgs, unit.ID)
		a.Members[unit.ID] = members
		for _, id := range members {
			a.unitsOf[id] = append(a.unitsOf[id], i)
		}
	}
	seen := make(map[string]bool)
	for _, org := range orgs {
		if seen[org.ID] {
			continue
		}
		seen[org.ID] = true
		if len(a.unitsOf[org.ID]) == 0 && !r.IsProductionTeam(org.ID) {
			a.Unattributed = append(a.Unattributed, org.ID)
		}
	}
	return a
}

// UnitsOf returns the reporting unit IDs an organization rolls up into.
func (a Attribution) UnitsOf(orgID string) []string {
	idx := a.unitsOf[orgID]
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = a.Units[j].ID
	}
	return out
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Totals are the summed metrics of a set of organizations for one period.
type Totals struct {
	Headcount       int
	LaborCost       decimal.Decimal
	WeekdayOvertime decimal.Decimal
	HolidayOvertime decimal.Decimal
	OvertimePay     decimal.Decimal
	HolidayPay      decimal.Decimal
}

// TotalOvertime is weekday plus holiday overtime hours.
func (t Totals) TotalOvertime() decimal.Decimal {
	return t.WeekdayOvertime.Add(t.HolidayOvertime)
}

func (t *Totals) addHeadcount(h Headcount) { t.Headcount += h.Total }

func (t *Totals) addPayroll(p Payroll) {
	t.LaborCost = t.LaborCost.Add(TotalLaborCost(p))
	t.OvertimePay = t.OvertimePay.Add(p.OvertimeWorkPay)
	t.HolidayPay = t.HolidayPay.Add(p.HolidayWorkPay)
}

func (t *Totals) addAttendance(a Attendance) {
	t.WeekdayOvertime = t.WeekdayOvertime.Add(a.WeekdayOvertimeHours)
	t.HolidayOvertime = t.HolidayOvertime.Add(a.HolidayOvertimeHours)
}

// UnitTotals are the totals of one reporting unit for one period.
type UnitTotals struct {
	Unit   Organization
	Period Period
	Totals
	Status Status
}

// Rollup is the aggregation of every reporting unit for one period.
type Rollup struct {
	Period Period
	Units  []UnitTotals

	// Total covers every attributed organization once, even if it rolls
	// up into more than one unit.
	Total Totals
}

// Unit returns the totals for one unit ID.
func (r Rollup) Unit(id string) (UnitTotals, bool) {
	for _, u := range r.Units {
		if u.Unit.ID == id {
			return u, true
		}
	}
	return UnitTotals{}, false
}

// Aggregate sums the records of period over each unit's descendant set.
// Units without matching records get zero totals.
func (r Rules) Aggregate(a Attribution, period Period, records Records) Rollup {
	out := Rollup{Period: period, Units: make([]UnitTotals, len(a.Units))}
	for i, u := range a.Units {
		out.Units[i] = UnitTotals{Unit: u, Period: period}
	}

	for _, h := range records.Headcount {
		if h.Period != period {
			continue
		}
		for _, i := range a.unitsOf[h.OrgID] {
			out.Units[i].addHeadcount(h)
		}
		if len(a.unitsOf[h.OrgID]) > 0 {
			out.Total.addHeadcount(h)
		}
	}
	for _, p := range records.Payroll {
		if p.Period != period {
			continue
		}
		for _, i := range a.unitsOf[p.OrgID] {
			out.Units[i].addPayroll(p)
		}
		if len(a.unitsOf[p.OrgID]) > 0 {
			out.Total.addPayroll(p)
		}
	}
	for _, at := range records.Attendance {
		if at.Period != period {
			continue
		}
		for _, i := range a.unitsOf[at.OrgID] {
			out.Units[i].addAttendance(at)
		}
		if len(a.unitsOf[at.OrgID]) > 0 {
			out.Total.addAttendance(at)
		}
	}

	for i := range out.Units {
		u := &out.Units[i]
		u.Status = r.Status(u.Unit.ID, u.TotalOvertime())
	}
	return out
}

// =============================================================================
// COMPARISONS
// =============================================================================

// Comparison is an overtime series for year-over-year and month-over-month
// charts.
type Comparison struct {
	Org           Organization
	PreviousYear  decimal.Decimal
	PreviousMonth decimal.Decimal
	Current       decimal.Decimal
}

// CompareUnits builds the overtime series per reporting unit from three
// rollups.
func CompareUnits(prevYear, prevMonth, current Rollup) []Comparison {
	out := make([]Comparison, len(current.Units))
	for i, u := range current.Units {
		c := Comparison{Org: u.Unit, Current: u.TotalOvertime()}
		if py, ok := prevYear.Unit(u.Unit.ID); ok {
			c.PreviousYear = py.TotalOvertime()
		}
		if pm, ok := prevMonth.Unit(u.Unit.ID); ok {
			c.PreviousMonth = pm.TotalOvertime()
		}
		out[i] = c
	}
	return out
}

// CompareProduction builds the overtime series per production team present
// in the roster, in roster order. Duplicate records are summed.
func (r Rules) CompareProduction(orgs []Organization, current Period, attendance []Attendance) []Comparison {
	prevYear, prevMonth := current.AddMonths(-12), current.AddMonths(-1)
	var out []Comparison
	seen := make(map[string]bool)
	for _, org := range orgs {
		if !r.IsProductionTeam(org.ID) || seen[org.ID] {
			continue
		}
		seen[org.ID] = true
		c := Comparison{Org: org}
		for _, a := range attendance {
			if a.OrgID != org.ID {
				continue
			}
			switch a.Period {
			case prevYear:
				c.PreviousYear = c.PreviousYear.Add(a.TotalOvertimeHours())
			case prevMonth:
				c.PreviousMonth = c.PreviousMonth.Add(a.TotalOvertimeHours())
			case current:
				c.Current = c.Current.Add(a.TotalOvertimeHours())
			}
		}
		out = append(out, c)
	}
	return out
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary holds the dashboard KPIs for one period over every record,
// attributed or not.
type Summary struct {
	Period Period
	Totals
	AvgWagePerHead   decimal.Decimal
	AvgWorkingHours  decimal.Decimal
	AttendanceIssues int
}

// Summarize computes the KPIs of one period.
func Summarize(period Period, records Records) Summary {
	s := Summary{Period: period}
	for _, h := range records.Headcount {
		if h.Period == period {
			s.addHeadcount(h)
		}
	}
	for _, p := range records.Payroll {
		if p.Period == period {
			s.addPayroll(p)
		}
	}
	hoursSum, hoursN := decimal.Zero, 0
	for _, a := range records.Attendance {
		if a.Period != period {
			continue
		}
		s.addAttendance(a)
		s.AttendanceIssues += a.AttendanceIssues
		if !a.AvgWorkingHours.IsZero() {
			hoursSum = hoursSum.Add(a.AvgWorkingHours)
			hoursN++
		}
	}
	if s.Headcount > 0 {
		s.AvgWagePerHead = s.LaborCost.Div(decimal.NewFromInt(int64(s.Headcount))).Round(0)
	}
	if hoursN > 0 {
		s.AvgWorkingHours = hoursSum.Div(decimal.NewFromInt(int64(hoursN))).Round(1)
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
