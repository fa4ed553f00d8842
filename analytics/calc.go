package analytics

import "github.com/shopspring/decimal"

// =============================================================================
// PAYROLL COMPONENTS
// =============================================================================

// Component names one of the thirteen compensation fields. The order of the
// constants is the positional order used by CSV import and export.
type Component int

const (
	ComponentBasePay Component = iota
	ComponentBasePayRetro
	ComponentFixedOvertime
	ComponentRankAllowance
	ComponentMealAllowance
	ComponentPositionAllowance
	ComponentChildcareAllowance
	ComponentHolidayWorkPay
	ComponentOvertimeWorkPay
	ComponentOtherAllowance
	ComponentCertAllowance
	ComponentAnnualLeavePay
	ComponentIncentive

	componentCount
)

// Components returns all components in canonical order.
func Components() []Component {
	out := make([]Component, componentCount)
	for i := range out {
		out[i] = Component(i)
	}
	return out
}

var componentKeys = [componentCount]string{
	"base_pay",
	"base_pay_retro",
	"fixed_overtime",
	"rank_allowance",
	"meal_allowance",
	"position_allowance",
	"childcare_allowance",
	"holiday_work_pay",
	"overtime_work_pay",
	"other_allowance",
	"cert_allowance",
	"annual_leave_pay",
	"incentive",
}

var componentLabels = [componentCount]string{
	"Base Pay",
	"Base Pay (Retroactive)",
	"Fixed Overtime Allowance",
	"Rank Allowance",
	"Meal Allowance",
	"Position Allowance",
	"Childcare Allowance",
	"Holiday Work Pay",
	"Overtime Work Pay",
	"Other Allowance",
	"Certification Allowance",
	"Annual Leave Pay",
	"Incentive",
}

// Key is the snake_case identifier used in configuration and JSON.
func (c Component) Key() string { return componentKeys[c] }

// Label is the human readable column header.
func (c Component) Label() string { return componentLabels[c] }

// ComponentByKey looks up a component by its Key.
func ComponentByKey(key string) (Component, bool) {
	for i, k := range componentKeys {
		if k == key {
			return Component(i), true
		}
	}
	return 0, false
}

func (p *Payroll) field(c Component) *decimal.Decimal {
	switch c {
	case ComponentBasePay:
		return &p.BasePay
	case ComponentBasePayRetro:
		return &p.BasePayRetro
	case ComponentFixedOvertime:
		return &p.FixedOvertime
	case ComponentRankAllowance:
		return &p.RankAllowance
	case ComponentMealAllowance:
		return &p.MealAllowance
	case ComponentPositionAllowance:
		return &p.PositionAllowance
	case ComponentChildcareAllowance:
		return &p.ChildcareAllowance
	case ComponentHolidayWorkPay:
		return &p.HolidayWorkPay
	case ComponentOvertimeWorkPay:
		return &p.OvertimeWorkPay
	case ComponentOtherAllowance:
		return &p.OtherAllowance
	case ComponentCertAllowance:
		return &p.CertAllowance
	case ComponentAnnualLeavePay:
		return &p.AnnualLeavePay
	case ComponentIncentive:
		return &p.Incentive
	}
	panic("analytics: unknown payroll component")
}

// Component returns the value of one compensation field.
func (p Payroll) Component(c Component) decimal.Decimal { return *p.field(c) }

// SetComponent overwrites one compensation field.
func (p *Payroll) SetComponent(c Component, v decimal.Decimal) { *p.field(c) = v }

// =============================================================================
// CALCULATORS
// =============================================================================

// TotalLaborCost is the sum of all thirteen compensation components.
func TotalLaborCost(p Payroll) decimal.Decimal {
	total := decimal.Zero
	for _, c := range Components() {
		total = total.Add(p.Component(c))
	}
	return total
}

// TotalOvertimeHours is weekday plus holiday overtime.
func TotalOvertimeHours(a Attendance) decimal.Decimal {
	return a.WeekdayOvertimeHours.Add(a.HolidayOvertimeHours)
}

// =============================================================================
// MERGING DUPLICATES
// =============================================================================
// Bulk loads may carry more than one record per (org, period). Every consumer
// merges them the same way the aggregator does: additive fields are summed.

// Add sums two headcount records. Identity fields come from h.
func (h Headcount) Add(o Headcount) Headcount {
	h.Total += o.Total
	h.Regular += o.Regular
	h.Contract += o.Contract
	h.Executive += o.Executive
	h.NewHires += o.NewHires
	h.Resignations += o.Resignations
	return h
}

// Add sums two payroll records component by component.
func (p Payroll) Add(o Payroll) Payroll {
	for _, c := range Components() {
		p.SetComponent(c, p.Component(c).Add(o.Component(c)))
	}
	return p
}

// Add sums overtime hours and issue counts. Average working hours is not
// additive; the value from a is kept unless it is zero.
func (a Attendance) Add(o Attendance) Attendance {
	a.WeekdayOvertimeHours = a.WeekdayOvertimeHours.Add(o.WeekdayOvertimeHours)
	a.HolidayOvertimeHours = a.HolidayOvertimeHours.Add(o.HolidayOvertimeHours)
	a.AttendanceIssues += o.AttendanceIssues
	if a.AvgWorkingHours.IsZero() {
		a.AvgWorkingHours = o.AvgWorkingHours
	}
	return a
}
