package analytics_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/hr-dashboard/analytics"
)

func fullPayroll() analytics.Payroll {
	p := analytics.Payroll{OrgID: "A", Period: mar2024}
	for i, c := range analytics.Components() {
		p.SetComponent(c, dec(int64(1000*(i+1))))
	}
	return p
}

func TestTotalLaborCost_SumsAllThirteenComponents(t *testing.T) {
	p := fullPayroll()

	// 1000 * (1 + 2 + ... + 13)
	assertDecimal(t, dec(91000), analytics.TotalLaborCost(p))
	assert.Len(t, analytics.Components(), 13)
}

func TestTotalLaborCost_ZeroingOneComponent(t *testing.T) {
	for _, c := range analytics.Components() {
		p := fullPayroll()
		before := analytics.TotalLaborCost(p)
		original := p.Component(c)

		p.SetComponent(c, decimal.Zero)

		assertDecimal(t, before.Sub(original), analytics.TotalLaborCost(p), "component "+c.Key())
	}
}

func TestTotalLaborCost_MissingFieldsAreZero(t *testing.T) {
	p := analytics.Payroll{OrgID: "A", BasePay: dec(500)}
	assertDecimal(t, dec(500), analytics.TotalLaborCost(p))
	assertDecimal(t, decimal.Zero, analytics.TotalLaborCost(analytics.Payroll{}))
}

func TestComponentByKey(t *testing.T) {
	c, ok := analytics.ComponentByKey("holiday_work_pay")
	assert.True(t, ok)
	assert.Equal(t, analytics.ComponentHolidayWorkPay, c)
	assert.Equal(t, "Holiday Work Pay", c.Label())

	_, ok = analytics.ComponentByKey("bonus")
	assert.False(t, ok)
}

func TestOvertime_TotalFollowsEdits(t *testing.T) {
	// GIVEN: 10 weekday + 5 holiday hours
	a := att("A", mar2024, 10, 5)
	assertDecimal(t, dec(15), a.TotalOvertimeHours())

	// WHEN: weekday hours are edited to 15
	a.SetWeekdayOvertime(dec(15))

	// THEN: the total is 20 in the same operation
	assertDecimal(t, dec(20), a.TotalOvertimeHours())
	assertDecimal(t, dec(20), analytics.TotalOvertimeHours(a))

	a.SetHolidayOvertime(dec(0))
	assertDecimal(t, dec(15), a.TotalOvertimeHours())
}

func TestMerge_AdditiveFields(t *testing.T) {
	h := hc("A", mar2024, 10).Add(hc("A", mar2024, 5))
	assert.Equal(t, 15, h.Total)
	assert.Equal(t, "A", h.OrgID)

	p := pay("A", mar2024, 100).Add(pay("A", mar2024, 50))
	assertDecimal(t, dec(150), p.BasePay)

	first := att("A", mar2024, 1, 2)
	second := att("A", mar2024, 3, 4)
	second.AvgWorkingHours = dec(160)
	second.AttendanceIssues = 2
	a := first.Add(second)
	assertDecimal(t, dec(10), a.TotalOvertimeHours())
	assertDecimal(t, decimal.RequireFromString("174.5"), a.AvgWorkingHours, "average hours are not summed")
	assert.Equal(t, 2, a.AttendanceIssues)
}
