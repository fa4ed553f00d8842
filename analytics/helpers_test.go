package analytics_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/hr-dashboard/analytics"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	mar2024 = analytics.MustPeriod(2024, time.March)
	feb2024 = analytics.MustPeriod(2024, time.February)
	mar2023 = analytics.MustPeriod(2023, time.March)
	apr2024 = analytics.MustPeriod(2024, time.April)
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func org(id, parent string, level analytics.Level) analytics.Organization {
	return analytics.Organization{ID: id, Name: id + " name", ParentID: parent, Level: level}
}

func hc(id string, p analytics.Period, total int) analytics.Headcount {
	return analytics.Headcount{OrgID: id, Period: p, Total: total, Regular: total}
}

func att(id string, p analytics.Period, weekday, holiday int64) analytics.Attendance {
	return analytics.Attendance{
		OrgID:                id,
		Period:               p,
		AvgWorkingHours:      decimal.RequireFromString("174.5"),
		WeekdayOvertimeHours: dec(weekday),
		HolidayOvertimeHours: dec(holiday),
	}
}

func pay(id string, p analytics.Period, base int64) analytics.Payroll {
	return analytics.Payroll{OrgID: id, Period: p, BasePay: dec(base), Currency: analytics.CurrencyKRW}
}

// fourRankChart is HQ -> DIV -> TEAM -> SUBTEAM plus the executive unit.
func fourRankChart() []analytics.Organization {
	return []analytics.Organization{
		org("EXE", "", analytics.LevelExecutive),
		org("HQ", "", analytics.LevelHeadquarters),
		org("DIV", "HQ", analytics.LevelDivision),
		org("TEAM", "DIV", analytics.LevelTeam),
		org("SUBTEAM", "TEAM", analytics.LevelTeam),
	}
}

func assertDecimal(t *testing.T, want, got decimal.Decimal, context ...string) {
	t.Helper()
	assert.Truef(t, want.Equal(got), "want %s, got %s %v", want, got, context)
}
