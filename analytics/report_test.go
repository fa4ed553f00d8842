package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-dashboard/analytics"
)

func ids(orgs []analytics.Organization) []string {
	out := make([]string, len(orgs))
	for i, o := range orgs {
		out[i] = o.ID
	}
	return out
}

func TestOrderByPrefix(t *testing.T) {
	orgs := []analytics.Organization{
		org("PD_HQ", "", analytics.LevelHeadquarters),
		org("ZZ_MISC", "", analytics.LevelTeam),
		org("MS_TEAM_HR", "MS_HQ", analytics.LevelTeam),
		org("EXE", "", analytics.LevelExecutive),
		org("MS_HQ", "", analytics.LevelHeadquarters),
	}

	got := analytics.OrderByPrefix(orgs, analytics.DefaultReportOrder)

	assert.Equal(t, []string{"EXE", "MS_TEAM_HR", "MS_HQ", "PD_HQ", "ZZ_MISC"}, ids(got))
	assert.Equal(t, "PD_HQ", orgs[0].ID, "input is not reordered")
}

func TestAttendanceReport(t *testing.T) {
	rules := analytics.DefaultRules()
	rules.ProductionTeams = []string{"PD_TEAM_1"}
	orgs := []analytics.Organization{
		org("PD_HQ", "", analytics.LevelHeadquarters),
		org("PD_TEAM_1", "PD_HQ", analytics.LevelTeam),
		org("MS_HQ", "", analytics.LevelHeadquarters),
		org("MS_NO_RECORD", "MS_HQ", analytics.LevelDivision),
	}
	recs := []analytics.Attendance{
		att("PD_TEAM_1", mar2024, 100, 10),
		att("PD_TEAM_1", mar2024, 5, 0),
		att("MS_HQ", mar2024, 1, 1),
		att("PD_HQ", feb2024, 1, 1),
	}

	rows := rules.AttendanceReport(orgs, mar2024, recs)

	require.Len(t, rows, 2, "organizations without a record in the period are skipped")
	assert.Equal(t, "MS_HQ", rows[0].Org.ID)
	assert.True(t, rows[0].ReportingUnit)
	assert.Equal(t, 0, rows[0].Depth)

	assert.Equal(t, "PD_TEAM_1", rows[1].Org.ID)
	assert.True(t, rows[1].Production)
	assert.Equal(t, 2, rows[1].Depth)
	assertDecimal(t, dec(115), rows[1].Attendance.TotalOvertimeHours())
}
