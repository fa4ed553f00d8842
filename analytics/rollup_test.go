package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-dashboard/analytics"
)

// =============================================================================
// DESCENDANT RESOLUTION
// =============================================================================

func TestResolveDescendants_DepthBound(t *testing.T) {
	// GIVEN: HQ -> DIV -> TEAM -> SUBTEAM
	orgs := fourRankChart()

	// WHEN: resolving with the default two hops
	ids := analytics.ResolveDescendants(orgs, "HQ", analytics.DefaultMaxDepth)

	// THEN: TEAM is three ranks below HQ and included, SUBTEAM is not
	assert.Equal(t, []string{"HQ", "DIV", "TEAM"}, ids)
}

func TestResolveDescendants_DepthIsAParameter(t *testing.T) {
	orgs := fourRankChart()

	assert.Equal(t, []string{"HQ"}, analytics.ResolveDescendants(orgs, "HQ", 0))
	assert.Equal(t, []string{"HQ", "DIV"}, analytics.ResolveDescendants(orgs, "HQ", 1))
	assert.Equal(t, []string{"HQ", "DIV", "TEAM", "SUBTEAM"}, analytics.ResolveDescendants(orgs, "HQ", 3))
}

func TestResolveDescendants_SurvivesCycles(t *testing.T) {
	orgs := []analytics.Organization{
		org("HQ", "", analytics.LevelHeadquarters),
		org("A", "B", analytics.LevelTeam),
		org("B", "A", analytics.LevelTeam),
	}
	assert.Equal(t, []string{"HQ"}, analytics.ResolveDescendants(orgs, "HQ", 5))
}

func TestAttribute_ReportingUnitsAndUnattributed(t *testing.T) {
	rules := analytics.DefaultRules()

	a := rules.Attribute(fourRankChart())

	require.Len(t, a.Units, 2)
	assert.Equal(t, "EXE", a.Units[0].ID, "executive unit is a reporting unit of its own")
	assert.Equal(t, "HQ", a.Units[1].ID)
	assert.Equal(t, []string{"EXE"}, a.Members["EXE"])
	assert.Equal(t, []string{"HQ", "DIV", "TEAM"}, a.Members["HQ"])
	assert.Equal(t, []string{"SUBTEAM"}, a.Unattributed)
	assert.Equal(t, []string{"HQ"}, a.UnitsOf("TEAM"))
	assert.Empty(t, a.UnitsOf("SUBTEAM"))
}

func TestAttribute_ProductionTeamsExcluded(t *testing.T) {
	orgs := []analytics.Organization{
		org("PD_HQ", "", analytics.LevelHeadquarters),
		org("PD_TEAM_1", "PD_HQ", analytics.LevelTeam),
		org("PD_TEAM_PLAN", "PD_HQ", analytics.LevelTeam),
	}
	rules := analytics.DefaultRules()
	rules.ProductionTeams = []string{"PD_TEAM_1"}

	a := rules.Attribute(orgs)
	assert.Equal(t, []string{"PD_HQ", "PD_TEAM_PLAN"}, a.Members["PD_HQ"])
	assert.Empty(t, a.Unattributed, "production teams are reported separately, not flagged")

	rules.ExcludeProductionTeams = false
	a = rules.Attribute(orgs)
	assert.Equal(t, []string{"PD_HQ", "PD_TEAM_1", "PD_TEAM_PLAN"}, a.Members["PD_HQ"])
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestAggregate_SumsDescendantSet(t *testing.T) {
	orgs := []analytics.Organization{
		org("HQ", "", analytics.LevelHeadquarters),
		org("A", "HQ", analytics.LevelDivision),
		org("B", "A", analytics.LevelTeam),
	}
	rules := analytics.DefaultRules()
	recs := analytics.Records{
		Headcount: []analytics.Headcount{hc("A", mar2024, 10), hc("B", mar2024, 15), hc("A", feb2024, 100)},
		Payroll:   []analytics.Payroll{pay("A", mar2024, 1000), pay("B", mar2024, 500)},
		Attendance: []analytics.Attendance{
			att("A", mar2024, 30, 10),
			att("B", mar2024, 20, 5),
		},
	}
	recs.Payroll[0].OvertimeWorkPay = dec(70)
	recs.Payroll[1].HolidayWorkPay = dec(30)

	r := rules.Aggregate(rules.Attribute(orgs), mar2024, recs)

	u, ok := r.Unit("HQ")
	require.True(t, ok)
	assert.Equal(t, 25, u.Headcount)
	assertDecimal(t, dec(1600), u.LaborCost)
	assertDecimal(t, dec(50), u.WeekdayOvertime)
	assertDecimal(t, dec(15), u.HolidayOvertime)
	assertDecimal(t, dec(70), u.OvertimePay)
	assertDecimal(t, dec(30), u.HolidayPay)
	assert.Equal(t, analytics.StatusNormal, u.Status)
	assert.Equal(t, 25, r.Total.Headcount)
}

func TestAggregate_EmptyUnitIsZeroNotAbsent(t *testing.T) {
	rules := analytics.DefaultRules()
	r := rules.Aggregate(rules.Attribute(fourRankChart()), apr2024, analytics.Records{})

	require.Len(t, r.Units, 2)
	for _, u := range r.Units {
		assert.Equal(t, 0, u.Headcount)
		assert.True(t, u.LaborCost.IsZero())
		assert.Equal(t, analytics.StatusNormal, u.Status)
	}
}

func TestAggregate_DeepTeamExcludedFromEveryUnit(t *testing.T) {
	rules := analytics.DefaultRules()
	recs := analytics.Records{Headcount: []analytics.Headcount{hc("TEAM", mar2024, 4), hc("SUBTEAM", mar2024, 50)}}

	r := rules.Aggregate(rules.Attribute(fourRankChart()), mar2024, recs)

	u, _ := r.Unit("HQ")
	assert.Equal(t, 4, u.Headcount)
	assert.Equal(t, 4, r.Total.Headcount)
}

func TestStatus_ThresholdAndOverrides(t *testing.T) {
	rules := analytics.DefaultRules()

	assert.Equal(t, analytics.StatusNormal, rules.Status("HQ", dec(400)), "threshold is exclusive")
	assert.Equal(t, analytics.StatusAttention, rules.Status("HQ", dec(401)))

	rules.AttentionOverrides = []string{"PD_HQ"}
	assert.Equal(t, analytics.StatusAttention, rules.Status("PD_HQ", dec(0)))
	assert.Equal(t, analytics.StatusNormal, rules.Status("HQ", dec(0)))
}

func TestAggregate_StatusFromCombinedOvertime(t *testing.T) {
	orgs := []analytics.Organization{org("HQ", "", analytics.LevelHeadquarters), org("A", "HQ", analytics.LevelDivision)}
	rules := analytics.DefaultRules()
	recs := analytics.Records{Attendance: []analytics.Attendance{att("HQ", mar2024, 300, 0), att("A", mar2024, 50, 60)}}

	r := rules.Aggregate(rules.Attribute(orgs), mar2024, recs)

	u, _ := r.Unit("HQ")
	assertDecimal(t, dec(410), u.TotalOvertime())
	assert.Equal(t, analytics.StatusAttention, u.Status)
}

// =============================================================================
// COMPARISONS & SUMMARY
// =============================================================================

func TestCompareUnits_ThreePeriods(t *testing.T) {
	orgs := fourRankChart()
	rules := analytics.DefaultRules()
	attr := rules.Attribute(orgs)
	recs := analytics.Records{Attendance: []analytics.Attendance{
		att("TEAM", mar2023, 1, 1),
		att("TEAM", feb2024, 2, 2),
		att("DIV", mar2024, 3, 3),
		att("TEAM", mar2024, 4, 4),
	}}

	cmp := analytics.CompareUnits(
		rules.Aggregate(attr, mar2023, recs),
		rules.Aggregate(attr, feb2024, recs),
		rules.Aggregate(attr, mar2024, recs),
	)

	require.Len(t, cmp, 2)
	hq := cmp[1]
	assert.Equal(t, "HQ", hq.Org.ID)
	assertDecimal(t, dec(2), hq.PreviousYear)
	assertDecimal(t, dec(4), hq.PreviousMonth)
	assertDecimal(t, dec(14), hq.Current)
}

func TestCompareProduction(t *testing.T) {
	orgs := []analytics.Organization{
		org("PD_HQ", "", analytics.LevelHeadquarters),
		org("PD_TEAM_2", "PD_HQ", analytics.LevelTeam),
		org("PD_TEAM_1", "PD_HQ", analytics.LevelTeam),
	}
	rules := analytics.DefaultRules()
	rules.ProductionTeams = []string{"PD_TEAM_1", "PD_TEAM_2", "PD_TEAM_9"}
	attendance := []analytics.Attendance{
		att("PD_TEAM_1", mar2023, 10, 0),
		att("PD_TEAM_1", mar2024, 20, 5),
		att("PD_TEAM_2", feb2024, 7, 0),
	}

	cmp := rules.CompareProduction(orgs, mar2024, attendance)

	require.Len(t, cmp, 2, "teams missing from the roster are skipped")
	assert.Equal(t, "PD_TEAM_2", cmp[0].Org.ID)
	assertDecimal(t, dec(7), cmp[0].PreviousMonth)
	assertDecimal(t, dec(10), cmp[1].PreviousYear)
	assertDecimal(t, dec(25), cmp[1].Current)
}

func TestSummarize(t *testing.T) {
	recs := analytics.Records{
		Headcount:  []analytics.Headcount{hc("A", mar2024, 3), hc("SUBTEAM", mar2024, 1), hc("A", feb2024, 50)},
		Payroll:    []analytics.Payroll{pay("A", mar2024, 3000), pay("SUBTEAM", mar2024, 1001)},
		Attendance: []analytics.Attendance{att("A", mar2024, 1, 2), {OrgID: "B", Period: mar2024}},
	}

	s := analytics.Summarize(mar2024, recs)

	assert.Equal(t, 4, s.Headcount, "unattributed records still count in KPIs")
	assertDecimal(t, dec(4001), s.LaborCost)
	assertDecimal(t, dec(1000), s.AvgWagePerHead)
	assertDecimal(t, dec(3), s.TotalOvertime())
	assert.Equal(t, "174.5", s.AvgWorkingHours.String(), "zero averages are ignored")

	empty := analytics.Summarize(apr2024, recs)
	assert.True(t, empty.AvgWagePerHead.IsZero())
}
