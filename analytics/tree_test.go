package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-dashboard/analytics"
)

// collect returns every org ID reachable from the roots, with the number of
// times each was visited.
func collect(tree *analytics.Tree) map[string]int {
	seen := make(map[string]int)
	tree.Walk(func(n analytics.Node, _ int) bool {
		seen[n.ID]++
		return true
	})
	return seen
}

func TestBuildTree_EveryOrganizationExactlyOnce(t *testing.T) {
	orgs := fourRankChart()

	tree := analytics.BuildTree(orgs, mar2024, analytics.Records{})

	seen := collect(tree)
	require.Len(t, seen, len(orgs))
	for _, o := range orgs {
		assert.Equal(t, 1, seen[o.ID], "org %s", o.ID)
	}
	assert.Equal(t, []string{"EXE", "HQ"}, tree.Roots)

	for _, o := range orgs {
		n, ok := tree.Node(o.ID)
		require.True(t, ok)
		isRoot := n.Parent == ""
		assert.Equal(t, isRoot, contains(tree.Roots, o.ID), "org %s is root xor child", o.ID)
	}
}

func TestBuildTree_ChildrenInRosterOrder(t *testing.T) {
	orgs := []analytics.Organization{
		org("HQ", "", analytics.LevelHeadquarters),
		org("B", "HQ", analytics.LevelDivision),
		org("A", "HQ", analytics.LevelDivision),
		org("C", "HQ", analytics.LevelDivision),
	}

	tree := analytics.BuildTree(orgs, mar2024, analytics.Records{})

	hq, _ := tree.Node("HQ")
	assert.Equal(t, []string{"B", "A", "C"}, hq.Children)

	kids := tree.Children("HQ")
	require.Len(t, kids, 3)
	assert.Equal(t, "B", kids[0].ID)
}

func TestBuildTree_DanglingParentBecomesRoot(t *testing.T) {
	orgs := []analytics.Organization{
		org("HQ", "", analytics.LevelHeadquarters),
		org("ORPHAN", "GONE", analytics.LevelTeam),
	}

	tree := analytics.BuildTree(orgs, mar2024, analytics.Records{})

	assert.Equal(t, []string{"HQ", "ORPHAN"}, tree.Roots)
	n, _ := tree.Node("ORPHAN")
	assert.Equal(t, "", n.Parent)
	assert.Equal(t, "GONE", n.ParentID, "the raw link is preserved")
}

func TestBuildTree_MissingMetricsDefaultToZero(t *testing.T) {
	orgs := fourRankChart()
	recs := analytics.Records{
		Headcount: []analytics.Headcount{hc("TEAM", mar2024, 7), hc("HQ", feb2024, 99)},
	}

	tree := analytics.BuildTree(orgs, mar2024, recs)

	team, _ := tree.Node("TEAM")
	assert.Equal(t, 7, team.Metrics.Headcount.Total)

	hq, _ := tree.Node("HQ")
	assert.Equal(t, analytics.ZeroMetrics("HQ", mar2024), hq.Metrics, "other periods are ignored")
	assert.Equal(t, mar2024, hq.Metrics.Payroll.Period)
	assert.Equal(t, analytics.CurrencyKRW, hq.Metrics.Payroll.Currency)
}

func TestBuildTree_DuplicateRecordsAreMerged(t *testing.T) {
	orgs := fourRankChart()
	recs := analytics.Records{
		Headcount:  []analytics.Headcount{hc("DIV", mar2024, 3), hc("DIV", mar2024, 4)},
		Attendance: []analytics.Attendance{att("DIV", mar2024, 10, 0), att("DIV", mar2024, 5, 5)},
	}

	tree := analytics.BuildTree(orgs, mar2024, recs)

	div, _ := tree.Node("DIV")
	assert.Equal(t, 7, div.Metrics.Headcount.Total)
	assertDecimal(t, dec(20), div.Metrics.Attendance.TotalOvertimeHours())
}

func TestBuildTree_DuplicateOrganizationsKeepFirst(t *testing.T) {
	orgs := []analytics.Organization{
		org("HQ", "", analytics.LevelHeadquarters),
		org("HQ", "", analytics.LevelDivision),
	}

	tree := analytics.BuildTree(orgs, mar2024, analytics.Records{})

	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, []string{"HQ"}, tree.Duplicates)
	n, _ := tree.Node("HQ")
	assert.Equal(t, analytics.LevelHeadquarters, n.Level)
}

func TestBuildTree_CycleIsBroken(t *testing.T) {
	// GIVEN: A -> B -> C -> A plus a child D under C
	orgs := []analytics.Organization{
		org("B", "A", analytics.LevelDivision),
		org("A", "C", analytics.LevelHeadquarters),
		org("C", "B", analytics.LevelTeam),
		org("D", "C", analytics.LevelTeam),
	}

	tree := analytics.BuildTree(orgs, mar2024, analytics.Records{})

	// THEN: the first cycle member in roster order loses its parent link
	assert.Equal(t, []string{"B"}, tree.Detached)
	assert.Equal(t, []string{"B"}, tree.Roots)
	seen := collect(tree)
	assert.Len(t, seen, 4)
	for id, n := range seen {
		assert.Equal(t, 1, n, "org %s", id)
	}
}

func TestBuildTree_SelfParentIsRoot(t *testing.T) {
	tree := analytics.BuildTree([]analytics.Organization{org("X", "X", analytics.LevelTeam)}, mar2024, analytics.Records{})
	assert.Equal(t, []string{"X"}, tree.Roots)
}

func TestTree_WalkCanSkipSubtrees(t *testing.T) {
	tree := analytics.BuildTree(fourRankChart(), mar2024, analytics.Records{})

	var visited []string
	tree.Walk(func(n analytics.Node, depth int) bool {
		visited = append(visited, n.ID)
		return depth < 1
	})

	assert.Equal(t, []string{"EXE", "HQ", "DIV"}, visited)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
