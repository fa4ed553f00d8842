package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-dashboard/analytics"
	"github.com/warp/hr-dashboard/analytics/store"
)

var (
	mar = analytics.MustPeriod(2024, time.March)
	apr = analytics.MustPeriod(2024, time.April)
)

func TestMemory_ReplaceLeavesOtherPeriodsUntouched(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	marRecs := []analytics.Headcount{{OrgID: "A", Period: mar, Total: 10}, {OrgID: "B", Period: mar, Total: 3}}
	require.NoError(t, m.ReplaceHeadcount(ctx, mar, marRecs))
	require.NoError(t, m.ReplaceHeadcount(ctx, apr, []analytics.Headcount{{OrgID: "A", Period: apr, Total: 1}}))

	// WHEN: April is replaced
	require.NoError(t, m.ReplaceHeadcount(ctx, apr, []analytics.Headcount{{OrgID: "C", Period: apr, Total: 7}}))

	// THEN: March is unchanged and April holds only the new set
	got, err := m.HeadcountFor(ctx, mar)
	require.NoError(t, err)
	assert.Equal(t, marRecs, got)

	got, err = m.HeadcountFor(ctx, apr)
	require.NoError(t, err)
	assert.Equal(t, []analytics.Headcount{{OrgID: "C", Period: apr, Total: 7}}, got)

	all, err := m.Headcount(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemory_ReturnedSlicesAreCopies(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.ReplaceOrganizations(ctx, []analytics.Organization{{ID: "A", Level: analytics.LevelTeam}}))
	require.NoError(t, m.ReplaceAttendance(ctx, mar, []analytics.Attendance{{OrgID: "A", Period: mar, AttendanceIssues: 1}}))

	orgs, _ := m.Organizations(ctx)
	orgs[0].ID = "mutated"
	recs, _ := m.Attendance(ctx)
	recs[0].AttendanceIssues = 99

	orgs, _ = m.Organizations(ctx)
	assert.Equal(t, "A", orgs[0].ID)
	recs, _ = m.AttendanceFor(ctx, mar)
	assert.Equal(t, 1, recs[0].AttendanceIssues)
}

func TestMemory_DuplicatesAreKept(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	dups := []analytics.Payroll{{OrgID: "A", Period: mar}, {OrgID: "A", Period: mar}}

	require.NoError(t, m.ReplacePayroll(ctx, mar, dups))

	got, err := m.PayrollFor(ctx, mar)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemory_Reset(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.ReplaceOrganizations(ctx, []analytics.Organization{{ID: "A"}}))
	require.NoError(t, m.ReplacePayroll(ctx, mar, []analytics.Payroll{{OrgID: "A", Period: mar}}))

	require.NoError(t, m.Reset(ctx))

	orgs, _ := m.Organizations(ctx)
	pr, _ := m.Payroll(ctx)
	assert.Empty(t, orgs)
	assert.Empty(t, pr)
}
