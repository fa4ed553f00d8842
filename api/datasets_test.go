package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-dashboard/config"
)

func TestDatasets_Find(t *testing.T) {
	seed, err := config.DefaultSeed()
	require.NoError(t, err)
	ds := NewDatasets(seed)

	def, ok := ds.Find("")
	require.True(t, ok)
	assert.Equal(t, DefaultDatasetID, def.ID)

	_, ok = ds.Find("nope")
	assert.False(t, ok)

	for _, d := range ds.List() {
		orgs, _, err := d.Load()
		require.NoError(t, err, d.ID)
		assert.NotEmpty(t, orgs, d.ID)
	}
}

func TestListDatasets(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/datasets", "")

	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]DatasetDTO](t, rec)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"default", "deep-hierarchy", "roster-only"},
		[]string{list[0].ID, list[1].ID, list[2].ID})
}

func TestResetDataset_DeepHierarchy(t *testing.T) {
	s := newTestServer(t, nil)

	// WHEN: the deep hierarchy is loaded
	rec := s.do(t, http.MethodPost, "/api/datasets/reset", `{"dataset_id": "deep-hierarchy"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: the part three hops below MS_HQ is outside every unit
	rec = s.do(t, http.MethodGet, "/api/unattributed", "")
	resp := decode[UnattributedResponse](t, rec)
	require.Len(t, resp.Organizations, 1)
	assert.Equal(t, deepPartID, resp.Organizations[0].ID)

	// AND: its headcount is in the KPIs but not in the MS rollup
	rec = s.do(t, http.MethodGet, "/api/summary", "")
	assert.Equal(t, seedHeadcount+3, decode[SummaryDTO](t, rec).Headcount)
	rec = s.do(t, http.MethodGet, "/api/reporting-units", "")
	assert.Equal(t, 44, unitByID(t, decode[ReportingUnitsResponse](t, rec), "MS_HQ").Headcount)
}

func TestResetDataset_RestoresDefault(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/datasets/reset", `{"dataset_id": "roster-only"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/summary", "")
	assert.Equal(t, 0, decode[SummaryDTO](t, rec).Headcount)

	// WHEN: reset is called without a body
	rec = s.do(t, http.MethodPost, "/api/datasets/reset", "")

	// THEN: the default dataset is back
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, DefaultDatasetID, decode[DatasetDTO](t, rec).ID)
	rec = s.do(t, http.MethodGet, "/api/summary", "")
	assert.Equal(t, seedHeadcount, decode[SummaryDTO](t, rec).Headcount)

	rec = s.do(t, http.MethodPost, "/api/datasets/reset", `{"dataset_id": "nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
