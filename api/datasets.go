/*
datasets.go - Demo dataset loaders for testing and demonstrations

PURPOSE:

	Provides pre-built datasets that repopulate the dashboard with realistic
	data. Each dataset is derived from the seed so the roster and figures
	stay consistent across them.

AVAILABLE DATASETS:

	default:        The seed roster with three periods of records
	deep-hierarchy: The seed plus a part three levels below its HQ, which
	                no reporting unit picks up with the default depth
	roster-only:    The seed roster without any records

USAGE VIA API:

	GET  /api/datasets
	POST /api/datasets/reset
	{"dataset_id": "deep-hierarchy"}

NOTE:

	A reset replaces every organization and record. The selected period is
	kept.

SEE ALSO:
  - handlers.go: ListDatasets, ResetDataset handlers
  - config/seed.yaml: the seed definition
*/
package api

import (
	"fmt"

	"github.com/warp/hr-dashboard/analytics"
	"github.com/warp/hr-dashboard/config"
)

// DefaultDatasetID is loaded when a reset names no dataset.
const DefaultDatasetID = "default"

// Dataset is a named, loadable roster and record set.
type Dataset struct {
	ID          string
	Name        string
	Description string
	Load        func() ([]analytics.Organization, analytics.Records, error)
}

// =============================================================================
// DATASET DEFINITIONS
// =============================================================================

// Datasets is the catalog served by the datasets endpoints.
type Datasets struct {
	list []Dataset
}

// NewDatasets builds the catalog around a seed.
func NewDatasets(seed config.Seed) *Datasets {
	return &Datasets{list: []Dataset{
		{
			ID:          DefaultDatasetID,
			Name:        "Default",
			Description: "Seed roster with headcount, payroll and attendance for every seeded period",
			Load:        seed.Dataset,
		},
		{
			ID:          "deep-hierarchy",
			Name:        "Deep Hierarchy",
			Description: "Adds a part three levels below Management Support HQ that no reporting unit covers",
			Load:        func() ([]analytics.Organization, analytics.Records, error) { return loadDeepHierarchy(seed) },
		},
		{
			ID:          "roster-only",
			Name:        "Roster Only",
			Description: "Seed roster without records; every node carries zero metrics",
			Load: func() ([]analytics.Organization, analytics.Records, error) {
				orgs, _, err := seed.Dataset()
				return orgs, analytics.Records{}, err
			},
		},
	}}
}

// List returns the catalog in display order.
func (d *Datasets) List() []Dataset {
	return d.list
}

// Find returns the dataset with the given ID; "" selects the default.
func (d *Datasets) Find(id string) (Dataset, bool) {
	if id == "" {
		id = DefaultDatasetID
	}
	for _, ds := range d.list {
		if ds.ID == id {
			return ds, true
		}
	}
	return Dataset{}, false
}

// deepPartID sits under MS_TEAM_HR, three hops from MS_HQ.
const deepPartID = "MS_PART_RECRUIT"

func loadDeepHierarchy(seed config.Seed) ([]analytics.Organization, analytics.Records, error) {
	orgs, recs, err := seed.Dataset()
	if err != nil {
		return nil, analytics.Records{}, err
	}
	selected, err := seed.SelectedPeriod()
	if err != nil {
		return nil, analytics.Records{}, err
	}

	parent := -1
	for i, o := range orgs {
		if o.ID == "MS_TEAM_HR" {
			parent = i
			break
		}
	}
	if parent < 0 {
		return nil, analytics.Records{}, fmt.Errorf("%w: MS_TEAM_HR", analytics.ErrOrganizationNotFound)
	}

	orgs = append(orgs, analytics.Organization{
		ID:       deepPartID,
		Name:     "Recruiting Part",
		ParentID: orgs[parent].ID,
		Level:    analytics.LevelTeam,
		Manager:  orgs[parent].Manager,
		Location: orgs[parent].Location,
	})
	recs.Headcount = append(recs.Headcount, analytics.Headcount{
		OrgID:   deepPartID,
		Period:  selected,
		Total:   3,
		Regular: 3,
	})
	return orgs, recs, nil
}
