package insight_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-dashboard/analytics"
	"github.com/warp/hr-dashboard/insight"
)

var mar = analytics.MustPeriod(2024, time.March)

func sampleInput() insight.Input {
	pay := analytics.Payroll{OrgID: "A", Period: mar}
	for _, c := range analytics.Components() {
		pay.SetComponent(c, decimal.NewFromInt(1000))
	}
	return insight.Input{
		Period: mar,
		Organizations: []analytics.Organization{
			{ID: "HQ", Name: "Headquarters", Level: analytics.LevelHeadquarters},
			{ID: "A", Name: "Team A", ParentID: "HQ", Level: analytics.LevelTeam},
		},
		Headcount: []analytics.Headcount{{OrgID: "HQ", Total: 3, Regular: 3}, {OrgID: "A", Total: 4, Contract: 1}},
		Payroll:   []analytics.Payroll{pay},
	}
}

// =============================================================================
// PROMPT
// =============================================================================

func TestBuildPrompt_SummarizesAllComponents(t *testing.T) {
	prompt := insight.BuildPrompt(sampleInput())

	assert.Contains(t, prompt, "Organizations: 2")
	assert.Contains(t, prompt, "Total headcount: 7")
	assert.Contains(t, prompt, "Total labor cost: 13000", "all thirteen components are counted")
	assert.Contains(t, prompt, `"incentive":"1000"`)
	assert.Contains(t, prompt, "(2024-03)")
}

// =============================================================================
// CLIENT
// =============================================================================

func TestClient_Generate(t *testing.T) {
	var gotKey, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Workforce "},{"text":"is balanced."}]}}]}`))
	}))
	defer srv.Close()

	c := insight.NewClient(srv.URL+"/", "test-model", "secret", time.Second)
	text, err := c.Generate(context.Background(), sampleInput())

	require.NoError(t, err)
	assert.Equal(t, "Workforce is balanced.", text)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "/v1beta/models/test-model:generateContent", gotPath)
	assert.Contains(t, gotBody, "contents")
}

func TestClient_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		c := insight.NewClient("http://127.0.0.1:1", "m", "", time.Second)
		_, err := c.Generate(context.Background(), sampleInput())
		assert.ErrorIs(t, err, insight.ErrMissingAPIKey)
	})

	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := insight.NewClient(srv.URL, "m", "k", time.Second).Generate(context.Background(), sampleInput())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("no candidates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[]}`))
		}))
		defer srv.Close()

		_, err := insight.NewClient(srv.URL, "m", "k", time.Second).Generate(context.Background(), sampleInput())
		assert.ErrorIs(t, err, insight.ErrEmptyResponse)
	})
}

// =============================================================================
// RUNNER
// =============================================================================

func waitFinished(t *testing.T, r *insight.Runner, id string) insight.Task {
	t.Helper()
	var task insight.Task
	require.Eventually(t, func() bool {
		got, err := r.Get(id)
		if err != nil {
			return false
		}
		task = got
		return got.State != insight.StatePending
	}, 2*time.Second, 5*time.Millisecond)
	return task
}

func TestRunner_Succeeds(t *testing.T) {
	release := make(chan struct{})
	gen := insight.GeneratorFunc(func(ctx context.Context, in insight.Input) (string, error) {
		<-release
		return "insight for " + in.Period.String(), nil
	})
	r := insight.NewRunner(gen, time.Second, nil)
	defer r.Close()

	var finished atomic.Int32
	r.OnFinish = func(insight.State) { finished.Add(1) }

	started := r.Start(sampleInput())
	assert.Equal(t, insight.StatePending, started.State)
	assert.Equal(t, "2024-03", started.Period)

	close(release)
	task := waitFinished(t, r, started.ID)
	assert.Equal(t, insight.StateSucceeded, task.State)
	assert.Equal(t, "insight for 2024-03", task.Text)
	assert.NotNil(t, task.FinishedAt)
	assert.Equal(t, int32(1), finished.Load())
}

func TestRunner_FailureYieldsFixedMessage(t *testing.T) {
	gen := insight.GeneratorFunc(func(context.Context, insight.Input) (string, error) {
		return "", errors.New("boom")
	})
	r := insight.NewRunner(gen, time.Second, nil)
	defer r.Close()

	task := waitFinished(t, r, r.Start(sampleInput()).ID)
	assert.Equal(t, insight.StateFailed, task.State)
	assert.Equal(t, insight.FailureMessage, task.Text)
}

func TestRunner_TimeoutFailsTask(t *testing.T) {
	gen := insight.GeneratorFunc(func(ctx context.Context, _ insight.Input) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := insight.NewRunner(gen, 20*time.Millisecond, nil)
	defer r.Close()

	task := waitFinished(t, r, r.Start(sampleInput()).ID)
	assert.Equal(t, insight.StateFailed, task.State)
}

func TestRunner_CloseCancelsPending(t *testing.T) {
	gen := insight.GeneratorFunc(func(ctx context.Context, _ insight.Input) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := insight.NewRunner(gen, time.Hour, nil)
	id := r.Start(sampleInput()).ID

	r.Close()

	task, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, insight.StateFailed, task.State)
}

func TestRunner_UnknownTask(t *testing.T) {
	r := insight.NewRunner(insight.GeneratorFunc(func(context.Context, insight.Input) (string, error) {
		return "", nil
	}), time.Second, nil)
	defer r.Close()

	_, err := r.Get("nope")
	assert.ErrorIs(t, err, insight.ErrTaskNotFound)
	assert.True(t, strings.Contains(err.Error(), "nope"))
}
